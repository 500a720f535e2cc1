package remote

import (
	"time"

	"github.com/Veraticus/accusync/internal/model"
)

// ActiveStatus is the status value of designs in use on the remote master.
const ActiveStatus = "有効"

// DesignRecord is a row of the remote designs table.
type DesignRecord struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DesignNo   string `gorm:"column:design_no;size:255;uniqueIndex"`
	DesignName string `gorm:"column:design_name"`
	CaseType   string `gorm:"column:case_type"`
	DeviceName string `gorm:"column:device_name"`
	Brand      string `gorm:"column:brand"`
	Material   string `gorm:"column:material"`
	Status     string `gorm:"column:status;index"`
	ID         uint   `gorm:"primaryKey"`
}

// TableName overrides the gorm default.
func (DesignRecord) TableName() string { return "designs" }

// CatalogEntry converts the record to a local catalog entry.
func (r DesignRecord) CatalogEntry() model.CatalogEntry {
	status := model.CatalogInactive
	if r.Status == ActiveStatus {
		status = model.CatalogActive
	}
	return model.CatalogEntry{
		UpdatedAt:    r.UpdatedAt,
		DesignNumber: r.DesignNo,
		DesignName:   r.DesignName,
		ProductType:  r.CaseType,
		DeviceName:   r.DeviceName,
		Brand:        r.Brand,
		Material:     r.Material,
		Status:       status,
	}
}

// DeviceRecord is a row of the remote device_attributes table.
type DeviceRecord struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Brand          string `gorm:"column:brand;index"`
	DeviceName     string `gorm:"column:device_name"`
	SizeCategory   string `gorm:"column:size_category"`
	AttributeValue string `gorm:"column:attribute_value"`
	ID             uint   `gorm:"primaryKey"`
}

// TableName overrides the gorm default.
func (DeviceRecord) TableName() string { return "device_attributes" }

// DeviceAttribute converts the record to a local device attribute.
func (r DeviceRecord) DeviceAttribute() model.DeviceAttribute {
	return model.DeviceAttribute{
		UpdatedAt:      r.UpdatedAt,
		Brand:          r.Brand,
		DeviceName:     r.DeviceName,
		SizeCategory:   r.SizeCategory,
		AttributeValue: r.AttributeValue,
	}
}
