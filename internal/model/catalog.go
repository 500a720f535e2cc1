package model

import "time"

// CatalogStatus marks whether a catalog entry participates in lookups.
type CatalogStatus string

const (
	// CatalogActive entries are used for lookups.
	CatalogActive CatalogStatus = "active"
	// CatalogInactive entries are kept but ignored.
	CatalogInactive CatalogStatus = "inactive"
)

// CatalogEntry is one record of the design catalog keyed by design number.
type CatalogEntry struct {
	UpdatedAt    time.Time     `json:"updated_at"`
	DesignNumber string        `json:"design_number"`
	DesignName   string        `json:"design_name,omitempty"`
	ProductType  string        `json:"product_type,omitempty"`
	DeviceName   string        `json:"device_name,omitempty"`
	Brand        string        `json:"brand,omitempty"`
	Material     string        `json:"material,omitempty"`
	Status       CatalogStatus `json:"status"`
}

// Active reports whether the entry participates in lookups.
func (e CatalogEntry) Active() bool {
	return e.Status == CatalogActive
}

// DeviceAttribute maps a brand and device to its size category.
// (Brand, DeviceName) is unique.
type DeviceAttribute struct {
	UpdatedAt      time.Time `json:"updated_at"`
	Brand          string    `json:"brand"`
	DeviceName     string    `json:"device_name"`
	SizeCategory   string    `json:"size_category"`
	AttributeValue string    `json:"attribute_value,omitempty"`
}
