package testutil

import "github.com/Veraticus/accusync/internal/model"

// CatalogFixture returns a small design catalog covering the exact, prefix
// and suffix lookup tiers.
func CatalogFixture() []model.CatalogEntry {
	return []model.CatalogEntry{
		{DesignNumber: "503-5494699", ProductType: "手帳型カバー", DeviceName: "wish4", Brand: "AQUOS"},
		{DesignNumber: "betty-001-lec-bu", ProductType: "手帳型カバー", DeviceName: "iPhone 15", Brand: "iPhone"},
		{DesignNumber: "h077", ProductType: "ハードケース"},
		{DesignNumber: "retired-01", ProductType: "ソフトケース", Status: model.CatalogInactive},
	}
}

// DeviceFixture returns device size categories for common devices.
func DeviceFixture() []model.DeviceAttribute {
	return []model.DeviceAttribute{
		{Brand: "iPhone", DeviceName: "iPhone 15", SizeCategory: "i15"},
		{Brand: "iPhone", DeviceName: "iPhone 15 Pro", SizeCategory: "i15p"},
		{Brand: "AQUOS", DeviceName: "AQUOS wish4", SizeCategory: "3L"},
		{Brand: "Pixel", DeviceName: "Pixel 9a", SizeCategory: "LL"},
		{Brand: "Galaxy", DeviceName: "Galaxy A54 5G", SizeCategory: "L"},
	}
}
