package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/accusync/internal/catalog"
	"github.com/Veraticus/accusync/internal/master"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/pattern"
	"github.com/Veraticus/accusync/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_OptionsFieldWins(t *testing.T) {
	e := New(Deps{})
	row := model.NewRow(
		"商品名", "手帳型カバー AQUOS wish4 ケース",
		"選択肢", "カラー=ブラック&機種【iPhone】=iPhone 6[i6]",
	)

	got := e.DetectRow(context.Background(), row)

	assert.Equal(t, "iPhone 6", got.Device.Value)
	assert.Equal(t, model.MethodOptionsColumn, got.Device.Method)
	assert.Equal(t, "選択肢", got.Device.Column)
	assert.Equal(t, "iPhone", got.Brand)
	assert.Equal(t, "i6", got.Size.Value)
	assert.Equal(t, model.MethodOptionsColumn, got.Size.Method)
}

func TestEngine_DetectRow_HardCaseScenario(t *testing.T) {
	e := New(Deps{})
	row := model.NewRow("product_name", "ハードケース(ボタニカル)h077@04/F-53E_大(974)")

	got := e.DetectRow(context.Background(), row)

	assert.Equal(t, "ハードケース", got.ProductType.Value)
	assert.Equal(t, model.MethodRegex, got.ProductType.Method)
	assert.Equal(t, "arrows F-53E", got.Device.Value)
	assert.Equal(t, model.MethodProductName, got.Device.Method)
	assert.Equal(t, "arrows", got.Brand)
	assert.Equal(t, model.MethodNotApplicable, got.Size.Method)
	assert.Empty(t, got.Size.Value)
	assert.Equal(t, "-", got.Size.Display())
}

func TestEngine_DetectRow_RegexSize(t *testing.T) {
	e := New(Deps{})
	row := model.NewRow("商品名", "手帳型カバー/iPhone 8(mirror)_i6")

	got := e.DetectRow(context.Background(), row)

	assert.Equal(t, "手帳型カバー", got.ProductType.Value)
	assert.Equal(t, "iPhone 8", got.Device.Value)
	assert.Equal(t, "i6", got.Size.Value)
	assert.Equal(t, model.MethodRegex, got.Size.Method)
	assert.Equal(t, "mirror", got.Structure)
}

func TestEngine_DetectProductType_Order(t *testing.T) {
	type fakes struct {
		catalog   *MockCatalog
		inventory *MockInventory
		patterns  *MockPatternStore
	}

	tests := []struct {
		setup      func(f fakes)
		row        model.Row
		name       string
		wantValue  string
		wantMethod model.Method
		wantCalls  map[string]int
	}{
		{
			name: "local catalog short-circuits",
			row:  model.NewRow("sku", "h077", "商品名", "スマホショルダー"),
			setup: func(f fakes) {
				f.catalog.ProductTypes["h077"] = catalog.Hit{Value: "ハードケース", Method: model.MethodCatalogExact}
				f.inventory.ProductTypes["h077"] = "手帳型ケース"
			},
			wantValue:  "ハードケース",
			wantMethod: model.MethodCatalogExact,
			wantCalls:  map[string]int{"RemoteProductType": 0, "ProductTypeByCode": 0, "Predict": 0},
		},
		{
			name: "remote catalog",
			row:  model.NewRow("sku", "kaiser-A"),
			setup: func(f fakes) {
				f.catalog.RemoteProductTypes["kaiser-A"] = catalog.Hit{Value: "手帳型カバー", Method: model.MethodCatalogRemote}
			},
			wantValue:  "手帳型カバー",
			wantMethod: model.MethodCatalogRemote,
			wantCalls:  map[string]int{"RemoteProductType": 1, "ProductTypeByCode": 0},
		},
		{
			name: "legacy inventory",
			row:  model.NewRow("sku", "h077"),
			setup: func(f fakes) {
				f.inventory.ProductTypes["h077"] = "ハードケース"
				f.patterns.Add("h07", "手帳型カバー", "", model.SourceManual)
			},
			wantValue:  "ハードケース",
			wantMethod: model.MethodLegacyInventory,
			wantCalls:  map[string]int{"ProductTypeByCode": 1, "Predict": 0},
		},
		{
			name: "learned from code",
			row:  model.NewRow("sku", "h077-x", "商品名", "スマホショルダー"),
			setup: func(f fakes) {
				f.patterns.Add("h07", "ハードケース", "", model.SourceManual)
			},
			wantValue:  "ハードケース",
			wantMethod: model.MethodLearnedManual,
			wantCalls:  map[string]int{"Predict": 1},
		},
		{
			name: "design number in product name",
			row:  model.NewRow("商品名", "ベティ betty-001-lec-bu"),
			setup: func(f fakes) {
				f.catalog.ProductTypes["betty-001-lec-bu"] = catalog.Hit{Value: "手帳型カバー", Method: model.MethodCatalogExact}
			},
			wantValue:  "手帳型カバー",
			wantMethod: model.MethodCatalogExact,
			wantCalls:  map[string]int{"Predict": 0},
		},
		{
			name: "learned from product name",
			row:  model.NewRow("商品名", "カイザー デザイン"),
			setup: func(f fakes) {
				f.patterns.Add("カイザー", "手帳型カバー", "", model.SourceAuto)
			},
			wantValue:  "手帳型カバー",
			wantMethod: model.MethodLearnedAuto,
			wantCalls:  map[string]int{"Predict": 1},
		},
		{
			name:       "keyword fallback",
			row:        model.NewRow("商品名", "スマホショルダー ストラップ"),
			setup:      func(fakes) {},
			wantValue:  "スマホショルダー",
			wantMethod: model.MethodRegex,
		},
		{
			name:       "nothing to go on",
			row:        model.NewRow("商品名", "x"),
			setup:      func(fakes) {},
			wantMethod: model.MethodNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fakes{
				catalog:   NewMockCatalog(),
				inventory: NewMockInventory(),
				patterns:  NewMockPatternStore(),
			}
			tt.setup(f)
			e := New(Deps{
				Catalog:             f.catalog,
				Inventory:           f.inventory,
				ProductTypePatterns: f.patterns,
			})

			got := e.DetectProductType(context.Background(), tt.row)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantMethod, got.Method)

			calls := map[string]int{
				"RemoteProductType": f.catalog.CallCount("RemoteProductType"),
				"ProductTypeByCode": f.inventory.CallCount("ProductTypeByCode"),
				"Predict":           f.patterns.CallCount("Predict"),
			}
			for method, want := range tt.wantCalls {
				assert.Equal(t, want, calls[method], method)
			}
		})
	}
}

func TestEngine_DetectProductType_LearnedConfidence(t *testing.T) {
	patterns := NewMockPatternStore().Add("h07", "ハードケース", "", model.SourceManual)
	e := New(Deps{ProductTypePatterns: patterns})

	got := e.DetectProductType(context.Background(), model.NewRow("sku", "h077"))
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.9, *got.Confidence, 1e-9)
}

func TestEngine_DetectDevice_Order(t *testing.T) {
	tests := []struct {
		setup      func(c *MockCatalog, p *MockPatternStore)
		row        model.Row
		name       string
		wantValue  string
		wantBrand  string
		wantColumn string
		wantMethod model.Method
	}{
		{
			name:       "device column is canonicalized",
			row:        model.NewRow("機種", "iphone15", "商品名", "AQUOS wish4 カバー"),
			wantValue:  "iPhone 15",
			wantBrand:  "iPhone",
			wantColumn: "機種",
			wantMethod: model.MethodDeviceColumn,
		},
		{
			name:       "unrecognized device column kept",
			row:        model.NewRow("端末", "らくらくスマホ"),
			wantValue:  "らくらくスマホ",
			wantColumn: "端末",
			wantMethod: model.MethodDeviceColumn,
		},
		{
			name: "learned pattern before device rules",
			row:  model.NewRow("商品名", "カイザー 手帳 iPhone 15"),
			setup: func(_ *MockCatalog, p *MockPatternStore) {
				p.Add("カイザー", "AQUOS sense8", "AQUOS", model.SourceManual)
			},
			wantValue:  "AQUOS sense8",
			wantBrand:  "AQUOS",
			wantMethod: model.MethodLearnedManual,
		},
		{
			name:       "device rules on product name",
			row:        model.NewRow("商品名", "手帳型カバー/Galaxy S24_L"),
			wantValue:  "Galaxy S24",
			wantBrand:  "Galaxy",
			wantColumn: "商品名",
			wantMethod: model.MethodProductName,
		},
		{
			name: "catalog by code",
			row:  model.NewRow("sku", "betty-001", "商品名", "ベティ 手帳"),
			setup: func(c *MockCatalog, _ *MockPatternStore) {
				c.Devices["betty-001"] = catalog.Hit{Value: "iPhone 15", Brand: "iPhone", Method: model.MethodCatalogSuffix}
			},
			wantValue:  "iPhone 15",
			wantBrand:  "iPhone",
			wantColumn: "sku",
			wantMethod: model.MethodCatalogSuffix,
		},
		{
			name: "remote catalog brand inferred",
			row:  model.NewRow("sku", "x-100"),
			setup: func(c *MockCatalog, _ *MockPatternStore) {
				c.Devices["x-100"] = catalog.Hit{Value: "Galaxy A54", Method: model.MethodCatalogRemote}
			},
			wantValue:  "Galaxy A54",
			wantBrand:  "Galaxy",
			wantColumn: "sku",
			wantMethod: model.MethodCatalogRemote,
		},
		{
			name:       "priority columns before the rest",
			row:        model.NewRow("商品名", "ベティ", "メモ欄", "Galaxy S24", "備考", "Pixel 8a 対応"),
			wantValue:  "Pixel 8a",
			wantBrand:  "Pixel",
			wantColumn: "備考",
			wantMethod: model.MethodOtherColumn,
		},
		{
			name:       "remaining columns",
			row:        model.NewRow("商品名", "ベティ", "ノート", "Galaxy S24 用"),
			wantValue:  "Galaxy S24",
			wantBrand:  "Galaxy",
			wantColumn: "ノート",
			wantMethod: model.MethodOtherColumn,
		},
		{
			name:       "unselected options are ignored",
			row:        model.NewRow("選択肢", "▼機種【iPhone】=iPhone 6[i6]"),
			wantMethod: model.MethodNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMockCatalog()
			p := NewMockPatternStore()
			if tt.setup != nil {
				tt.setup(c, p)
			}
			e := New(Deps{Catalog: c, DevicePatterns: p})

			got, brand := e.DetectDevice(context.Background(), tt.row)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantMethod, got.Method)
			assert.Equal(t, tt.wantBrand, brand)
			assert.Equal(t, tt.wantColumn, got.Column)
		})
	}
}

func TestEngine_DetectDevice_ShortCircuit(t *testing.T) {
	c := NewMockCatalog()
	p := NewMockPatternStore()
	e := New(Deps{Catalog: c, DevicePatterns: p})

	row := model.NewRow("機種", "Pixel 9a", "sku", "betty-001", "商品名", "ベティ")
	got, _ := e.DetectDevice(context.Background(), row)

	assert.Equal(t, model.MethodDeviceColumn, got.Method)
	assert.Zero(t, p.CallCount("Predict"))
	assert.Zero(t, c.CallCount("LookupDevice"))
}

func TestEngine_DetectSize_Order(t *testing.T) {
	type fakes struct {
		inventory *MockInventory
		patterns  *MockPatternStore
		master    *MockMaster
	}

	tests := []struct {
		setup       func(f fakes)
		row         model.Row
		name        string
		productType string
		device      string
		wantValue   string
		wantMethod  model.Method
	}{
		{
			name:        "hard case product type",
			row:         model.NewRow("商品名", "ケース_L", "選択肢", "機種【iPhone】=iPhone 6[i6]"),
			productType: "ハードケース",
			wantMethod:  model.MethodNotApplicable,
		},
		{
			name:       "hard case product name",
			row:        model.NewRow("商品名", "ハードケース_L"),
			wantMethod: model.MethodNotApplicable,
		},
		{
			name: "legacy by sku",
			row:  model.NewRow("sku", "sku_r00001", "商品名", "手帳型カバー_M"),
			setup: func(f fakes) {
				f.inventory.SKUSizes["sku_r00001"] = "i6"
			},
			wantValue:  "i6",
			wantMethod: model.MethodLegacyInventory,
		},
		{
			name: "legacy by product number",
			row:  model.NewRow("品番", "ami_kaiser-A_1r-A"),
			setup: func(f fakes) {
				f.inventory.ProductSizes["ami_kaiser-A_1r-A"] = "L"
			},
			wantValue:  "L",
			wantMethod: model.MethodLegacyInventory,
		},
		{
			name:   "legacy by device",
			row:    model.NewRow("商品名", "手帳型カバー"),
			device: "iPhone 8",
			setup: func(f fakes) {
				f.inventory.DeviceSizes["iPhone 8"] = "i6"
			},
			wantValue:  "i6",
			wantMethod: model.MethodLegacyInventory,
		},
		{
			name:   "inventory failure falls through to regex",
			row:    model.NewRow("sku", "s1", "商品名", "手帳型カバー/Pixel 9a_L"),
			device: "Pixel 9a",
			setup: func(f fakes) {
				f.inventory.Err = errors.New("disk I/O error")
			},
			wantValue:  "L",
			wantMethod: model.MethodRegex,
		},
		{
			name:   "learned with device filter",
			row:    model.NewRow("商品名", "ベルト付き手帳"),
			device: "Pixel 9a",
			setup: func(f fakes) {
				f.patterns.Add("ベルト", "L", "", model.SourceAuto)
				f.patterns.Add("ベルト", "M", "Pixel 9a", model.SourceManual)
			},
			wantValue:  "M",
			wantMethod: model.MethodLearnedManualFiltered,
		},
		{
			name:   "learned without device match",
			row:    model.NewRow("商品名", "ベルト付き手帳"),
			device: "iPhone 15",
			setup: func(f fakes) {
				f.patterns.Add("ベルト", "L", "", model.SourceAuto)
			},
			wantValue:  "L",
			wantMethod: model.MethodLearnedAuto,
		},
		{
			name:   "device master",
			row:    model.NewRow("商品名", "手帳型カバー"),
			device: "Pixel 9a",
			setup: func(f fakes) {
				f.master.Sizes["Pixel 9a"] = "LL"
			},
			wantValue:  "LL",
			wantMethod: model.MethodExternalMaster,
		},
		{
			name:       "nothing found",
			row:        model.NewRow("商品名", "手帳型カバー"),
			device:     "Pixel 9a",
			wantMethod: model.MethodNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fakes{
				inventory: NewMockInventory(),
				patterns:  NewMockPatternStore(),
				master:    &MockMaster{Sizes: map[string]string{}},
			}
			if tt.setup != nil {
				tt.setup(f)
			}
			e := New(Deps{Inventory: f.inventory, SizePatterns: f.patterns, Master: f.master})

			productType := tt.productType
			if productType == "" {
				productType = "手帳型カバー"
			}
			got := e.DetectSize(context.Background(), tt.row, productType, tt.device, "")
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantMethod, got.Method)
		})
	}
}

func TestEngine_DetectSize_ShortCircuit(t *testing.T) {
	inv := NewMockInventory()
	patterns := NewMockPatternStore().Add("手帳", "M", "", model.SourceManual)
	m := &MockMaster{Sizes: map[string]string{"iPhone 8": "i6"}}
	e := New(Deps{Inventory: inv, SizePatterns: patterns, Master: m})

	row := model.NewRow("商品名", "手帳型カバー/iPhone 8(mirror)_i6")
	got := e.DetectSize(context.Background(), row, "手帳型カバー", "iPhone 8", "iPhone")

	assert.Equal(t, model.MethodRegex, got.Method)
	assert.Equal(t, 1, inv.CallCount("SizeByDevice"))
	assert.Zero(t, patterns.CallCount("Predict"))
	assert.Zero(t, m.CallCount("GetSize"))
}

func TestEngine_DetectBatch(t *testing.T) {
	sizes := []string{"L", "M", "i6", "LL"}
	rows := make([]model.Row, 40)
	for i := range rows {
		rows[i] = model.NewRow("商品名", "手帳型カバー/iPhone 8_"+sizes[i%len(sizes)])
	}

	var progress atomic.Int64
	e := New(Deps{})
	result, err := e.DetectBatch(context.Background(), rows, BatchOptions{
		Workers:  3,
		Progress: func() { progress.Add(1) },
	})
	require.NoError(t, err)

	require.Len(t, result.Rows, len(rows))
	for i, r := range result.Rows {
		assert.Equal(t, sizes[i%len(sizes)], r.Size.Value, "row %d", i)
	}
	assert.Equal(t, int64(len(rows)), progress.Load())
	assert.Equal(t, len(rows), result.Summary.Size[model.MethodRegex])
	assert.Equal(t, len(rows), result.Summary.Device[model.MethodProductName])

	_, err = uuid.Parse(result.JobID)
	assert.NoError(t, err)
}

func TestEngine_DetectBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Deps{}).DetectBatch(ctx, []model.Row{model.NewRow("商品名", "x")}, BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_LearnCorrection(t *testing.T) {
	row := model.NewRow("商品名", "ベティ 手帳型 iPhone15", "sku", "betty-001")
	correction := Correction{
		Row:         row,
		ProductType: "手帳型カバー",
		Device:      "iPhone 15",
		Brand:       "iPhone",
		Size:        "i15",
	}

	t.Run("routes to each store", func(t *testing.T) {
		devices, sizes, types := NewMockPatternStore(), NewMockPatternStore(), NewMockPatternStore()
		e := New(Deps{DevicePatterns: devices, SizePatterns: sizes, ProductTypePatterns: types})

		patterns, err := e.LearnCorrection(context.Background(), correction)
		require.NoError(t, err)
		assert.Len(t, patterns, 4)

		require.Len(t, types.Learned(), 2)
		assert.Equal(t, "ベティ 手帳型 iPhone15", types.Learned()[0].SourceText)
		assert.Equal(t, "betty-001", types.Learned()[1].SourceText)

		require.Len(t, devices.Learned(), 1)
		assert.Equal(t, "iPhone", devices.Learned()[0].Auxiliary)
		assert.Equal(t, model.SourceManual, devices.Learned()[0].Source)

		require.Len(t, sizes.Learned(), 1)
		assert.Equal(t, "iPhone 15", sizes.Learned()[0].Auxiliary)
		assert.Equal(t, "i15", sizes.Learned()[0].TargetValue)
	})

	t.Run("persistence failure propagates", func(t *testing.T) {
		errDisk := errors.New("disk full")
		devices := NewMockPatternStore()
		devices.LearnErr = errDisk
		e := New(Deps{DevicePatterns: devices, SizePatterns: NewMockPatternStore(), ProductTypePatterns: NewMockPatternStore()})

		patterns, err := e.LearnCorrection(context.Background(), correction)
		assert.ErrorIs(t, err, errDisk)
		assert.Len(t, patterns, 2)
	})

	t.Run("missing store", func(t *testing.T) {
		e := New(Deps{ProductTypePatterns: NewMockPatternStore()})
		_, err := e.LearnCorrection(context.Background(), correction)
		assert.ErrorIs(t, err, ErrNoPatternStore)
	})

	t.Run("row without text", func(t *testing.T) {
		e := New(Deps{})
		_, err := e.LearnCorrection(context.Background(), Correction{Row: model.NewRow("備考", "x"), Size: "L"})
		assert.ErrorIs(t, err, pattern.ErrEmptySource)
	})
}

func TestEngine_AutoLearn(t *testing.T) {
	devices, sizes := NewMockPatternStore(), NewMockPatternStore()
	deps := Deps{DevicePatterns: devices, SizePatterns: sizes}
	row := model.NewRow("商品名", "手帳型カバー/iPhone 8(mirror)_i6")

	New(deps).DetectRow(context.Background(), row)
	assert.Empty(t, devices.Learned())
	assert.Empty(t, sizes.Learned())

	NewWithConfig(deps, Config{AutoLearn: true}).DetectRow(context.Background(), row)

	require.Len(t, devices.Learned(), 1)
	assert.Equal(t, "iPhone 8", devices.Learned()[0].TargetValue)
	assert.Equal(t, "iPhone", devices.Learned()[0].Auxiliary)
	assert.Equal(t, model.SourceAuto, devices.Learned()[0].Source)

	require.Len(t, sizes.Learned(), 1)
	assert.Equal(t, "i6", sizes.Learned()[0].TargetValue)
	assert.Equal(t, "iPhone 8", sizes.Learned()[0].Auxiliary)
}

func TestEngine_WithStorage(t *testing.T) {
	db := testutil.SetupTestDBWithFixtures(t)
	e := New(Deps{
		Catalog:             catalog.New(db.Storage),
		DevicePatterns:      pattern.NewDeviceStore(db.Storage),
		SizePatterns:        pattern.NewSizeStore(db.Storage),
		ProductTypePatterns: pattern.NewProductTypeStore(db.Storage),
		Master:              master.New(db.Storage),
	})

	row := model.NewRow("sku", "503-5494699-9639853", "商品名", "手帳 ケース")
	got := e.DetectRow(context.Background(), row)

	assert.Equal(t, "手帳型カバー", got.ProductType.Value)
	assert.Equal(t, model.MethodCatalogPrefix, got.ProductType.Method)
	assert.Equal(t, "AQUOS wish4", got.Device.Value)
	assert.Equal(t, model.MethodCatalogPrefix, got.Device.Method)
	assert.Equal(t, "AQUOS", got.Brand)
	assert.Equal(t, "3L", got.Size.Value)
	assert.Equal(t, model.MethodExternalMaster, got.Size.Method)
}

func TestEngine_CodeColumnByNameFragment(t *testing.T) {
	db := testutil.SetupTestDBWithFixtures(t)
	e := New(Deps{Catalog: catalog.New(db.Storage)})

	tests := []struct {
		name   string
		column string
	}{
		{name: "exact sku", column: "sku"},
		{name: "sku with suffix", column: "SKU番号"},
		{name: "management number", column: "商品管理番号"},
		{name: "product code with prefix", column: "楽天商品コード"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := model.NewRow(tt.column, "503-5494699-9639853", "商品名", "手帳 ケース")
			got := e.DetectProductType(context.Background(), row)

			assert.Equal(t, "手帳型カバー", got.Value)
			assert.Equal(t, model.MethodCatalogPrefix, got.Method)
			assert.Equal(t, tt.column, got.Column)
		})
	}
}

func TestLookupCode_PrefersKnownColumn(t *testing.T) {
	row := model.NewRow("SKU番号", "fragment", "商品コード", "exact")

	code, column := lookupCode(row)
	assert.Equal(t, "exact", code)
	assert.Equal(t, "商品コード", column)

	code, column = lookupCode(model.NewRow("商品名", "x"))
	assert.Empty(t, code)
	assert.Empty(t, column)
}
