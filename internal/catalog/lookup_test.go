package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	err         error
	productType map[string]string
	device      map[string]string
	calls       []string
	block       bool
	mu          sync.Mutex
}

func (m *mockRemote) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockRemote) FuzzyProductType(ctx context.Context, code string) (string, error) {
	m.record("product_type:" + code)
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.productType[code], m.err
}

func (m *mockRemote) DeviceByDesign(_ context.Context, code string) (string, error) {
	m.record("device:" + code)
	return m.device[code], m.err
}

func TestLookup_LocalProductType(t *testing.T) {
	db := testutil.SetupTestDBWithFixtures(t)
	lookup := New(db.Storage)
	ctx := context.Background()

	tests := []struct {
		name       string
		code       string
		wantValue  string
		wantMethod model.Method
		wantOK     bool
	}{
		{name: "exact", code: "h077", wantValue: "ハードケース", wantMethod: model.MethodCatalogExact, wantOK: true},
		{name: "input longer than design", code: "503-5494699-9639853", wantValue: "手帳型カバー", wantMethod: model.MethodCatalogPrefix, wantOK: true},
		{name: "input shorter than design", code: "betty-001", wantValue: "手帳型カバー", wantMethod: model.MethodCatalogSuffix, wantOK: true},
		{name: "decorated sku", code: "h077@04", wantValue: "ハードケース", wantMethod: model.MethodCatalogPrefix, wantOK: true},
		{name: "inactive entry", code: "retired-01", wantOK: false},
		{name: "unknown", code: "zzz-999", wantOK: false},
		{name: "blank", code: "  ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := lookup.LocalProductType(ctx, tt.code)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantValue, hit.Value)
			assert.Equal(t, tt.wantMethod, hit.Method)
		})
	}
}

func TestLookup_ShortDesignNumbersNeverPrefixMatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedCatalog(model.CatalogEntry{DesignNumber: "abc", ProductType: "ソフトケース"})
	lookup := New(db.Storage)

	_, ok := lookup.LocalProductType(context.Background(), "abc-123")
	assert.False(t, ok)

	hit, ok := lookup.LocalProductType(context.Background(), "abc")
	require.True(t, ok)
	assert.Equal(t, model.MethodCatalogExact, hit.Method)
}

func TestLookup_SkipsEntriesWithoutValue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedCatalog(
		model.CatalogEntry{DesignNumber: "mix-100", DeviceName: "Pixel 9a"},
		model.CatalogEntry{DesignNumber: "mix-100-red", ProductType: "手帳型ケース"},
	)
	lookup := New(db.Storage)

	hit, ok := lookup.LocalProductType(context.Background(), "mix-100")
	require.True(t, ok)
	assert.Equal(t, "手帳型ケース", hit.Value)
	assert.Equal(t, model.MethodCatalogSuffix, hit.Method)
}

func TestLookup_LookupProductType_RemoteFallback(t *testing.T) {
	db := testutil.SetupTestDBWithFixtures(t)
	ctx := context.Background()

	t.Run("local hit never asks remote", func(t *testing.T) {
		remote := &mockRemote{productType: map[string]string{"h077": "違う"}}
		hit, ok := New(db.Storage, WithRemote(remote)).LookupProductType(ctx, "h077")
		require.True(t, ok)
		assert.Equal(t, "ハードケース", hit.Value)
		assert.Empty(t, remote.calls)
	})

	t.Run("local miss uses remote", func(t *testing.T) {
		remote := &mockRemote{productType: map[string]string{"ami_kaiser-A_1r-A": "手帳型カバー"}}
		hit, ok := New(db.Storage, WithRemote(remote)).LookupProductType(ctx, "ami_kaiser-A_1r-A")
		require.True(t, ok)
		assert.Equal(t, "手帳型カバー", hit.Value)
		assert.Equal(t, model.MethodCatalogRemote, hit.Method)
	})

	t.Run("remote failure is a miss", func(t *testing.T) {
		remote := &mockRemote{err: errors.New("connection refused")}
		_, ok := New(db.Storage, WithRemote(remote)).LookupProductType(ctx, "ami_kaiser-A_1r-A")
		assert.False(t, ok)
	})

	t.Run("remote call is bounded", func(t *testing.T) {
		remote := &mockRemote{block: true}
		lookup := New(db.Storage, WithRemote(remote), WithTimeout(20*time.Millisecond))

		start := time.Now()
		_, ok := lookup.LookupProductType(ctx, "ami_kaiser-A_1r-A")
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("no remote configured", func(t *testing.T) {
		_, ok := New(db.Storage).LookupProductType(ctx, "ami_kaiser-A_1r-A")
		assert.False(t, ok)
	})
}

func TestLookup_Device(t *testing.T) {
	db := testutil.SetupTestDBWithFixtures(t)
	ctx := context.Background()

	hit, ok := New(db.Storage).LocalDevice(ctx, "503-5494699-9639853")
	require.True(t, ok)
	assert.Equal(t, "AQUOS wish4", hit.Value)
	assert.Equal(t, "AQUOS", hit.Brand)
	assert.Equal(t, model.MethodCatalogPrefix, hit.Method)

	hit, ok = New(db.Storage).LocalDevice(ctx, "betty-001")
	require.True(t, ok)
	assert.Equal(t, "iPhone 15", hit.Value)

	_, ok = New(db.Storage).LocalDevice(ctx, "h077")
	assert.False(t, ok)

	remote := &mockRemote{device: map[string]string{"h077": "AQUOS F-53E"}}
	hit, ok = New(db.Storage, WithRemote(remote)).LookupDevice(ctx, "h077")
	require.True(t, ok)
	assert.Equal(t, "AQUOS F-53E", hit.Value)
	assert.Equal(t, model.MethodCatalogRemote, hit.Method)
}

func TestWithBrand(t *testing.T) {
	tests := []struct {
		device string
		brand  string
		want   string
	}{
		{device: "wish4", brand: "AQUOS", want: "AQUOS wish4"},
		{device: "AQUOS wish4", brand: "AQUOS", want: "AQUOS wish4"},
		{device: "iPhone 15", brand: "", want: "iPhone 15"},
		{device: " Pixel 9a ", brand: "Pixel", want: "Pixel 9a"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, WithBrand(tt.device, tt.brand))
		})
	}
}
