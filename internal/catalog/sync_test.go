package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	err     error
	designs []model.CatalogEntry
	devices []model.DeviceAttribute
}

func (s stubSource) Designs(context.Context) ([]model.CatalogEntry, error) {
	return s.designs, s.err
}

func (s stubSource) Devices(context.Context) ([]model.DeviceAttribute, error) {
	return s.devices, s.err
}

func TestSyncer_SyncDesigns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	source := stubSource{designs: []model.CatalogEntry{
		{DesignNumber: "betty-002-lec-pk", ProductType: "手帳型カバー", Status: model.CatalogActive},
		{DesignNumber: "h078", ProductType: "ハードケース", Status: model.CatalogActive},
		{DesignNumber: "", ProductType: "ハードケース", Status: model.CatalogActive},
	}}

	result, err := NewSyncer(source, db.Storage).SyncDesigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Fetched: 3, Synced: 2, Errors: 1}, result)

	hit, ok := New(db.Storage).LocalProductType(ctx, "betty-002")
	require.True(t, ok)
	assert.Equal(t, "手帳型カバー", hit.Value)
}

func TestSyncer_SyncDevices(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	source := stubSource{devices: []model.DeviceAttribute{
		{Brand: "Pixel", DeviceName: "Pixel 9a", SizeCategory: "LL"},
		{Brand: "Pixel", DeviceName: "Pixel 9a", SizeCategory: "L"},
		{Brand: "Pixel", DeviceName: "Pixel 8"},
	}}

	result, err := NewSyncer(source, db.Storage).SyncDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Errors)

	count, err := db.Storage.CountDeviceAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncer_FetchFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	syncer := NewSyncer(stubSource{err: errors.New("timeout")}, db.Storage)

	_, err := syncer.SyncDesigns(context.Background())
	assert.ErrorContains(t, err, "failed to fetch designs")

	_, err = syncer.SyncDevices(context.Background())
	assert.ErrorContains(t, err, "failed to fetch devices")
}
