package raiddevice_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/Anthya1104/zoneraid/internal/raiddevice"
	"github.com/Anthya1104/zoneraid/internal/raidmap"
	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/zbd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	blockSize = 4096
	zoneSize  = 1 << 20 // 1 MiB
	nrZones   = 16
	nDevices  = 4
)

func newChildren(n int) []zbd.Backend {
	devices := make([]zbd.Backend, n)
	for i := range devices {
		devices[i] = zbd.NewMock("dev", zbd.Geometry{BlockSize: blockSize, ZoneSize: zoneSize, NrZones: nrZones})
	}
	return devices
}

func openAll(t *testing.T, d *raiddevice.Device) {
	t.Helper()
	_, _, err := d.Open(false, false)
	require.NoError(t, err)
}

func TestDevice_GeometryScaling_Raid0(t *testing.T) {
	d, err := raiddevice.New(nil, raidmode.Raid0, newChildren(nDevices), nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	geo := d.Geometry()
	assert.EqualValues(t, blockSize, geo.BlockSize)
	assert.EqualValues(t, zoneSize*nDevices, geo.ZoneSize)
	assert.EqualValues(t, nrZones, geo.NrZones)
}

func TestDevice_ConcatTotalization(t *testing.T) {
	d, err := raiddevice.New(nil, raidmode.Concat, newChildren(nDevices), nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	geo := d.Geometry()
	assert.EqualValues(t, zoneSize, geo.ZoneSize)
	assert.EqualValues(t, nrZones*nDevices, geo.NrZones)
}

func TestDevice_StripeWriteReadRoundTrip(t *testing.T) {
	d, err := raiddevice.New(nil, raidmode.Raid0, newChildren(nDevices), nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	data := bytes.Repeat([]byte{0xAA}, 2*blockSize)
	n, err := d.Write(context.Background(), data, len(data), 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	buf := make([]byte, len(data))
	n, err = d.Read(context.Background(), buf, len(buf), 0, false)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, buf)
}

func TestDevice_StripePlacesBlocksOnExpectedDevices(t *testing.T) {
	children := newChildren(nDevices)
	devices := make([]zbd.Backend, len(children))
	copy(devices, children)
	d, err := raiddevice.New(nil, raidmode.Raid0, devices, nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	data := bytes.Repeat([]byte{0xAA}, 2*blockSize)
	_, err = d.Write(context.Background(), data, len(data), 0)
	require.NoError(t, err)

	mock0 := children[0].(*zbd.Mock)
	mock1 := children[1].(*zbd.Mock)
	assert.Equal(t, uint64(blockSize), mock0.ZoneWP(0), "device 0 got the first block")
	assert.Equal(t, uint64(blockSize), mock1.ZoneWP(0), "device 1 got the second block")
}

func TestDevice_StripeResetScalesCapacity(t *testing.T) {
	d, err := raiddevice.New(nil, raidmode.Raid0, newChildren(nDevices), nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	offline, maxCap, err := d.Reset(4 * zoneSize) // logical zone_size = 4 MiB here
	require.NoError(t, err)
	assert.False(t, offline)
	assert.EqualValues(t, zoneSize*nDevices, maxCap)
}

func TestDevice_StripeListZonesEntries(t *testing.T) {
	d, err := raiddevice.New(nil, raidmode.Raid0, newChildren(nDevices), nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	zl, err := d.ListZones()
	require.NoError(t, err)
	require.Len(t, zl, nrZones)
	assert.EqualValues(t, 3*zoneSize*nDevices, zl[3].Start)
	assert.EqualValues(t, zoneSize*nDevices, zl[3].Capacity)
}

func TestDevice_MirrorWriteIdenticalAcrossChildren(t *testing.T) {
	children := newChildren(3)
	devices := make([]zbd.Backend, len(children))
	copy(devices, children)
	d, err := raiddevice.New(nil, raidmode.Raid1, devices, nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	data := bytes.Repeat([]byte{0x42}, blockSize)
	_, err = d.Write(context.Background(), data, len(data), 0)
	require.NoError(t, err)

	for _, c := range children {
		buf := make([]byte, blockSize)
		n, err := c.Read(context.Background(), buf, blockSize, 0, false)
		require.NoError(t, err)
		assert.Equal(t, blockSize, n)
		assert.Equal(t, data, buf)
	}
}

func TestDevice_MirrorReadSurvivesOneOfflineChild(t *testing.T) {
	children := newChildren(2)
	devices := make([]zbd.Backend, len(children))
	copy(devices, children)
	d, err := raiddevice.New(nil, raidmode.Raid1, devices, nil, 0)
	require.NoError(t, err)
	openAll(t, d)

	data := bytes.Repeat([]byte{0x7}, blockSize)
	_, err = d.Write(context.Background(), data, len(data), 0)
	require.NoError(t, err)

	children[0].(*zbd.Mock).Offline(0)

	buf := make([]byte, blockSize)
	n, err := d.Read(context.Background(), buf, blockSize, 0, false)
	require.NoError(t, err)
	assert.Equal(t, blockSize, n)
	assert.Equal(t, data, buf)
}

func TestDevice_ReservedModesUnsupported(t *testing.T) {
	_, err := raiddevice.New(nil, raidmode.Raid5, newChildren(2), nil, 0)
	require.Error(t, err)
	assert.True(t, zbd.IsCode(err, zbd.CodeUnsupported))
}

func newAutoAllocator(t *testing.T) (*raidmap.Allocator, []zbd.Backend) {
	t.Helper()
	children := newChildren(nDevices)
	a := raidmap.New(nDevices, nrZones)
	require.NoError(t, a.InstallMeta(2))
	require.NoError(t, a.CreateMapping(2))
	a.SetMode(2, raidmode.Raid0, 0)
	return a, children
}

func TestDevice_AutoDispatchesStripedLogicalZone(t *testing.T) {
	a, children := newAutoAllocator(t)
	d, err := raiddevice.New(nil, raidmode.Auto, children, a, 2)
	require.NoError(t, err)
	openAll(t, d)

	logicalZoneSize := uint64(zoneSize) * nDevices
	data := bytes.Repeat([]byte{0x9}, blockSize)
	_, err = d.Write(context.Background(), data, len(data), 2*logicalZoneSize)
	require.NoError(t, err)

	buf := make([]byte, blockSize)
	n, err := d.Read(context.Background(), buf, blockSize, 2*logicalZoneSize, false)
	require.NoError(t, err)
	assert.Equal(t, blockSize, n)
	assert.Equal(t, data, buf)
}

func TestDevice_AutoListZonesReportsMetaZonesEmpty(t *testing.T) {
	a, children := newAutoAllocator(t)
	d, err := raiddevice.New(nil, raidmode.Auto, children, a, 2)
	require.NoError(t, err)
	openAll(t, d)

	zl, err := d.ListZones()
	require.NoError(t, err)
	require.Len(t, zl, nrZones)
	assert.Equal(t, zbd.ZoneEmpty, zl[0].Condition)
	assert.Equal(t, zbd.ZoneEmpty, zl[1].Condition)
}
