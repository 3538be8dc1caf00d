package raidmap_test

import (
	"testing"

	"github.com/Anthya1104/zoneraid/internal/raidmap"
	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_InstallMeta(t *testing.T) {
	a := raidmap.New(4, 8)
	require.NoError(t, a.InstallMeta(2))

	for l := uint32(0); l < 2; l++ {
		mode, ok := a.Mode(l)
		require.True(t, ok)
		assert.Equal(t, raidmode.None, mode.Mode)
		for dev := uint32(0); dev < 4; dev++ {
			entry, ok := a.Mapping(l*4 + dev)
			require.True(t, ok)
			assert.Equal(t, dev, entry.DeviceIdx)
			assert.Equal(t, l, entry.ZoneIdx)
		}
	}
}

func TestAllocator_CreateMapping_SkipsMetaZones(t *testing.T) {
	a := raidmap.New(4, 8)
	require.NoError(t, a.InstallMeta(2))

	require.NoError(t, a.CreateMapping(2))
	for dev := uint32(0); dev < 4; dev++ {
		entry, ok := a.Mapping(2*4 + dev)
		require.True(t, ok)
		assert.Equal(t, dev, entry.DeviceIdx)
		assert.Equal(t, uint32(2), entry.ZoneIdx, "first free zone index after meta is 2")
	}

	require.NoError(t, a.CreateMapping(3))
	for dev := uint32(0); dev < 4; dev++ {
		entry, ok := a.Mapping(3*4 + dev)
		require.True(t, ok)
		assert.Equal(t, uint32(3), entry.ZoneIdx)
	}
}

func TestAllocator_CreateMapping_NoSpace(t *testing.T) {
	a := raidmap.New(4, 2)
	require.NoError(t, a.InstallMeta(2)) // consumes both zone indices across all devices

	err := a.CreateMapping(2)
	require.Error(t, err)
}

func TestAllocator_CreateMapping_DistinctDevices(t *testing.T) {
	a := raidmap.New(3, 16)
	require.NoError(t, a.CreateMapping(0))
	seen := map[uint32]bool{}
	for dev := uint32(0); dev < 3; dev++ {
		entry, ok := a.Mapping(0*3 + dev)
		require.True(t, ok)
		assert.Equal(t, dev, entry.DeviceIdx)
		assert.False(t, seen[entry.DeviceIdx], "distinct device slots")
		seen[entry.DeviceIdx] = true
	}
}

func TestAllocator_SetMapping_RejectsDuplicateDeviceZone(t *testing.T) {
	a := raidmap.New(2, 4)
	require.NoError(t, a.SetMapping(0, 0, 0))
	err := a.SetMapping(99, 0, 0)
	assert.Error(t, err)
}

// TestAllocator_Bijection checks spec §8 property 3: after any sequence of
// set_mapping/create_mapping, no (device, zone) pair serves two distinct
// valid sub-indices.
func TestAllocator_Bijection(t *testing.T) {
	a := raidmap.New(3, 8)
	require.NoError(t, a.CreateMapping(0))
	require.NoError(t, a.CreateMapping(1))

	seen := map[[2]uint32]uint32{}
	for sub, e := range a.DeviceZoneMap() {
		if e.Invalid != 0 {
			continue
		}
		key := [2]uint32{e.DeviceIdx, e.ZoneIdx}
		if other, ok := seen[key]; ok {
			t.Fatalf("device %d zone %d mapped by both sub_idx %d and %d", e.DeviceIdx, e.ZoneIdx, other, sub)
		}
		seen[key] = sub
	}
}

func TestAllocator_FreeZoneOnDevice(t *testing.T) {
	a := raidmap.New(2, 4)
	require.NoError(t, a.SetMapping(0, 0, 0))
	require.NoError(t, a.SetMapping(1, 0, 1))
	free, ok := a.FreeZoneOnDevice(0)
	require.True(t, ok)
	assert.Equal(t, uint32(2), free)
}

func TestAllocator_FreeDeviceForZone(t *testing.T) {
	a := raidmap.New(3, 4)
	require.NoError(t, a.SetMapping(0, 0, 5))
	require.NoError(t, a.SetMapping(1, 1, 5))
	free, ok := a.FreeDeviceForZone(5)
	require.True(t, ok)
	assert.Equal(t, uint32(2), free)
}

func TestAllocator_Invalidate_KeepsSlotReserved(t *testing.T) {
	a := raidmap.New(2, 4)
	require.NoError(t, a.SetMapping(0, 0, 0))
	a.Invalidate(0)

	entry, ok := a.Mapping(0)
	require.True(t, ok)
	assert.Equal(t, uint16(1), entry.Invalid)

	// the (device,zone) pair stays reserved even though invalid, so no
	// other sub_idx can claim it until a higher-level compaction happens.
	err := a.SetMapping(7, 0, 0)
	assert.Error(t, err)

	_, free := a.FreeZoneOnDevice(0)
	assert.True(t, free) // zone 1,2,3 still free on device 0; only zone 0 is reserved
}
