package raidinfo_test

import (
	"testing"

	"github.com/Anthya1104/zoneraid/internal/raidinfo"
	"github.com/Anthya1104/zoneraid/internal/raidmap"
	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/zbd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childGeo() zbd.Geometry {
	return zbd.Geometry{BlockSize: 4096, ZoneSize: 1 << 20, NrZones: 16}
}

func TestRaidInfoBasic_MarshalRoundTrip(t *testing.T) {
	b := raidinfo.NewRaidInfoBasic(raidmode.Auto, 4, childGeo())
	decoded, err := raidinfo.UnmarshalRaidInfoBasic(b.Marshal())
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
}

func TestRaidInfoBasic_CompatibleMainModeMismatch(t *testing.T) {
	b := raidinfo.NewRaidInfoBasic(raidmode.Raid1, 4, childGeo())
	err := b.Compatible(raidmode.Auto, 4, childGeo())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main_mode mismatch: superblock-raid1 != disk-raida")
}

func TestRaidInfoBasic_CompatibleOK(t *testing.T) {
	b := raidinfo.NewRaidInfoBasic(raidmode.Auto, 4, childGeo())
	assert.NoError(t, b.Compatible(raidmode.Auto, 4, childGeo()))
}

func TestRaidInfoAppend_RestoreIdempotence(t *testing.T) {
	a := raidmap.New(4, 16)
	require.NoError(t, a.InstallMeta(2))
	require.NoError(t, a.CreateMapping(2))
	a.SetMode(2, raidmode.Raid0, 0)

	snap := raidinfo.Snapshot(a)
	encoded := snap.Marshal()

	decoded, err := raidinfo.UnmarshalRaidInfoAppend(encoded)
	require.NoError(t, err)
	assert.Equal(t, snap.DeviceZoneMap, decoded.DeviceZoneMap)
	assert.Equal(t, snap.ModeMap, decoded.ModeMap)

	restored := raidmap.New(4, 16)
	require.NoError(t, raidinfo.Restore(restored, decoded))
	assert.Equal(t, a.DeviceZoneMap(), restored.DeviceZoneMap())
	assert.Equal(t, a.ModeMap(), restored.ModeMap())

	// the restored allocator's own snapshot must equal the original snapshot
	again := raidinfo.Snapshot(restored)
	assert.Equal(t, snap.DeviceZoneMap, again.DeviceZoneMap)
	assert.Equal(t, snap.ModeMap, again.ModeMap)
}
