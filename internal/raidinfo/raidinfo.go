// Package raidinfo implements the two records the enclosing filesystem
// embeds in its superblock (spec §6): RaidInfoBasic, a compatibility
// fingerprint checked at mount, and RaidInfoAppend, the serialized
// allocator tables restored at mount. Wire format is little-endian
// throughout, manually packed the way ehrlich-b-go-ublk's internal/uapi
// marshals its kernel-facing structs — this wire layout is mandated byte
//-for-byte by spec §6 so encoding/binary field-at-a-time is the correct
// tool, not a stand-in for a missing library.
package raidinfo

import (
	"encoding/binary"
	"fmt"

	"github.com/Anthya1104/zoneraid/internal/raidmap"
	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// RaidInfoBasic is five little-endian u32 fields verified against the live
// child geometry at mount.
type RaidInfoBasic struct {
	MainMode             raidmode.Mode
	NrDevices            uint32
	DevBlockSize         uint32
	DevZoneSizeInBlocks  uint32
	DevNrZones           uint32
}

const basicSize = 5 * 4

// Marshal encodes RaidInfoBasic as 20 little-endian bytes.
func (b RaidInfoBasic) Marshal() []byte {
	buf := make([]byte, basicSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(b.MainMode))
	binary.LittleEndian.PutUint32(buf[4:8], b.NrDevices)
	binary.LittleEndian.PutUint32(buf[8:12], b.DevBlockSize)
	binary.LittleEndian.PutUint32(buf[12:16], b.DevZoneSizeInBlocks)
	binary.LittleEndian.PutUint32(buf[16:20], b.DevNrZones)
	return buf
}

// UnmarshalRaidInfoBasic decodes 20 little-endian bytes into RaidInfoBasic.
func UnmarshalRaidInfoBasic(data []byte) (RaidInfoBasic, error) {
	if len(data) < basicSize {
		return RaidInfoBasic{}, fmt.Errorf("raidinfo: basic record too short: %d bytes", len(data))
	}
	return RaidInfoBasic{
		MainMode:            raidmode.Mode(binary.LittleEndian.Uint32(data[0:4])),
		NrDevices:           binary.LittleEndian.Uint32(data[4:8]),
		DevBlockSize:        binary.LittleEndian.Uint32(data[8:12]),
		DevZoneSizeInBlocks: binary.LittleEndian.Uint32(data[12:16]),
		DevNrZones:          binary.LittleEndian.Uint32(data[16:20]),
	}, nil
}

// NewRaidInfoBasic builds a RaidInfoBasic from live child geometry, the way
// the RAID Device would snapshot itself at mkfs time.
func NewRaidInfoBasic(mainMode raidmode.Mode, nrDevices uint32, childGeo zbd.Geometry) RaidInfoBasic {
	return RaidInfoBasic{
		MainMode:            mainMode,
		NrDevices:           nrDevices,
		DevBlockSize:        uint32(childGeo.BlockSize),
		DevZoneSizeInBlocks: uint32(childGeo.ZoneSize / childGeo.BlockSize),
		DevNrZones:          childGeo.NrZones,
	}
}

// Compatible checks the superblock-persisted record (the receiver) against
// the live child geometry observed at mount, returning a Corruption error
// naming the precise mismatched field on the first difference found — the
// reverse-pointer-from-filesystem design note (spec §9) modeled as an
// explicit accessor call rather than a stored back-pointer.
func (b RaidInfoBasic) Compatible(mainMode raidmode.Mode, nrDevices uint32, childGeo zbd.Geometry) error {
	live := NewRaidInfoBasic(mainMode, nrDevices, childGeo)
	if b.MainMode != live.MainMode {
		return zbd.NewCorruption("compatible", fmt.Sprintf(
			"main_mode mismatch: superblock-%s != disk-%s", b.MainMode, live.MainMode))
	}
	if b.NrDevices != live.NrDevices {
		return zbd.NewCorruption("compatible", fmt.Sprintf(
			"nr_devices mismatch: superblock-%d != disk-%d", b.NrDevices, live.NrDevices))
	}
	if b.DevBlockSize != live.DevBlockSize {
		return zbd.NewCorruption("compatible", fmt.Sprintf(
			"dev_block_size mismatch: superblock-%d != disk-%d", b.DevBlockSize, live.DevBlockSize))
	}
	if b.DevZoneSizeInBlocks != live.DevZoneSizeInBlocks {
		return zbd.NewCorruption("compatible", fmt.Sprintf(
			"dev_zone_size_in_blocks mismatch: superblock-%d != disk-%d", b.DevZoneSizeInBlocks, live.DevZoneSizeInBlocks))
	}
	if b.DevNrZones != live.DevNrZones {
		return zbd.NewCorruption("compatible", fmt.Sprintf(
			"dev_nr_zones mismatch: superblock-%d != disk-%d", b.DevNrZones, live.DevNrZones))
	}
	return nil
}

// RaidInfoAppend is the serialized allocator tables: device_zone_map and
// mode_map, each a length-prefixed sequence of fixed-width records.
type RaidInfoAppend struct {
	DeviceZoneMap map[uint32]raidmap.MapEntry
	ModeMap       map[uint32]raidmap.ModeEntry
}

// Snapshot captures an allocator's tables into a RaidInfoAppend the caller
// can Marshal and hand to the filesystem's superblock writer.
func Snapshot(a *raidmap.Allocator) RaidInfoAppend {
	return RaidInfoAppend{
		DeviceZoneMap: a.DeviceZoneMap(),
		ModeMap:       a.ModeMap(),
	}
}

// Restore installs a RaidInfoAppend's tables into a freshly constructed
// allocator, as done at mount time.
func Restore(a *raidmap.Allocator, info RaidInfoAppend) error {
	for subIdx, entry := range info.DeviceZoneMap {
		if err := a.SetMapping(subIdx, entry.DeviceIdx, entry.ZoneIdx); err != nil {
			return fmt.Errorf("raidinfo: restore mapping sub_idx=%d: %w", subIdx, err)
		}
		if entry.Invalid != 0 {
			a.Invalidate(subIdx)
		}
	}
	for l, mode := range info.ModeMap {
		a.SetMode(l, mode.Mode, mode.Option)
	}
	return nil
}

// Marshal encodes device_zone_map then mode_map, each as a u32 count
// followed by that many fixed-width little-endian records.
func (info RaidInfoAppend) Marshal() []byte {
	buf := make([]byte, 0, 4+len(info.DeviceZoneMap)*14+4+len(info.ModeMap)*12)

	countBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(countBuf, uint32(len(info.DeviceZoneMap)))
	buf = append(buf, countBuf...)
	for subIdx, e := range info.DeviceZoneMap {
		rec := make([]byte, 14)
		binary.LittleEndian.PutUint32(rec[0:4], subIdx)
		binary.LittleEndian.PutUint32(rec[4:8], e.DeviceIdx)
		binary.LittleEndian.PutUint32(rec[8:12], e.ZoneIdx)
		binary.LittleEndian.PutUint16(rec[12:14], e.Invalid)
		buf = append(buf, rec...)
	}

	binary.LittleEndian.PutUint32(countBuf, uint32(len(info.ModeMap)))
	buf = append(buf, countBuf...)
	for l, m := range info.ModeMap {
		rec := make([]byte, 12)
		binary.LittleEndian.PutUint32(rec[0:4], l)
		binary.LittleEndian.PutUint32(rec[4:8], uint32(m.Mode))
		binary.LittleEndian.PutUint32(rec[8:12], m.Option)
		buf = append(buf, rec...)
	}
	return buf
}

// UnmarshalRaidInfoAppend decodes the wire format Marshal produces.
func UnmarshalRaidInfoAppend(data []byte) (RaidInfoAppend, error) {
	info := RaidInfoAppend{
		DeviceZoneMap: make(map[uint32]raidmap.MapEntry),
		ModeMap:       make(map[uint32]raidmap.ModeEntry),
	}

	off := 0
	readU32 := func(op string) (uint32, error) {
		if off+4 > len(data) {
			return 0, fmt.Errorf("raidinfo: %s: truncated", op)
		}
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v, nil
	}

	mapCount, err := readU32("device_zone_map count")
	if err != nil {
		return info, err
	}
	for i := uint32(0); i < mapCount; i++ {
		if off+14 > len(data) {
			return info, fmt.Errorf("raidinfo: device_zone_map record %d: truncated", i)
		}
		subIdx := binary.LittleEndian.Uint32(data[off : off+4])
		dev := binary.LittleEndian.Uint32(data[off+4 : off+8])
		zone := binary.LittleEndian.Uint32(data[off+8 : off+12])
		invalid := binary.LittleEndian.Uint16(data[off+12 : off+14])
		off += 14
		info.DeviceZoneMap[subIdx] = raidmap.MapEntry{DeviceIdx: dev, ZoneIdx: zone, Invalid: invalid}
	}

	modeCount, err := readU32("mode_map count")
	if err != nil {
		return info, err
	}
	for i := uint32(0); i < modeCount; i++ {
		if off+12 > len(data) {
			return info, fmt.Errorf("raidinfo: mode_map record %d: truncated", i)
		}
		l := binary.LittleEndian.Uint32(data[off : off+4])
		mode := binary.LittleEndian.Uint32(data[off+4 : off+8])
		option := binary.LittleEndian.Uint32(data[off+8 : off+12])
		off += 12
		info.ModeMap[l] = raidmap.ModeEntry{Mode: raidmode.Mode(mode), Option: option}
	}

	return info, nil
}
