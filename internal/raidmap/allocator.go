package raidmap

import (
	"fmt"
	"sync"

	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// devZone is the (device_idx, zone_idx) pair used as the reverse-index key.
type devZone struct {
	Device uint32
	Zone   uint32
}

// Allocator owns the mapping and mode tables for Auto-RAID: for each
// logical-zone sub-index it knows which {device, zone} serves it, and for
// each logical zone it knows the RAID mode governing it. A single coarse
// mutex guards the allocator's own tables (spec §5); state callers derive
// from them is guarded by the caller. It is never held across a child
// backend I/O call.
type Allocator struct {
	mu sync.Mutex

	deviceZoneMap map[uint32]MapEntry // sub_idx -> MapEntry
	deviceZoneInv map[devZone]uint32  // (device_idx, zone_idx) -> sub_idx
	modeMap       map[uint32]ModeEntry

	deviceNr uint32
	zoneNr   uint32 // child.nr_zones
}

// New creates an empty allocator for deviceNr child devices, each with
// zoneNr physical zones. Mirrors the C++ constructor's bare-table start;
// callers install the meta region via InstallMeta afterward.
func New(deviceNr, zoneNr uint32) *Allocator {
	return &Allocator{
		deviceZoneMap: make(map[uint32]MapEntry),
		deviceZoneInv: make(map[devZone]uint32),
		modeMap:       make(map[uint32]ModeEntry),
		deviceNr:      deviceNr,
		zoneNr:        zoneNr,
	}
}

// DeviceNr and ZoneNr expose the allocator's scalar geometry.
func (a *Allocator) DeviceNr() uint32 { return a.deviceNr }
func (a *Allocator) ZoneNr() uint32   { return a.zoneNr }

// InstallMeta fixes the first metaZones logical zones to RaidMode None,
// mapping logical zone L 1:1 to physical zone index L on every child
// device (spec §3's reserved meta region). Called once at mkfs time before
// any Auto allocation.
func (a *Allocator) InstallMeta(metaZones uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for l := uint32(0); l < metaZones; l++ {
		a.modeMap[l] = ModeEntry{Mode: raidmode.None}
		for dev := uint32(0); dev < a.deviceNr; dev++ {
			subIdx := l*a.deviceNr + dev
			if err := a.setMappingLocked(subIdx, dev, l); err != nil {
				return fmt.Errorf("install meta zone %d: %w", l, err)
			}
		}
	}
	return nil
}

// SetMapping installs a mapping for sub_idx, updating the inverse index.
// Rejects the call with CodeAlreadyMapped if (dev, zone) already appears
// under another sub_idx, including an entry retired by Invalidate, which
// keeps its pair reserved (spec §4.2; the original source has
// no such check, this repo adds it per the spec's explicit instruction).
func (a *Allocator) SetMapping(subIdx, dev, zone uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.setMappingLocked(subIdx, dev, zone)
}

func (a *Allocator) setMappingLocked(subIdx, dev, zone uint32) error {
	key := devZone{Device: dev, Zone: zone}
	if existing, ok := a.deviceZoneInv[key]; ok && existing != subIdx {
		return zbd.NewAlreadyMapped("set_mapping",
			fmt.Sprintf("device %d zone %d already mapped to sub_idx %d", dev, zone, existing))
	}
	if old, ok := a.deviceZoneMap[subIdx]; ok && old.Invalid == 0 {
		delete(a.deviceZoneInv, devZone{Device: old.DeviceIdx, Zone: old.ZoneIdx})
	}
	a.deviceZoneMap[subIdx] = MapEntry{DeviceIdx: dev, ZoneIdx: zone}
	a.deviceZoneInv[key] = subIdx
	return nil
}

// Invalidate flips a mapping entry's Invalid flag to 1 without removing it
// from the table, so its slot is never reused until a higher-level
// compaction rewrites the superblock (spec §3 lifecycle).
func (a *Allocator) Invalidate(subIdx uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.deviceZoneMap[subIdx]
	if !ok {
		return
	}
	e.Invalid = 1
	a.deviceZoneMap[subIdx] = e
}

// SetMode sets or overwrites the per-logical-zone RAID mode.
func (a *Allocator) SetMode(l uint32, mode raidmode.Mode, option uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modeMap[l] = ModeEntry{Mode: mode, Option: option}
}

// Mode returns the per-logical-zone mode entry and whether it's set.
func (a *Allocator) Mode(l uint32) (ModeEntry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.modeMap[l]
	return m, ok
}

// Mapping returns the physical mapping for a sub-index and whether it's set.
func (a *Allocator) Mapping(subIdx uint32) (MapEntry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.deviceZoneMap[subIdx]
	return m, ok
}

// FreeZoneOnDevice returns the lowest zone index j in [0, zone_nr) such
// that (dev, j) is not present in the inverse index.
func (a *Allocator) FreeZoneOnDevice(dev uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for j := uint32(0); j < a.zoneNr; j++ {
		if _, used := a.deviceZoneInv[devZone{Device: dev, Zone: j}]; !used {
			return j, true
		}
	}
	return 0, false
}

// FreeDeviceForZone returns the lowest device index i in [0, device_nr)
// such that (i, zoneIdx) is not present in the inverse index.
func (a *Allocator) FreeDeviceForZone(zoneIdx uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := uint32(0); i < a.deviceNr; i++ {
		if _, used := a.deviceZoneInv[devZone{Device: i, Zone: zoneIdx}]; !used {
			return i, true
		}
	}
	return 0, false
}

// CreateMapping allocates N physical slots (N = device_nr) for logical zone
// L, one per device, at consecutive sub-indices L*N..L*N+N-1. Sweeps
// physical zone indices in ascending order; at each zone index it assigns
// the next unassigned device (tie-break: ascending device index, ascending
// zone index) until every device is covered or the zone index range is
// exhausted. Nothing is committed unless all N slots were found — a
// failed attempt leaves the table untouched and returns NoSpace.
func (a *Allocator) CreateMapping(l uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.deviceNr
	assigned := make([]MapEntry, 0, n)
	deviceCursor := uint32(0)

	for j := uint32(0); j < a.zoneNr && deviceCursor < n; j++ {
		for deviceCursor < n {
			if _, used := a.deviceZoneInv[devZone{Device: deviceCursor, Zone: j}]; used {
				break
			}
			assigned = append(assigned, MapEntry{DeviceIdx: deviceCursor, ZoneIdx: j})
			deviceCursor++
		}
	}

	if deviceCursor < n {
		return zbd.NewNoSpace("create_mapping",
			fmt.Sprintf("logical zone %d: only %d/%d device slots available", l, deviceCursor, n))
	}

	for k, e := range assigned {
		subIdx := l*n + uint32(k)
		if err := a.setMappingLocked(subIdx, e.DeviceIdx, e.ZoneIdx); err != nil {
			return err
		}
	}
	return nil
}

// DeviceZoneMap returns a snapshot copy of the mapping table.
func (a *Allocator) DeviceZoneMap() map[uint32]MapEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[uint32]MapEntry, len(a.deviceZoneMap))
	for k, v := range a.deviceZoneMap {
		out[k] = v
	}
	return out
}

// ModeMap returns a snapshot copy of the mode table.
func (a *Allocator) ModeMap() map[uint32]ModeEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[uint32]ModeEntry, len(a.modeMap))
	for k, v := range a.modeMap {
		out[k] = v
	}
	return out
}
