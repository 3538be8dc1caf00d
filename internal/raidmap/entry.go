// Package raidmap owns the Zone RAID Allocator: the logical-zone to
// physical-{device,zone} mapping table and the per-logical-zone RAID mode
// table, plus the allocation primitives that populate them. Grounded on
// original_source/fs/raid/zone_raid_allocator.{h,cc} (RaidMapItem,
// RaidModeItem, ZoneRaidAllocator::createMapping), translated from the
// C++ unordered_map pair into Go maps keyed by uint32 (spec §9 design note
// accepts either representation; a dense slice is noted there as
// cache-friendlier but the sparse map keeps parity with the original
// control flow this repo is grounded on).
package raidmap

import "github.com/Anthya1104/zoneraid/internal/raidmode"

// MapEntry records which physical {device, zone} a logical-zone sub-index
// resolves to. Invalid != 0 means the slot was retired and must be skipped
// during reconstruction; it stays in the table so the slot is never reused
// until a higher-level compaction rewrites the superblock.
type MapEntry struct {
	DeviceIdx uint32
	ZoneIdx   uint32
	Invalid   uint16
}

// ModeEntry records the RAID mode (and mode-specific option, e.g. spare
// zone count for a future Raid5) governing one logical zone. For Auto main
// mode, Mode is the per-zone effective sub-mode, a refinement of the
// device-wide Auto mode.
type ModeEntry struct {
	Mode   raidmode.Mode
	Option uint32
}
