// Package raidmode defines the RAID Mode tagged enum shared by the
// allocator's ModeEntry, the RAID Device dispatcher, and the --raids= URI
// grammar. Grounded on original_source/fs/raid/zone_raid.h's RaidMode enum
// and raid_mode_str/raid_mode_from_str, extended with the Concat and Auto
// modes spec.md adds on top of the zenfs original.
package raidmode

import "strings"

// Mode is the tagged RAID mode enum (spec §3). Only None, Raid0, Raid1,
// Concat and Auto are implementable; Raid5/Raid6/Raid10 are reserved.
type Mode uint32

const (
	None Mode = iota
	Raid0
	Raid1
	Raid5
	Raid6
	Raid10
	Concat
	Auto
)

// Implemented reports whether the RAID Device dispatcher has a real
// implementation for this mode, as opposed to a reserved "unsupported" stub.
func (m Mode) Implemented() bool {
	switch m {
	case None, Raid0, Raid1, Concat, Auto:
		return true
	default:
		return false
	}
}

// String returns the canonical short form used by RaidInfoBasic diagnostics
// and error messages (e.g. "main_mode mismatch: superblock-raid1 !=
// disk-raida" from spec §6).
func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Raid0:
		return "raid0"
	case Raid1:
		return "raid1"
	case Raid5:
		return "raid5"
	case Raid6:
		return "raid6"
	case Raid10:
		return "raid10"
	case Concat:
		return "raidc"
	case Auto:
		return "raida"
	default:
		return "unknown"
	}
}

// URIToken returns the single-letter/digit token form used in the
// --raids=<mode>:<devlist> grammar (spec §6), e.g. "0", "1", "a", "c".
func (m Mode) URIToken() string {
	switch m {
	case Raid0:
		return "0"
	case Raid1:
		return "1"
	case Raid5:
		return "5"
	case Raid6:
		return "6"
	case Raid10:
		return "10"
	case Concat:
		return "c"
	case Auto:
		return "a"
	case None:
		return "n"
	default:
		return "?"
	}
}

// FromString parses both the long form ("raid0", "raida", case-insensitive)
// and the short URI token form ("0", "a", "c") into a Mode. Round-trips with
// String/URIToken for every implemented mode (spec §8 property 8).
func FromString(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raid0", "0":
		return Raid0, true
	case "raid1", "1":
		return Raid1, true
	case "raid5", "5":
		return Raid5, true
	case "raid6", "6":
		return Raid6, true
	case "raid10", "10":
		return Raid10, true
	case "raidc", "c":
		return Concat, true
	case "raida", "a":
		return Auto, true
	case "none", "n":
		return None, true
	default:
		return None, false
	}
}
