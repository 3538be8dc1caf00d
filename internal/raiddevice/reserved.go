package raiddevice

import (
	"fmt"

	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// reservedUnsupported builds the Unsupported error every Raid5/Raid6/Raid10
// entry point returns. Parity-based RAID has no implementation in the
// source this spec was distilled from; adding it is explicitly out of
// scope (spec §9 open question).
func (d *Device) reservedUnsupported(op string) error {
	return zbd.NewUnsupported(op, fmt.Sprintf("raid mode %s is reserved", d.mode))
}
