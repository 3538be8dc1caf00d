package raiddevice

import (
	"context"

	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/zbd"
)

var _ zbd.Backend = (*Device)(nil)
var _ zbd.BatchReader = (*Device)(nil)

// ListZones returns the logical device's zone records, synthesized per
// main mode (spec §4.3; Auto is O(1) via the a_zones cache).
func (d *Device) ListZones() (zbd.ZoneList, error) {
	switch d.mode {
	case raidmode.Concat:
		return d.concatListZones()
	case raidmode.Raid1, raidmode.None:
		return d.mirrorListZones()
	case raidmode.Raid0:
		return d.stripeListZones()
	case raidmode.Auto:
		return d.autoListZones()
	default:
		return nil, d.reservedUnsupported("list_zones")
	}
}

func (d *Device) Reset(start uint64) (bool, uint64, error) {
	switch d.mode {
	case raidmode.Concat:
		return d.concatReset(start)
	case raidmode.Raid1, raidmode.None:
		return d.mirrorReset(start)
	case raidmode.Raid0:
		return d.stripeReset(start)
	case raidmode.Auto:
		return d.autoReset(start)
	default:
		return false, 0, d.reservedUnsupported("reset")
	}
}

func (d *Device) Finish(start uint64) error {
	switch d.mode {
	case raidmode.Concat:
		return d.concatFinish(start)
	case raidmode.Raid1, raidmode.None:
		return d.mirrorFinish(start)
	case raidmode.Raid0:
		return d.stripeFinish(start)
	case raidmode.Auto:
		return d.autoFinish(start)
	default:
		return d.reservedUnsupported("finish")
	}
}

func (d *Device) Close(start uint64) error {
	switch d.mode {
	case raidmode.Concat:
		return d.concatClose(start)
	case raidmode.Raid1, raidmode.None:
		return d.mirrorClose(start)
	case raidmode.Raid0:
		return d.stripeClose(start)
	case raidmode.Auto:
		return d.autoClose(start)
	default:
		return d.reservedUnsupported("close")
	}
}

func (d *Device) Read(ctx context.Context, buf []byte, size int, pos uint64, direct bool) (int, error) {
	switch d.mode {
	case raidmode.Concat:
		return d.concatRead(ctx, buf, size, pos, direct)
	case raidmode.Raid1, raidmode.None:
		return d.mirrorRead(ctx, buf, size, pos, direct)
	case raidmode.Raid0:
		return d.stripeRead(ctx, buf, size, pos, direct)
	case raidmode.Auto:
		return d.autoRead(ctx, buf, size, pos, direct)
	default:
		return 0, d.reservedUnsupported("read")
	}
}

func (d *Device) Write(ctx context.Context, data []byte, size int, pos uint64) (int, error) {
	switch d.mode {
	case raidmode.Concat:
		return d.concatWrite(ctx, data, size, pos)
	case raidmode.Raid1, raidmode.None:
		return d.mirrorWrite(ctx, data, size, pos)
	case raidmode.Raid0:
		return d.stripeWrite(ctx, data, size, pos)
	case raidmode.Auto:
		return d.autoWrite(ctx, data, size, pos)
	default:
		return 0, d.reservedUnsupported("write")
	}
}

func (d *Device) InvalidateCache(pos, size uint64) error {
	switch d.mode {
	case raidmode.Concat:
		return d.concatInvalidateCache(pos, size)
	case raidmode.Raid1, raidmode.None:
		return d.mirrorInvalidateCache(pos, size)
	case raidmode.Raid0:
		return d.stripeInvalidateCache(pos, size)
	case raidmode.Auto:
		return d.autoInvalidateCache(pos, size)
	default:
		return d.reservedUnsupported("invalidate_cache")
	}
}

// ReadBatch submits every fragment through Read and waits for all to
// complete, per the "optional batched-read submission interface" design
// note (spec §9): semantically identical to issuing each Read in sequence,
// stopping at the first negative result.
func (d *Device) ReadBatch(ctx context.Context, reqs []zbd.ReadRequest) (int, error) {
	total := 0
	for _, r := range reqs {
		n, err := d.Read(ctx, r.Buf, r.Size, r.Pos, false)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// zoneIdxPredicate routes a per-zone-index query to the device that
// actually tracks that zone's physical state: the concatenated child for
// Concat, the primary child for Raid1/Raid0 (and None, meta zones being
// mirrored across devices so any slot reflects the same redundancy state),
// or slot 0 of L for Auto.
func (d *Device) zoneIdxPredicate(idx uint32, call func(zbd.Backend, uint32) bool) bool {
	switch d.mode {
	case raidmode.Concat:
		dev, localIdx, err := d.concatLocateByZoneIdx(idx)
		if err != nil {
			return false
		}
		return call(dev, localIdx)
	case raidmode.Raid1, raidmode.Raid0, raidmode.None:
		return call(d.primary(), idx)
	case raidmode.Auto:
		dev, entry, err := d.autoSlot(idx, 0)
		if err != nil {
			return false
		}
		return call(dev, entry.ZoneIdx)
	default:
		return false
	}
}

func (d *Device) IsSWR(idx uint32) bool {
	return d.zoneIdxPredicate(idx, zbd.Backend.IsSWR)
}

func (d *Device) IsOffline(idx uint32) bool {
	return d.zoneIdxPredicate(idx, zbd.Backend.IsOffline)
}

func (d *Device) IsWritable(idx uint32) bool {
	return d.zoneIdxPredicate(idx, zbd.Backend.IsWritable)
}

func (d *Device) IsActive(idx uint32) bool {
	return d.zoneIdxPredicate(idx, zbd.Backend.IsActive)
}

func (d *Device) IsOpen(idx uint32) bool {
	return d.zoneIdxPredicate(idx, zbd.Backend.IsOpen)
}

func (d *Device) zoneIdxAccessor(idx uint32, call func(zbd.Backend, uint32) uint64) uint64 {
	switch d.mode {
	case raidmode.Concat:
		dev, localIdx, err := d.concatLocateByZoneIdx(idx)
		if err != nil {
			return 0
		}
		return call(dev, localIdx)
	case raidmode.Raid1, raidmode.None:
		return call(d.primary(), idx)
	case raidmode.Raid0:
		return call(d.primary(), idx) // overridden below for the aggregated accessors
	case raidmode.Auto:
		dev, entry, err := d.autoSlot(idx, 0)
		if err != nil {
			return 0
		}
		return call(dev, entry.ZoneIdx)
	default:
		return 0
	}
}

func (d *Device) ZoneStart(idx uint32) uint64 {
	if d.mode == raidmode.Raid0 {
		return d.stripeZoneStart(idx)
	}
	return d.zoneIdxAccessor(idx, zbd.Backend.ZoneStart)
}

func (d *Device) ZoneMaxCapacity(idx uint32) uint64 {
	if d.mode == raidmode.Raid0 {
		return d.stripeZoneMaxCapacity(idx)
	}
	return d.zoneIdxAccessor(idx, zbd.Backend.ZoneMaxCapacity)
}

func (d *Device) ZoneWP(idx uint32) uint64 {
	if d.mode == raidmode.Raid0 {
		return d.stripeZoneWP(idx)
	}
	return d.zoneIdxAccessor(idx, zbd.Backend.ZoneWP)
}
