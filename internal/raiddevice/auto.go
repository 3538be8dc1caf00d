package raiddevice

import (
	"context"
	"fmt"

	"github.com/Anthya1104/zoneraid/internal/raidmap"
	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// autoZoneIdx returns the logical zone L containing pos, and pos's offset
// within that zone. Auto requests are required to stay within one logical
// zone — the allocator only guarantees a mapping per zone, and the
// enclosing filesystem never spans a write across a zone boundary.
func (d *Device) autoZoneIdx(pos uint64, size uint64) (uint32, uint64, error) {
	l := pos / d.geo.ZoneSize
	offset := pos % d.geo.ZoneSize
	if offset+size > d.geo.ZoneSize {
		return 0, 0, zbd.NewInvalidArgument("auto_zone_idx", "request crosses a logical zone boundary")
	}
	return uint32(l), offset, nil
}

// autoSlot resolves logical zone L, slot k to its physical device and
// zone, per the allocator's device_zone_map[L*N+k] (spec §4.3.4).
func (d *Device) autoSlot(l, k uint32) (zbd.Backend, raidmap.MapEntry, error) {
	entry, ok := d.alloc.Mapping(l*d.nrDevices() + k)
	if !ok {
		return nil, raidmap.MapEntry{}, zbd.NewInvalidArgument("auto_slot",
			fmt.Sprintf("logical zone %d slot %d has no mapping", l, k))
	}
	if int(entry.DeviceIdx) >= len(d.devices) {
		return nil, raidmap.MapEntry{}, zbd.NewCorruption("auto_slot",
			fmt.Sprintf("mapping device index %d out of range", entry.DeviceIdx))
	}
	return d.devices[entry.DeviceIdx], entry, nil
}

func (d *Device) autoMode(l uint32) (raidmode.Mode, error) {
	m, ok := d.alloc.Mode(l)
	if !ok {
		return 0, zbd.NewInvalidArgument("auto_mode", fmt.Sprintf("logical zone %d has no mode", l))
	}
	return m.Mode, nil
}

// autoRead and autoWrite dispatch by the logical zone's effective sub-mode:
// None and Raid1 fan out across every mapped slot (meta zones and mirrored
// zones alike are redundant across N devices, so both read the same way
// reads do in fixed Raid1 — try each until one succeeds; writes go to
// every slot and abort on the first failure); Raid0 splits at block
// boundaries across slots the way the fixed stripe dispatch does, but
// resolves each slot's device/zone from the allocator instead of a
// positional formula.
func (d *Device) autoRead(ctx context.Context, buf []byte, size int, pos uint64, direct bool) (int, error) {
	l, offset, err := d.autoZoneIdx(pos, uint64(size))
	if err != nil {
		return 0, err
	}
	mode, err := d.autoMode(l)
	if err != nil {
		return 0, err
	}

	switch mode {
	case raidmode.None, raidmode.Raid1:
		var lastErr error
		for k := uint32(0); k < d.nrDevices(); k++ {
			dev, entry, err := d.autoSlot(l, k)
			if err != nil {
				lastErr = err
				continue
			}
			localPos := dev.ZoneStart(entry.ZoneIdx) + offset
			n, err := dev.Read(ctx, buf, size, localPos, direct)
			if err == nil {
				return n, nil
			}
			lastErr = err
		}
		return 0, zbd.WrapIO("read", lastErr)
	case raidmode.Raid0:
		return d.autoStripeRW(ctx, buf, nil, size, l, offset, false)
	default:
		return 0, zbd.NewUnsupported("read", fmt.Sprintf("auto sub-mode %s", mode))
	}
}

func (d *Device) autoWrite(ctx context.Context, data []byte, size int, pos uint64) (int, error) {
	l, offset, err := d.autoZoneIdx(pos, uint64(size))
	if err != nil {
		return 0, err
	}
	mode, err := d.autoMode(l)
	if err != nil {
		return 0, err
	}

	switch mode {
	case raidmode.None, raidmode.Raid1:
		var n int
		for k := uint32(0); k < d.nrDevices(); k++ {
			dev, entry, err := d.autoSlot(l, k)
			if err != nil {
				return 0, err
			}
			localPos := dev.ZoneStart(entry.ZoneIdx) + offset
			written, err := dev.Write(ctx, data, size, localPos)
			if err != nil {
				return written, zbd.WrapIO("write", err)
			}
			n = written
		}
		return n, nil
	case raidmode.Raid0:
		return d.autoStripeRW(ctx, nil, data, size, l, offset, true)
	default:
		return 0, zbd.NewUnsupported("write", fmt.Sprintf("auto sub-mode %s", mode))
	}
}

// autoStripeRW splits [offset, offset+size) within logical zone l at block
// boundaries; block_index within the zone maps to stripe slot k = block_index
// mod N, and the slot's physical zone start (from the allocator) anchors the
// translated position, mirroring §4.3.3's formulas with slots in place of a
// fixed device index.
func (d *Device) autoStripeRW(ctx context.Context, readBuf, writeData []byte, size int, l uint32, offset uint64, isWrite bool) (int, error) {
	blockSize := d.childGeo.BlockSize
	n := d.nrDevices()
	total := 0
	off := 0
	pos := offset

	for size > 0 {
		firstChunk := int(blockSize - pos%blockSize)
		chunk := size
		if firstChunk < chunk {
			chunk = firstChunk
		}

		blockIndex := pos / blockSize
		k := uint32(blockIndex % uint64(n))
		physicalBlockIndex := blockIndex / uint64(n)

		dev, entry, err := d.autoSlot(l, k)
		if err != nil {
			return total, err
		}
		localPos := dev.ZoneStart(entry.ZoneIdx) + physicalBlockIndex*blockSize + pos%blockSize

		var got int
		var opErr error
		if isWrite {
			got, opErr = dev.Write(ctx, writeData[off:off+chunk], chunk, localPos)
		} else {
			got, opErr = dev.Read(ctx, readBuf[off:off+chunk], chunk, localPos, false)
		}
		if opErr != nil {
			op := "read"
			if isWrite {
				op = "write"
			}
			return total, zbd.WrapIO(op, opErr)
		}
		total += got
		if got < chunk {
			return total, nil
		}

		pos += uint64(chunk)
		off += chunk
		size -= chunk
	}
	return total, nil
}

// autoReset, autoFinish, autoClose resolve logical zone l's slots and fan
// out exactly as the corresponding fixed-mode dispatch would, but using
// allocator-resolved devices/zones.
func (d *Device) autoReset(start uint64) (bool, uint64, error) {
	l := uint32(start / d.geo.ZoneSize)
	mode, err := d.autoMode(l)
	if err != nil {
		return false, 0, err
	}

	var offline bool
	var capSum uint64
	for k := uint32(0); k < d.nrDevices(); k++ {
		dev, entry, err := d.autoSlot(l, k)
		if err != nil {
			return false, 0, err
		}
		off, c, err := dev.Reset(dev.ZoneStart(entry.ZoneIdx))
		if err != nil {
			return false, 0, zbd.WrapIO("reset", err)
		}
		offline = offline || off
		capSum += c
	}

	if err := d.refreshAutoZones(); err != nil {
		return false, 0, err
	}
	switch mode {
	case raidmode.Raid0:
		return offline, capSum, nil
	default:
		return offline, capSum / uint64(d.nrDevices()), nil
	}
}

func (d *Device) autoFinish(start uint64) error {
	l := uint32(start / d.geo.ZoneSize)
	for k := uint32(0); k < d.nrDevices(); k++ {
		dev, entry, err := d.autoSlot(l, k)
		if err != nil {
			return err
		}
		if err := dev.Finish(dev.ZoneStart(entry.ZoneIdx)); err != nil {
			return zbd.WrapIO("finish", err)
		}
	}
	return d.refreshAutoZones()
}

func (d *Device) autoClose(start uint64) error {
	l := uint32(start / d.geo.ZoneSize)
	for k := uint32(0); k < d.nrDevices(); k++ {
		dev, entry, err := d.autoSlot(l, k)
		if err != nil {
			return err
		}
		if err := dev.Close(dev.ZoneStart(entry.ZoneIdx)); err != nil {
			return zbd.WrapIO("close", err)
		}
	}
	return d.refreshAutoZones()
}

func (d *Device) autoInvalidateCache(pos, size uint64) error {
	l, offset, err := d.autoZoneIdx(pos, size)
	if err != nil {
		return err
	}
	for k := uint32(0); k < d.nrDevices(); k++ {
		dev, entry, err := d.autoSlot(l, k)
		if err != nil {
			return err
		}
		if err := dev.InvalidateCache(dev.ZoneStart(entry.ZoneIdx)+offset, size); err != nil {
			return err
		}
	}
	return nil
}

// refreshAutoZones rebuilds the a_zones cache from the allocator's current
// tables plus live child state (spec §3's Auto-zone cache, §4.5's
// per-logical-zone aggregation rules). Must be called with no other
// goroutine depending on a stale azones snapshot; it builds the new list
// without holding azMu and takes azMu only to swap the result in.
func (d *Device) refreshAutoZones() error {
	out := make(zbd.ZoneList, d.geo.NrZones)
	n := d.nrDevices()

	for l := uint32(0); l < d.geo.NrZones; l++ {
		_, ok := d.alloc.Mode(l)
		if !ok {
			out[l] = zbd.Zone{Start: uint64(l) * d.geo.ZoneSize, Type: zbd.ZoneTypeSWR, Condition: zbd.ZoneEmpty}
			continue
		}

		var wpSum, capSum uint64
		full, offline, writable := true, false, true
		for k := uint32(0); k < n; k++ {
			dev, entry, err := d.autoSlot(l, k)
			if err != nil {
				return err
			}
			zs := dev.ZoneStart(entry.ZoneIdx)
			wp := dev.ZoneWP(entry.ZoneIdx)
			cap_ := dev.ZoneMaxCapacity(entry.ZoneIdx)

			wpSum += wp - zs
			capSum += cap_
			if dev.IsOffline(entry.ZoneIdx) {
				offline = true
			}
			if !dev.IsWritable(entry.ZoneIdx) {
				writable = false
			}
			if wp-zs < cap_ {
				full = false
			}
		}

		condition := zbd.ZoneImplicitOpen
		switch {
		case offline:
			condition = zbd.ZoneOffline
		case full:
			condition = zbd.ZoneFull
		case wpSum == 0:
			condition = zbd.ZoneEmpty
		case !writable:
			condition = zbd.ZoneReadOnly
		}

		out[l] = zbd.Zone{
			Start:     uint64(l) * d.geo.ZoneSize,
			Capacity:  capSum,
			Length:    capSum,
			WP:        uint64(l)*d.geo.ZoneSize + wpSum,
			Type:      zbd.ZoneTypeSWR,
			Condition: condition,
		}
	}

	d.azMu.Lock()
	d.azones = out
	d.azMu.Unlock()
	return nil
}

func (d *Device) autoListZones() (zbd.ZoneList, error) {
	d.azMu.Lock()
	defer d.azMu.Unlock()
	out := make(zbd.ZoneList, len(d.azones))
	copy(out, d.azones)
	return out, nil
}
