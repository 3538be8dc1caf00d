package raiddevice

import (
	"context"

	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// stripeFragment is one block-sized (or shorter, for the first/last) piece
// of a striped read/write request, already translated to its target
// device and physical position (spec §4.3.3).
type stripeFragment struct {
	dev       zbd.Backend
	localPos  uint64
	off       int // offset into the caller's buffer
	chunk     int
}

// splitStripe breaks [pos, pos+size) into block-aligned fragments, each
// assigned to device (block_index mod N) at physical_pos per §4.3.3,
// mirroring the split rule §4.4 gives for read/write ("request size =
// min(size, block_size - pos mod block_size)").
func (d *Device) splitStripe(pos uint64, size int) []stripeFragment {
	blockSize := d.childGeo.BlockSize
	n := uint64(d.nrDevices())

	var frags []stripeFragment
	off := 0
	for size > 0 {
		firstChunk := int(blockSize - pos%blockSize)
		chunk := size
		if firstChunk < chunk {
			chunk = firstChunk
		}

		blockIndex := pos / blockSize
		deviceIndex := blockIndex % n
		physicalBlockIndex := blockIndex / n
		physicalPos := physicalBlockIndex*blockSize + pos%blockSize

		frags = append(frags, stripeFragment{
			dev:      d.devices[deviceIndex],
			localPos: physicalPos,
			off:      off,
			chunk:    chunk,
		})

		pos += uint64(chunk)
		off += chunk
		size -= chunk
	}
	return frags
}

// stripeRead and stripeWrite dispatch each fragment to its device and
// accumulate bytes transferred; any short or negative return stops the
// operation and is returned immediately (spec §4.4).
func (d *Device) stripeRead(ctx context.Context, buf []byte, size int, pos uint64, direct bool) (int, error) {
	total := 0
	for _, f := range d.splitStripe(pos, size) {
		n, err := f.dev.Read(ctx, buf[f.off:f.off+f.chunk], f.chunk, f.localPos, direct)
		if err != nil {
			return total, zbd.WrapIO("read", err)
		}
		total += n
		if n < f.chunk {
			return total, nil
		}
	}
	return total, nil
}

func (d *Device) stripeWrite(ctx context.Context, data []byte, size int, pos uint64) (int, error) {
	total := 0
	for _, f := range d.splitStripe(pos, size) {
		n, err := f.dev.Write(ctx, data[f.off:f.off+f.chunk], f.chunk, f.localPos)
		if err != nil {
			return total, zbd.WrapIO("write", err)
		}
		total += n
		if n < f.chunk {
			return total, nil
		}
	}
	return total, nil
}

// stripeReset, stripeFinish, stripeClose, stripeInvalidateCache fan out to
// every device at the scaled position start/N, since logical zones are N×
// wider than child zones.
func (d *Device) stripeReset(start uint64) (bool, uint64, error) {
	n := uint64(d.nrDevices())
	scaled := start / n
	var offline bool
	var cap_ uint64
	for _, dev := range d.devices {
		off, c, err := dev.Reset(scaled)
		if err != nil {
			return false, 0, zbd.WrapIO("reset", err)
		}
		offline, cap_ = off, c
	}
	return offline, cap_ * n, nil
}

func (d *Device) stripeFinish(start uint64) error {
	n := uint64(d.nrDevices())
	scaled := start / n
	for _, dev := range d.devices {
		if err := dev.Finish(scaled); err != nil {
			return zbd.WrapIO("finish", err)
		}
	}
	return nil
}

func (d *Device) stripeClose(start uint64) error {
	n := uint64(d.nrDevices())
	scaled := start / n
	for _, dev := range d.devices {
		if err := dev.Close(scaled); err != nil {
			return zbd.WrapIO("close", err)
		}
	}
	return nil
}

func (d *Device) stripeInvalidateCache(pos, size uint64) error {
	n := uint64(d.nrDevices())
	scaledPos, scaledSize := pos/n, size/n
	for _, dev := range d.devices {
		if err := dev.InvalidateCache(scaledPos, scaledSize); err != nil {
			return err
		}
	}
	return nil
}

// stripeZoneStart and stripeZoneWP aggregate per-child values by summing
// across devices (equivalent to child_value × N under the geometry
// invariant — spec §4.3.3). stripeZoneMaxCapacity returns child × N.
func (d *Device) stripeZoneStart(idx uint32) uint64 {
	var sum uint64
	for _, dev := range d.devices {
		sum += dev.ZoneStart(idx)
	}
	return sum
}

func (d *Device) stripeZoneWP(idx uint32) uint64 {
	var sum uint64
	for _, dev := range d.devices {
		sum += dev.ZoneWP(idx)
	}
	return sum
}

func (d *Device) stripeZoneMaxCapacity(idx uint32) uint64 {
	return d.primary().ZoneMaxCapacity(idx) * uint64(d.nrDevices())
}

func (d *Device) stripeListZones() (zbd.ZoneList, error) {
	zl, err := d.primary().ListZones()
	if err != nil {
		return nil, zbd.WrapIO("list_zones", err)
	}
	n := uint64(d.nrDevices())
	out := make(zbd.ZoneList, len(zl))
	for i, z := range zl {
		z.Start = d.stripeZoneStart(uint32(i))
		z.Capacity *= n
		z.Length *= n
		z.WP = d.stripeZoneWP(uint32(i))
		out[i] = z
	}
	return out, nil
}
