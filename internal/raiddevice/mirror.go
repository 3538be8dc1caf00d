package raiddevice

import (
	"context"

	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// mirrorWrite fans data out to every child at pos, identical on each. The
// first child returning an error aborts the operation; earlier successful
// writes are not rolled back (zoned devices have no in-zone overwrite, so
// the only recovery is a higher-level finish-and-reset — spec §7).
func (d *Device) mirrorWrite(ctx context.Context, data []byte, size int, pos uint64) (int, error) {
	var n int
	for _, dev := range d.devices {
		written, err := dev.Write(ctx, data, size, pos)
		if err != nil {
			return written, zbd.WrapIO("write", err)
		}
		n = written
	}
	return n, nil
}

// mirrorRead tries each child in order, returning the first success; a
// child that errors is skipped in favor of the next, and the last error is
// returned only if every child fails.
func (d *Device) mirrorRead(ctx context.Context, buf []byte, size int, pos uint64, direct bool) (int, error) {
	var lastErr error
	for _, dev := range d.devices {
		n, err := dev.Read(ctx, buf, size, pos, direct)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return 0, zbd.WrapIO("read", lastErr)
}

// mirrorReset, mirrorFinish, mirrorClose issue the state-changing op to
// every child; the first error aborts and is returned (spec §4.3.2, §7).
func (d *Device) mirrorReset(start uint64) (bool, uint64, error) {
	var offline bool
	var cap_ uint64
	for _, dev := range d.devices {
		off, c, err := dev.Reset(start)
		if err != nil {
			return false, 0, zbd.WrapIO("reset", err)
		}
		offline, cap_ = off, c
	}
	return offline, cap_, nil
}

func (d *Device) mirrorFinish(start uint64) error {
	for _, dev := range d.devices {
		if err := dev.Finish(start); err != nil {
			return zbd.WrapIO("finish", err)
		}
	}
	return nil
}

func (d *Device) mirrorClose(start uint64) error {
	for _, dev := range d.devices {
		if err := dev.Close(start); err != nil {
			return zbd.WrapIO("close", err)
		}
	}
	return nil
}

func (d *Device) mirrorInvalidateCache(pos, size uint64) error {
	for _, dev := range d.devices {
		if err := dev.InvalidateCache(pos, size); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) mirrorListZones() (zbd.ZoneList, error) {
	return d.primary().ListZones()
}
