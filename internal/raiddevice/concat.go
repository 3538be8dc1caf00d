package raiddevice

import (
	"context"

	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// concatLocateByPos consumes d.nr_zones*d.zone_size from pos per device,
// in ascending order, until pos falls inside one, returning that device and
// the remaining offset within it (spec §4.3.1).
func (d *Device) concatLocateByPos(pos uint64) (zbd.Backend, uint64, error) {
	span := uint64(d.childGeo.NrZones) * d.childGeo.ZoneSize
	if span == 0 {
		return nil, 0, zbd.NewInvalidArgument("concat_locate", "zero-sized child device")
	}
	remaining := pos
	for _, dev := range d.devices {
		if remaining < span {
			return dev, remaining, nil
		}
		remaining -= span
	}
	return nil, 0, zbd.NewInvalidArgument("concat_locate", "pos beyond concatenated device")
}

// concatLocateByZoneIdx consumes d.nr_zones zones per device until idx fits,
// returning that device and the zone index local to it.
func (d *Device) concatLocateByZoneIdx(idx uint32) (zbd.Backend, uint32, error) {
	remaining := idx
	for _, dev := range d.devices {
		n := dev.Geometry().NrZones
		if remaining < n {
			return dev, remaining, nil
		}
		remaining -= n
	}
	return nil, 0, zbd.NewInvalidArgument("concat_locate", "zone index beyond concatenated device")
}

func (d *Device) concatListZones() (zbd.ZoneList, error) {
	var out zbd.ZoneList
	base := uint64(0)
	for _, dev := range d.devices {
		zl, err := dev.ListZones()
		if err != nil {
			return nil, zbd.WrapIO("list_zones", err)
		}
		for _, z := range zl {
			z.Start += base
			out = append(out, z)
		}
		base += uint64(dev.Geometry().NrZones) * d.childGeo.ZoneSize
	}
	return out, nil
}

func (d *Device) concatReset(start uint64) (bool, uint64, error) {
	dev, localStart, err := d.concatLocateByPos(start)
	if err != nil {
		return false, 0, err
	}
	offline, cap_, err := dev.Reset(localStart)
	if err != nil {
		return false, 0, zbd.WrapIO("reset", err)
	}
	return offline, cap_, nil
}

func (d *Device) concatFinish(start uint64) error {
	dev, localStart, err := d.concatLocateByPos(start)
	if err != nil {
		return err
	}
	if err := dev.Finish(localStart); err != nil {
		return zbd.WrapIO("finish", err)
	}
	return nil
}

func (d *Device) concatClose(start uint64) error {
	dev, localStart, err := d.concatLocateByPos(start)
	if err != nil {
		return err
	}
	if err := dev.Close(localStart); err != nil {
		return zbd.WrapIO("close", err)
	}
	return nil
}

func (d *Device) concatRead(ctx context.Context, buf []byte, size int, pos uint64, direct bool) (int, error) {
	dev, localPos, err := d.concatLocateByPos(pos)
	if err != nil {
		return 0, err
	}
	n, err := dev.Read(ctx, buf, size, localPos, direct)
	if err != nil {
		return n, zbd.WrapIO("read", err)
	}
	return n, nil
}

func (d *Device) concatWrite(ctx context.Context, data []byte, size int, pos uint64) (int, error) {
	dev, localPos, err := d.concatLocateByPos(pos)
	if err != nil {
		return 0, err
	}
	n, err := dev.Write(ctx, data, size, localPos)
	if err != nil {
		return n, zbd.WrapIO("write", err)
	}
	return n, nil
}

func (d *Device) concatInvalidateCache(pos, size uint64) error {
	dev, localPos, err := d.concatLocateByPos(pos)
	if err != nil {
		return err
	}
	return dev.InvalidateCache(localPos, size)
}
