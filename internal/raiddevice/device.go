// Package raiddevice implements the RAID Device: a zbd.Backend backed by a
// vector of child backends plus, for Auto mode, a Zone RAID Allocator.
// Every call is dispatched by the configured main mode and, for Auto, by
// the per-logical-zone mode the allocator records.
//
// Grounded on the teacher's internal/raid dispatcher style (per-mode
// structs each implementing RAIDController — base.go, raid0.go, raid1.go)
// generalized to the zbd.Backend capability set and to the exact
// fan-out/translation rules in original_source/fs/raid/*.{h,cc} and
// fs/zone_raid0.cc, which this repo's Concat/Raid1/Raid0/Auto dispatch
// ports from C++ into idiomatic Go rather than the teacher's simplified
// byte-stream model.
package raiddevice

import (
	"fmt"
	"sync"

	"github.com/Anthya1104/zoneraid/internal/raidmap"
	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/rlog"
	"github.com/Anthya1104/zoneraid/internal/zbd"
	"github.com/sirupsen/logrus"
)

// Device implements zbd.Backend over a vector of child backends.
type Device struct {
	log     *logrus.Logger
	mode    raidmode.Mode
	devices []zbd.Backend

	childGeo zbd.Geometry
	geo      zbd.Geometry // logical geometry exposed to callers

	maxActiveZones uint32
	maxOpenZones   uint32

	// Auto-RAID only. azMu guards azones independently of the allocator's
	// own mutex (spec §5's "single coarse mutex" is modeled here as two
	// narrowly-scoped locks, one per owned table, neither ever held across
	// a child I/O call).
	alloc     *raidmap.Allocator
	metaZones uint32
	azMu      sync.Mutex
	azones    zbd.ZoneList
}

// New builds a RAID Device over devices in the given main mode. For Auto
// mode, alloc must be non-nil and metaZones is the count of logical zones
// reserved for the filesystem's superblock (spec §3). log may be nil.
func New(log *logrus.Logger, mode raidmode.Mode, devices []zbd.Backend, alloc *raidmap.Allocator, metaZones uint32) (*Device, error) {
	if len(devices) == 0 {
		return nil, zbd.NewInvalidArgument("new", "no child devices")
	}
	if !mode.Implemented() {
		return nil, zbd.NewUnsupported("new", fmt.Sprintf("raid mode %s is reserved and not implemented", mode))
	}
	if mode == raidmode.Auto && alloc == nil {
		return nil, zbd.NewInvalidArgument("new", "auto mode requires an allocator")
	}
	d := &Device{
		log:       rlog.Or(log),
		mode:      mode,
		devices:   devices,
		alloc:     alloc,
		metaZones: metaZones,
	}
	return d, nil
}

// primary is the "default child" the spec serves zone-state predicates and
// accessors from in Raid1/Raid0 mode (def_dev() in the original source).
func (d *Device) primary() zbd.Backend { return d.devices[0] }

func (d *Device) nrDevices() uint32 { return uint32(len(d.devices)) }

// Open forwards to every child in order; on the first failure the whole
// open fails and no rollback of already-opened children is attempted
// (spec §4.5 — callers drop the device). After all children open, geometry
// is re-synced: taken from the first child and checked against the rest.
// The returned max active/open zone limits are those of the last child.
func (d *Device) Open(readonly, exclusive bool) (uint32, uint32, error) {
	d.log.Infof("[RAID] Open(readonly=%v, exclusive=%v) mode=%s devices=%d", readonly, exclusive, d.mode, len(d.devices))

	var maxActive, maxOpen uint32
	for i, dev := range d.devices {
		ma, mo, err := dev.Open(readonly, exclusive)
		if err != nil {
			return 0, 0, zbd.WrapIO("open", err)
		}
		maxActive, maxOpen = ma, mo
		d.log.Debugf("[RAID] %s opened (%d/%d): geo=%+v", dev.Filename(), i+1, len(d.devices), dev.Geometry())
	}

	if err := d.syncGeometry(); err != nil {
		return 0, 0, err
	}
	d.maxActiveZones, d.maxOpenZones = maxActive, maxOpen

	if d.mode == raidmode.Auto {
		if err := d.refreshAutoZones(); err != nil {
			return 0, 0, err
		}
	}

	d.log.Infof("[RAID] after Open(): logical geometry=%+v", d.geo)
	return maxActive, maxOpen, nil
}

// syncGeometry verifies invariant 1 (all children report identical
// geometry) and derives the logical geometry per spec §3's table.
func (d *Device) syncGeometry() error {
	d.childGeo = d.devices[0].Geometry()
	for _, dev := range d.devices[1:] {
		g := dev.Geometry()
		if g != d.childGeo {
			return zbd.NewCorruption("sync_geometry", fmt.Sprintf(
				"child %s geometry %+v does not match %+v", dev.Filename(), g, d.childGeo))
		}
	}

	n := d.nrDevices()
	switch d.mode {
	case raidmode.Concat:
		total := uint32(0)
		for _, dev := range d.devices {
			total += dev.Geometry().NrZones
		}
		d.geo = zbd.Geometry{BlockSize: d.childGeo.BlockSize, ZoneSize: d.childGeo.ZoneSize, NrZones: total}
	case raidmode.Raid1, raidmode.None:
		d.geo = d.childGeo
	case raidmode.Raid0, raidmode.Auto:
		d.geo = zbd.Geometry{
			BlockSize: d.childGeo.BlockSize,
			ZoneSize:  d.childGeo.ZoneSize * uint64(n),
			NrZones:   d.childGeo.NrZones,
		}
	default:
		return zbd.NewUnsupported("sync_geometry", fmt.Sprintf("mode %s", d.mode))
	}
	return nil
}

// Geometry returns the RAID Device's logical geometry.
func (d *Device) Geometry() zbd.Geometry { return d.geo }

// Filename returns "raid<mode>:" followed by each child's Filename joined
// by commas (spec §6).
func (d *Device) Filename() string {
	s := "raid" + d.mode.URIToken() + ":"
	for i, dev := range d.devices {
		if i > 0 {
			s += ","
		}
		s += dev.Filename()
	}
	return s
}

// MaxActiveZones and MaxOpenZones are those of the last child opened; the
// geometry invariant makes them equal across children (spec §4.5).
func (d *Device) MaxActiveZones() uint32 { return d.maxActiveZones }
func (d *Device) MaxOpenZones() uint32   { return d.maxOpenZones }
