// Package zbd defines the capability set every physical zoned block device
// backend implements (spec §4.1), plus the shared Zone/ZoneList vocabulary
// and error taxonomy the RAID core dispatches against. Concrete backends
// (a libzbd-style driver, a ZoneFS-style driver) are external collaborators
// per spec §1 and are not implemented here beyond the Mock test double;
// production backends live outside this module's scope and only need to
// satisfy Backend.
package zbd

import "context"

// Geometry describes a backend's (or the RAID Device's logical) zone
// layout. All child backends of a RAID Device MUST report identical
// Geometry — checked once at Open and never re-verified per call.
type Geometry struct {
	BlockSize uint64 // bytes, power-of-two in practice
	ZoneSize  uint64 // bytes, a multiple of BlockSize
	NrZones   uint32
}

// Backend is the capability set a physical (or virtualized) zoned block
// device exposes. pos/start parameters are always in the backend's own
// units: physical bytes for a concrete device, logical bytes for a RAID
// Device sitting on top of several.
type Backend interface {
	// Open acquires the device, returning the device's max active/open zone
	// limits. Fails if the device cannot be acquired.
	Open(readonly, exclusive bool) (maxActiveZones, maxOpenZones uint32, err error)

	// ListZones returns every zone's physical record.
	ListZones() (ZoneList, error)

	// Reset rewinds the zone starting at start (byte-aligned to ZoneSize)
	// back to Empty, returning whether it went offline and its (possibly
	// updated) max capacity.
	Reset(start uint64) (offline bool, maxCapacity uint64, err error)
	// Finish transitions the zone at start to Full.
	Finish(start uint64) error
	// Close transitions the zone at start to Closed.
	Close(start uint64) error

	// Read reads up to size bytes starting at pos (block-aligned) into buf,
	// returning the number of bytes actually read. direct requests O_DIRECT
	// semantics where the backend supports them.
	Read(ctx context.Context, buf []byte, size int, pos uint64, direct bool) (int, error)
	// Write writes data (size bytes) at pos, which MUST equal the zone's
	// current write pointer. Returns bytes written.
	Write(ctx context.Context, data []byte, size int, pos uint64) (int, error)

	// InvalidateCache drops any cached view of [pos, pos+size) (block-aligned).
	InvalidateCache(pos, size uint64) error

	// Per-zone predicates, keyed by zone index.
	IsSWR(idx uint32) bool
	IsOffline(idx uint32) bool
	IsWritable(idx uint32) bool
	IsActive(idx uint32) bool
	IsOpen(idx uint32) bool

	// Per-zone accessors, keyed by zone index, in physical units.
	ZoneStart(idx uint32) uint64
	ZoneMaxCapacity(idx uint32) uint64
	ZoneWP(idx uint32) uint64

	// Geometry returns the backend's block/zone geometry.
	Geometry() Geometry

	// Filename returns a diagnostic identifier for the backend.
	Filename() string
}

// BatchReader is an optional capability: a backend (or the RAID Device) may
// submit several read fragments and wait for all to complete before
// returning, rather than issuing them one at a time. Ordering between
// fragments is irrelevant for reads; the returned count is the sum of
// positive results, or the first negative result observed. Per spec §5 this
// path MUST NOT be used for writes — zone write-pointer ordering would be
// violated by out-of-order completion.
type BatchReader interface {
	ReadBatch(ctx context.Context, reqs []ReadRequest) (int, error)
}

// ReadRequest is one fragment of a batched read.
type ReadRequest struct {
	Buf  []byte
	Size int
	Pos  uint64
}
