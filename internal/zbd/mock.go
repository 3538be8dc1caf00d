package zbd

import (
	"context"
	"fmt"
	"sync"
)

// Mock is an in-memory Backend used by the RAID core's tests. It simulates
// a single zoned device: one flat byte buffer sliced into NrZones
// equal-capacity zones, each independently tracking its own write pointer
// and SWR condition. Grounded on the teacher's Disk ([][]byte per-stripe
// store) generalized to real zoned semantics, with go-ublk's Memory backend
// locking shape reduced to a single mutex per Mock instance, since a Mock
// represents one device rather than several shards.
type Mock struct {
	name string
	geo  Geometry

	mu    sync.Mutex // guards zones' condition/wp bookkeeping
	data  []byte
	zones []Zone
}

// NewMock creates a Mock backend with the given geometry. All zones start
// Empty with a zero write pointer.
func NewMock(name string, geo Geometry) *Mock {
	m := &Mock{
		name:  name,
		geo:   geo,
		data:  make([]byte, uint64(geo.NrZones)*geo.ZoneSize),
		zones: make([]Zone, geo.NrZones),
	}
	for i := range m.zones {
		start := uint64(i) * geo.ZoneSize
		m.zones[i] = Zone{
			Start:     start,
			Capacity:  geo.ZoneSize,
			Length:    geo.ZoneSize,
			WP:        start,
			Type:      ZoneTypeSWR,
			Condition: ZoneEmpty,
		}
	}
	return m
}

var _ Backend = (*Mock)(nil)
var _ BatchReader = (*Mock)(nil)

func (m *Mock) Open(readonly, exclusive bool) (uint32, uint32, error) {
	return m.geo.NrZones, m.geo.NrZones, nil
}

func (m *Mock) Geometry() Geometry { return m.geo }
func (m *Mock) Filename() string   { return m.name }

func (m *Mock) zoneIdx(pos uint64) (uint32, error) {
	if m.geo.ZoneSize == 0 {
		return 0, NewInvalidArgument("zone_idx", "zero zone size")
	}
	idx := pos / m.geo.ZoneSize
	if idx >= uint64(m.geo.NrZones) {
		return 0, NewInvalidArgument("zone_idx", fmt.Sprintf("pos %d beyond device", pos))
	}
	return uint32(idx), nil
}

func (m *Mock) ListZones() (ZoneList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(ZoneList, len(m.zones))
	copy(out, m.zones)
	return out, nil
}

func (m *Mock) Reset(start uint64) (bool, uint64, error) {
	if start%m.geo.ZoneSize != 0 {
		return false, 0, NewInvalidArgument("reset", "start not zone-aligned")
	}
	idx, err := m.zoneIdx(start)
	if err != nil {
		return false, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	z := &m.zones[idx]
	if z.Condition == ZoneOffline {
		return true, z.Capacity, nil
	}
	clear(m.data[z.Start : z.Start+z.Capacity])
	z.WP = z.Start
	z.Condition = ZoneEmpty
	return false, z.Capacity, nil
}

func (m *Mock) Finish(start uint64) error {
	idx, err := m.zoneIdx(start)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	z := &m.zones[idx]
	z.WP = z.Start + z.Capacity
	z.Condition = ZoneFull
	return nil
}

func (m *Mock) Close(start uint64) error {
	idx, err := m.zoneIdx(start)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	z := &m.zones[idx]
	if z.Condition == ZoneImplicitOpen || z.Condition == ZoneExplicitOpen {
		z.Condition = ZoneClosed
	}
	return nil
}

func (m *Mock) Read(_ context.Context, buf []byte, size int, pos uint64, _ bool) (int, error) {
	if pos%m.geo.BlockSize != 0 {
		return 0, NewInvalidArgument("read", "pos not block-aligned")
	}
	if pos+uint64(size) > uint64(len(m.data)) {
		return 0, NewInvalidArgument("read", "read beyond device")
	}
	idx, err := m.zoneIdx(pos - pos%m.geo.ZoneSize)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	offline := m.zones[idx].Condition == ZoneOffline
	m.mu.Unlock()
	if offline {
		return 0, NewInvalidArgument("read", "zone is offline")
	}
	n := copy(buf[:size], m.data[pos:pos+uint64(size)])
	return n, nil
}

func (m *Mock) ReadBatch(ctx context.Context, reqs []ReadRequest) (int, error) {
	total := 0
	for _, r := range reqs {
		n, err := m.Read(ctx, r.Buf, r.Size, r.Pos, false)
		if err != nil {
			return total, err
		}
		if n < 0 {
			return n, nil
		}
		total += n
	}
	return total, nil
}

func (m *Mock) Write(_ context.Context, data []byte, size int, pos uint64) (int, error) {
	if pos%m.geo.BlockSize != 0 {
		return 0, NewInvalidArgument("write", "pos not block-aligned")
	}
	idx, err := m.zoneIdx(pos - pos%m.geo.ZoneSize)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	z := &m.zones[idx]
	if pos != z.WP {
		return 0, NewInvalidArgument("write", fmt.Sprintf("pos %d != write pointer %d", pos, z.WP))
	}
	if !z.IsWritable() {
		return 0, NewInvalidArgument("write", "zone not writable")
	}
	if pos+uint64(size) > uint64(len(m.data)) {
		return 0, NewInvalidArgument("write", "write beyond device")
	}
	n := copy(m.data[pos:pos+uint64(size)], data[:size])
	z.WP += uint64(n)
	if z.Condition == ZoneEmpty {
		z.Condition = ZoneImplicitOpen
	}
	if z.WP >= z.Start+z.Capacity {
		z.Condition = ZoneFull
	}
	return n, nil
}

func (m *Mock) InvalidateCache(pos, size uint64) error { return nil }

func (m *Mock) zoneAt(idx uint32) Zone {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx >= uint32(len(m.zones)) {
		return Zone{}
	}
	return m.zones[idx]
}

func (m *Mock) IsSWR(idx uint32) bool      { return m.zoneAt(idx).IsSWR() }
func (m *Mock) IsOffline(idx uint32) bool  { return m.zoneAt(idx).IsOffline() }
func (m *Mock) IsWritable(idx uint32) bool { return m.zoneAt(idx).IsWritable() }
func (m *Mock) IsActive(idx uint32) bool   { return m.zoneAt(idx).IsActive() }
func (m *Mock) IsOpen(idx uint32) bool     { return m.zoneAt(idx).IsOpen() }

func (m *Mock) ZoneStart(idx uint32) uint64       { return m.zoneAt(idx).Start }
func (m *Mock) ZoneMaxCapacity(idx uint32) uint64 { return m.zoneAt(idx).Capacity }
func (m *Mock) ZoneWP(idx uint32) uint64          { return m.zoneAt(idx).WP }

// Offline marks a zone permanently offline, simulating a failed device for
// fan-out error-path tests.
func (m *Mock) Offline(idx uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < uint32(len(m.zones)) {
		m.zones[idx].Condition = ZoneOffline
	}
}
