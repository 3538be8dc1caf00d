package zbd_test

import (
	"context"
	"testing"

	"github.com/Anthya1104/zoneraid/internal/zbd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geo() zbd.Geometry {
	return zbd.Geometry{BlockSize: 512, ZoneSize: 4096, NrZones: 4}
}

func TestMock_WriteReadRoundTrip(t *testing.T) {
	m := zbd.NewMock("dev0", geo())
	ctx := context.Background()

	data := make([]byte, 512)
	for i := range data {
		data[i] = 0xAA
	}
	n, err := m.Write(ctx, data, len(data), 0)
	require.NoError(t, err)
	assert.Equal(t, 512, n)

	buf := make([]byte, 512)
	n, err = m.Read(ctx, buf, len(buf), 0, false)
	require.NoError(t, err)
	assert.Equal(t, 512, n)
	assert.Equal(t, data, buf)
}

func TestMock_WriteRejectsNonWP(t *testing.T) {
	m := zbd.NewMock("dev0", geo())
	ctx := context.Background()
	data := make([]byte, 512)

	_, err := m.Write(ctx, data, len(data), 512) // zone wp is still 0
	assert.Error(t, err)
	assert.True(t, zbd.IsCode(err, zbd.CodeInvalidArgument))
}

func TestMock_ResetReopensZone(t *testing.T) {
	m := zbd.NewMock("dev0", geo())
	ctx := context.Background()
	data := make([]byte, 4096)
	_, err := m.Write(ctx, data, len(data), 0)
	require.NoError(t, err)
	assert.False(t, m.IsWritable(0))
	assert.Equal(t, zbd.ZoneFull, zoneCondition(t, m, 0))

	offline, maxCap, err := m.Reset(0)
	require.NoError(t, err)
	assert.False(t, offline)
	assert.Equal(t, uint64(4096), maxCap)
	assert.Equal(t, uint64(0), m.ZoneWP(0))
}

func TestMock_FinishAndClose(t *testing.T) {
	m := zbd.NewMock("dev0", geo())
	ctx := context.Background()
	_, err := m.Write(ctx, make([]byte, 512), 512, 0)
	require.NoError(t, err)

	require.NoError(t, m.Close(0))
	assert.Equal(t, zbd.ZoneClosed, zoneCondition(t, m, 0))

	require.NoError(t, m.Finish(0))
	assert.Equal(t, zbd.ZoneFull, zoneCondition(t, m, 0))
	assert.False(t, m.IsWritable(0))
}

func TestMock_ReadRejectsOfflineZone(t *testing.T) {
	m := zbd.NewMock("dev0", geo())
	ctx := context.Background()
	_, err := m.Write(ctx, make([]byte, 512), 512, 0)
	require.NoError(t, err)

	m.Offline(0)

	_, err = m.Read(ctx, make([]byte, 512), 512, 0, false)
	assert.Error(t, err)
	assert.True(t, zbd.IsCode(err, zbd.CodeInvalidArgument))
}

func zoneCondition(t *testing.T, m *zbd.Mock, idx uint32) zbd.ZoneCondition {
	t.Helper()
	zl, err := m.ListZones()
	require.NoError(t, err)
	return zl[idx].Condition
}
