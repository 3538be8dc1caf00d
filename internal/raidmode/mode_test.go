package raidmode_test

import (
	"testing"

	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/stretchr/testify/assert"
)

func TestMode_RoundTrip(t *testing.T) {
	for _, m := range []raidmode.Mode{
		raidmode.None, raidmode.Raid0, raidmode.Raid1,
		raidmode.Raid5, raidmode.Raid6, raidmode.Raid10,
		raidmode.Concat, raidmode.Auto,
	} {
		parsed, ok := raidmode.FromString(m.String())
		assert.True(t, ok, m.String())
		assert.Equal(t, m, parsed)

		parsedTok, ok := raidmode.FromString(m.URIToken())
		assert.True(t, ok, m.URIToken())
		assert.Equal(t, m, parsedTok)
	}
}

func TestMode_CaseInsensitiveAliases(t *testing.T) {
	for _, s := range []string{"RAID0", "Raid0", "0", " raid0 "} {
		m, ok := raidmode.FromString(s)
		assert.True(t, ok)
		assert.Equal(t, raidmode.Raid0, m)
	}
	for _, s := range []string{"RAIDA", "a", "A", "raida"} {
		m, ok := raidmode.FromString(s)
		assert.True(t, ok)
		assert.Equal(t, raidmode.Auto, m)
	}
}

func TestMode_Implemented(t *testing.T) {
	assert.True(t, raidmode.None.Implemented())
	assert.True(t, raidmode.Raid0.Implemented())
	assert.True(t, raidmode.Raid1.Implemented())
	assert.True(t, raidmode.Concat.Implemented())
	assert.True(t, raidmode.Auto.Implemented())
	assert.False(t, raidmode.Raid5.Implemented())
	assert.False(t, raidmode.Raid6.Implemented())
	assert.False(t, raidmode.Raid10.Implemented())
}

func TestMode_UnknownString(t *testing.T) {
	_, ok := raidmode.FromString("bogus")
	assert.False(t, ok)
}
