package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatSheetMerge(t *testing.T) {
	a := NewStatSheet()
	a.Add("p1", StatBatterHits, 2)
	a.Add(TeamID, StatTeamWins, 1)

	b := NewStatSheet()
	b.Add("p1", StatBatterHits, 3)
	b.Add("p2", StatPitcherStrikeouts, 7)

	a.Merge(b)
	assert.Equal(t, 5.0, a.Get("p1", StatBatterHits))
	assert.Equal(t, 7.0, a.Get("p2", StatPitcherStrikeouts))
	assert.Equal(t, 1.0, a.Get(TeamID, StatTeamWins))
}

func TestStatSheetCloneIsIndependent(t *testing.T) {
	a := NewStatSheet()
	a.Add("p1", StatBatterHits, 2)
	b := a.Clone()
	b.Add("p1", StatBatterHits, 1)
	assert.Equal(t, 2.0, a.Get("p1", StatBatterHits))
	assert.Equal(t, 3.0, b.Get("p1", StatBatterHits))
}

func TestSegmentedStatsScale(t *testing.T) {
	ss := make(SegmentedStats)
	ss.Add(3, "p1", StatBatterHits, 500)
	ss.Add(4, "p1", StatBatterHits, 100)
	ss.Scale(250)
	assert.Equal(t, 2.0, ss[3].Get("p1", StatBatterHits))
	assert.Equal(t, 0.4, ss[4].Get("p1", StatBatterHits))
}

func TestSegmentedStatsMergeByDay(t *testing.T) {
	a := make(SegmentedStats)
	a.Add(1, "p1", StatBatterHits, 1)

	b := make(SegmentedStats)
	b.Add(1, "p1", StatBatterHits, 2)
	b.Add(2, "p2", StatBatterHRs, 1)

	a.Merge(b)
	assert.Equal(t, 3.0, a[1].Get("p1", StatBatterHits))
	assert.Equal(t, 1.0, a[2].Get("p2", StatBatterHRs))
}

func TestStatString(t *testing.T) {
	assert.Equal(t, "Batter home runs", StatBatterHRs.String())
	assert.Equal(t, "Unknown stat", Stat(9999).String())
}

func TestEnumLookups(t *testing.T) {
	b, err := BloodFromID(6)
	assert.NoError(t, err)
	assert.Equal(t, BloodONo, b)
	_, err = BloodFromID(42)
	assert.Error(t, err)

	b, err = BloodFromName("Electric")
	assert.NoError(t, err)
	assert.Equal(t, BloodElectric, b)
	_, err = BloodFromName("Ketchup")
	assert.Error(t, err)

	team, err := TeamFromID("878c1bf6-0d21-4659-bfee-916c8314d69c")
	assert.NoError(t, err)
	assert.Equal(t, Tacos, team)

	buff, ok := PlayerBuffFromName("SPICY")
	assert.True(t, ok)
	assert.Equal(t, BuffSpicy, buff)
	_, ok = PlayerBuffFromName("NOT_A_MOD")
	assert.False(t, ok)
}
