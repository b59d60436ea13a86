package models

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blasesim/simerr"
	"blasesim/weather"
)

func TestNewTeamStateValidation(t *testing.T) {
	cfg := TeamStateConfig{
		TeamID:   "not-a-team",
		Lineup:   map[int]string{1: "b1"},
		Rotation: map[int]string{1: "p1"},
	}
	_, err := NewTeamState(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrConfig))

	cfg.TeamID = loversTeamID
	cfg.Lineup = map[int]string{}
	_, err = NewTeamState(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrConfig))
}

func TestSeasonRules(t *testing.T) {
	tests := []struct {
		name          string
		teamID        string
		season        int
		strikesForOut int
		ballsForWalk  int
	}{
		{"default thresholds", loversTeamID, 12, 3, 4},
		{"fourth strike", tacosTeamID, 12, 4, 4},
		{"fourth strike too early", tacosTeamID, 11, 3, 4},
		{"walk in the park", sunbeamsTeamID, 12, 3, 3},
		{"walk in the park too early", sunbeamsTeamID, 11, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testTeam(t, tt.teamID, "x", tt.season)
			assert.Equal(t, tt.strikesForOut, ts.StrikesForOut)
			assert.Equal(t, tt.ballsForWalk, ts.BallsForWalk)
		})
	}
}

func TestNextBatterWraps(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	first := ts.CurBatter
	for i := 0; i < len(ts.Lineup); i++ {
		ts.NextBatter()
	}
	assert.Equal(t, first, ts.CurBatter)
	assert.Equal(t, 1, ts.CurBatterPos)
}

func TestValidateStartingPitcherSkipsShelled(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	ts.Buffs[ts.Rotation[1]] = map[PlayerBuff]int{BuffShelled: 1}
	ts.CurPitcherPos = 1

	require.NoError(t, ts.ValidateStartingPitcher())
	assert.Equal(t, ts.Rotation[2], ts.StartingPitcher)
	assert.Equal(t, 2, ts.CurPitcherPos)
}

func TestValidateStartingPitcherWrapsAroundRotation(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	ts.Buffs[ts.Rotation[2]] = map[PlayerBuff]int{BuffElsewhere: 1}
	ts.Buffs[ts.Rotation[3]] = map[PlayerBuff]int{BuffElsewhere: 1}
	ts.CurPitcherPos = 2

	require.NoError(t, ts.ValidateStartingPitcher())
	assert.Equal(t, ts.Rotation[1], ts.StartingPitcher)
}

func TestValidateStartingPitcherExhausted(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	for _, pitcher := range ts.Rotation {
		ts.Buffs[pitcher] = map[PlayerBuff]int{BuffShelled: 1}
	}
	err := ts.ValidateStartingPitcher()
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrConfig))
}

func TestMultiplierFlipRestoresExactly(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	ts.Buffs[batter] = map[PlayerBuff]int{BuffUnderOver: 1}
	ts.preloadBuffs()

	// UNDER_OVER preloads on.
	before := ts.PlayerMultiplier(batter)
	assert.InDelta(t, 1.2, before.Batting, 1e-12)

	// Crossing five runs flips it off, dropping back flips it on.
	ts.ReevalBuffs(6)
	mid := ts.PlayerMultiplier(batter)
	assert.InDelta(t, 1.0, mid.Batting, 1e-12)

	ts.ReevalBuffs(3)
	after := ts.PlayerMultiplier(batter)
	assert.InDelta(t, before.Batting, after.Batting, 1e-9)
	assert.InDelta(t, before.Pitching, after.Pitching, 1e-9)
	assert.InDelta(t, before.Defense, after.Defense, 1e-9)
	assert.InDelta(t, before.BaseRunning, after.BaseRunning, 1e-9)
}

func TestOverPerformingLatchesOnAAABlood(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	ts.Blood[batter] = BloodAAA

	// Not preloaded; the latch only flips at a re-eval boundary.
	ts.preloadBuffs()
	assert.InDelta(t, 1.0, ts.PlayerMultiplier(batter).Batting, 1e-12)

	ts.ReevalBuffs(0)
	assert.InDelta(t, 1.2, ts.PlayerMultiplier(batter).Batting, 1e-12)

	// One-way: no score or base state unlatches it.
	ts.ReevalBuffs(9)
	assert.InDelta(t, 1.2, ts.PlayerMultiplier(batter).Batting, 1e-12)
	ts.ReevalBuffs(0)
	assert.InDelta(t, 1.2, ts.PlayerMultiplier(batter).Batting, 1e-12)

	// The next iteration starts unlatched again.
	require.NoError(t, ts.Reset(false))
	assert.InDelta(t, 1.0, ts.PlayerMultiplier(batter).Batting, 1e-12)
}

func TestUnderPerformingLatchesOnAABlood(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	ts.Blood[batter] = BloodAA

	ts.ReevalBuffs(0)
	assert.InDelta(t, 0.8, ts.PlayerMultiplier(batter).Batting, 1e-12)

	// Once granted, the debuff preloads on like any carried
	// UNDER_PERFORMING.
	require.NoError(t, ts.Reset(false))
	assert.InDelta(t, 0.8, ts.PlayerMultiplier(batter).Batting, 1e-12)
}

func TestOverPerformingCarrierWithoutBloodStaysOff(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	ts.Buffs[batter] = map[PlayerBuff]int{BuffOverPerforming: 1}
	ts.preloadBuffs()

	ts.ReevalBuffs(0)
	ts.ReevalBuffs(9)
	assert.InDelta(t, 1.0, ts.PlayerMultiplier(batter).Batting, 1e-12)
}

func TestSpicyStreak(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	ts.Buffs[batter] = map[PlayerBuff]int{BuffSpicy: 1}
	ts.preloadBuffs()

	assert.InDelta(t, 1.0, ts.PlayerMultiplier(batter).Batting, 1e-12)

	// Three consecutive hits reach red hot.
	ts.OnHit(batter)
	ts.OnHit(batter)
	assert.InDelta(t, 1.0, ts.PlayerMultiplier(batter).Batting, 1e-12)
	ts.OnHit(batter)
	assert.InDelta(t, 1.4, ts.PlayerMultiplier(batter).Batting, 1e-12)

	// A non-hit at-bat cools it back off.
	ts.OnNonHit(batter)
	assert.InDelta(t, 1.0, ts.PlayerMultiplier(batter).Batting, 1e-12)
}

func TestBatterVectorPatheticismClamp(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	s := ts.Stlats[batter]
	s.Patheticism = 0.0005
	ts.Stlats[batter] = s

	fv := ts.BatterVector(batter, nil)
	// Patheticism is polarity inverted and floored.
	assert.GreaterOrEqual(t, fv[5], 0.001)

	// A big batting multiplier pushes it down onto the floor, never
	// below.
	ts.Buffs[batter] = map[PlayerBuff]int{BuffUnderOver: 2}
	ts.Multipliers[batter] = ComposeMultiplier(ts.Buffs[batter])
	fv = ts.BatterVector(batter, nil)
	assert.Equal(t, 0.001, fv[5])
}

func TestBatterVectorShape(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	fv := ts.CurBatterVector(rand.New(rand.NewSource(1)))
	assert.Len(t, fv, 14)
	assert.Len(t, ts.PitcherVector(), 7)
	assert.Len(t, ts.RunnerVector(ts.Lineup[1]), 6)
	assert.Len(t, ts.DefenseVector(), 8)
}

func TestHauntedBatterUsesGhostStlats(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	s := ts.Stlats[batter]
	s.Thwackability = 0.95
	ts.Stlats[batter] = s
	ts.Buffs[batter] = map[PlayerBuff]int{BuffHaunted: 1}

	ghosts := 0
	const trials = 2000
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < trials; i++ {
		fv := ts.BatterVector(batter, rng)
		if math.Abs(fv[6]-0.5) < 1e-9 {
			ghosts++
		}
	}
	// Inhabitation fires on roughly seventy percent of appearances.
	assert.InDelta(t, 0.7, float64(ghosts)/trials, 0.05)
}

func TestResetRestoresPreloadState(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	ts.Buffs[batter] = map[PlayerBuff]int{BuffSpicy: 1}
	ts.preloadBuffs()
	ts.OnHit(batter)
	ts.OnHit(batter)
	ts.OnHit(batter)
	require.Equal(t, spicyRedHotLevel, ts.Buffs[batter][BuffSpicy])
	ts.UpdateStat(batter, StatBatterHits, 3)

	require.NoError(t, ts.Reset(false))

	assert.Equal(t, 1, ts.Buffs[batter][BuffSpicy])
	assert.Equal(t, 1, ts.CurBatterPos)
	assert.Equal(t, 3.0, ts.GameStats.Get(batter, StatBatterHits))
}

func TestTeamStateJSONRoundTrip(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 12)
	ts.UpdateStat(ts.Lineup[1], StatBatterHits, 2)

	raw, err := MarshalTeamState(ts)
	require.NoError(t, err)

	back, err := UnmarshalTeamState(raw)
	require.NoError(t, err)

	assert.Equal(t, ts.TeamIDStr, back.TeamIDStr)
	assert.Equal(t, ts.Lineup, back.Lineup)
	assert.Equal(t, ts.StartingPitcher, back.StartingPitcher)
	assert.Equal(t, 2.0, back.GameStats.Get(ts.Lineup[1], StatBatterHits))
	require.Len(t, back.DefenseVector(), 8)
	for i, v := range ts.DefenseVector() {
		assert.InDelta(t, v, back.DefenseVector()[i], 1e-12)
	}
}

func TestUnmarshalTeamStateMalformed(t *testing.T) {
	_, err := UnmarshalTeamState([]byte(`{"lineup": "not-a-map"`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrConfig))
}

func TestCloneIsIndependent(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 10)
	batter := ts.Lineup[1]
	ts.Buffs[batter] = map[PlayerBuff]int{BuffSpicy: 1}
	ts.preloadBuffs()

	clone := ts.Clone()
	clone.OnHit(batter)
	clone.OnHit(batter)
	clone.OnHit(batter)
	clone.UpdateStat(batter, StatBatterHits, 1)

	assert.Equal(t, 1, ts.Buffs[batter][BuffSpicy])
	assert.Equal(t, 0.0, ts.GameStats.Get(batter, StatBatterHits))
	assert.Equal(t, spicyRedHotLevel, clone.Buffs[batter][BuffSpicy])
}

func TestPerkPreloadsInCoffeeWeather(t *testing.T) {
	ts := testTeam(t, loversTeamID, "x", 12)
	batter := ts.Lineup[1]
	ts.Buffs[batter] = map[PlayerBuff]int{BuffPerk: 1}
	ts.Weather = weather.Coffee
	ts.preloadBuffs()
	assert.InDelta(t, 1.2, ts.PlayerMultiplier(batter).Batting, 1e-12)

	ts.Weather = weather.Eclipse
	ts.preloadBuffs()
	assert.InDelta(t, 1.0, ts.PlayerMultiplier(batter).Batting, 1e-12)
}
