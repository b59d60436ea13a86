package models

import (
	"blasesim/weather"
)

// AbilityMultiplier is the per-axis product of every active
// multiplicative modifier on a player (or, for the team-wide layer,
// on a team).
type AbilityMultiplier struct {
	Batting     float64 `json:"batting"`
	Pitching    float64 `json:"pitching"`
	Defense     float64 `json:"defense"`
	BaseRunning float64 `json:"base_running"`
}

// NeutralMultiplier returns the identity multiplier.
func NeutralMultiplier() AbilityMultiplier {
	return AbilityMultiplier{Batting: 1, Pitching: 1, Defense: 1, BaseRunning: 1}
}

func (m *AbilityMultiplier) apply(f buffFactor) {
	m.Batting *= f.batting
	m.Pitching *= f.pitching
	m.Defense *= f.defense
	m.BaseRunning *= f.baseRunning
}

func (m *AbilityMultiplier) scale(v float64) {
	m.Batting *= v
	m.Pitching *= v
	m.Defense *= v
	m.BaseRunning *= v
}

type buffFactor struct {
	batting, pitching, defense, baseRunning float64
}

func allAxes(v float64) buffFactor {
	return buffFactor{batting: v, pitching: v, defense: v, baseRunning: v}
}

// SPICY only applies its factor once the hit streak reaches red hot.
const spicyRedHotLevel = 4

// buffFactors holds the multiplicative effect of each buff while it
// is at level 2 (or, for SPICY, at red hot). Buffs absent from the
// table gate behavior elsewhere and never enter the multiplier stack.
var buffFactors = map[PlayerBuff]buffFactor{
	BuffUnderOver:       allAxes(1.2),
	BuffOverUnder:       allAxes(1 / 1.2),
	BuffOverPerforming:  allAxes(1.2),
	BuffUnderPerforming: allAxes(0.8),
	BuffSuperYummy:      allAxes(1.2),
	BuffPressurePlayer:  allAxes(1.25),
	BuffHomebody:        allAxes(1.2),
	BuffPerk:            allAxes(1.2),
	BuffChunky:          {batting: 1.2, pitching: 1, defense: 1, baseRunning: 1},
	BuffSmooth:          {batting: 1, pitching: 1, defense: 1, baseRunning: 1.2},
	BuffSpicy:           {batting: 1.4, pitching: 1, defense: 1, baseRunning: 1},
}

// BuffContext carries the game conditions the preload and dynamic
// re-evaluation read.
type BuffContext struct {
	Weather       weather.Weather
	IsHome        bool
	RunnersAboard bool
	Score         float64
	PeanutMister  bool
}

// preloadLevel returns the level a stateful buff starts each
// iteration at, given the static conditions of the matchup.
func preloadLevel(buff PlayerBuff, ctx BuffContext) int {
	switch buff {
	case BuffChunky, BuffSmooth:
		if ctx.Weather == weather.Peanuts {
			return 2
		}
	case BuffHomebody:
		if ctx.IsHome {
			return 2
		}
	case BuffPerk:
		if ctx.Weather.IsCoffee() {
			return 2
		}
	case BuffSuperYummy:
		if ctx.Weather == weather.Peanuts || ctx.PeanutMister {
			return 2
		}
	case BuffUnderOver, BuffUnderPerforming:
		return 2
	}
	return 1
}

// dynamicLevel returns the level a buff should hold under the current
// conditions. The second return reports whether the buff is
// dynamically managed at all; buffs that are not keep their level.
func dynamicLevel(buff PlayerBuff, cur int, ctx BuffContext) (int, bool) {
	switch buff {
	case BuffUnderOver:
		if ctx.Score < 5 {
			return 2, true
		}
		return 1, true
	case BuffOverUnder:
		if ctx.Score > 5 {
			return 2, true
		}
		return 1, true
	case BuffOverPerforming:
		// one-way latch
		return cur, true
	case BuffSuperYummy:
		if ctx.Weather == weather.Peanuts || ctx.PeanutMister {
			return 2, true
		}
		return 1, true
	case BuffPressurePlayer:
		if ctx.Weather == weather.Flooding && ctx.RunnersAboard {
			return 2, true
		}
		return 1, true
	}
	return cur, false
}

// ComposeMultiplier rebuilds a player's per-axis product from the
// full set of active buffs. Recomputing the product from scratch on
// every level change, rather than multiplying and dividing factors in
// and out, guarantees a flip on and off restores the prior value
// exactly.
func ComposeMultiplier(buffs map[PlayerBuff]int) AbilityMultiplier {
	m := NeutralMultiplier()
	for buff, level := range buffs {
		f, ok := buffFactors[buff]
		if !ok {
			continue
		}
		if buff == BuffSpicy {
			if level >= spicyRedHotLevel {
				m.apply(f)
			}
			continue
		}
		if level >= 2 {
			m.apply(f)
		}
	}
	return m
}

// TeamMultiplier computes the team-wide ability layer applied on top
// of per-player multipliers.
func TeamMultiplier(team Team, season, day int, ctx BuffContext, rosterSize int) AbilityMultiplier {
	m := NeutralMultiplier()
	gate, ok := teamGameBuffMap[team]
	if !ok || season < gate.SeasonStart {
		return m
	}
	switch gate.Buff {
	case TeamBuffCrows:
		if ctx.Weather == gate.Weather {
			m.Batting *= 1.5
			m.Pitching *= 1.5
		}
	case TeamBuffPressure:
		if ctx.Weather == gate.Weather && ctx.RunnersAboard {
			m.scale(1.25)
		}
	case TeamBuffTravelling:
		if !ctx.IsHome {
			m.scale(1.05)
		}
	case TeamBuffGrowth:
		d := day
		if d > 99 {
			d = 99
		}
		m.scale(1 + 0.05*float64(d)/99)
	case TeamBuffSinkingShip:
		m.scale(1 + 0.01*float64(14-rosterSize))
	}
	return m
}
