package models

import (
	"encoding/json"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"blasesim/simerr"
	"blasesim/weather"
)

// Pseudo-player ids used as stat sheet rows for team-level counters.
const (
	DefenseID = "DEFENSE"
	TeamID    = "TEAM"
)

// hauntedTriggerPercentage is the chance a HAUNTED batter is
// inhabited for a plate appearance.
const hauntedTriggerPercentage = 0.7

// maxRotationAttempts bounds the pitcher substitution search.
const maxRotationAttempts = 50

// TeamState holds everything one side of a matchup owns: roster,
// stlats, buffs, the layered multiplier stack, and stat counters. It
// is mutated in place through an iteration loop and restored with
// Reset between iterations.
type TeamState struct {
	TeamIDStr       string                        `json:"team_id"`
	TeamEnum        Team                          `json:"team_enum"`
	Season          int                           `json:"season"`
	Day             int                           `json:"day"`
	Weather         weather.Weather               `json:"weather"`
	Stadium         *Stadium                      `json:"stadium"`
	IsHome          bool                          `json:"is_home"`
	RunnersAboard   bool                          `json:"runners_aboard"`
	NumBases        int                           `json:"num_bases"`
	BallsForWalk    int                           `json:"balls_for_walk"`
	StrikesForOut   int                           `json:"strikes_for_out"`
	OutsForInning   int                           `json:"outs_for_inning"`
	Lineup          map[int]string                `json:"lineup"`
	Rotation        map[int]string                `json:"rotation"`
	StartingPitcher string                        `json:"starting_pitcher"`
	CurPitcherPos   int                           `json:"cur_pitcher_pos"`
	CurBatterPos    int                           `json:"cur_batter_pos"`
	CurBatter       string                        `json:"cur_batter"`
	Stlats          map[string]Stlats             `json:"stlats"`
	Buffs           map[string]map[PlayerBuff]int `json:"buffs"`
	Multipliers     map[string]AbilityMultiplier  `json:"multipliers"`
	TeamMult        AbilityMultiplier             `json:"team_multiplier"`
	Blood           map[string]BloodType          `json:"blood"`
	PlayerNames     map[string]string             `json:"player_names"`
	GameStats       StatSheet                     `json:"game_stats"`
	Segmented       SegmentedStats                `json:"segmented_stats"`

	defenseVector []float64
}

// TeamStateConfig carries the inputs for NewTeamState.
type TeamStateConfig struct {
	TeamID          string
	Season          int
	Day             int
	Weather         weather.Weather
	Stadium         *Stadium
	IsHome          bool
	Lineup          map[int]string
	Rotation        map[int]string
	StartingPitcher string
	CurPitcherPos   int
	Stlats          map[string]Stlats
	Buffs           map[string]map[PlayerBuff]int
	Blood           map[string]BloodType
	PlayerNames     map[string]string
}

// NewTeamState validates the roster and builds a fully preloaded team
// state ready for the first iteration.
func NewTeamState(cfg TeamStateConfig) (*TeamState, error) {
	teamEnum, err := TeamFromID(cfg.TeamID)
	if err != nil {
		return nil, err
	}
	if len(cfg.Lineup) == 0 {
		return nil, simerr.Config("team %s has an empty lineup", cfg.TeamID)
	}
	if len(cfg.Rotation) == 0 {
		return nil, simerr.Config("team %s has an empty rotation", cfg.TeamID)
	}
	if cfg.Buffs == nil {
		cfg.Buffs = make(map[string]map[PlayerBuff]int)
	}
	ts := &TeamState{
		TeamIDStr:       cfg.TeamID,
		TeamEnum:        teamEnum,
		Season:          cfg.Season,
		Day:             cfg.Day,
		Weather:         cfg.Weather,
		Stadium:         cfg.Stadium,
		IsHome:          cfg.IsHome,
		Lineup:          cfg.Lineup,
		Rotation:        cfg.Rotation,
		StartingPitcher: cfg.StartingPitcher,
		CurPitcherPos:   cfg.CurPitcherPos,
		CurBatterPos:    1,
		Stlats:          cfg.Stlats,
		Buffs:           cfg.Buffs,
		Multipliers:     make(map[string]AbilityMultiplier),
		Blood:           cfg.Blood,
		PlayerNames:     cfg.PlayerNames,
		GameStats:       NewStatSheet(),
		Segmented:       make(SegmentedStats),
	}
	if ts.Stadium == nil {
		ts.Stadium = DefaultStadium(cfg.TeamID)
	}
	ts.CurBatter = ts.Lineup[ts.CurBatterPos]
	ts.applySeasonRules()
	ts.preloadBuffs()
	if err := ts.ValidateStartingPitcher(); err != nil {
		return nil, err
	}
	return ts, nil
}

// applySeasonRules restores the pitch count thresholds, including any
// seasonal rule changes the team carries.
func (ts *TeamState) applySeasonRules() {
	ts.NumBases = 4
	ts.BallsForWalk = 4
	ts.StrikesForOut = 3
	ts.OutsForInning = 3
	gate, ok := teamSeasonRuleMap[ts.TeamEnum]
	if !ok || ts.Season < gate.SeasonStart {
		return
	}
	switch gate.Rule {
	case RuleFourthStrike:
		ts.StrikesForOut = 4
	case RuleWalkInThePark:
		ts.BallsForWalk = 3
	}
}

func (ts *TeamState) buffContext() BuffContext {
	return BuffContext{
		Weather:       ts.Weather,
		IsHome:        ts.IsHome,
		RunnersAboard: ts.RunnersAboard,
		PeanutMister:  ts.Stadium.HasPeanutMister(),
	}
}

// preloadBuffs restores every stateful buff to its preload level and
// rebuilds the full multiplier stack from scratch.
func (ts *TeamState) preloadBuffs() {
	ctx := ts.buffContext()
	for _, buffs := range ts.Buffs {
		for buff := range buffs {
			buffs[buff] = preloadLevel(buff, ctx)
		}
	}
	ts.recomputeAllMultipliers()
}

func (ts *TeamState) recomputeAllMultipliers() {
	for playerID := range ts.Stlats {
		ts.Multipliers[playerID] = ComposeMultiplier(ts.Buffs[playerID])
	}
	ts.TeamMult = TeamMultiplier(ts.TeamEnum, ts.Season, ts.Day, ts.buffContext(),
		len(ts.Rotation)+len(ts.Lineup))
	ts.recomputeDefense()
}

// Reset restores the team to its start-of-game state between
// iterations. Stat counters are preserved so they accumulate across
// the iteration loop; pass resetStats to zero them instead.
func (ts *TeamState) Reset(resetStats bool) error {
	if resetStats {
		ts.GameStats = NewStatSheet()
		ts.Segmented = make(SegmentedStats)
	}
	ts.CurBatterPos = 1
	ts.CurBatter = ts.Lineup[ts.CurBatterPos]
	ts.RunnersAboard = false
	ts.applySeasonRules()
	ts.preloadBuffs()
	return ts.ValidateStartingPitcher()
}

// ValidateStartingPitcher advances the rotation cyclically past
// unavailable pitchers.
func (ts *TeamState) ValidateStartingPitcher() error {
	pos := ts.CurPitcherPos
	for attempt := 0; attempt < maxRotationAttempts; attempt++ {
		pitcher, ok := ts.Rotation[pos]
		if ok && ts.PlayerAvailable(pitcher) {
			ts.CurPitcherPos = pos
			ts.StartingPitcher = pitcher
			return nil
		}
		pos++
		if pos > len(ts.Rotation) {
			pos = 1
		}
	}
	return simerr.Config("team %s: no available pitcher in rotation", ts.TeamIDStr)
}

// PlayerAvailable reports whether a player can take the field.
// SHELLED and ELSEWHERE gate availability at any level.
func (ts *TeamState) PlayerAvailable(playerID string) bool {
	buffs := ts.Buffs[playerID]
	if buffs == nil {
		return true
	}
	return buffs[BuffShelled] == 0 && buffs[BuffElsewhere] == 0
}

// NextBatter advances the batting order cyclically.
func (ts *TeamState) NextBatter() {
	if ts.CurBatterPos == len(ts.Lineup) {
		ts.CurBatterPos = 1
	} else {
		ts.CurBatterPos++
	}
	ts.CurBatter = ts.Lineup[ts.CurBatterPos]
}

// UpdateStat accumulates onto both the game sheet and the day
// segmented sheet.
func (ts *TeamState) UpdateStat(playerID string, stat Stat, value float64) {
	ts.GameStats.Add(playerID, stat, value)
	ts.Segmented.Add(ts.Day, playerID, stat, value)
}

// HasBuff reports whether the player carries the buff at any level.
func (ts *TeamState) HasBuff(playerID string, buff PlayerBuff) bool {
	return ts.Buffs[playerID][buff] > 0
}

// BuffActive reports whether the buff is currently applying its
// effect (level 2 or above).
func (ts *TeamState) BuffActive(playerID string, buff PlayerBuff) bool {
	return ts.Buffs[playerID][buff] >= 2
}

func (ts *TeamState) setBuffLevel(playerID string, buff PlayerBuff, level int) {
	buffs := ts.Buffs[playerID]
	if buffs == nil || buffs[buff] == 0 || buffs[buff] == level {
		return
	}
	buffs[buff] = level
	ts.Multipliers[playerID] = ComposeMultiplier(buffs)
}

// ConsumeBuff removes a single-use buff, e.g. a COFFEE_RALLY refill.
func (ts *TeamState) ConsumeBuff(playerID string, buff PlayerBuff) {
	if buffs := ts.Buffs[playerID]; buffs != nil {
		delete(buffs, buff)
		ts.Multipliers[playerID] = ComposeMultiplier(buffs)
	}
}

// ReevalBuffs re-evaluates every dynamic buff against the current
// score and base state, then refreshes the team layer and defense
// aggregate. Called at at-bat and scoring boundaries.
func (ts *TeamState) ReevalBuffs(score float64) {
	ctx := ts.buffContext()
	ctx.Score = score
	changed := false
	for playerID := range ts.Blood {
		if ts.latchBloodBuff(playerID) {
			changed = true
		}
	}
	for playerID, buffs := range ts.Buffs {
		playerChanged := false
		for buff, cur := range buffs {
			next, managed := dynamicLevel(buff, cur, ctx)
			if managed && next != cur {
				buffs[buff] = next
				playerChanged = true
			}
		}
		if playerChanged {
			ts.Multipliers[playerID] = ComposeMultiplier(buffs)
			changed = true
		}
	}
	teamMult := TeamMultiplier(ts.TeamEnum, ts.Season, ts.Day, ctx,
		len(ts.Rotation)+len(ts.Lineup))
	if teamMult != ts.TeamMult {
		ts.TeamMult = teamMult
		changed = true
	}
	if changed {
		ts.recomputeDefense()
	}
}

// latchBloodBuff flips the performing buff a player's blood grants.
// AAA blood latches OVER_PERFORMING and AA blood latches
// UNDER_PERFORMING; the latch is one-way and holds for the rest of the
// iteration.
func (ts *TeamState) latchBloodBuff(playerID string) bool {
	var buff PlayerBuff
	switch ts.Blood[playerID] {
	case BloodAAA:
		buff = BuffOverPerforming
	case BloodAA:
		buff = BuffUnderPerforming
	default:
		return false
	}
	buffs := ts.Buffs[playerID]
	if buffs == nil {
		buffs = make(map[PlayerBuff]int)
		ts.Buffs[playerID] = buffs
	}
	if buffs[buff] >= 2 {
		return false
	}
	buffs[buff] = 2
	ts.Multipliers[playerID] = ComposeMultiplier(buffs)
	return true
}

// OnHit advances the SPICY hit streak for the batter.
func (ts *TeamState) OnHit(playerID string) {
	buffs := ts.Buffs[playerID]
	if buffs == nil || buffs[BuffSpicy] == 0 {
		return
	}
	if buffs[BuffSpicy] < spicyRedHotLevel {
		buffs[BuffSpicy]++
		ts.Multipliers[playerID] = ComposeMultiplier(buffs)
	}
}

// OnNonHit resets the SPICY hit streak for the batter.
func (ts *TeamState) OnNonHit(playerID string) {
	ts.setBuffLevel(playerID, BuffSpicy, 1)
}

// PlayerMultiplier returns the current per-axis product for a player.
func (ts *TeamState) PlayerMultiplier(playerID string) AbilityMultiplier {
	if m, ok := ts.Multipliers[playerID]; ok {
		return m
	}
	return NeutralMultiplier()
}

// BatterVector builds the batter projection: the eight batting stlats
// (patheticism polarity-inverted and floor-clamped), the five base
// running stlats, and the vibe scalar. rng drives the HAUNTED
// inhabitation roll.
func (ts *TeamState) BatterVector(playerID string, rng *rand.Rand) []float64 {
	s := ts.Stlats[playerID]
	if ts.HasBuff(playerID, BuffHaunted) && rng != nil && rng.Float64() < hauntedTriggerPercentage {
		s = ghostStlats
	}
	m := ts.PlayerMultiplier(playerID)
	bat := m.Batting * ts.TeamMult.Batting
	run := m.BaseRunning * ts.TeamMult.BaseRunning
	return []float64{
		s.Buoyancy * bat,
		s.Divinity * bat,
		s.Martyrdom * bat,
		s.Moxie * bat,
		s.Musclitude * bat,
		ClampPatheticism(s.Patheticism / bat),
		s.Thwackability * bat,
		s.Tragicness,
		s.BaseThirst * run,
		s.Continuation * run,
		s.GroundFriction * run,
		s.Indulgence * run,
		s.Laserlikeness * run,
		s.Vibes(ts.Day),
	}
}

// CurBatterVector builds the batter projection for the player at the
// plate.
func (ts *TeamState) CurBatterVector(rng *rand.Rand) []float64 {
	return ts.BatterVector(ts.CurBatter, rng)
}

// PitcherVector builds the pitcher projection for the starting
// pitcher.
func (ts *TeamState) PitcherVector() []float64 {
	s := ts.Stlats[ts.StartingPitcher]
	m := ts.PlayerMultiplier(ts.StartingPitcher)
	pit := m.Pitching * ts.TeamMult.Pitching
	return []float64{
		s.Coldness * pit,
		s.Overpowerment * pit,
		s.Ruthlessness * pit,
		s.Shakespearianism * pit,
		s.Suppression * pit,
		s.Unthwackability * pit,
		s.Vibes(ts.Day),
	}
}

// RunnerVector builds the base running projection for a runner.
func (ts *TeamState) RunnerVector(playerID string) []float64 {
	s := ts.Stlats[playerID]
	m := ts.PlayerMultiplier(playerID)
	run := m.BaseRunning * ts.TeamMult.BaseRunning
	return []float64{
		s.BaseThirst * run,
		s.Continuation * run,
		s.GroundFriction * run,
		s.Indulgence * run,
		s.Laserlikeness * run,
		s.Vibes(ts.Day),
	}
}

// DefenseVector returns the cached lineup-mean defense projection.
func (ts *TeamState) DefenseVector() []float64 {
	return ts.defenseVector
}

// recomputeDefense rebuilds the lineup-mean defense projection. It
// must run whenever the lineup or any defender's multiplier changes.
func (ts *TeamState) recomputeDefense() {
	n := len(ts.Lineup)
	anticapitalism := make([]float64, 0, n)
	chasiness := make([]float64, 0, n)
	omniscience := make([]float64, 0, n)
	tenaciousness := make([]float64, 0, n)
	watchfulness := make([]float64, 0, n)
	pressurization := make([]float64, 0, n)
	cinnamon := make([]float64, 0, n)
	vibes := make([]float64, 0, n)
	for _, playerID := range ts.Lineup {
		s := ts.Stlats[playerID]
		def := ts.PlayerMultiplier(playerID).Defense * ts.TeamMult.Defense
		anticapitalism = append(anticapitalism, s.Anticapitalism*def)
		chasiness = append(chasiness, s.Chasiness*def)
		omniscience = append(omniscience, s.Omniscience*def)
		tenaciousness = append(tenaciousness, s.Tenaciousness*def)
		watchfulness = append(watchfulness, s.Watchfulness*def)
		pressurization = append(pressurization, s.Pressurization)
		cinnamon = append(cinnamon, s.Cinnamon)
		vibes = append(vibes, s.Vibes(ts.Day))
	}
	ts.defenseVector = []float64{
		stat.Mean(anticapitalism, nil),
		stat.Mean(chasiness, nil),
		stat.Mean(omniscience, nil),
		stat.Mean(tenaciousness, nil),
		stat.Mean(watchfulness, nil),
		stat.Mean(pressurization, nil),
		stat.Mean(cinnamon, nil),
		stat.Mean(vibes, nil),
	}
}

// PlayerName resolves a display name.
func (ts *TeamState) PlayerName(playerID string) string {
	if name, ok := ts.PlayerNames[playerID]; ok {
		return name
	}
	return "Unknown Player (" + playerID + ")"
}

// Clone deep-copies the team state so a worker can mutate it freely.
func (ts *TeamState) Clone() *TeamState {
	out := *ts
	out.Lineup = make(map[int]string, len(ts.Lineup))
	for k, v := range ts.Lineup {
		out.Lineup[k] = v
	}
	out.Rotation = make(map[int]string, len(ts.Rotation))
	for k, v := range ts.Rotation {
		out.Rotation[k] = v
	}
	out.Stlats = make(map[string]Stlats, len(ts.Stlats))
	for k, v := range ts.Stlats {
		out.Stlats[k] = v
	}
	out.Buffs = make(map[string]map[PlayerBuff]int, len(ts.Buffs))
	for playerID, buffs := range ts.Buffs {
		newBuffs := make(map[PlayerBuff]int, len(buffs))
		for b, l := range buffs {
			newBuffs[b] = l
		}
		out.Buffs[playerID] = newBuffs
	}
	out.Multipliers = make(map[string]AbilityMultiplier, len(ts.Multipliers))
	for k, v := range ts.Multipliers {
		out.Multipliers[k] = v
	}
	out.Blood = make(map[string]BloodType, len(ts.Blood))
	for k, v := range ts.Blood {
		out.Blood[k] = v
	}
	out.PlayerNames = make(map[string]string, len(ts.PlayerNames))
	for k, v := range ts.PlayerNames {
		out.PlayerNames[k] = v
	}
	out.GameStats = ts.GameStats.Clone()
	out.Segmented = make(SegmentedStats, len(ts.Segmented))
	for day, sheet := range ts.Segmented {
		out.Segmented[day] = sheet.Clone()
	}
	out.defenseVector = append([]float64(nil), ts.defenseVector...)
	return &out
}

// MarshalTeamState serializes the team state for storage.
func MarshalTeamState(ts *TeamState) ([]byte, error) {
	return json.Marshal(ts)
}

// UnmarshalTeamState reloads a serialized team state and rebuilds the
// derived defense aggregate.
func UnmarshalTeamState(data []byte) (*TeamState, error) {
	var ts TeamState
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, simerr.Config("malformed team state: %v", err)
	}
	ts.recomputeDefense()
	return &ts, nil
}
