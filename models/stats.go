package models

// Stat is a typed key into the per-player stat counters. Counters are
// floats because some run values are fractional.
type Stat int

const (
	// stolen base stats
	StatStolenBaseAttempts Stat = iota + 1
	StatStolenBases
	StatCaughtStealings

	// batting stats
	StatBatterStrikeouts
	StatBatterHits
	StatBatterSingles
	StatBatterDoubles
	StatBatterTriples
	StatBatterHRs
	StatBatterPlateAppearances
	StatBatterWalks
	StatBatterRBIs
	StatBatterRunsScored
	StatBatterPitchesFaced
	StatBatterFoulBalls
	StatBatterFlyouts
	StatBatterGroundouts
	StatBatterAtBats

	// pitcher stats
	StatPitcherWalks
	StatPitcherEarnedRuns
	StatPitcherHitsAllowed
	StatPitcherHRsAllowed
	StatPitcherXBHAllowed
	StatPitcherPitchesThrown
	StatPitcherInningsPitched
	StatPitcherStrikeouts
	StatPitcherShutouts
	StatPitcherBallsThrown
	StatPitcherStrikesThrown
	StatPitcherWins
	StatPitcherLosses
	StatPitcherFlyouts
	StatPitcherGroundouts
	StatPitcherBattersFaced

	// defense stats
	StatDefenseStolenBaseAttempts
	StatDefenseStolenBases
	StatDefenseCaughtStealings

	// team stats
	StatTeamWins
	StatTeamLosses
	StatTeamSun2Wins
	StatTeamBlackHoleConsumption
)

var statNames = map[Stat]string{
	StatStolenBaseAttempts:        "Stolen base attempts",
	StatStolenBases:               "Stolen bases",
	StatCaughtStealings:           "Caught stealing",
	StatBatterStrikeouts:          "Batter strikeouts",
	StatBatterHits:                "Batter hits",
	StatBatterSingles:             "Batter singles",
	StatBatterDoubles:             "Batter doubles",
	StatBatterTriples:             "Batter triples",
	StatBatterHRs:                 "Batter home runs",
	StatBatterPlateAppearances:    "Batter plate appearances",
	StatBatterWalks:               "Batter walks",
	StatBatterRBIs:                "Batter runs batted in",
	StatBatterRunsScored:          "Batter runs scored",
	StatBatterPitchesFaced:        "Batter pitches faced",
	StatBatterFoulBalls:           "Batter foul balls",
	StatBatterFlyouts:             "Batter flyouts",
	StatBatterGroundouts:          "Batter groundouts",
	StatBatterAtBats:              "Batter at bats",
	StatPitcherWalks:              "Pitcher walks",
	StatPitcherEarnedRuns:         "Pitcher earned runs",
	StatPitcherHitsAllowed:        "Pitcher hits allowed",
	StatPitcherHRsAllowed:         "Pitcher home runs allowed",
	StatPitcherXBHAllowed:         "Pitcher extra base hits allowed",
	StatPitcherPitchesThrown:      "Pitcher pitches thrown",
	StatPitcherInningsPitched:     "Pitcher innings pitched",
	StatPitcherStrikeouts:         "Pitcher strikeouts",
	StatPitcherShutouts:           "Pitcher shutouts",
	StatPitcherBallsThrown:        "Pitcher balls thrown",
	StatPitcherStrikesThrown:      "Pitcher strikes thrown",
	StatPitcherWins:               "Pitcher wins",
	StatPitcherLosses:             "Pitcher losses",
	StatPitcherFlyouts:            "Pitcher flyouts",
	StatPitcherGroundouts:         "Pitcher groundouts",
	StatPitcherBattersFaced:       "Pitcher batters faced",
	StatDefenseStolenBaseAttempts: "Defense stolen base attempts",
	StatDefenseStolenBases:        "Defense stolen bases",
	StatDefenseCaughtStealings:    "Defense caught stealing",
	StatTeamWins:                  "Team wins",
	StatTeamLosses:                "Team losses",
	StatTeamSun2Wins:              "Team Sun 2 wins",
	StatTeamBlackHoleConsumption:  "Team black hole consumption",
}

func (s Stat) String() string {
	if name, ok := statNames[s]; ok {
		return name
	}
	return "Unknown stat"
}

// StatSheet holds per-player counters for one team. Keys are player
// ids plus the DefenseID and TeamID pseudo-players.
type StatSheet map[string]map[Stat]float64

// NewStatSheet returns an empty sheet seeded with the pseudo-players.
func NewStatSheet() StatSheet {
	return StatSheet{
		DefenseID: {},
		TeamID:    {},
	}
}

// Add accumulates value onto a counter, creating rows as needed.
func (s StatSheet) Add(playerID string, stat Stat, value float64) {
	row, ok := s[playerID]
	if !ok {
		row = make(map[Stat]float64)
		s[playerID] = row
	}
	row[stat] += value
}

// Get returns a counter, zero if absent.
func (s StatSheet) Get(playerID string, stat Stat) float64 {
	return s[playerID][stat]
}

// Merge accumulates every counter of other into s.
func (s StatSheet) Merge(other StatSheet) {
	for playerID, row := range other {
		for stat, v := range row {
			s.Add(playerID, stat, v)
		}
	}
}

// Clone deep-copies the sheet.
func (s StatSheet) Clone() StatSheet {
	out := make(StatSheet, len(s))
	for playerID, row := range s {
		newRow := make(map[Stat]float64, len(row))
		for stat, v := range row {
			newRow[stat] = v
		}
		out[playerID] = newRow
	}
	return out
}

// SegmentedStats holds day-indexed stat sheets for season aggregation.
type SegmentedStats map[int]StatSheet

// Add accumulates onto the sheet for a day.
func (ss SegmentedStats) Add(day int, playerID string, stat Stat, value float64) {
	sheet, ok := ss[day]
	if !ok {
		sheet = NewStatSheet()
		ss[day] = sheet
	}
	sheet.Add(playerID, stat, value)
}

// Merge accumulates every day of other into ss.
func (ss SegmentedStats) Merge(other SegmentedStats) {
	for day, sheet := range other {
		if _, ok := ss[day]; !ok {
			ss[day] = NewStatSheet()
		}
		ss[day].Merge(sheet)
	}
}

// Scale divides every counter by n, for per-iteration averaging.
func (ss SegmentedStats) Scale(n float64) {
	for _, sheet := range ss {
		for _, row := range sheet {
			for stat := range row {
				row[stat] /= n
			}
		}
	}
}
