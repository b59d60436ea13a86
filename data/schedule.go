// Package data loads the schedule, stlat snapshot and ballpark files
// that feed a simulation run.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blasesim/simerr"
)

// ScheduledGame is one entry of a day's slate.
type ScheduledGame struct {
	GameID      string   `json:"id"`
	Season      int      `json:"season"`
	Day         int      `json:"day"`
	HomeTeam    string   `json:"homeTeam"`
	AwayTeam    string   `json:"awayTeam"`
	HomePitcher string   `json:"homePitcher"`
	AwayPitcher string   `json:"awayPitcher"`
	WeatherCode int      `json:"weather"`
	Outcomes    []string `json:"outcomes"`
}

// Shuffled reports whether the game was shuffled in the Reverb and
// must not be simulated.
func (g ScheduledGame) Shuffled() bool {
	for _, o := range g.Outcomes {
		if strings.Contains(o, "shuffled in the Reverb") {
			return true
		}
	}
	return false
}

// Validate checks the fields a sim cannot proceed without. A shuffled
// game returns ErrSkippedGame.
func (g ScheduledGame) Validate() error {
	if g.Shuffled() {
		return simerr.Skipped("game %s was shuffled in the Reverb", g.GameID)
	}
	if g.HomeTeam == "" || g.AwayTeam == "" {
		return simerr.Config("game %s is missing a team id", g.GameID)
	}
	if g.HomePitcher == "" || g.AwayPitcher == "" {
		return simerr.Config("game %s is missing a starting pitcher", g.GameID)
	}
	return nil
}

// LoadSchedule reads the slate for one day of a season from
// <dir>/season<N>/schedule_day<D>.json.
func LoadSchedule(dir string, season, day int) ([]ScheduledGame, error) {
	path := filepath.Join(dir, fmt.Sprintf("season%d", season),
		fmt.Sprintf("schedule_day%d.json", day))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.Config("reading schedule %s: %v", path, err)
	}
	var games []ScheduledGame
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, simerr.Config("parsing schedule %s: %v", path, err)
	}
	for i := range games {
		if games[i].Season == 0 {
			games[i].Season = season
		}
		if games[i].Day == 0 {
			games[i].Day = day
		}
	}
	return games, nil
}
