package simulation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"blasesim/models"
	"blasesim/simerr"
)

const leaderboardSize = 10

// SeasonSummary is the season-total stat sheet with leaderboards.
type SeasonSummary struct {
	Season  int              `json:"season"`
	Totals  models.StatSheet `json:"totals"`
	Leaders []Leaderboard    `json:"leaders"`
}

// Leaderboard is a ranked top-ten for one category.
type Leaderboard struct {
	Category string        `json:"category"`
	Entries  []LeaderEntry `json:"entries"`
}

// LeaderEntry is one player's line on a leaderboard.
type LeaderEntry struct {
	PlayerID string  `json:"player_id"`
	Value    float64 `json:"value"`
}

// SumSeason folds a season's per-day stat segments into totals and
// leaderboards. It reads the segments file a season run wrote and
// writes summary.json and leaders.txt next to it.
func SumSeason(outputDir string, season int) (*SeasonSummary, error) {
	dir := filepath.Join(outputDir, fmt.Sprintf("season%d", season))
	path := filepath.Join(dir, "stat_segments.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.Config("reading stat segments %s: %v", path, err)
	}
	var segments models.SegmentedStats
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, simerr.Config("parsing stat segments %s: %v", path, err)
	}

	totals := models.NewStatSheet()
	for _, sheet := range segments {
		totals.Merge(sheet)
	}
	roundSheet(totals)
	summary := &SeasonSummary{
		Season: season,
		Totals: totals,
		Leaders: []Leaderboard{
			topCounters(totals, "strikeouts", models.StatPitcherStrikeouts),
			topCounters(totals, "home_runs", models.StatBatterHRs),
			battingAverageLeaders(totals),
		},
	}
	if err := writeJSONFile(filepath.Join(dir, "summary.json"), summary); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "leaders.txt"),
		[]byte(FormatLeaders(summary, nil)), 0o644); err != nil {
		return nil, simerr.Config("writing leaders: %v", err)
	}
	return summary, nil
}

// roundSheet rounds the per-game expectation counters to two decimal
// places once the whole season is folded together.
func roundSheet(totals models.StatSheet) {
	for _, row := range totals {
		for stat, v := range row {
			row[stat] = math.Round(v*100) / 100
		}
	}
}

// topCounters ranks players by a raw counter.
func topCounters(totals models.StatSheet, category string, stat models.Stat) Leaderboard {
	entries := make([]LeaderEntry, 0, len(totals))
	for playerID, row := range totals {
		if isPseudoPlayer(playerID) {
			continue
		}
		if v := row[stat]; v > 0 {
			entries = append(entries, LeaderEntry{PlayerID: playerID, Value: v})
		}
	}
	return rank(category, entries)
}

// battingAverageLeaders ranks hits over at-bats, requiring a modest
// floor of at-bats so a lucky cameo does not lead the league.
func battingAverageLeaders(totals models.StatSheet) Leaderboard {
	const minAtBats = 30
	entries := make([]LeaderEntry, 0, len(totals))
	for playerID, row := range totals {
		if isPseudoPlayer(playerID) {
			continue
		}
		ab := row[models.StatBatterAtBats]
		if ab < minAtBats {
			continue
		}
		entries = append(entries, LeaderEntry{
			PlayerID: playerID,
			Value:    row[models.StatBatterHits] / ab,
		})
	}
	return rank("batting_average", entries)
}

func rank(category string, entries []LeaderEntry) Leaderboard {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	return Leaderboard{Category: category, Entries: entries}
}

func isPseudoPlayer(playerID string) bool {
	return playerID == models.DefenseID || playerID == models.TeamID
}

// FormatLeaders renders the leaderboards as a readable text block.
func FormatLeaders(summary *SeasonSummary, names map[string]string) string {
	var b strings.Builder
	for _, board := range summary.Leaders {
		fmt.Fprintf(&b, "%s\n", strings.ReplaceAll(board.Category, "_", " "))
		for i, entry := range board.Entries {
			name := entry.PlayerID
			if n, ok := names[entry.PlayerID]; ok {
				name = n
			}
			fmt.Fprintf(&b, "  %2d. %s  %.3f\n", i+1, name, entry.Value)
		}
		b.WriteString("\n")
	}
	return b.String()
}
