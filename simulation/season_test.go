package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blasesim/models"
)

func TestRecordGame(t *testing.T) {
	result := &SeasonResult{Records: make(map[string]*TeamRecord)}
	g := &GameResult{
		HomeTeam:    loversID,
		AwayTeam:    piesID,
		HomePitcher: "home-p",
		AwayPitcher: "away-p",
		Weather:     "Eclipse",
		HomeWinPct:  0.6,
		AwayWinPct:  0.4,
	}
	recordGame(result, 3, g)

	home := result.Records[loversID]
	require.NotNil(t, home)
	assert.Equal(t, 1, home.Wins)
	assert.Equal(t, 0, home.Losses)
	require.Len(t, home.Days, 1)
	assert.Equal(t, 3, home.Days[0].Day)
	assert.Equal(t, piesID, home.Days[0].Opponent)
	assert.Equal(t, "home-p", home.Days[0].Pitcher)
	assert.Equal(t, "away-p", home.Days[0].OpponentPitcher)

	away := result.Records[piesID]
	require.NotNil(t, away)
	assert.Equal(t, 0, away.Wins)
	assert.Equal(t, 1, away.Losses)
}

func TestRecordGameTieGoesHome(t *testing.T) {
	result := &SeasonResult{Records: make(map[string]*TeamRecord)}
	g := &GameResult{HomeTeam: loversID, AwayTeam: piesID, HomeWinPct: 0.5, AwayWinPct: 0.5}
	recordGame(result, 0, g)
	assert.Equal(t, 1, result.Records[loversID].Wins)
	assert.Equal(t, 1, result.Records[piesID].Losses)
}

func TestFoldSegmentsAveragesPerIteration(t *testing.T) {
	homeStats := models.NewStatSheet()
	homeStats.Add("h1", models.StatBatterHits, 500)
	awayStats := models.NewStatSheet()
	awayStats.Add("a1", models.StatPitcherStrikeouts, 250)

	segments := make(models.SegmentedStats)
	g := &GameResult{HomeStats: homeStats, AwayStats: awayStats}
	foldSegments(segments, 7, g, 250)

	assert.Equal(t, 2.0, segments[7].Get("h1", models.StatBatterHits))
	assert.Equal(t, 1.0, segments[7].Get("a1", models.StatPitcherStrikeouts))

	// A second matchup on the same day folds into the same sheet.
	foldSegments(segments, 7, g, 250)
	assert.Equal(t, 4.0, segments[7].Get("h1", models.StatBatterHits))
}

func TestSumSeason(t *testing.T) {
	outputDir := t.TempDir()

	segments := make(models.SegmentedStats)
	for day := 0; day < 3; day++ {
		segments.Add(day, "slugger", models.StatBatterHRs, 2)
		segments.Add(day, "slugger", models.StatBatterHits, 15)
		segments.Add(day, "slugger", models.StatBatterAtBats, 20)
		segments.Add(day, "slugger", models.StatBatterRBIs, 2.333)
		segments.Add(day, "ace", models.StatPitcherStrikeouts, 9)
		segments.Add(day, "benchwarmer", models.StatBatterHits, 2)
		segments.Add(day, "benchwarmer", models.StatBatterAtBats, 2)
		segments.Add(day, models.TeamID, models.StatTeamWins, 1)
	}
	result := &SeasonResult{Season: 5, Records: map[string]*TeamRecord{}}
	require.NoError(t, writeSeasonOutput(outputDir, 5, result, segments))

	summary, err := SumSeason(outputDir, 5)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Season)
	assert.Equal(t, 6.0, summary.Totals.Get("slugger", models.StatBatterHRs))
	assert.Equal(t, 27.0, summary.Totals.Get("ace", models.StatPitcherStrikeouts))
	// Season totals land on the hundredth grid: 3 × 2.333 → 7.0.
	assert.Equal(t, 7.0, summary.Totals.Get("slugger", models.StatBatterRBIs))

	boards := make(map[string]Leaderboard, len(summary.Leaders))
	for _, b := range summary.Leaders {
		boards[b.Category] = b
	}

	strikeouts := boards["strikeouts"]
	require.Len(t, strikeouts.Entries, 1)
	assert.Equal(t, "ace", strikeouts.Entries[0].PlayerID)
	assert.Equal(t, 27.0, strikeouts.Entries[0].Value)

	homeRuns := boards["home_runs"]
	require.Len(t, homeRuns.Entries, 1)
	assert.Equal(t, "slugger", homeRuns.Entries[0].PlayerID)

	// benchwarmer bats 1.000 but misses the at-bat floor.
	avg := boards["batting_average"]
	require.Len(t, avg.Entries, 1)
	assert.Equal(t, "slugger", avg.Entries[0].PlayerID)
	assert.InDelta(t, 0.75, avg.Entries[0].Value, 1e-12)

	// The leaders text file lands next to the summary.
	raw, err := os.ReadFile(filepath.Join(outputDir, "season5", "leaders.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "strikeouts")
	assert.Contains(t, string(raw), "ace")
}

func TestSumSeasonMissingSegments(t *testing.T) {
	_, err := SumSeason(t.TempDir(), 5)
	require.Error(t, err)
}

func TestRankTruncatesAndBreaksTies(t *testing.T) {
	entries := make([]LeaderEntry, 0, 12)
	for i := 0; i < 12; i++ {
		entries = append(entries, LeaderEntry{PlayerID: string(rune('a' + i)), Value: float64(i)})
	}
	entries = append(entries, LeaderEntry{PlayerID: "zz", Value: 11})

	board := rank("test", entries)
	require.Len(t, board.Entries, 10)
	assert.Equal(t, 11.0, board.Entries[0].Value)
	// Equal values rank by player id.
	assert.Equal(t, "l", board.Entries[0].PlayerID)
	assert.Equal(t, "zz", board.Entries[1].PlayerID)
}

func TestFormatLeaders(t *testing.T) {
	summary := &SeasonSummary{
		Leaders: []Leaderboard{{
			Category: "home_runs",
			Entries:  []LeaderEntry{{PlayerID: "p1", Value: 12}},
		}},
	}
	out := FormatLeaders(summary, map[string]string{"p1": "Slugger McGee"})
	assert.Contains(t, out, "home runs")
	assert.Contains(t, out, "Slugger McGee")
}
