package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"blasesim/models"
	"blasesim/simerr"
)

// SeasonDays is the length of a regular season.
const SeasonDays = 99

// DayRecord is one team's ledger line for one simulated day.
type DayRecord struct {
	Day             int    `json:"day"`
	Opponent        string `json:"opponent"`
	Pitcher         string `json:"pitcher"`
	OpponentPitcher string `json:"opponent_pitcher"`
	Weather         string `json:"weather"`
	Win             bool   `json:"win"`
}

// TeamRecord accumulates one team's season.
type TeamRecord struct {
	TeamID string      `json:"team_id"`
	Wins   int         `json:"wins"`
	Losses int         `json:"losses"`
	Days   []DayRecord `json:"days"`
}

// SeasonResult is the outcome of a full season run.
type SeasonResult struct {
	Season  int                    `json:"season"`
	Records map[string]*TeamRecord `json:"records"`
	Skipped []string               `json:"skipped,omitempty"`
}

// RunSeasonSim simulates every day of a season in order. Each team's
// per-day averaged stat segments are written under
// <outputDir>/season<N>/ as they complete, so a partial run still
// leaves usable output behind.
func RunSeasonSim(ctx context.Context, e *Engine, l *Loader, season int, seed int64, outputDir string, log *logrus.Entry) (*SeasonResult, error) {
	result := &SeasonResult{
		Season:  season,
		Records: make(map[string]*TeamRecord),
	}
	segments := make(models.SegmentedStats)

	for dayNum := 0; dayNum < SeasonDays; dayNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dayResult, err := RunDailySim(ctx, e, l, season, dayNum, seed+int64(dayNum), log)
		if err != nil {
			return nil, err
		}
		result.Skipped = append(result.Skipped, dayResult.Skipped...)
		for i := range dayResult.Games {
			recordGame(result, dayNum, &dayResult.Games[i])
			foldSegments(segments, dayNum, &dayResult.Games[i], e.Iterations())
		}
		if outputDir != "" {
			if err := WriteDayResults(outputDir, dayResult); err != nil {
				return nil, err
			}
		}
		log.WithFields(logrus.Fields{
			"season": season,
			"day":    dayNum,
			"games":  len(dayResult.Games),
		}).Info("day complete")
	}

	if outputDir != "" {
		if err := writeSeasonOutput(outputDir, season, result, segments); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// recordGame converts a matchup's win probabilities into one win and
// one loss on the season ledger.
func recordGame(result *SeasonResult, dayNum int, g *GameResult) {
	homeWin := g.HomeWinPct >= g.AwayWinPct
	addDayRecord(result, g.HomeTeam, DayRecord{
		Day:             dayNum,
		Opponent:        g.AwayTeam,
		Pitcher:         g.HomePitcher,
		OpponentPitcher: g.AwayPitcher,
		Weather:         g.Weather,
		Win:             homeWin,
	})
	addDayRecord(result, g.AwayTeam, DayRecord{
		Day:             dayNum,
		Opponent:        g.HomeTeam,
		Pitcher:         g.AwayPitcher,
		OpponentPitcher: g.HomePitcher,
		Weather:         g.Weather,
		Win:             !homeWin,
	})
}

func addDayRecord(result *SeasonResult, teamID string, rec DayRecord) {
	record, ok := result.Records[teamID]
	if !ok {
		record = &TeamRecord{TeamID: teamID}
		result.Records[teamID] = record
	}
	record.Days = append(record.Days, rec)
	if rec.Win {
		record.Wins++
	} else {
		record.Losses++
	}
}

// foldSegments files the matchup's accumulated counters under its
// day, averaged over the iteration count so segments read as
// per-game expectations.
func foldSegments(segments models.SegmentedStats, dayNum int, g *GameResult, iterations int) {
	day := models.SegmentedStats{dayNum: models.NewStatSheet()}
	day[dayNum].Merge(g.HomeStats)
	day[dayNum].Merge(g.AwayStats)
	day.Scale(float64(iterations))
	segments.Merge(day)
}

func writeSeasonOutput(outputDir string, season int, result *SeasonResult, segments models.SegmentedStats) error {
	dir := filepath.Join(outputDir, fmt.Sprintf("season%d", season))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return simerr.Config("creating output dir %s: %v", dir, err)
	}
	if err := writeJSONFile(filepath.Join(dir, "records.json"), result); err != nil {
		return err
	}
	return writeJSONFile(filepath.Join(dir, "stat_segments.json"), segments)
}

func writeJSONFile(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return simerr.Config("encoding %s: %v", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return simerr.Config("writing %s: %v", path, err)
	}
	return nil
}
