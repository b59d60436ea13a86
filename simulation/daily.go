package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"blasesim/classifier"
	"blasesim/data"
	"blasesim/models"
	"blasesim/simerr"
	"blasesim/weather"
)

// Loader resolves the schedule, stlats, ballparks and classifier
// models a driver needs for one day.
type Loader struct {
	DataDir   string
	Fetcher   *data.Fetcher
	Ballparks map[string]*models.Stadium
	Registry  *classifier.Registry
}

// Day bundles everything needed to simulate one day's slate.
type Day struct {
	Season   int
	Day      int
	Games    []data.ScheduledGame
	Snapshot data.Snapshot
}

// LoadDay reads the schedule and stlat snapshot for one day. The
// snapshot comes through the fetcher when one is configured, so a
// remote archive can backfill missing local days.
func (l *Loader) LoadDay(season, day int) (*Day, error) {
	games, err := data.LoadSchedule(l.DataDir, season, day)
	if err != nil {
		return nil, err
	}
	var snap data.Snapshot
	if l.Fetcher != nil {
		raw, err := l.Fetcher.FetchSnapshot(season, day)
		if err != nil {
			return nil, err
		}
		snap, err = data.ParseSnapshot(raw)
		if err != nil {
			return nil, err
		}
	} else {
		snap, err = data.LoadSnapshot(l.DataDir, season, day)
		if err != nil {
			return nil, err
		}
	}
	return &Day{Season: season, Day: day, Games: games, Snapshot: snap}, nil
}

// Stadium returns the home team's park, or the neutral park when none
// is on file.
func (l *Loader) Stadium(teamID string) *models.Stadium {
	if park, ok := l.Ballparks[teamID]; ok {
		return park
	}
	return models.DefaultStadium(teamID)
}

// GameResult is the aggregated outcome of one matchup on a slate.
// Alongside the win odds it carries each side's score distribution
// figures: how often the side was shut out, its strikeouts per game,
// and how often it put up more than ten or twenty runs.
type GameResult struct {
	GameID           string           `json:"game_id"`
	HomeTeam         string           `json:"home_team"`
	AwayTeam         string           `json:"away_team"`
	HomePitcher      string           `json:"home_pitcher"`
	AwayPitcher      string           `json:"away_pitcher"`
	Weather          string           `json:"weather"`
	Iterations       int              `json:"iterations"`
	HomeWinPct       float64          `json:"home_win_pct"`
	AwayWinPct       float64          `json:"away_win_pct"`
	HomeScore        float64          `json:"home_score"`
	AwayScore        float64          `json:"away_score"`
	HomeShutoutPct   float64          `json:"home_shutout_pct"`
	AwayShutoutPct   float64          `json:"away_shutout_pct"`
	HomeStrikeoutAvg float64          `json:"home_strikeout_avg"`
	AwayStrikeoutAvg float64          `json:"away_strikeout_avg"`
	HomeOverTen      float64          `json:"home_over_ten"`
	AwayOverTen      float64          `json:"away_over_ten"`
	HomeOverTwenty   float64          `json:"home_over_twenty"`
	AwayOverTwenty   float64          `json:"away_over_twenty"`
	HomeStats        models.StatSheet `json:"home_stats,omitempty"`
	AwayStats        models.StatSheet `json:"away_stats,omitempty"`
}

// DayResult is the outcome of a full slate.
type DayResult struct {
	Season  int          `json:"season"`
	Day     int          `json:"day"`
	Games   []GameResult `json:"games"`
	Skipped []string     `json:"skipped,omitempty"`
}

// RunDailySim simulates every playable game on one day's slate.
// Skipped games are recorded and passed over; any other failure
// aborts the slate.
func RunDailySim(ctx context.Context, e *Engine, l *Loader, season, dayNum int, seed int64, log *logrus.Entry) (*DayResult, error) {
	day, err := l.LoadDay(season, dayNum)
	if err != nil {
		return nil, err
	}
	result := &DayResult{Season: season, Day: dayNum}
	for _, sched := range day.Games {
		if err := sched.Validate(); err != nil {
			if errors.Is(err, simerr.ErrSkippedGame) {
				log.WithField("game", sched.GameID).Info("skipping shuffled game")
				result.Skipped = append(result.Skipped, sched.GameID)
				continue
			}
			return nil, err
		}
		game, err := buildGame(l, day, sched, seed)
		if err != nil {
			return nil, err
		}
		agg, err := e.RunMatchup(ctx, game, seed)
		if err != nil {
			return nil, err
		}
		result.Games = append(result.Games, GameResult{
			GameID:           sched.GameID,
			HomeTeam:         sched.HomeTeam,
			AwayTeam:         sched.AwayTeam,
			HomePitcher:      sched.HomePitcher,
			AwayPitcher:      sched.AwayPitcher,
			Weather:          game.Weather.String(),
			Iterations:       agg.Iterations,
			HomeWinPct:       agg.HomeWinPct,
			AwayWinPct:       agg.AwayWinPct,
			HomeScore:        agg.HomeScore,
			AwayScore:        agg.AwayScore,
			HomeShutoutPct:   scoreFraction(agg.HomeScores, func(s float64) bool { return s == 0 }),
			AwayShutoutPct:   scoreFraction(agg.AwayScores, func(s float64) bool { return s == 0 }),
			HomeStrikeoutAvg: strikeoutAvg(agg.HomeStats, agg.Iterations),
			AwayStrikeoutAvg: strikeoutAvg(agg.AwayStats, agg.Iterations),
			HomeOverTen:      scoreFraction(agg.HomeScores, func(s float64) bool { return s > 10 }),
			AwayOverTen:      scoreFraction(agg.AwayScores, func(s float64) bool { return s > 10 }),
			HomeOverTwenty:   scoreFraction(agg.HomeScores, func(s float64) bool { return s > 20 }),
			AwayOverTwenty:   scoreFraction(agg.AwayScores, func(s float64) bool { return s > 20 }),
			HomeStats:        agg.HomeStats,
			AwayStats:        agg.AwayStats,
		})
		log.WithFields(logrus.Fields{
			"game":         sched.GameID,
			"home_win_pct": agg.HomeWinPct,
		}).Debug("matchup complete")
	}
	return result, nil
}

// scoreFraction is the fraction of iterations whose final score
// satisfies match.
func scoreFraction(scores []float64, match func(float64) bool) float64 {
	if len(scores) == 0 {
		return 0
	}
	n := 0
	for _, s := range scores {
		if match(s) {
			n++
		}
	}
	return float64(n) / float64(len(scores))
}

// strikeoutAvg is a side's batter strikeouts per simulated game.
func strikeoutAvg(stats models.StatSheet, iterations int) float64 {
	if iterations == 0 {
		return 0
	}
	total := 0.0
	for _, row := range stats {
		total += row[models.StatBatterStrikeouts]
	}
	return total / float64(iterations)
}

// FormatDayResults renders a day's slate as a readable text block, one
// game per line plus each side's score distribution figures.
func FormatDayResults(result *DayResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Season %d Day %d\n", result.Season, result.Day)
	for _, g := range result.Games {
		fmt.Fprintf(&b, "%s [%s] %s: %.3f  %s: %.3f\n",
			g.GameID, g.Weather, g.HomeTeam, g.HomeWinPct, g.AwayTeam, g.AwayWinPct)
		fmt.Fprintf(&b, "  home: shutout %.3f, k/game %.2f, >10 %.3f, >20 %.3f\n",
			g.HomeShutoutPct, g.HomeStrikeoutAvg, g.HomeOverTen, g.HomeOverTwenty)
		fmt.Fprintf(&b, "  away: shutout %.3f, k/game %.2f, >10 %.3f, >20 %.3f\n",
			g.AwayShutoutPct, g.AwayStrikeoutAvg, g.AwayOverTen, g.AwayOverTwenty)
	}
	for _, gameID := range result.Skipped {
		fmt.Fprintf(&b, "%s skipped\n", gameID)
	}
	return b.String()
}

// WriteDayResults writes the day's results text file under
// <outputDir>/season<N>/day<D>_results.txt.
func WriteDayResults(outputDir string, result *DayResult) error {
	dir := filepath.Join(outputDir, fmt.Sprintf("season%d", result.Season))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return simerr.Config("creating output dir %s: %v", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("day%d_results.txt", result.Day))
	if err := os.WriteFile(path, []byte(FormatDayResults(result)), 0o644); err != nil {
		return simerr.Config("writing %s: %v", path, err)
	}
	return nil
}

// buildGame assembles a ready GameState from a scheduled game and the
// day's snapshot.
func buildGame(l *Loader, day *Day, sched data.ScheduledGame, seed int64) (*models.GameState, error) {
	w, err := weather.FromCode(sched.WeatherCode)
	if err != nil {
		return nil, err
	}
	stadium := l.Stadium(sched.HomeTeam)

	homeCfg, err := day.Snapshot.TeamConfig(sched.HomeTeam, sched.HomePitcher)
	if err != nil {
		return nil, err
	}
	awayCfg, err := day.Snapshot.TeamConfig(sched.AwayTeam, sched.AwayPitcher)
	if err != nil {
		return nil, err
	}
	for _, cfg := range []*models.TeamStateConfig{&homeCfg, &awayCfg} {
		cfg.Season = day.Season
		cfg.Day = day.Day
		cfg.Weather = w
		cfg.Stadium = stadium
	}
	homeCfg.IsHome = true

	home, err := models.NewTeamState(homeCfg)
	if err != nil {
		return nil, err
	}
	away, err := models.NewTeamState(awayCfg)
	if err != nil {
		return nil, err
	}
	return models.NewGameState(models.GameConfig{
		GameID:   sched.GameID,
		Season:   day.Season,
		Day:      day.Day,
		Weather:  w,
		Stadium:  stadium,
		HomeTeam: home,
		AwayTeam: away,
		Registry: l.Registry,
		Rng:      rand.New(rand.NewSource(seed)),
	}), nil
}
