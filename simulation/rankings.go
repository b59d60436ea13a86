package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"blasesim/data"
	"blasesim/models"
	"blasesim/weather"
)

// rankingWeather is the fixed weather for ranking games. Eclipse has
// no modeled scoring effects, so it compares rosters on merit.
const rankingWeather = weather.Eclipse

// TeamRanking is one team's line in the power rankings.
type TeamRanking struct {
	Rank     int     `json:"rank"`
	TeamID   string  `json:"team_id"`
	Wins     float64 `json:"wins"`
	Games    int     `json:"games"`
	WinPct   float64 `json:"win_pct"`
	RunDelta float64 `json:"run_delta"`
}

// PowerRankings plays a full round robin on one day's rosters: every
// pair of teams meets once at a neutral park, and teams are ranked by
// expected wins with run differential as the tiebreaker.
func PowerRankings(ctx context.Context, e *Engine, l *Loader, season, dayNum int, seed int64, log *logrus.Entry) ([]TeamRanking, error) {
	day, err := l.LoadDay(season, dayNum)
	if err != nil {
		return nil, err
	}

	teams := make([]string, 0, len(day.Snapshot))
	for teamID := range day.Snapshot {
		teams = append(teams, teamID)
	}
	sort.Strings(teams)

	wins := make(map[string]float64, len(teams))
	games := make(map[string]int, len(teams))
	runDelta := make(map[string]float64, len(teams))

	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			agg, err := rankingMatchup(ctx, e, l, day, teams[i], teams[j], seed)
			if err != nil {
				return nil, err
			}
			wins[teams[i]] += agg.HomeWinPct
			wins[teams[j]] += agg.AwayWinPct
			games[teams[i]]++
			games[teams[j]]++
			runDelta[teams[i]] += agg.HomeScore - agg.AwayScore
			runDelta[teams[j]] += agg.AwayScore - agg.HomeScore
		}
		log.WithField("team", teams[i]).Debug("ranking matchups complete")
	}

	rankings := make([]TeamRanking, 0, len(teams))
	for _, teamID := range teams {
		r := TeamRanking{
			TeamID:   teamID,
			Wins:     wins[teamID],
			Games:    games[teamID],
			RunDelta: runDelta[teamID],
		}
		if r.Games > 0 {
			r.WinPct = r.Wins / float64(r.Games)
		}
		rankings = append(rankings, r)
	}
	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].WinPct != rankings[j].WinPct {
			return rankings[i].WinPct > rankings[j].WinPct
		}
		if rankings[i].RunDelta != rankings[j].RunDelta {
			return rankings[i].RunDelta > rankings[j].RunDelta
		}
		return rankings[i].TeamID < rankings[j].TeamID
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings, nil
}

// rankingMatchup plays one neutral-site game between two teams using
// each rotation's first slot.
func rankingMatchup(ctx context.Context, e *Engine, l *Loader, day *Day, homeID, awayID string, seed int64) (*MatchupResult, error) {
	sched := data.ScheduledGame{
		GameID:      fmt.Sprintf("ranking-%s-%s", homeID, awayID),
		Season:      day.Season,
		Day:         day.Day,
		HomeTeam:    homeID,
		AwayTeam:    awayID,
		HomePitcher: day.Snapshot[homeID].Rotation[1],
		AwayPitcher: day.Snapshot[awayID].Rotation[1],
		WeatherCode: int(rankingWeather),
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	game, err := buildRankingGame(l, day, sched, seed)
	if err != nil {
		return nil, err
	}
	return e.RunMatchup(ctx, game, seed)
}

// buildRankingGame is buildGame at a neutral park: no home-field
// stadium and no home-side preload advantages beyond batting order.
func buildRankingGame(l *Loader, day *Day, sched data.ScheduledGame, seed int64) (*models.GameState, error) {
	stadium := models.DefaultStadium(sched.HomeTeam)

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
		cfg.Weather = rankingWeather
		cfg.Stadium = stadium
	}

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
		Weather:  rankingWeather,
		Stadium:  stadium,
		HomeTeam: home,
		AwayTeam: away,
		Registry: l.Registry,
		Rng:      rand.New(rand.NewSource(seed)),
	}), nil
}
