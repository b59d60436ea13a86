package simulation

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blasesim/classifier"
	"blasesim/models"
	"blasesim/weather"
)

const (
	loversID = "b72f3061-f573-40d7-832a-5ad475bd7909"
	piesID   = "23e4cbc1-e9cd-47fa-a35b-bfa06f726cb7"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testRegistry() *classifier.Registry {
	r := classifier.NewRegistry()
	r.Register(classifier.Pitch, classifier.Fixed{Probs: []float64{0.15, 0.25, 0.05, 0.15, 0.35, 0.05}})
	r.Register(classifier.HitType, classifier.Fixed{Probs: []float64{0.7, 0.2, 0.05, 0.05}})
	r.Register(classifier.OutType, classifier.Fixed{Probs: []float64{0.6, 0.4}})
	r.Register(classifier.RunnerAdvHit, classifier.Fixed{Probs: []float64{1, 0}})
	r.Register(classifier.RunnerAdvOut, classifier.Fixed{Probs: []float64{1, 0}})
	r.Register(classifier.SBAttempt, classifier.Fixed{Probs: []float64{1, 0}})
	r.Register(classifier.SBSuccess, classifier.Fixed{Probs: []float64{1, 0}})
	return r
}

func engineTestTeam(t *testing.T, teamID, prefix string) *models.TeamState {
	t.Helper()
	cfg := models.TeamStateConfig{
		TeamID:      teamID,
		Season:      10,
		Day:         10,
		Weather:     weather.Eclipse,
		Lineup:      make(map[int]string),
		Rotation:    make(map[int]string),
		Stlats:      make(map[string]models.Stlats),
		Blood:       make(map[string]models.BloodType),
		PlayerNames: make(map[string]string),
	}
	stlats := models.Stlats{
		Buoyancy: 0.5, Divinity: 0.5, Martyrdom: 0.5, Moxie: 0.5,
		Musclitude: 0.5, Patheticism: 0.5, Thwackability: 0.5, Tragicness: 0.1,
		BaseThirst: 0.5, Continuation: 0.5, GroundFriction: 0.5,
		Indulgence: 0.5, Laserlikeness: 0.5,
		Anticapitalism: 0.5, Chasiness: 0.5, Omniscience: 0.5,
		Tenaciousness: 0.5, Watchfulness: 0.5,
		Coldness: 0.5, Overpowerment: 0.5, Ruthlessness: 0.5,
		Shakespearianism: 0.5, Suppression: 0.5, Unthwackability: 0.5,
		Pressurization: 0.5, Cinnamon: 0.5,
	}
	for i := 1; i <= 9; i++ {
		id := fmt.Sprintf("%s-batter-%d", prefix, i)
		cfg.Lineup[i] = id
		cfg.Stlats[id] = stlats
		cfg.Blood[id] = models.BloodA
		cfg.PlayerNames[id] = id
	}
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("%s-pitcher-%d", prefix, i)
		cfg.Rotation[i] = id
		cfg.Stlats[id] = stlats
		cfg.Blood[id] = models.BloodA
		cfg.PlayerNames[id] = id
	}
	cfg.StartingPitcher = cfg.Rotation[1]
	cfg.CurPitcherPos = 1
	ts, err := models.NewTeamState(cfg)
	require.NoError(t, err)
	return ts
}

func engineTestGame(t *testing.T) *models.GameState {
	t.Helper()
	home := engineTestTeam(t, loversID, "home")
	home.IsHome = true
	away := engineTestTeam(t, piesID, "away")
	return models.NewGameState(models.GameConfig{
		GameID:   "engine-test-game",
		Season:   10,
		Day:      10,
		Weather:  weather.Eclipse,
		HomeTeam: home,
		AwayTeam: away,
		Registry: testRegistry(),
		Rng:      rand.New(rand.NewSource(1)),
	})
}

func TestRunMatchupAccounting(t *testing.T) {
	e := NewEngine(4, 40, testLog())
	game := engineTestGame(t)

	result, err := e.RunMatchup(context.Background(), game, 7)
	require.NoError(t, err)

	assert.Equal(t, "engine-test-game", result.GameID)
	assert.Equal(t, 40, result.Iterations)
	assert.Equal(t, 40, result.HomeWins+result.AwayWins)
	assert.InDelta(t, 1.0, result.HomeWinPct+result.AwayWinPct, 1e-12)
	assert.Greater(t, result.HomeScore+result.AwayScore, 0.0)

	// One final score per iteration survives aggregation.
	assert.Len(t, result.HomeScores, 40)
	assert.Len(t, result.AwayScores, 40)

	// Both sheets carry a full ledger of team outcomes across workers.
	wins := result.HomeStats.Get(models.TeamID, models.StatTeamWins) +
		result.AwayStats.Get(models.TeamID, models.StatTeamWins)
	losses := result.HomeStats.Get(models.TeamID, models.StatTeamLosses) +
		result.AwayStats.Get(models.TeamID, models.StatTeamLosses)
	assert.Equal(t, 40.0, wins)
	assert.Equal(t, 40.0, losses)
}

func TestRunMatchupDeterministicWins(t *testing.T) {
	game := engineTestGame(t)

	a, err := NewEngine(3, 30, testLog()).RunMatchup(context.Background(), game, 11)
	require.NoError(t, err)
	b, err := NewEngine(3, 30, testLog()).RunMatchup(context.Background(), game, 11)
	require.NoError(t, err)

	assert.Equal(t, a.HomeWins, b.HomeWins)
	assert.Equal(t, a.AwayWins, b.AwayWins)
	assert.InDelta(t, a.HomeScore, b.HomeScore, 1e-9)
}

func TestRunMatchupCancellation(t *testing.T) {
	e := NewEngine(2, 1000, testLog())
	game := engineTestGame(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.RunMatchup(ctx, game, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMatchupSingleWorkerMoreWorkersThanIterations(t *testing.T) {
	e := NewEngine(8, 3, testLog())
	game := engineTestGame(t)

	result, err := e.RunMatchup(context.Background(), game, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, result.HomeWins+result.AwayWins)
}

func TestRunTracking(t *testing.T) {
	e := NewEngine(1, 5, testLog())
	game := engineTestGame(t)

	_, err := e.RunMatchup(context.Background(), game, 3)
	require.NoError(t, err)

	runs := e.ActiveRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 5, runs[0].Completed)
	require.NotNil(t, runs[0].CompletedTime)

	time.Sleep(time.Millisecond)
	e.CleanupOldRuns(0)
	assert.Empty(t, e.ActiveRuns())
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(0, 0, testLog())
	assert.Equal(t, DefaultIterations, e.Iterations())
}
