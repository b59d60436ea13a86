// Package simulation runs Monte Carlo iterations of games and
// aggregates them into daily, seasonal and ranking outputs.
package simulation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"blasesim/models"
)

// DefaultIterations is how many times a matchup is replayed when the
// caller does not say otherwise.
const DefaultIterations = 250

// Engine fans matchup iterations out over a worker pool and tracks
// in-flight runs.
type Engine struct {
	workers    int
	iterations int
	log        *logrus.Entry

	mu         sync.RWMutex
	activeRuns map[string]*RunStatus
}

// RunStatus tracks the progress of one simulation run.
type RunStatus struct {
	RunID           string
	Description     string
	TotalIterations int
	Completed       int
	Status          string
	StartTime       time.Time
	CompletedTime   *time.Time
}

// NewEngine builds an engine. workers and iterations fall back to
// sane defaults when nonpositive.
func NewEngine(workers, iterations int, log *logrus.Entry) *Engine {
	if workers < 1 {
		workers = 1
	}
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Engine{
		workers:    workers,
		iterations: iterations,
		log:        log,
		activeRuns: make(map[string]*RunStatus),
	}
}

// Iterations returns the engine's configured iteration count.
func (e *Engine) Iterations() int { return e.iterations }

// MatchupResult aggregates the iterations of one matchup. The full
// per-iteration score vectors are kept so drivers can derive score
// distribution figures (shutouts, big-score frequencies).
type MatchupResult struct {
	GameID     string
	Iterations int
	HomeWins   int
	AwayWins   int
	HomeWinPct float64
	AwayWinPct float64
	HomeScore  float64
	AwayScore  float64
	HomeScores []float64
	AwayScores []float64
	HomeStats  models.StatSheet
	AwayStats  models.StatSheet
}

type workerResult struct {
	homeWins   int
	awayWins   int
	homeScores []float64
	awayScores []float64
	homeStats  models.StatSheet
	awayStats  models.StatSheet
	err        error
}

// RunMatchup replays one matchup for the configured number of
// iterations. Each worker receives a deep clone of the game and its
// own seeded random source; cancellation is checked at iteration
// boundaries.
func (e *Engine) RunMatchup(ctx context.Context, game *models.GameState, seed int64) (*MatchupResult, error) {
	runID := uuid.NewString()
	e.trackRun(runID, game.GameID, e.iterations)
	defer e.finishRun(runID)

	perWorker := e.iterations / e.workers
	remainder := e.iterations % e.workers

	results := make(chan workerResult, e.workers)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		iters := perWorker
		if w < remainder {
			iters++
		}
		if iters == 0 {
			continue
		}
		wg.Add(1)
		go func(workerID, iters int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(workerID)))
			results <- e.runWorker(ctx, runID, game.CloneForWorker(rng), iters)
		}(w, iters)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	agg := &MatchupResult{
		GameID:     game.GameID,
		Iterations: e.iterations,
		HomeStats:  models.NewStatSheet(),
		AwayStats:  models.NewStatSheet(),
	}
	var homeScores, awayScores []float64
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		agg.HomeWins += res.homeWins
		agg.AwayWins += res.awayWins
		homeScores = append(homeScores, res.homeScores...)
		awayScores = append(awayScores, res.awayScores...)
		agg.HomeStats.Merge(res.homeStats)
		agg.AwayStats.Merge(res.awayStats)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := float64(agg.HomeWins + agg.AwayWins)
	if n > 0 {
		agg.HomeWinPct = float64(agg.HomeWins) / n
		agg.AwayWinPct = float64(agg.AwayWins) / n
	}
	agg.HomeScore = stat.Mean(homeScores, nil)
	agg.AwayScore = stat.Mean(awayScores, nil)
	agg.HomeScores = homeScores
	agg.AwayScores = awayScores
	return agg, nil
}

// runWorker replays the worker's share of iterations on its private
// clone.
func (e *Engine) runWorker(ctx context.Context, runID string, game *models.GameState, iters int) workerResult {
	res := workerResult{
		homeScores: make([]float64, 0, iters),
		awayScores: make([]float64, 0, iters),
	}
	for i := 0; i < iters; i++ {
		if err := ctx.Err(); err != nil {
			res.err = err
			return res
		}
		home, away, err := game.SimulateGame()
		if err != nil {
			res.err = err
			return res
		}
		res.homeScores = append(res.homeScores, home.InexactFloat64())
		res.awayScores = append(res.awayScores, away.InexactFloat64())
		if home.GreaterThan(away) {
			res.homeWins++
		} else {
			res.awayWins++
		}
		e.bumpProgress(runID)
		if err := game.Reset(); err != nil {
			res.err = err
			return res
		}
	}
	res.homeStats = game.HomeTeam.GameStats.Clone()
	res.awayStats = game.AwayTeam.GameStats.Clone()
	return res
}

func (e *Engine) trackRun(runID, description string, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeRuns[runID] = &RunStatus{
		RunID:           runID,
		Description:     description,
		TotalIterations: total,
		Status:          "running",
		StartTime:       time.Now(),
	}
}

func (e *Engine) bumpProgress(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if status, ok := e.activeRuns[runID]; ok {
		status.Completed++
	}
}

func (e *Engine) finishRun(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if status, ok := e.activeRuns[runID]; ok {
		status.Status = "completed"
		now := time.Now()
		status.CompletedTime = &now
	}
}

// ActiveRuns returns a snapshot of tracked run statuses.
func (e *Engine) ActiveRuns() []RunStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]RunStatus, 0, len(e.activeRuns))
	for _, status := range e.activeRuns {
		out = append(out, *status)
	}
	return out
}

// CleanupOldRuns drops completed runs older than the cutoff.
func (e *Engine) CleanupOldRuns(maxAge time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	for id, status := range e.activeRuns {
		if status.CompletedTime != nil && status.CompletedTime.Before(cutoff) {
			delete(e.activeRuns, id)
		}
	}
}
