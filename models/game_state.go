package models

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"blasesim/classifier"
	"blasesim/simerr"
	"blasesim/weather"
)

// Trigger probabilities for team pitch events and weather procs.
const (
	charmTriggerPercentage    = 0.02
	zapTriggerPercentage      = 0.02
	psychicTriggerPercentage  = 0.02
	fieryTriggerPercentage    = 0.02
	crowsTriggerPercentage    = 0.02
	floodingTriggerPercentage = 0.01
	bigBucketPercentage       = 0.04
)

// maxInnings is the safety cap on a single simulated game.
const maxInnings = 50

// baseInstinctPriors maps a league's base count to the prior of a
// Base Instincts walk landing the batter on each base beyond first.
var baseInstinctPriors = map[int]map[int]float64{
	4: {2: 0.04, 3: 0.01},
	5: {2: 0.035, 3: 0.01, 4: 0.005},
}

// InningHalf marks which side is batting.
type InningHalf int

const (
	TopHalf InningHalf = iota + 1
	BottomHalf
)

func (h InningHalf) String() string {
	if h == TopHalf {
		return "top"
	}
	return "bottom"
}

// Pitch outcome indices, matching the pitch classifier classes.
const (
	pitchBall = iota
	pitchStrikeSwinging
	pitchFoul
	pitchInPlayHit
	pitchInPlayOut
	pitchStrikeLooking
)

// Hit type indices, matching the hit type classifier classes.
const (
	hitSingle = iota
	hitDouble
	hitTriple
	hitHomeRun
)

// Out type indices, matching the out type classifier classes.
const (
	outFlyout = iota
	outGroundout
)

// GameState drives a single game pitch by pitch. It owns the two team
// states, the occupied-base map, and the fixed-point scores, and it
// consults the shared classifier registry at every probabilistic
// decision point.
type GameState struct {
	GameID        string
	Season        int
	Day           int
	Weather       weather.Weather
	Stadium       *Stadium
	HomeTeam      *TeamState
	AwayTeam      *TeamState
	HomeScore     decimal.Decimal
	AwayScore     decimal.Decimal
	Inning        int
	Half          InningHalf
	Outs          int
	Strikes       int
	Balls         int
	NumBases      int
	BallsForWalk  int
	StrikesForOut int
	OutsForInning int
	BaseRunners   map[int]string
	IsGameOver    bool
	GameLog       []string

	curBatting  *TeamState
	curPitching *TeamState
	clf         *classifier.Registry
	rng         *rand.Rand
	psychicFlip bool
	washCounts  map[string]int
}

// GameConfig carries the inputs for NewGameState.
type GameConfig struct {
	GameID   string
	Season   int
	Day      int
	Weather  weather.Weather
	Stadium  *Stadium
	HomeTeam *TeamState
	AwayTeam *TeamState
	Registry *classifier.Registry
	Rng      *rand.Rand
}

// NewGameState builds a game ready for its first pitch.
func NewGameState(cfg GameConfig) *GameState {
	g := &GameState{
		GameID:      cfg.GameID,
		Season:      cfg.Season,
		Day:         cfg.Day,
		Weather:     cfg.Weather,
		Stadium:     cfg.Stadium,
		HomeTeam:    cfg.HomeTeam,
		AwayTeam:    cfg.AwayTeam,
		HomeScore:   decimal.Zero,
		AwayScore:   decimal.Zero,
		Inning:      1,
		Half:        TopHalf,
		BaseRunners: make(map[int]string),
		clf:         cfg.Registry,
		rng:         cfg.Rng,
		washCounts:  make(map[string]int),
	}
	if g.Stadium == nil {
		g.Stadium = cfg.HomeTeam.Stadium
	}
	g.refreshGameStatus()
	return g
}

// Reset restores the game to its pre-first-pitch state between
// iterations. Team stat counters are preserved; modifier stacks are
// restored to their preloaded state.
func (g *GameState) Reset() error {
	g.HomeScore = decimal.Zero
	g.AwayScore = decimal.Zero
	g.Inning = 1
	g.Half = TopHalf
	g.Outs = 0
	g.Strikes = 0
	g.Balls = 0
	g.BaseRunners = make(map[int]string)
	g.IsGameOver = false
	g.GameLog = g.GameLog[:0]
	g.psychicFlip = false
	g.washCounts = make(map[string]int)
	if err := g.HomeTeam.Reset(false); err != nil {
		return err
	}
	if err := g.AwayTeam.Reset(false); err != nil {
		return err
	}
	g.refreshGameStatus()
	return nil
}

// refreshGameStatus rebinds the batting and pitching sides and the
// per-side count thresholds after a half flip.
func (g *GameState) refreshGameStatus() {
	if g.Half == TopHalf {
		g.curBatting = g.AwayTeam
		g.curPitching = g.HomeTeam
	} else {
		g.curBatting = g.HomeTeam
		g.curPitching = g.AwayTeam
	}
	g.NumBases = g.curBatting.NumBases
	g.BallsForWalk = g.curBatting.BallsForWalk
	g.StrikesForOut = g.curBatting.StrikesForOut
	g.OutsForInning = g.curBatting.OutsForInning
}

// BattingTeam returns the side currently at the plate.
func (g *GameState) BattingTeam() *TeamState { return g.curBatting }

// PitchingTeam returns the side currently in the field.
func (g *GameState) PitchingTeam() *TeamState { return g.curPitching }

// SimulateGame runs the game loop until the game is over and returns
// the final scores.
func (g *GameState) SimulateGame() (home, away decimal.Decimal, err error) {
	for !g.IsGameOver {
		if g.Inning > maxInnings {
			return g.HomeScore, g.AwayScore,
				simerr.Domain("game %s exceeded %d innings", g.GameID, maxInnings)
		}
		stole, err := g.stolenBaseSim()
		if err != nil {
			return g.HomeScore, g.AwayScore, err
		}
		if !stole {
			if err := g.PitchSim(); err != nil {
				return g.HomeScore, g.AwayScore, err
			}
		}
		g.attemptToAdvanceInning()
	}
	return g.HomeScore, g.AwayScore, nil
}

// PitchSim advances the game by exactly one pitch, or one pre-pitch
// event that short-circuits the pitch.
func (g *GameState) PitchSim() error {
	if err := g.validateBatter(); err != nil {
		return err
	}
	fired, err := g.resolvePrePitchEvents()
	if fired || err != nil {
		return err
	}

	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherPitchesThrown, 1)
	g.curBatting.UpdateStat(g.curBatting.CurBatter, StatBatterPitchesFaced, 1)

	fv := g.pitchFeatureVector()
	outcome, err := g.clf.Sample(classifier.Pitch, fv, g.rng)
	if err != nil {
		return err
	}
	if g.Strikes == 0 && g.curBatting.HasBuff(g.curBatting.CurBatter, BuffFlinch) {
		// Flinch: the first strike of every at-bat is taken looking.
		outcome = pitchStrikeLooking
	}
	if g.psychicFlip {
		outcome = psychicFlipOutcome(outcome)
		g.psychicFlip = false
	}

	switch outcome {
	case pitchBall:
		return g.resolveBall()
	case pitchStrikeSwinging:
		return g.resolveStrike(true)
	case pitchStrikeLooking:
		return g.resolveStrike(false)
	case pitchFoul:
		g.curBatting.UpdateStat(g.curBatting.CurBatter, StatBatterFoulBalls, 1)
		if g.Strikes < g.StrikesForOut-1 {
			g.Strikes++
		}
		return nil
	case pitchInPlayHit:
		return g.resolveInPlay(fv, true)
	case pitchInPlayOut:
		return g.resolveInPlay(fv, false)
	}
	return simerr.Domain("unknown pitch outcome %d", outcome)
}

func psychicFlipOutcome(outcome int) int {
	switch outcome {
	case pitchBall:
		return pitchStrikeLooking
	case pitchStrikeSwinging, pitchStrikeLooking:
		return pitchBall
	}
	return outcome
}

// validateBatter skips past unavailable batters. The skip does not
// count as a plate appearance.
func (g *GameState) validateBatter() error {
	for i := 0; i < len(g.curBatting.Lineup); i++ {
		if g.curBatting.PlayerAvailable(g.curBatting.CurBatter) {
			return nil
		}
		g.curBatting.NextBatter()
	}
	return simerr.Domain("team %s has no available batter", g.curBatting.TeamIDStr)
}

// resolvePrePitchEvents resolves, in order, the events that may
// short-circuit a pitch. Returns true if one fired.
func (g *GameState) resolvePrePitchEvents() (bool, error) {
	if fired, err := g.resolveFloodingWash(); fired || err != nil {
		return fired, err
	}
	if g.resolveFriendOfCrows() {
		return true, nil
	}
	// Pitcher charm is checked before batter charm.
	if g.teamPitchEventActive(g.curPitching, BuffCharm, g.curPitching.StartingPitcher) &&
		g.isStartOfAtBat() && g.rng.Float64() < charmTriggerPercentage {
		g.logEvent("%s charms %s into striking out",
			g.curPitching.PlayerName(g.curPitching.StartingPitcher),
			g.curBatting.PlayerName(g.curBatting.CurBatter))
		g.resolveStrikeout()
		return true, nil
	}
	if g.teamPitchEventActive(g.curBatting, BuffCharm, g.curBatting.CurBatter) &&
		g.isStartOfAtBat() && g.rng.Float64() < charmTriggerPercentage {
		g.logEvent("%s charms their way to first", g.curBatting.PlayerName(g.curBatting.CurBatter))
		return true, g.resolveWalk(1)
	}
	if g.teamPitchEventActive(g.curBatting, BuffZap, g.curBatting.CurBatter) &&
		g.Strikes > 0 && g.rng.Float64() < zapTriggerPercentage {
		g.Strikes--
		g.logEvent("%s zaps a strike away", g.curBatting.PlayerName(g.curBatting.CurBatter))
		return true, nil
	}
	if g.teamPitchEventActive(g.curBatting, BuffPsychic, g.curBatting.CurBatter) &&
		g.isStartOfAtBat() && g.rng.Float64() < psychicTriggerPercentage {
		// Flips the next pitch between ball and strike; the pitch
		// itself is still drawn.
		g.psychicFlip = true
	}
	return false, nil
}

// resolveFloodingWash sweeps the bases when the Flooding weather
// procs. SWIM_BLADDER runners slip home and score; EGO runners hold
// on for a limited number of washes.
func (g *GameState) resolveFloodingWash() (bool, error) {
	if g.Weather != weather.Flooding || len(g.BaseRunners) == 0 {
		return false, nil
	}
	if g.rng.Float64() >= floodingTriggerPercentage {
		return false, nil
	}
	g.logEvent("the Flooding washes the baserunners away")
	for _, base := range descendingBases(g.BaseRunners) {
		runnerID := g.BaseRunners[base]
		switch {
		case g.curBatting.HasBuff(runnerID, BuffSwimBladder):
			delete(g.BaseRunners, base)
			g.curBatting.UpdateStat(runnerID, StatBatterRunsScored, 1)
			g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherEarnedRuns, 1)
			g.creditRuns(g.runValue(runnerID, false))
		case g.curBatting.HasBuff(runnerID, BuffEgo1) || g.curBatting.HasBuff(runnerID, BuffEgo2):
			g.washCounts[runnerID]++
			allowed := 1
			if g.curBatting.HasBuff(runnerID, BuffEgo2) {
				allowed = 2
			}
			if g.washCounts[runnerID] > allowed {
				delete(g.BaseRunners, base)
			}
		default:
			delete(g.BaseRunners, base)
		}
	}
	g.syncRunnersAboard()
	g.reevalDynamicBuffs()
	return true, nil
}

// resolveFriendOfCrows lets a bird-friendly pitcher send the crows
// after the batter.
func (g *GameState) resolveFriendOfCrows() bool {
	if g.Weather != weather.Birds {
		return false
	}
	if !g.curPitching.HasBuff(g.curPitching.StartingPitcher, BuffFriendOfCrows) {
		return false
	}
	if g.rng.Float64() >= crowsTriggerPercentage {
		return false
	}
	g.logEvent("the crows chase %s back to the dugout", g.curBatting.PlayerName(g.curBatting.CurBatter))
	g.resolveStrikeout()
	return true
}

// teamPitchEventActive checks the (team, season, blood) gate of a
// pitch event for the proccing player.
func (g *GameState) teamPitchEventActive(ts *TeamState, buff PitchEventBuff, playerID string) bool {
	gate, ok := teamPitchEventMap[ts.TeamEnum]
	if !ok || gate.Buff != buff {
		return false
	}
	if g.Season < gate.SeasonStart {
		return false
	}
	if gate.SeasonEnd != 0 && g.Season > gate.SeasonEnd {
		return false
	}
	if gate.Blood != 0 && ts.Blood[playerID] != gate.Blood {
		return false
	}
	return true
}

func (g *GameState) isStartOfAtBat() bool {
	return g.Balls == 0 && g.Strikes == 0
}

func (g *GameState) resolveBall() error {
	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherBallsThrown, 1)
	g.Balls++
	if g.Balls < g.BallsForWalk {
		return nil
	}
	return g.resolveWalk(g.resolveBaseInstincts())
}

// resolveStrike applies a strike, honoring the O No foul conversion
// and the Fiery double strike.
func (g *GameState) resolveStrike(swinging bool) error {
	if g.resolveONo() {
		g.curBatting.UpdateStat(g.curBatting.CurBatter, StatBatterFoulBalls, 1)
		return nil
	}
	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherStrikesThrown, 1)
	g.Strikes++
	if g.Strikes < g.StrikesForOut && g.teamFieryActive() &&
		g.rng.Float64() < fieryTriggerPercentage {
		g.logEvent("the pitch burns for a double strike")
		g.Strikes++
	}
	if g.Strikes >= g.StrikesForOut {
		g.resolveStrikeout()
	}
	return nil
}

func (g *GameState) teamFieryActive() bool {
	gate, ok := teamPitchEventMap[g.curPitching.TeamEnum]
	return ok && gate.Buff == BuffFiery && g.Season >= gate.SeasonStart
}

// resolveONo converts a would-be final strike into a foul when the
// batting team's O No gate holds and no balls have been thrown.
func (g *GameState) resolveONo() bool {
	if g.Strikes != g.StrikesForOut-1 || g.Balls != 0 {
		return false
	}
	return g.teamPitchEventActive(g.curBatting, BuffONo, g.curBatting.CurBatter)
}

// resolveBaseInstincts draws how many bases a walk advances the
// batter. Returns 1 when Base Instincts does not apply or does not
// proc.
func (g *GameState) resolveBaseInstincts() int {
	if !g.teamPitchEventActive(g.curBatting, BuffBaseInstincts, g.curBatting.CurBatter) {
		return 1
	}
	priors, ok := baseInstinctPriors[g.NumBases]
	if !ok {
		return 1
	}
	roll := g.rng.Float64()
	total := 0.0
	for _, base := range []int{4, 3, 2} {
		prior, ok := priors[base]
		if !ok {
			continue
		}
		total += prior
		if roll < total {
			return base
		}
	}
	return 1
}

// resolveWalk puts the batter on targetBase and advances only the
// runners the walk forces. Runs scoring through a forced walk do not
// receive the BLASERUNNING bonus.
func (g *GameState) resolveWalk(targetBase int) error {
	batter := g.curBatting.CurBatter
	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherWalks, 1)
	g.curBatting.UpdateStat(batter, StatBatterWalks, 1)
	g.curBatting.UpdateStat(batter, StatBatterPlateAppearances, 1)

	if targetBase == 1 {
		// Forced advancement: a contiguous run of occupied bases from
		// first is pushed one base, highest first.
		forcedThrough := 0
		for g.baseOccupied(forcedThrough + 1) {
			forcedThrough++
		}
		for base := forcedThrough; base >= 1; base-- {
			if err := g.moveRunner(base, base+1, true); err != nil {
				return err
			}
		}
	} else {
		// Base Instincts: every runner the batter passes is bumped to
		// the next open base beyond the batter, scoring past home.
		for _, base := range descendingBases(g.BaseRunners) {
			if base > targetBase {
				continue
			}
			dest := targetBase + 1
			for dest < g.NumBases && g.baseOccupied(dest) {
				dest++
			}
			if err := g.moveRunner(base, dest, true); err != nil {
				return err
			}
		}
	}

	if err := g.placeRunner(targetBase, batter); err != nil {
		return err
	}
	g.logEvent("%s draws a walk", g.curBatting.PlayerName(batter))
	g.finishPlateAppearance(batter, false)
	return nil
}

// resolveStrikeout retires the batter on strikes, honoring the
// COFFEE_RALLY refill and the Triple Threat unruns.
func (g *GameState) resolveStrikeout() {
	batter := g.curBatting.CurBatter
	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherStrikeouts, 1)
	g.curBatting.UpdateStat(batter, StatBatterStrikeouts, 1)
	g.curBatting.UpdateStat(batter, StatBatterPlateAppearances, 1)
	g.curBatting.UpdateStat(batter, StatBatterAtBats, 1)
	g.recordBatterOut(batter)
	g.resolveTripleThreat()
	g.logEvent("%s strikes out", g.curBatting.PlayerName(batter))
	g.finishPlateAppearance(batter, false)
}

// recordBatterOut increments outs unless the batter spends a
// COFFEE_RALLY refill.
func (g *GameState) recordBatterOut(batter string) {
	if g.Weather.IsCoffee() && g.curBatting.HasBuff(batter, BuffCoffeeRally) {
		g.curBatting.ConsumeBuff(batter, BuffCoffeeRally)
		g.logEvent("%s chugs a free refill and the out is refunded", g.curBatting.PlayerName(batter))
		return
	}
	g.Outs++
}

// resolveTripleThreat subtracts 0.3 runs per held condition when a
// Triple Threat pitcher records a strikeout in late coffee weather.
func (g *GameState) resolveTripleThreat() {
	if g.Weather != weather.Coffee2 && g.Weather != weather.Coffee3 {
		return
	}
	if !g.curPitching.HasBuff(g.curPitching.StartingPitcher, BuffTripleThreat) {
		return
	}
	conditions := 0
	if g.Balls == 3 {
		conditions++
	}
	if g.baseOccupied(3) {
		conditions++
	}
	if g.basesLoaded() {
		conditions++
	}
	if conditions == 0 {
		return
	}
	unruns := decimal.NewFromFloat(0.3).Mul(decimal.NewFromInt(int64(conditions)))
	g.setBattingScore(g.battingScore().Sub(unruns))
	g.reevalDynamicBuffs()
}

// resolveInPlay dispatches a ball in play. Both branches count as a
// plate appearance and an at-bat.
func (g *GameState) resolveInPlay(fv []float64, hit bool) error {
	batter := g.curBatting.CurBatter
	g.curBatting.UpdateStat(batter, StatBatterPlateAppearances, 1)
	g.curBatting.UpdateStat(batter, StatBatterAtBats, 1)
	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherBattersFaced, 1)

	var err error
	if hit {
		err = g.hitSim(fv)
	} else {
		err = g.outSim(fv)
	}
	if err != nil {
		return err
	}
	g.finishPlateAppearance(batter, hit)
	return nil
}

// finishPlateAppearance resets the count, advances the order, and
// re-evaluates dynamic buffs at the at-bat boundary.
func (g *GameState) finishPlateAppearance(batter string, wasHit bool) {
	if wasHit {
		g.curBatting.OnHit(batter)
	} else {
		g.curBatting.OnNonHit(batter)
	}
	g.Balls = 0
	g.Strikes = 0
	g.curBatting.NextBatter()
	g.syncRunnersAboard()
	g.reevalDynamicBuffs()
}

// hitSim resolves a ball hit into play: every runner advances the
// bases of the hit, surviving runners may stretch an extra base, and
// the batter takes their base.
func (g *GameState) hitSim(fv []float64) error {
	batter := g.curBatting.CurBatter
	g.curBatting.UpdateStat(batter, StatBatterHits, 1)
	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherHitsAllowed, 1)

	hitType, err := g.clf.Sample(classifier.HitType, fv, g.rng)
	if err != nil {
		return err
	}

	basesOfHit := hitType + 1
	if hitType == hitHomeRun {
		basesOfHit = g.NumBases
	}
	if err := g.advanceAllRunners(basesOfHit); err != nil {
		return err
	}

	switch hitType {
	case hitSingle:
		g.curBatting.UpdateStat(batter, StatBatterSingles, 1)
	case hitDouble:
		g.curBatting.UpdateStat(batter, StatBatterDoubles, 1)
		g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherXBHAllowed, 1)
	case hitTriple:
		g.curBatting.UpdateStat(batter, StatBatterTriples, 1)
		g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherXBHAllowed, 1)
	case hitHomeRun:
		g.curBatting.UpdateStat(batter, StatBatterHRs, 1)
		g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherHRsAllowed, 1)
		g.curBatting.UpdateStat(batter, StatBatterRBIs, 1)
		g.curBatting.UpdateStat(batter, StatBatterRunsScored, 1)
		g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherEarnedRuns, 1)
		v := g.runValue(batter, false)
		if g.Stadium.HasBigBuckets() && g.rng.Float64() < bigBucketPercentage {
			g.logEvent("the ball lands in a Big Bucket")
			v = v.Add(decimal.NewFromInt(2))
		}
		g.creditRuns(v)
		g.logEvent("%s hits a home run", g.curBatting.PlayerName(batter))
		return nil
	}

	if err := g.attemptExtraBases(); err != nil {
		return err
	}
	if err := g.placeRunner(basesOfHit, batter); err != nil {
		return err
	}
	g.logEvent("%s hits a %d-base hit", g.curBatting.PlayerName(batter), basesOfHit)
	return nil
}

// attemptExtraBases gives each surviving runner, in descending base
// order, a shot at one extra base on the hit.
func (g *GameState) attemptExtraBases() error {
	for _, base := range descendingBases(g.BaseRunners) {
		next := base + 1
		if next < g.NumBases && g.baseOccupied(next) {
			continue
		}
		runnerID := g.BaseRunners[base]
		fv := g.runnerFeatureVector(runnerID)
		adv, err := g.clf.Sample(classifier.RunnerAdvHit, fv, g.rng)
		if err != nil {
			return err
		}
		if adv == 1 {
			if err := g.moveRunner(base, next, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// outSim resolves a ball in play that is caught or fielded for an
// out.
func (g *GameState) outSim(fv []float64) error {
	batter := g.curBatting.CurBatter
	outType, err := g.clf.Sample(classifier.OutType, fv, g.rng)
	if err != nil {
		return err
	}
	g.recordBatterOut(batter)
	switch outType {
	case outFlyout:
		g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherFlyouts, 1)
		g.curBatting.UpdateStat(batter, StatBatterFlyouts, 1)
		if g.Outs < g.OutsForInning {
			if err := g.attemptTagUps(); err != nil {
				return err
			}
		}
	case outGroundout:
		g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherGroundouts, 1)
		g.curBatting.UpdateStat(batter, StatBatterGroundouts, 1)
		if g.Outs < g.OutsForInning {
			// Fielder takes the out at first; everyone else moves up.
			if err := g.advanceAllRunners(1); err != nil {
				return err
			}
		}
	}
	g.logEvent("%s is out on a ball in play", g.curBatting.PlayerName(batter))
	return nil
}

// attemptTagUps gives each runner with an open base ahead, in
// descending base order, a shot at tagging up on a flyout.
func (g *GameState) attemptTagUps() error {
	for _, base := range descendingBases(g.BaseRunners) {
		next := base + 1
		if next < g.NumBases && g.baseOccupied(next) {
			continue
		}
		runnerID := g.BaseRunners[base]
		fv := g.runnerFeatureVector(runnerID)
		adv, err := g.clf.Sample(classifier.RunnerAdvOut, fv, g.rng)
		if err != nil {
			return err
		}
		if adv == 1 {
			if err := g.moveRunner(base, next, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// stolenBaseSim gives at most one runner a stolen-base attempt before
// a pitch. Returns true if an attempt was made.
func (g *GameState) stolenBaseSim() (bool, error) {
	if g.IsGameOver {
		return false, nil
	}
	for _, base := range descendingBases(g.BaseRunners) {
		next := base + 1
		if next < g.NumBases && g.baseOccupied(next) {
			continue
		}
		runnerID := g.BaseRunners[base]
		fv := g.runnerFeatureVector(runnerID)
		attempt, err := g.clf.Sample(classifier.SBAttempt, fv, g.rng)
		if err != nil {
			return false, err
		}
		if attempt != 1 {
			continue
		}
		g.curBatting.UpdateStat(runnerID, StatStolenBaseAttempts, 1)
		g.curPitching.UpdateStat(DefenseID, StatDefenseStolenBaseAttempts, 1)
		success, err := g.clf.Sample(classifier.SBSuccess, fv, g.rng)
		if err != nil {
			return false, err
		}
		if success == 1 {
			g.curBatting.UpdateStat(runnerID, StatStolenBases, 1)
			g.curPitching.UpdateStat(DefenseID, StatDefenseStolenBases, 1)
			g.logEvent("%s steals base %d", g.curBatting.PlayerName(runnerID), next)
			if err := g.moveRunner(base, next, false); err != nil {
				return false, err
			}
			g.syncRunnersAboard()
			g.reevalDynamicBuffs()
		} else {
			g.curBatting.UpdateStat(runnerID, StatCaughtStealings, 1)
			g.curPitching.UpdateStat(DefenseID, StatDefenseCaughtStealings, 1)
			g.logEvent("%s is caught stealing", g.curBatting.PlayerName(runnerID))
			delete(g.BaseRunners, base)
			g.Outs++
			g.syncRunnersAboard()
		}
		return true, nil
	}
	return false, nil
}

// advanceAllRunners moves every runner n bases, in descending base
// order; runners reaching home score.
func (g *GameState) advanceAllRunners(n int) error {
	for _, base := range descendingBases(g.BaseRunners) {
		if err := g.moveRunner(base, base+n, false); err != nil {
			return err
		}
	}
	return nil
}

// moveRunner relocates one runner, scoring them if the destination is
// home or beyond. forcedWalk marks runs driven in by a walk, which
// never receive the BLASERUNNING bonus.
func (g *GameState) moveRunner(base, dest int, forcedWalk bool) error {
	runnerID, ok := g.BaseRunners[base]
	if !ok {
		return simerr.Domain("no runner on base %d", base)
	}
	delete(g.BaseRunners, base)
	if dest >= g.NumBases {
		g.curBatting.UpdateStat(g.curBatting.CurBatter, StatBatterRBIs, 1)
		g.curBatting.UpdateStat(runnerID, StatBatterRunsScored, 1)
		g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherEarnedRuns, 1)
		g.creditRuns(g.runValue(runnerID, forcedWalk))
		return nil
	}
	return g.placeRunner(dest, runnerID)
}

// placeRunner puts a runner on an open base.
func (g *GameState) placeRunner(base int, runnerID string) error {
	if base >= g.NumBases {
		return simerr.Domain("base %d out of range for %d-base game", base, g.NumBases)
	}
	if occupant, ok := g.BaseRunners[base]; ok {
		return simerr.Domain("base %d collision: %s blocked by %s", base, runnerID, occupant)
	}
	g.BaseRunners[base] = runnerID
	g.syncRunnersAboard()
	return nil
}

func (g *GameState) baseOccupied(base int) bool {
	_, ok := g.BaseRunners[base]
	return ok
}

func (g *GameState) basesLoaded() bool {
	return len(g.BaseRunners) >= g.NumBases-1
}

func (g *GameState) syncRunnersAboard() {
	aboard := len(g.BaseRunners) > 0
	g.curBatting.RunnersAboard = aboard
	g.curPitching.RunnersAboard = aboard
}

// runValue computes a run's score contribution at the moment it
// scores.
func (g *GameState) runValue(runnerID string, forcedWalk bool) decimal.Decimal {
	v := decimal.NewFromInt(1)
	if g.Weather.IsCoffee() {
		if g.curBatting.HasBuff(runnerID, BuffWired) {
			v = v.Mul(decimal.NewFromFloat(1.5))
		} else if g.curBatting.HasBuff(runnerID, BuffTired) {
			v = v.Mul(decimal.NewFromFloat(0.5))
		}
	}
	if g.curPitching.Blood[g.curPitching.StartingPitcher] == BloodAcid {
		v = v.Mul(decimal.NewFromFloat(0.9))
	}
	if !forcedWalk && g.curBatting.HasBuff(runnerID, BuffBlaserunning) {
		v = v.Add(decimal.NewFromFloat(0.2))
	}
	return v.Round(1)
}

// creditRuns adds runs to the batting side and applies the Sun 2 and
// Black Hole ten-run rollovers.
func (g *GameState) creditRuns(v decimal.Decimal) {
	score := g.battingScore().Add(v)
	ten := decimal.NewFromInt(10)
	for score.GreaterThanOrEqual(ten) {
		if g.Weather == weather.Sun2 {
			score = score.Sub(ten)
			g.curBatting.UpdateStat(TeamID, StatTeamSun2Wins, 1)
			g.logEvent("the Sun 2 sets a Win upon %s", g.curBatting.TeamIDStr)
		} else if g.Weather == weather.BlackHole {
			score = score.Sub(ten)
			g.curPitching.UpdateStat(TeamID, StatTeamBlackHoleConsumption, 1)
			g.logEvent("the Black Hole swallows the runs")
		} else {
			break
		}
	}
	g.setBattingScore(score)
	g.reevalDynamicBuffs()
}

func (g *GameState) battingScore() decimal.Decimal {
	if g.Half == TopHalf {
		return g.AwayScore
	}
	return g.HomeScore
}

func (g *GameState) setBattingScore(v decimal.Decimal) {
	if g.Half == TopHalf {
		g.AwayScore = v
	} else {
		g.HomeScore = v
	}
}

// reevalDynamicBuffs refreshes both sides' dynamic buffs against
// their own score.
func (g *GameState) reevalDynamicBuffs() {
	g.HomeTeam.ReevalBuffs(g.HomeScore.InexactFloat64())
	g.AwayTeam.ReevalBuffs(g.AwayScore.InexactFloat64())
}

// attemptToAdvanceInning flips the half or ends the game when the
// batting side has used its outs. A home team leading after the top
// of the ninth or later wins without batting.
func (g *GameState) attemptToAdvanceInning() {
	if g.Outs < g.OutsForInning {
		return
	}
	g.curPitching.UpdateStat(g.curPitching.StartingPitcher, StatPitcherInningsPitched, 1)
	if g.Inning < 9 {
		g.flipHalf()
		return
	}
	if g.Half == TopHalf {
		if g.HomeScore.GreaterThan(g.AwayScore) {
			g.endGame()
			return
		}
		g.flipHalf()
		return
	}
	if !g.HomeScore.Equal(g.AwayScore) {
		g.endGame()
		return
	}
	g.flipHalf()
}

func (g *GameState) flipHalf() {
	g.BaseRunners = make(map[int]string)
	if g.Half == TopHalf {
		g.Half = BottomHalf
	} else {
		g.Half = TopHalf
		g.Inning++
	}
	g.Outs = 0
	g.Balls = 0
	g.Strikes = 0
	g.refreshGameStatus()
	g.syncRunnersAboard()
}

// endGame credits wins, losses and shutouts.
func (g *GameState) endGame() {
	g.IsGameOver = true
	winner, loser := g.HomeTeam, g.AwayTeam
	if g.AwayScore.GreaterThan(g.HomeScore) {
		winner, loser = g.AwayTeam, g.HomeTeam
	}
	winner.UpdateStat(TeamID, StatTeamWins, 1)
	loser.UpdateStat(TeamID, StatTeamLosses, 1)
	winner.UpdateStat(winner.StartingPitcher, StatPitcherWins, 1)
	loser.UpdateStat(loser.StartingPitcher, StatPitcherLosses, 1)
	if g.AwayScore.IsZero() {
		g.HomeTeam.UpdateStat(g.HomeTeam.StartingPitcher, StatPitcherShutouts, 1)
	}
	if g.HomeScore.IsZero() {
		g.AwayTeam.UpdateStat(g.AwayTeam.StartingPitcher, StatPitcherShutouts, 1)
	}
	g.logEvent("game over: %s %s, %s %s",
		g.HomeTeam.TeamIDStr, g.HomeScore.String(),
		g.AwayTeam.TeamIDStr, g.AwayScore.String())
}

// pitchFeatureVector concatenates the batter, pitcher, defense and
// stadium projections.
func (g *GameState) pitchFeatureVector() []float64 {
	fv := g.curBatting.CurBatterVector(g.rng)
	fv = append(fv, g.curPitching.PitcherVector()...)
	fv = append(fv, g.curPitching.DefenseVector()...)
	fv = append(fv, g.Stadium.TraitVector()...)
	return fv
}

// runnerFeatureVector concatenates the runner, defense and pitcher
// projections.
func (g *GameState) runnerFeatureVector(runnerID string) []float64 {
	fv := g.curBatting.RunnerVector(runnerID)
	fv = append(fv, g.curPitching.DefenseVector()...)
	fv = append(fv, g.curPitching.PitcherVector()...)
	return fv
}

// descendingBases returns the occupied bases highest first. Runner
// advancement always processes in this order to avoid collisions.
func descendingBases(runners map[int]string) []int {
	bases := make([]int, 0, len(runners))
	for base := range runners {
		bases = append(bases, base)
	}
	for i := 0; i < len(bases); i++ {
		for j := i + 1; j < len(bases); j++ {
			if bases[j] > bases[i] {
				bases[i], bases[j] = bases[j], bases[i]
			}
		}
	}
	return bases
}

// CloneForWorker deep-copies the game so a worker can run iterations
// independently. The classifier registry is shared; each worker
// brings its own random source.
func (g *GameState) CloneForWorker(rng *rand.Rand) *GameState {
	out := *g
	out.HomeTeam = g.HomeTeam.Clone()
	out.AwayTeam = g.AwayTeam.Clone()
	out.BaseRunners = make(map[int]string, len(g.BaseRunners))
	for k, v := range g.BaseRunners {
		out.BaseRunners[k] = v
	}
	out.GameLog = append([]string(nil), g.GameLog...)
	out.washCounts = make(map[string]int, len(g.washCounts))
	for k, v := range g.washCounts {
		out.washCounts[k] = v
	}
	out.rng = rng
	out.refreshGameStatus()
	return &out
}

func (g *GameState) logEvent(format string, args ...interface{}) {
	g.GameLog = append(g.GameLog, fmt.Sprintf(format, args...))
}
