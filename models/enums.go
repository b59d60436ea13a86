package models

import (
	"blasesim/simerr"
	"blasesim/weather"
)

// BloodType is the categorical blood tag on a player. Several team
// buffs only proc for players carrying a specific blood.
type BloodType int

const (
	BloodA BloodType = iota + 1
	BloodAA
	BloodAAA
	BloodAcid
	BloodBase
	BloodElectric
	BloodWater
	BloodFire
	BloodGrass
	BloodH2O
	BloodLove
	BloodO
	BloodONo
	BloodPsychic
)

// bloodIDMap translates the integer blood ids carried on stlat
// snapshots.
var bloodIDMap = map[int]BloodType{
	0:  BloodA,
	1:  BloodAAA,
	2:  BloodAA,
	3:  BloodAcid,
	4:  BloodBase,
	5:  BloodO,
	6:  BloodONo,
	7:  BloodWater,
	8:  BloodElectric,
	9:  BloodLove,
	10: BloodFire,
	11: BloodPsychic,
	12: BloodGrass,
}

var bloodNameMap = map[string]BloodType{
	"A":        BloodA,
	"AA":       BloodAA,
	"AAA":      BloodAAA,
	"Acidic":   BloodAcid,
	"Basic":    BloodBase,
	"Electric": BloodElectric,
	"Water":    BloodWater,
	"Fire":     BloodFire,
	"Grass":    BloodGrass,
	"H2O":      BloodH2O,
	"Love":     BloodLove,
	"O":        BloodO,
	"O No":     BloodONo,
	"Psychic":  BloodPsychic,
}

// BloodFromID validates a snapshot blood id.
func BloodFromID(id int) (BloodType, error) {
	if b, ok := bloodIDMap[id]; ok {
		return b, nil
	}
	return 0, simerr.Config("unrecognized blood id %d", id)
}

// BloodFromName validates a snapshot blood name.
func BloodFromName(name string) (BloodType, error) {
	if b, ok := bloodNameMap[name]; ok {
		return b, nil
	}
	return 0, simerr.Config("unrecognized blood type %q", name)
}

// Team is the closed set of league teams.
type Team int

const (
	Lovers Team = iota + 1
	Tacos
	Steaks
	BreathMints
	Firefighters
	ShoeThieves
	Flowers
	Fridays
	Magic
	Millennials
	Crabs
	Spies
	Pies
	Sunbeams
	WildWings
	Tigers
	MoistTalkers
	Dale
	Garages
	JazzHands
	Lift
)

// teamIDMap maps the stable opaque team ids used by schedules and
// stlat snapshots onto the enum.
var teamIDMap = map[string]Team{
	"b72f3061-f573-40d7-832a-5ad475bd7909": Lovers,
	"878c1bf6-0d21-4659-bfee-916c8314d69c": Tacos,
	"b024e975-1c4a-4575-8936-a3754a08806a": Steaks,
	"adc5b394-8f76-416d-9ce9-813706877b84": BreathMints,
	"ca3f1c8c-c025-4d8e-8eef-5be6accbeb16": Firefighters,
	"bfd38797-8404-4b38-8b82-341da28b1f83": ShoeThieves,
	"3f8bbb15-61c0-4e3f-8e4a-907a5fb1565e": Flowers,
	"979aee4a-6d80-4863-bf1c-ee1a78e06024": Fridays,
	"7966eb04-efcc-499b-8f03-d13916330531": Magic,
	"36569151-a2fb-43c1-9df7-2df512424c82": Millennials,
	"8d87c468-699a-47a8-b40d-cfb73a5660ad": Crabs,
	"9debc64f-74b7-4ae1-a4d6-fce0144b6ea5": Spies,
	"23e4cbc1-e9cd-47fa-a35b-bfa06f726cb7": Pies,
	"f02aeae2-5e6a-4098-9842-02d2273f25c7": Sunbeams,
	"57ec08cc-0411-4643-b304-0e80dbc15ac7": WildWings,
	"747b8e4a-7e50-4638-a973-ea7950a3e739": Tigers,
	"eb67ae5e-c4bf-46ca-bbbc-425cd34182ff": MoistTalkers,
	"b63be8c2-576a-4d6e-8daf-814f8bcea96f": Dale,
	"105bc3ff-1320-4e37-8ef0-8d595cb95dd0": Garages,
	"a37f9158-7f82-46bc-908c-c9e2dda7c33b": JazzHands,
	"c73b705c-40ad-4633-a6ed-d357ee2e2bcf": Lift,
}

// TeamFromID validates an opaque team id.
func TeamFromID(id string) (Team, error) {
	if t, ok := teamIDMap[id]; ok {
		return t, nil
	}
	return 0, simerr.Config("unrecognized team id %q", id)
}

// PitchEventBuff is a team buff that can fire during pitch resolution.
type PitchEventBuff int

const (
	BuffBaseInstincts PitchEventBuff = iota + 1
	BuffCharm
	BuffZap
	BuffONo
	BuffPsychic
	BuffFiery
)

// pitchEventGate gates a team pitch event on a season window and,
// when set, a required blood on the proccing player.
type pitchEventGate struct {
	Buff        PitchEventBuff
	SeasonStart int
	SeasonEnd   int // 0 means open-ended
	Blood       BloodType
}

var teamPitchEventMap = map[Team]pitchEventGate{
	Flowers:  {Buff: BuffONo, SeasonStart: 11, Blood: BloodONo},
	Lovers:   {Buff: BuffCharm, SeasonStart: 10, Blood: BloodLove},
	Dale:     {Buff: BuffZap, SeasonStart: 8, Blood: BloodElectric},
	Sunbeams: {Buff: BuffBaseInstincts, SeasonStart: 9, Blood: BloodBase},
	Magic:    {Buff: BuffPsychic, SeasonStart: 11, Blood: BloodPsychic},
	Pies:     {Buff: BuffFiery, SeasonStart: 11},
}

// TeamGameBuff is a team buff applied across a whole game as a
// team-wide ability multiplier.
type TeamGameBuff int

const (
	TeamBuffCrows TeamGameBuff = iota + 1
	TeamBuffPressure
	TeamBuffTravelling
	TeamBuffGrowth
	TeamBuffSinkingShip
)

type teamGameGate struct {
	Buff        TeamGameBuff
	SeasonStart int
	Weather     weather.Weather // 0 means any weather
}

var teamGameBuffMap = map[Team]teamGameGate{
	JazzHands:    {Buff: TeamBuffCrows, SeasonStart: 12, Weather: weather.Birds},
	MoistTalkers: {Buff: TeamBuffPressure, SeasonStart: 12, Weather: weather.Flooding},
	ShoeThieves:  {Buff: TeamBuffTravelling, SeasonStart: 12},
	Flowers:      {Buff: TeamBuffGrowth, SeasonStart: 12},
	Fridays:      {Buff: TeamBuffSinkingShip, SeasonStart: 12},
}

// SeasonRule is a seasonal rule change mutating the pitch count
// thresholds for one team.
type SeasonRule int

const (
	RuleFourthStrike SeasonRule = iota + 1
	RuleWalkInThePark
)

type seasonRuleGate struct {
	Rule        SeasonRule
	SeasonStart int
}

var teamSeasonRuleMap = map[Team]seasonRuleGate{
	Tacos:    {Rule: RuleFourthStrike, SeasonStart: 12},
	Sunbeams: {Rule: RuleWalkInThePark, SeasonStart: 12},
}

// PlayerBuff is a per-player modifier. Stateful buffs carry an
// activation level: 1 present but inactive, 2 currently applying its
// effect. SPICY uses higher levels as its hit streak.
type PlayerBuff int

const (
	BuffShelled PlayerBuff = iota + 1
	BuffElsewhere
	BuffSpicy
	BuffUnderOver
	BuffOverUnder
	BuffHomebody
	BuffPerk
	BuffChunky
	BuffSmooth
	BuffSuperYummy
	BuffPressurePlayer
	BuffBlaserunning
	BuffFlinch
	BuffSwimBladder
	BuffEgo1
	BuffEgo2
	BuffWired
	BuffTired
	BuffCoffeeRally
	BuffTripleThreat
	BuffFriendOfCrows
	BuffHaunted
	BuffUnderPerforming
	BuffOverPerforming
)

// playerBuffNames maps the permAttr / modifications strings on stlat
// snapshots to buffs. Unlisted attributes are ignored.
var playerBuffNames = map[string]PlayerBuff{
	"SHELLED":         BuffShelled,
	"ELSEWHERE":       BuffElsewhere,
	"SPICY":           BuffSpicy,
	"UNDER_OVER":      BuffUnderOver,
	"OVER_UNDER":      BuffOverUnder,
	"HOMEBODY":        BuffHomebody,
	"PERK":            BuffPerk,
	"CHUNKY":          BuffChunky,
	"SMOOTH":          BuffSmooth,
	"SUPERYUMMY":      BuffSuperYummy,
	"PRESSURE":        BuffPressurePlayer,
	"BLASERUNNING":    BuffBlaserunning,
	"FLINCH":          BuffFlinch,
	"SWIM_BLADDER":    BuffSwimBladder,
	"EGO1":            BuffEgo1,
	"EGO2":            BuffEgo2,
	"WIRED":           BuffWired,
	"TIRED":           BuffTired,
	"COFFEE_RALLY":    BuffCoffeeRally,
	"TRIPLE_THREAT":   BuffTripleThreat,
	"FRIEND_OF_CROWS": BuffFriendOfCrows,
	"HAUNTED":         BuffHaunted,
	"UNDERPERFORMING": BuffUnderPerforming,
	"OVERPERFORMING":  BuffOverPerforming,
}

// PlayerBuffFromName looks up a snapshot modification string. The
// second return reports whether the attribute is one the sim models.
func PlayerBuffFromName(name string) (PlayerBuff, bool) {
	b, ok := playerBuffNames[name]
	return b, ok
}
