package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"blasesim/models"
	"blasesim/simerr"
)

// Roster is one team's parsed slice of a stlat snapshot: an ordered
// lineup and rotation plus the per-player attribute maps TeamState
// consumes directly.
type Roster struct {
	TeamID      string
	Lineup      map[int]string
	Rotation    map[int]string
	Stlats      map[string]models.Stlats
	Buffs       map[string]map[models.PlayerBuff]int
	Blood       map[string]models.BloodType
	PlayerNames map[string]string
}

func newRoster(teamID string) *Roster {
	return &Roster{
		TeamID:      teamID,
		Lineup:      make(map[int]string),
		Rotation:    make(map[int]string),
		Stlats:      make(map[string]models.Stlats),
		Buffs:       make(map[string]map[models.PlayerBuff]int),
		Blood:       make(map[string]models.BloodType),
		PlayerNames: make(map[string]string),
	}
}

// Snapshot maps team id to parsed roster.
type Snapshot map[string]*Roster

// LoadSnapshot reads and parses the stlat snapshot for one day from
// <dir>/season<N>/stlats_day<D>.json.
func LoadSnapshot(dir string, season, day int) (Snapshot, error) {
	path := filepath.Join(dir, fmt.Sprintf("season%d", season),
		fmt.Sprintf("stlats_day%d.json", day))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.Config("reading stlats %s: %v", path, err)
	}
	return ParseSnapshot(raw)
}

// ParseSnapshot parses a raw snapshot. Snapshots from different eras
// disagree on field names, so parsing is tolerant: each field is
// looked up under every name it has carried, with era-appropriate
// defaults when absent.
func ParseSnapshot(raw []byte) (Snapshot, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, simerr.Config("parsing stlat snapshot: %v", err)
	}
	snap := make(Snapshot)
	for _, rec := range records {
		if err := parseRecord(snap, rec); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func parseRecord(snap Snapshot, rec map[string]interface{}) error {
	playerID := getString(rec, "", "player_id", "playerId", "id")
	if playerID == "" {
		return simerr.Config("stlat record missing a player id")
	}
	teamID := getString(rec, "", "leagueTeamId", "team_id")
	if teamID == "" {
		return simerr.Config("stlat record for %s missing a team id", playerID)
	}

	roster, ok := snap[teamID]
	if !ok {
		roster = newRoster(teamID)
		snap[teamID] = roster
	}

	// position_id is zero-based in snapshots; the sim's order maps are
	// one-based.
	pos := getInt(rec, -1, "position_id", "positionId") + 1
	if pos < 1 {
		return simerr.Config("player %s has no lineup position", playerID)
	}
	switch positionType(rec) {
	case "BATTER":
		roster.Lineup[pos] = playerID
	case "PITCHER":
		roster.Rotation[pos] = playerID
	default:
		return simerr.Config("player %s has an unrecognized position type", playerID)
	}

	roster.PlayerNames[playerID] = getString(rec, playerID, "name", "player_name")
	roster.Stlats[playerID] = parseStlats(rec)

	blood, err := parseBlood(rec)
	if err != nil {
		return simerr.Config("player %s: %v", playerID, err)
	}
	roster.Blood[playerID] = blood
	roster.Buffs[playerID] = parseBuffs(rec)
	return nil
}

// positionType normalizes the two encodings of batter vs pitcher.
func positionType(rec map[string]interface{}) string {
	if s := getString(rec, "", "position_type"); s != "" {
		return s
	}
	switch getString(rec, "", "position_type_id") {
	case "0":
		return "BATTER"
	case "1":
		return "PITCHER"
	}
	return ""
}

// parseBlood accepts both the integer blood id and the display name.
// Players with no blood on record default to type A.
func parseBlood(rec map[string]interface{}) (models.BloodType, error) {
	v, ok := rec["blood"]
	if !ok || v == nil {
		return models.BloodA, nil
	}
	switch b := v.(type) {
	case float64:
		return models.BloodFromID(int(b))
	case string:
		if n, err := strconv.Atoi(b); err == nil {
			return models.BloodFromID(n)
		}
		return models.BloodFromName(b)
	}
	return models.BloodA, nil
}

// parseBuffs collects the modeled modifications from whichever list
// field the snapshot era carries. Unmodeled attributes are dropped.
func parseBuffs(rec map[string]interface{}) map[models.PlayerBuff]int {
	buffs := make(map[models.PlayerBuff]int)
	for _, key := range []string{"permAttr", "seasAttr", "itemAttr", "modifications"} {
		list, ok := rec[key].([]interface{})
		if !ok {
			continue
		}
		for _, item := range list {
			name, ok := item.(string)
			if !ok {
				continue
			}
			if buff, known := models.PlayerBuffFromName(name); known {
				buffs[buff] = 1
			}
		}
	}
	return buffs
}

func parseStlats(rec map[string]interface{}) models.Stlats {
	return models.Stlats{
		Buoyancy:         getFloat(rec, 0.5, "buoyancy"),
		Divinity:         getFloat(rec, 0.5, "divinity"),
		Martyrdom:        getFloat(rec, 0.5, "martyrdom"),
		Moxie:            getFloat(rec, 0.5, "moxie"),
		Musclitude:       getFloat(rec, 0.5, "musclitude"),
		Patheticism:      getFloat(rec, 0.5, "patheticism"),
		Thwackability:    getFloat(rec, 0.5, "thwackability"),
		Tragicness:       getFloat(rec, 0.1, "tragicness"),
		BaseThirst:       getFloat(rec, 0.5, "baseThirst", "base_thirst"),
		Continuation:     getFloat(rec, 0.5, "continuation"),
		GroundFriction:   getFloat(rec, 0.5, "groundFriction", "ground_friction"),
		Indulgence:       getFloat(rec, 0.5, "indulgence"),
		Laserlikeness:    getFloat(rec, 0.5, "laserlikeness"),
		Anticapitalism:   getFloat(rec, 0.5, "anticapitalism"),
		Chasiness:        getFloat(rec, 0.5, "chasiness"),
		Omniscience:      getFloat(rec, 0.5, "omniscience"),
		Tenaciousness:    getFloat(rec, 0.5, "tenaciousness"),
		Watchfulness:     getFloat(rec, 0.5, "watchfulness"),
		Coldness:         getFloat(rec, 0.5, "coldness"),
		Overpowerment:    getFloat(rec, 0.5, "overpowerment"),
		Ruthlessness:     getFloat(rec, 0.5, "ruthlessness"),
		Shakespearianism: getFloat(rec, 0.5, "shakespearianism"),
		Suppression:      getFloat(rec, 0.5, "suppression"),
		Unthwackability:  getFloat(rec, 0.5, "unthwackability"),
		Pressurization:   getFloat(rec, 0.5, "pressurization"),
		Cinnamon:         getFloat(rec, 0.5, "cinnamon"),
	}
}

// getFloat returns the first present key coerced to float64.
func getFloat(rec map[string]interface{}, def float64, keys ...string) float64 {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		switch f := v.(type) {
		case float64:
			return f
		case string:
			if parsed, err := strconv.ParseFloat(f, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getInt returns the first present key coerced to int.
func getInt(rec map[string]interface{}, def int, keys ...string) int {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(n); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getString returns the first present non-empty key as a string.
// Numeric values are formatted, since some eras stringify ids.
func getString(rec map[string]interface{}, def string, keys ...string) string {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return def
}

// TeamConfig assembles the TeamStateConfig for one side of a game.
func (s Snapshot) TeamConfig(teamID, pitcherID string) (models.TeamStateConfig, error) {
	roster, ok := s[teamID]
	if !ok {
		return models.TeamStateConfig{}, simerr.Config("no stlats on file for team %s", teamID)
	}
	pitcherPos := 0
	for pos, id := range roster.Rotation {
		if id == pitcherID {
			pitcherPos = pos
			break
		}
	}
	if pitcherPos == 0 {
		return models.TeamStateConfig{}, simerr.Config(
			"pitcher %s is not in team %s rotation", pitcherID, teamID)
	}
	return models.TeamStateConfig{
		TeamID:          teamID,
		Lineup:          roster.Lineup,
		Rotation:        roster.Rotation,
		StartingPitcher: pitcherID,
		CurPitcherPos:   pitcherPos,
		Stlats:          roster.Stlats,
		Buffs:           roster.Buffs,
		Blood:           roster.Blood,
		PlayerNames:     roster.PlayerNames,
	}, nil
}

// LoadBallparks reads the ballpark file mapping team id to stadium.
// Missing file or missing team fall back to the neutral park at sim
// setup.
func LoadBallparks(path string) (map[string]*models.Stadium, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.Stadium{}, nil
		}
		return nil, simerr.Config("reading ballparks %s: %v", path, err)
	}
	var parks []models.Stadium
	if err := json.Unmarshal(raw, &parks); err != nil {
		return nil, simerr.Config("parsing ballparks %s: %v", path, err)
	}
	out := make(map[string]*models.Stadium, len(parks))
	for i := range parks {
		out[parks[i].TeamID] = &parks[i]
	}
	return out, nil
}
