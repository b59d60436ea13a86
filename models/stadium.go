package models

// Stadium represents a ballpark: seven continuous traits in [0,1]
// plus the boolean renovations that gate scoring and buff effects.
type Stadium struct {
	TeamID      string   `json:"team_id"`
	StadiumID   string   `json:"stadium_id"`
	Name        string   `json:"name"`
	Mysticism   float64  `json:"mysticism"`
	Viscosity   float64  `json:"viscosity"`
	Elongation  float64  `json:"elongation"`
	Obtuseness  float64  `json:"obtuseness"`
	Forwardness float64  `json:"forwardness"`
	Grandiosity float64  `json:"grandiosity"`
	Ominousness float64  `json:"ominousness"`
	Mods        []string `json:"mods"`
}

// Recognized stadium mods.
const (
	ModBigBuckets    = "BIG_BUCKETS"
	ModPeanutMister  = "PEANUT_MISTER"
	ModSalmonCannons = "SALMON_CANNONS"
)

// HasMod reports whether the stadium carries the named renovation.
func (s *Stadium) HasMod(mod string) bool {
	for _, m := range s.Mods {
		if m == mod {
			return true
		}
	}
	return false
}

// HasBigBuckets gates the bonus-run home run proc.
func (s *Stadium) HasBigBuckets() bool {
	return s.HasMod(ModBigBuckets)
}

// HasPeanutMister gates SUPER_YUMMY regardless of weather.
func (s *Stadium) HasPeanutMister() bool {
	return s.HasMod(ModPeanutMister)
}

// TraitVector returns the seven traits in a stable order for feature
// vector concatenation.
func (s *Stadium) TraitVector() []float64 {
	return []float64{
		s.Mysticism,
		s.Viscosity,
		s.Elongation,
		s.Obtuseness,
		s.Forwardness,
		s.Grandiosity,
		s.Ominousness,
	}
}

// DefaultStadium returns a neutral park with every trait at 0.5 and
// no renovations, used when a team has no ballpark on file.
func DefaultStadium(teamID string) *Stadium {
	return &Stadium{
		TeamID:      teamID,
		StadiumID:   "default",
		Name:        "Neutral Park",
		Mysticism:   0.5,
		Viscosity:   0.5,
		Elongation:  0.5,
		Obtuseness:  0.5,
		Forwardness: 0.5,
		Grandiosity: 0.5,
		Ominousness: 0.5,
	}
}
