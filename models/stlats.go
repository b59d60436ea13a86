package models

import "math"

// Stlats is the fixed set of 26 continuous player attributes. A flat
// struct keeps the hot pitch loop free of map lookups; JSON tags match
// the attribute names used by stlat snapshots.
type Stlats struct {
	// batting
	Buoyancy      float64 `json:"buoyancy"`
	Divinity      float64 `json:"divinity"`
	Martyrdom     float64 `json:"martyrdom"`
	Moxie         float64 `json:"moxie"`
	Musclitude    float64 `json:"musclitude"`
	Patheticism   float64 `json:"patheticism"`
	Thwackability float64 `json:"thwackability"`
	Tragicness    float64 `json:"tragicness"`

	// base running
	BaseThirst     float64 `json:"baseThirst"`
	Continuation   float64 `json:"continuation"`
	GroundFriction float64 `json:"groundFriction"`
	Indulgence     float64 `json:"indulgence"`
	Laserlikeness  float64 `json:"laserlikeness"`

	// defense
	Anticapitalism float64 `json:"anticapitalism"`
	Chasiness      float64 `json:"chasiness"`
	Omniscience    float64 `json:"omniscience"`
	Tenaciousness  float64 `json:"tenaciousness"`
	Watchfulness   float64 `json:"watchfulness"`

	// pitching
	Coldness         float64 `json:"coldness"`
	Overpowerment    float64 `json:"overpowerment"`
	Ruthlessness     float64 `json:"ruthlessness"`
	Shakespearianism float64 `json:"shakespearianism"`
	Suppression      float64 `json:"suppression"`
	Unthwackability  float64 `json:"unthwackability"`

	// cross-cutting
	Pressurization float64 `json:"pressurization"`
	Cinnamon       float64 `json:"cinnamon"`
}

// minPatheticism is the floor applied after modifiers. Patheticism is
// polarity inverted: larger multipliers must push it down, never below
// this floor.
const minPatheticism = 0.001

// ClampPatheticism applies the inverted-polarity floor.
func ClampPatheticism(v float64) float64 {
	if v < minPatheticism {
		return minPatheticism
	}
	return v
}

// Vibes computes the daily vibe sinusoid from pressurization,
// cinnamon and buoyancy. The same form must be used for training and
// inference.
func (s Stlats) Vibes(day int) float64 {
	frequency := 6 + math.Round(10*s.Buoyancy)
	phase := math.Pi * (2*float64(day)/frequency + 0.5)
	return 0.5*(s.Pressurization+s.Cinnamon)*math.Sin(phase) -
		0.5*s.Pressurization + 0.5*s.Cinnamon
}

// ghostStlats is the canned stat line used when a HAUNTED batter is
// inhabited at the plate.
var ghostStlats = Stlats{
	Buoyancy:         0.5,
	Divinity:         0.5,
	Martyrdom:        0.5,
	Moxie:            0.5,
	Musclitude:       0.5,
	Patheticism:      0.5,
	Thwackability:    0.5,
	Tragicness:       0.1,
	BaseThirst:       0.5,
	Continuation:     0.5,
	GroundFriction:   0.5,
	Indulgence:       0.5,
	Laserlikeness:    0.5,
	Anticapitalism:   0.5,
	Chasiness:        0.5,
	Omniscience:      0.5,
	Tenaciousness:    0.5,
	Watchfulness:     0.5,
	Coldness:         0.5,
	Overpowerment:    0.5,
	Ruthlessness:     0.5,
	Shakespearianism: 0.5,
	Suppression:      0.5,
	Unthwackability:  0.5,
	Pressurization:   0.5,
	Cinnamon:         0.5,
}
