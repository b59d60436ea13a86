// Package weather models the in-game weather enum and the gates it
// drives: scoring rollovers, coffee run multipliers, peanut and
// flooding buff activation.
package weather

import (
	"blasesim/simerr"
)

// Weather is the integer weather code carried on a scheduled game.
type Weather int

const (
	Sun2       Weather = 1
	Eclipse    Weather = 7
	Glitter    Weather = 8
	Blooddrain Weather = 9
	Peanuts    Weather = 10
	Birds      Weather = 11
	Feedback   Weather = 12
	Reverb     Weather = 13
	BlackHole  Weather = 14
	Coffee     Weather = 15
	Coffee2    Weather = 16
	Coffee3    Weather = 17
	Flooding   Weather = 18
	Salmon     Weather = 19
)

var names = map[Weather]string{
	Sun2:       "Sun 2",
	Eclipse:    "Eclipse",
	Glitter:    "Glitter",
	Blooddrain: "Blooddrain",
	Peanuts:    "Peanuts",
	Birds:      "Birds",
	Feedback:   "Feedback",
	Reverb:     "Reverb",
	BlackHole:  "Black Hole",
	Coffee:     "Coffee",
	Coffee2:    "Coffee 2",
	Coffee3:    "Coffee 3",
	Flooding:   "Flooding",
	Salmon:     "Salmon",
}

// FromCode validates a schedule weather code.
func FromCode(code int) (Weather, error) {
	w := Weather(code)
	if _, ok := names[w]; !ok {
		return 0, simerr.Config("unrecognized weather code %d", code)
	}
	return w, nil
}

func (w Weather) String() string {
	if name, ok := names[w]; ok {
		return name
	}
	return "Unknown Weather"
}

// IsCoffee reports whether w belongs to the coffee family, which gates
// PERK and the WIRED/TIRED run multipliers.
func (w Weather) IsCoffee() bool {
	return w == Coffee || w == Coffee2 || w == Coffee3
}
