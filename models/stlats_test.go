package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVibesSinusoid(t *testing.T) {
	s := Stlats{Buoyancy: 0.5, Pressurization: 0.5, Cinnamon: 0.5}

	// frequency = 6 + round(10*0.5) = 11
	frequency := 11.0
	for _, day := range []int{0, 10, 50, 98} {
		phase := math.Pi * (2*float64(day)/frequency + 0.5)
		want := 0.5*(0.5+0.5)*math.Sin(phase) - 0.25 + 0.25
		assert.InDelta(t, want, s.Vibes(day), 1e-12, "day %d", day)
	}
}

func TestVibesBounds(t *testing.T) {
	s := Stlats{Buoyancy: 0.3, Pressurization: 0.8, Cinnamon: 0.2}
	lo := -s.Pressurization
	hi := s.Cinnamon
	for day := 0; day < 99; day++ {
		v := s.Vibes(day)
		assert.GreaterOrEqual(t, v, lo-1e-12)
		assert.LessOrEqual(t, v, hi+1e-12)
	}
}

func TestVibesFlatPlayer(t *testing.T) {
	s := Stlats{Buoyancy: 0.5}
	for day := 0; day < 99; day++ {
		assert.InDelta(t, 0.0, s.Vibes(day), 1e-12)
	}
}

func TestClampPatheticism(t *testing.T) {
	assert.Equal(t, 0.5, ClampPatheticism(0.5))
	assert.Equal(t, 0.001, ClampPatheticism(0.001))
	assert.Equal(t, 0.001, ClampPatheticism(0.0001))
	assert.Equal(t, 0.001, ClampPatheticism(-2.0))
}
