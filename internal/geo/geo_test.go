package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// Santo Domingo to Samaná, roughly 110km as the crow flies.
	sd := Centroid(-69.9312, 18.4861)
	samana := Centroid(-69.3321, 19.2057)
	d := DistanceKm(sd, samana)
	assert.InDelta(t, 102, d, 15)
}

func TestDistanceKm_SamePoint(t *testing.T) {
	p := Centroid(-69.9312, 18.4861)
	assert.InDelta(t, 0, DistanceKm(p, p), 0.001)
}

func TestDistanceKm_Nil(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(nil, Centroid(0, 0)))
}

func TestTransferFriction(t *testing.T) {
	a := Centroid(-69.9312, 18.4861)
	b := Centroid(-69.3321, 19.2057)
	f := TransferFriction(a, b, 0.08, 0.0004)
	assert.Greater(t, f, 0.08)
	assert.Less(t, f, 0.2)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "samana", NormalizeName("Samaná"))
	assert.Equal(t, "cabarete", NormalizeName("  Cabarete "))
	assert.True(t, SameArea("Samaná", "SAMANA"))
	assert.False(t, SameArea("Samaná", "Las Terrenas"))
}
