package domain

import (
	"math"
	"testing"
)

var (
	almaty = GeoPoint{Latitude: 43.238949, Longitude: 76.945465}
	astana = GeoPoint{Latitude: 51.128207, Longitude: 71.430411}
)

func TestHaversineZeroForSamePoint(t *testing.T) {
	if d := almaty.HaversineKm(almaty); d != 0 {
		t.Errorf("expected 0 km for identical points, got %f", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	d1 := almaty.HaversineKm(astana)
	d2 := astana.HaversineKm(almaty)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("haversine not symmetric: %f vs %f", d1, d2)
	}
}

func TestHaversineAlmatyAstana(t *testing.T) {
	d := almaty.HaversineKm(astana)
	if d <= 900 || d >= 1050 {
		t.Errorf("Almaty-Astana distance out of range: %f km", d)
	}
}

func TestRoundKm(t *testing.T) {
	cases := map[float64]float64{
		0.004:  0.0,
		0.006:  0.01,
		12.344: 12.34,
		12.346: 12.35,
	}
	for in, want := range cases {
		if got := RoundKm(in); got != want {
			t.Errorf("RoundKm(%f) = %f, want %f", in, got, want)
		}
	}
}
