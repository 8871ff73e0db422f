package estimate

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func TestHourlyEstimates(t *testing.T) {
	e := New(0.1, 85)
	got := e.Hourly(450, 3, 0.02)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"energy", got.EnergyKwh, 0.3},
		{"co2", got.CO2Kg, 0.135},
		{"usd", got.CostUSD, 0.06},
		{"inr", got.CostINR, 5.1},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > tolerance {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestHourlyRoundsToSixPlaces(t *testing.T) {
	e := New(0.1, 83.3333333)
	got := e.Hourly(333.3333333, 1, 0.0123456789)
	if got.CostUSD != 0.012346 {
		t.Fatalf("expected cost rounded to 0.012346, got %v", got.CostUSD)
	}
	if got.CO2Kg != 0.033333 {
		t.Fatalf("expected co2 rounded to 0.033333, got %v", got.CO2Kg)
	}
}
