package catalog

import (
	"math"
	"testing"
)

func TestDefaultCatalogMaxBaseCost(t *testing.T) {
	c := Default()
	if got := c.MaxBaseCost(); got != 0.025 {
		t.Fatalf("expected max base cost 0.025, got %v", got)
	}
}

func TestLatencyScoreFallbacks(t *testing.T) {
	c, err := New([]Region{
		{ID: "A", BaseCostUSDPerReplicaHour: 1, Latency: map[string]float64{UserRegionGlobal: 0.4, UserRegionEUWest: 0.9}},
		{ID: "B", BaseCostUSDPerReplicaHour: 1},
	})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	if got := c.LatencyScore("A", UserRegionEUWest); got != 0.9 {
		t.Fatalf("expected direct score 0.9, got %v", got)
	}
	if got := c.LatencyScore("A", "mars"); got != 0.4 {
		t.Fatalf("expected global fallback 0.4, got %v", got)
	}
	if got := c.LatencyScore("B", UserRegionEUWest); got != neutralLatency {
		t.Fatalf("expected neutral score, got %v", got)
	}
	if got := c.LatencyScore("missing", UserRegionEUWest); got != neutralLatency {
		t.Fatalf("expected neutral score for unknown region, got %v", got)
	}
}

func TestNewRejectsInvalidRegions(t *testing.T) {
	cases := []struct {
		name    string
		regions []Region
	}{
		{"empty", nil},
		{"missing id", []Region{{BaseCostUSDPerReplicaHour: 1}}},
		{"duplicate", []Region{{ID: "A", BaseCostUSDPerReplicaHour: 1}, {ID: "A", BaseCostUSDPerReplicaHour: 1}}},
		{"zero cost", []Region{{ID: "A"}}},
		{"latency out of range", []Region{{ID: "A", BaseCostUSDPerReplicaHour: 1, Latency: map[string]float64{"eu-west": 1.2}}}},
		{"nan cost", []Region{{ID: "A", BaseCostUSDPerReplicaHour: math.NaN()}}},
		{"infinite cost", []Region{{ID: "A", BaseCostUSDPerReplicaHour: math.Inf(1)}}},
		{"nan latency", []Region{{ID: "A", BaseCostUSDPerReplicaHour: 1, Latency: map[string]float64{"global": math.NaN()}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.regions); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLookupKeepsOrderAndLabels(t *testing.T) {
	c := Default()
	regions := c.Regions()
	if regions[0].ID != "LON1" {
		t.Fatalf("expected LON1 first, got %s", regions[0].ID)
	}
	r, ok := c.Lookup("FRA1")
	if !ok || r.Label != "Frankfurt" || r.ZoneID != "DE" {
		t.Fatalf("unexpected FRA1 entry: %+v", r)
	}
	if len(c.UserRegions()) != 5 {
		t.Fatalf("expected 5 user regions, got %v", c.UserRegions())
	}
}
