package planner

import (
	"reflect"
	"testing"

	"github.com/namansh70747/greenops-planner/internal/carbon"
)

func components(n int) []Component {
	out := make([]Component, n)
	for i := range out {
		out[i] = Component{Name: string(rune('a' + i)), Type: "service"}
	}
	return out
}

func TestReplicasAndInstanceClass(t *testing.T) {
	cases := []struct {
		components  int
		minReplicas int
		replicas    int
		class       string
	}{
		{1, 1, 1, "g4s.kube.small"},
		{2, 3, 3, "g4s.kube.small"},
		{3, 1, 3, "g4s.kube.medium"},
		{5, 2, 5, "g4s.kube.medium"},
		{6, 1, 6, "g4s.kube.large"},
		{1, 0, 1, "g4s.kube.small"},
	}
	for _, tc := range cases {
		rule := AssemblyRule{MinReplicas: tc.minReplicas}
		if got := rule.Replicas(tc.components); got != tc.replicas {
			t.Fatalf("%d components, min %d: expected %d replicas, got %d", tc.components, tc.minReplicas, tc.replicas, got)
		}
		if got := InstanceClass(tc.components); got != tc.class {
			t.Fatalf("%d components: expected %s, got %s", tc.components, tc.class, got)
		}
	}
}

func TestNotesOrderAndThresholds(t *testing.T) {
	got := Notes(Scores{CO2: 0.9, Latency: 0.2, Cost: 0.8}, carbon.SourceFallback)
	want := []string{NoteCO2Strength, NoteLatencyWarning, NoteCostStrength, NoteFallbackData}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Notes(Scores{CO2: 0.3, Latency: 0.5, Cost: 0.31}, carbon.SourceElectricityMaps)
	want = []string{NoteCO2Warning}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAssemble(t *testing.T) {
	scored := ScoredRegion{
		Metric: RegionMetric{Region: "LON1", RegionLabel: "London", CarbonIntensity: 210, Source: carbon.SourceElectricityMaps},
		Scores: Scores{CO2: 1, Latency: 0.95, Cost: 0.4, Overall: 0.8},
	}
	plan := Assemble(scored, MaxGreen, components(3), AssemblyRule{MinReplicas: 1})

	if plan.ID != "max-green" || plan.Label != "Max Green" {
		t.Fatalf("unexpected identity: %s %s", plan.ID, plan.Label)
	}
	if plan.Target.Region != "LON1" || plan.Target.RegionLabel != "London" || plan.Target.ClusterType != "kubernetes" {
		t.Fatalf("unexpected target: %+v", plan.Target)
	}
	if plan.Target.Replicas != 3 || plan.Target.InstanceClass != "g4s.kube.medium" {
		t.Fatalf("unexpected sizing: %+v", plan.Target)
	}
	if plan.CarbonIntensity.ValueGCo2PerKwh != 210 || plan.CarbonIntensity.Source != carbon.SourceElectricityMaps {
		t.Fatalf("unexpected carbon intensity: %+v", plan.CarbonIntensity)
	}
	if !reflect.DeepEqual(plan.Notes, []string{NoteCO2Strength, NoteLatencyStrength}) {
		t.Fatalf("unexpected notes: %v", plan.Notes)
	}
}
