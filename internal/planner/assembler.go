package planner

import (
	"github.com/namansh70747/greenops-planner/internal/carbon"
)

const (
	strengthThreshold = 0.8
	warningThreshold  = 0.3

	clusterTypeKubernetes = "kubernetes"
)

// Plan notes, emitted in co2, latency, cost order.
const (
	NoteCO2Strength     = "High carbon efficiency"
	NoteLatencyStrength = "Excellent latency for your chosen region"
	NoteCostStrength    = "Highly cost efficient"
	NoteCO2Warning      = "Trade-off: higher carbon footprint"
	NoteLatencyWarning  = "Trade-off: higher latency expected"
	NoteCostWarning     = "Trade-off: higher relative cost"
	NoteFallbackData    = "Carbon intensity from static fallback data"
)

// Component is one workload the user wants deployed.
type Component struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// CarbonIntensity is the reading a plan was scored with.
type CarbonIntensity struct {
	ValueGCo2PerKwh float64       `json:"value_gCo2PerKwh"`
	Source          carbon.Source `json:"source"`
}

// Target is the concrete cluster shape a plan deploys to.
type Target struct {
	Region        string `json:"region"`
	RegionLabel   string `json:"regionLabel"`
	ClusterType   string `json:"clusterType"`
	InstanceClass string `json:"instanceClass"`
	Replicas      int    `json:"replicas"`
}

// Plan is a deployable recommendation for one strategy.
type Plan struct {
	ID              string          `json:"id"`
	Label           string          `json:"label"`
	Description     string          `json:"description"`
	Scores          Scores          `json:"scores"`
	CarbonIntensity CarbonIntensity `json:"carbonIntensity"`
	Target          Target          `json:"civo"`
	Notes           []string        `json:"notes"`
	KubernetesYAML  string          `json:"kubernetesYaml,omitempty"`
}

// AssemblyRule holds the sizing knobs for assembled plans.
type AssemblyRule struct {
	MinReplicas int
}

// Replicas returns max(MinReplicas, number of components).
func (r AssemblyRule) Replicas(components int) int {
	min := r.MinReplicas
	if min < 1 {
		min = 1
	}
	if components > min {
		return components
	}
	return min
}

// InstanceClass picks a node size by component count.
func InstanceClass(components int) string {
	switch {
	case components <= 2:
		return "g4s.kube.small"
	case components <= 5:
		return "g4s.kube.medium"
	default:
		return "g4s.kube.large"
	}
}

// Notes derives the human-readable strengths and trade-offs of a scored region.
func Notes(s Scores, source carbon.Source) []string {
	notes := make([]string, 0, 4)
	notes = appendAxisNote(notes, s.CO2, NoteCO2Strength, NoteCO2Warning)
	notes = appendAxisNote(notes, s.Latency, NoteLatencyStrength, NoteLatencyWarning)
	notes = appendAxisNote(notes, s.Cost, NoteCostStrength, NoteCostWarning)
	if !source.Live() {
		notes = append(notes, NoteFallbackData)
	}
	return notes
}

func appendAxisNote(notes []string, score float64, strength, warning string) []string {
	switch {
	case score >= strengthThreshold:
		return append(notes, strength)
	case score <= warningThreshold:
		return append(notes, warning)
	}
	return notes
}

// Assemble turns a scored region into a Plan for the given strategy.
func Assemble(scored ScoredRegion, strategy Strategy, components []Component, rule AssemblyRule) Plan {
	m := scored.Metric
	return Plan{
		ID:          strategy.ID(),
		Label:       strategy.Label(),
		Description: strategy.Description(),
		Scores:      scored.Scores,
		CarbonIntensity: CarbonIntensity{
			ValueGCo2PerKwh: m.CarbonIntensity,
			Source:          m.Source,
		},
		Target: Target{
			Region:        m.Region,
			RegionLabel:   m.RegionLabel,
			ClusterType:   clusterTypeKubernetes,
			InstanceClass: InstanceClass(len(components)),
			Replicas:      rule.Replicas(len(components)),
		},
		Notes: Notes(scored.Scores, m.Source),
	}
}
