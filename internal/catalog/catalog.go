// Package catalog holds the static reference data for candidate regions: display
// label, grid zone, base cost per replica-hour and latency proximity per user region.
package catalog

import (
	"fmt"
	"math"
	"sort"
)

// User regions the latency table is keyed by.
const (
	UserRegionGlobal  = "global"
	UserRegionAPSouth = "ap-south"
	UserRegionEUWest  = "eu-west"
	UserRegionUSEast  = "us-east"
	UserRegionUSWest  = "us-west"
)

// neutralLatency is used when neither the user region nor the global column is known.
const neutralLatency = 0.5

// Region is one deployable region.
type Region struct {
	ID                        string             `yaml:"id" json:"id"`
	Label                     string             `yaml:"label" json:"label"`
	ZoneID                    string             `yaml:"zone" json:"zone"`
	BaseCostUSDPerReplicaHour float64            `yaml:"base_cost_usd_per_replica_hour" json:"baseCostUsdPerReplicaHour"`
	Latency                   map[string]float64 `yaml:"latency" json:"latency"`
}

// Catalog is an ordered, immutable set of regions.
type Catalog struct {
	regions []Region
	byID    map[string]int
}

// New validates regions and builds a catalog preserving their order.
func New(regions []Region) (*Catalog, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one region")
	}

	c := &Catalog{
		regions: make([]Region, 0, len(regions)),
		byID:    make(map[string]int, len(regions)),
	}
	for _, r := range regions {
		if r.ID == "" {
			return nil, fmt.Errorf("region id cannot be empty")
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate region id %q", r.ID)
		}
		if !finite(r.BaseCostUSDPerReplicaHour) || r.BaseCostUSDPerReplicaHour <= 0 {
			return nil, fmt.Errorf("region %s: base cost must be positive", r.ID)
		}
		for user, score := range r.Latency {
			if math.IsNaN(score) || score < 0 || score > 1 {
				return nil, fmt.Errorf("region %s: latency score for %s must be within [0,1]", r.ID, user)
			}
		}
		if r.Label == "" {
			r.Label = r.ID
		}
		latency := make(map[string]float64, len(r.Latency))
		for k, v := range r.Latency {
			latency[k] = v
		}
		r.Latency = latency

		c.byID[r.ID] = len(c.regions)
		c.regions = append(c.regions, r)
	}
	return c, nil
}

// Regions returns a copy of all regions in catalog order.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// Lookup returns the region with the given id.
func (c *Catalog) Lookup(id string) (Region, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Region{}, false
	}
	return c.regions[i], true
}

// LatencyScore returns the proximity of region to userRegion in [0,1]. Unknown user
// regions fall back to the global column, then to a neutral 0.5.
func (c *Catalog) LatencyScore(regionID, userRegion string) float64 {
	r, ok := c.Lookup(regionID)
	if !ok {
		return neutralLatency
	}
	if v, ok := r.Latency[userRegion]; ok {
		return v
	}
	if v, ok := r.Latency[UserRegionGlobal]; ok {
		return v
	}
	return neutralLatency
}

// MaxBaseCost is the highest base cost across every region in the catalog. It is the
// per-replica baseline used for savings.
func (c *Catalog) MaxBaseCost() float64 {
	max := 0.0
	for _, r := range c.regions {
		if r.BaseCostUSDPerReplicaHour > max {
			max = r.BaseCostUSDPerReplicaHour
		}
	}
	return max
}

// UserRegions lists every user region referenced by any latency table, sorted.
func (c *Catalog) UserRegions() []string {
	seen := make(map[string]struct{})
	for _, r := range c.regions {
		for k := range r.Latency {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
