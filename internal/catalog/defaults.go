package catalog

// DefaultRegions is the built-in Civo region table. Costs are modeled USD per replica
// hour; latency values are geographic proximity, not measurements.
func DefaultRegions() []Region {
	return []Region{
		{
			ID:                        "LON1",
			Label:                     "London",
			ZoneID:                    "GB",
			BaseCostUSDPerReplicaHour: 0.02,
			Latency: map[string]float64{
				UserRegionGlobal:  0.7,
				UserRegionAPSouth: 0.45,
				UserRegionEUWest:  0.95,
				UserRegionUSEast:  0.6,
				UserRegionUSWest:  0.4,
			},
		},
		{
			ID:                        "FRA1",
			Label:                     "Frankfurt",
			ZoneID:                    "DE",
			BaseCostUSDPerReplicaHour: 0.022,
			Latency: map[string]float64{
				UserRegionGlobal:  0.7,
				UserRegionAPSouth: 0.5,
				UserRegionEUWest:  0.9,
				UserRegionUSEast:  0.55,
				UserRegionUSWest:  0.35,
			},
		},
		{
			ID:                        "NYC1",
			Label:                     "New York",
			ZoneID:                    "US-NY-NYIS",
			BaseCostUSDPerReplicaHour: 0.025,
			Latency: map[string]float64{
				UserRegionGlobal:  0.65,
				UserRegionAPSouth: 0.25,
				UserRegionEUWest:  0.6,
				UserRegionUSEast:  0.95,
				UserRegionUSWest:  0.7,
			},
		},
		{
			ID:                        "PHX1",
			Label:                     "Phoenix",
			ZoneID:                    "US-SW-AZPS",
			BaseCostUSDPerReplicaHour: 0.018,
			Latency: map[string]float64{
				UserRegionGlobal:  0.55,
				UserRegionAPSouth: 0.2,
				UserRegionEUWest:  0.4,
				UserRegionUSEast:  0.7,
				UserRegionUSWest:  0.95,
			},
		},
		{
			ID:                        "MUM1",
			Label:                     "Mumbai",
			ZoneID:                    "IN-WE",
			BaseCostUSDPerReplicaHour: 0.015,
			Latency: map[string]float64{
				UserRegionGlobal:  0.5,
				UserRegionAPSouth: 0.95,
				UserRegionEUWest:  0.45,
				UserRegionUSEast:  0.2,
				UserRegionUSWest:  0.15,
			},
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultRegions())
	if err != nil {
		panic(err)
	}
	return c
}
