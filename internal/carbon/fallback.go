package carbon

// DefaultIntensity is used for zones missing from the fallback table.
const DefaultIntensity = 400.0

// defaultTable holds representative annual averages for the built-in catalog zones.
var defaultTable = map[string]float64{
	"GB":         230,
	"DE":         380,
	"US-NY-NYIS": 250,
	"US-SW-AZPS": 420,
	"IN-WE":      650,
}

// Fallback is a static zone -> gCO2/kWh table.
type Fallback struct {
	values       map[string]float64
	defaultValue float64
}

// NewFallback builds the built-in table with overrides applied on top.
func NewFallback(overrides map[string]float64) *Fallback {
	values := make(map[string]float64, len(defaultTable)+len(overrides))
	for zone, v := range defaultTable {
		values[zone] = v
	}
	for zone, v := range overrides {
		values[zone] = v
	}
	return &Fallback{values: values, defaultValue: DefaultIntensity}
}

// Lookup returns the fallback value for zone, or DefaultIntensity.
func (f *Fallback) Lookup(zone string) float64 {
	if v, ok := f.values[zone]; ok {
		return v
	}
	return f.defaultValue
}
