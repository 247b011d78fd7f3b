package models

// Sample is a single point measurement. Name is display-only and need not be unique.
type Sample struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"lon"`
	Latitude  float64 `json:"lat"`
	Value     float64 `json:"value"`
}

// SampleSet is the validated, non-empty set of samples for one date and variable.
// Treat as immutable once built.
type SampleSet struct {
	Date     string   `json:"date"`
	Variable string   `json:"variable"`
	Column   string   `json:"column"`
	Samples  []Sample `json:"samples"`
}

// Len returns the number of samples.
func (s *SampleSet) Len() int {
	return len(s.Samples)
}

// Values returns a copy of the value column in sample order.
func (s *SampleSet) Values() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Value
	}
	return out
}

// Extent returns the unpadded coordinate extent of the samples.
// Callers must not call it on an empty set.
func (s *SampleSet) Extent() Bounds {
	b := Bounds{
		MinX: s.Samples[0].Longitude, MaxX: s.Samples[0].Longitude,
		MinY: s.Samples[0].Latitude, MaxY: s.Samples[0].Latitude,
	}
	for _, smp := range s.Samples[1:] {
		if smp.Longitude < b.MinX {
			b.MinX = smp.Longitude
		}
		if smp.Longitude > b.MaxX {
			b.MaxX = smp.Longitude
		}
		if smp.Latitude < b.MinY {
			b.MinY = smp.Latitude
		}
		if smp.Latitude > b.MaxY {
			b.MaxY = smp.Latitude
		}
	}
	return b
}

// Bounds is a box in geographic degrees (x = longitude, y = latitude).
type Bounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// GridSpec is the padded bounding box plus the number of lattice points along each axis.
type GridSpec struct {
	Bounds
	ResolutionX int `json:"resolutionX"`
	ResolutionY int `json:"resolutionY"`
}

// Surface is a dense grid of estimates. Z is indexed [latitude row][longitude column]
// and has ResolutionY rows of ResolutionX columns. Variance is nil unless the
// kriging model produced it.
type Surface struct {
	Grid     GridSpec    `json:"grid"`
	X        []float64   `json:"x"`
	Y        []float64   `json:"y"`
	Z        [][]float64 `json:"z"`
	Variance [][]float64 `json:"variance,omitempty"`
}

// Statistics summarizes one SampleSet's values. All floats are finite for a non-empty set.
type Statistics struct {
	Count                  int     `json:"count"`
	Min                    float64 `json:"min"`
	Max                    float64 `json:"max"`
	Mean                   float64 `json:"mean"`
	Median                 float64 `json:"median"`
	StdDev                 float64 `json:"stdDev"`
	Variance               float64 `json:"variance"`
	Q1                     float64 `json:"q1"`
	Q3                     float64 `json:"q3"`
	IQR                    float64 `json:"iqr"`
	CoefficientOfVariation float64 `json:"coefficientOfVariation"`
}
