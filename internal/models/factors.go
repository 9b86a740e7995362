package models

import "sort"

// FactorKind names an external clinical screening instrument
type FactorKind string

const (
	FactorPHQ9  FactorKind = "phq9"
	FactorGAD7  FactorKind = "gad7"
	FactorPSS10 FactorKind = "pss10"
)

// FactorSpec describes a registered screening instrument.
// Inverted instruments score higher when the person is worse off.
type FactorSpec struct {
	Kind        FactorKind `json:"kind"`
	DisplayName string     `json:"display_name"`
	Measures    string     `json:"measures"`
	MinScore    float64    `json:"min_score"`
	MaxScore    float64    `json:"max_score"`
	Inverted    bool       `json:"inverted"`
}

// factorRegistry is the closed set of supported instruments.
// Adding an instrument means adding an entry here.
var factorRegistry = map[FactorKind]FactorSpec{
	FactorPHQ9: {
		Kind:        FactorPHQ9,
		DisplayName: "PHQ-9",
		Measures:    "depression",
		MinScore:    0,
		MaxScore:    27,
		Inverted:    true,
	},
	FactorGAD7: {
		Kind:        FactorGAD7,
		DisplayName: "GAD-7",
		Measures:    "anxiety",
		MinScore:    0,
		MaxScore:    21,
		Inverted:    true,
	},
	FactorPSS10: {
		Kind:        FactorPSS10,
		DisplayName: "PSS-10",
		Measures:    "perceived stress",
		MinScore:    0,
		MaxScore:    40,
		Inverted:    true,
	},
}

// LookupFactor returns the registered spec for kind
func LookupFactor(kind FactorKind) (FactorSpec, bool) {
	spec, ok := factorRegistry[kind]
	return spec, ok
}

// RegisteredFactors returns all instruments sorted by kind
func RegisteredFactors() []FactorSpec {
	specs := make([]FactorSpec, 0, len(factorRegistry))
	for _, s := range factorRegistry {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Kind < specs[j].Kind })
	return specs
}
