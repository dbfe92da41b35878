package llm

import "strconv"

// Intervention is an immutable steering configuration applied to one completion:
// every listed feature is set to the same strength.
type Intervention struct {
	features []Feature
	strength float64
}

// Baseline returns the empty intervention.
func Baseline() Intervention {
	return Intervention{}
}

// NewIntervention copies features so later changes by the caller are not observed.
func NewIntervention(features []Feature, strength float64) Intervention {
	if len(features) == 0 || strength == 0 {
		return Intervention{}
	}
	copied := make([]Feature, len(features))
	copy(copied, features)
	return Intervention{features: copied, strength: strength}
}

// Features returns a copy of the steered features.
func (i Intervention) Features() []Feature {
	if len(i.features) == 0 {
		return nil
	}
	out := make([]Feature, len(i.features))
	copy(out, i.features)
	return out
}

// Strength returns the steering value.
func (i Intervention) Strength() float64 {
	return i.strength
}

// IsBaseline reports whether no steering applies.
func (i Intervention) IsBaseline() bool {
	return len(i.features) == 0 || i.strength == 0
}

// String renders a compact description for logs.
func (i Intervention) String() string {
	if i.IsBaseline() {
		return "baseline"
	}
	return strconv.Itoa(len(i.features)) + " features @ " + strconv.FormatFloat(i.strength, 'f', -1, 64)
}
