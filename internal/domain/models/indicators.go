package models

import (
	"encoding/json"
	"sort"
)

// insufficientMarker is emitted instead of a number when a series is too
// short for an indicator's minimum history.
const insufficientMarker = "insufficient-data"

// IndicatorValue is either a computed number or the insufficient-data marker.
type IndicatorValue struct {
	Value float64
	Valid bool
}

// Number builds a computed indicator value.
func Number(v float64) IndicatorValue { return IndicatorValue{Value: v, Valid: true} }

// Insufficient builds the insufficient-data marker.
func Insufficient() IndicatorValue { return IndicatorValue{} }

func (v IndicatorValue) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return json.Marshal(insufficientMarker)
	}
	return json.Marshal(v.Value)
}

func (v *IndicatorValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Insufficient()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Number(f)
	return nil
}

// IndicatorSet maps indicator name to its value, all computed from the same
// PriceSeries snapshot.
type IndicatorSet map[string]IndicatorValue

// Names returns indicator names in lexical order. Stable ordering keeps
// prompts and rendered reports reproducible.
func (s IndicatorSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
