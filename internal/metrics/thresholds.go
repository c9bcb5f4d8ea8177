package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Thresholds is a list of decision thresholds. ROC curves start at an
// infinite threshold, which JSON numbers cannot carry, so non-finite values
// are encoded as the strings "+Inf", "-Inf" and "NaN".
type Thresholds []float64

// MarshalJSON implements json.Marshaler.
func (t Thresholds) MarshalJSON() ([]byte, error) {
	vals := make([]any, len(t))
	for i, v := range t {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			vals[i] = strconv.FormatFloat(v, 'g', -1, 64)
			continue
		}
		vals[i] = v
	}
	return json.Marshal(vals)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers and the string forms
// written by MarshalJSON are accepted.
func (t *Thresholds) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*t = nil
		return nil
	}

	out := make(Thresholds, len(raw))
	for i, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("threshold %d: %w", i, err)
			}
			out[i] = v
			continue
		}
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return fmt.Errorf("threshold %d: %w", i, err)
		}
	}
	*t = out
	return nil
}
