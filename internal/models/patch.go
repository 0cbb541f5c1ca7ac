package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Patch is a partial update decoded from a JSON object, keyed by field name.
type Patch map[string]json.RawMessage

// CheckKeys rejects the patch if it names any key outside allowed. It runs
// before any field is applied so a bad patch changes nothing.
func (p Patch) CheckKeys(allowed []string) error {
	var bad []string
	for key := range p {
		if !slices.Contains(allowed, key) {
			bad = append(bad, key)
		}
	}
	if len(bad) > 0 {
		slices.Sort(bad)
		return fmt.Errorf("%w: invalid updates: %s", ErrValidation, strings.Join(bad, ", "))
	}
	return nil
}
