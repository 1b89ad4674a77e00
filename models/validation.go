package models

import "sort"

// ValidationResult maps field name to a human-readable error. Empty means valid.
type ValidationResult map[string]string

func (v ValidationResult) Valid() bool { return len(v) == 0 }

// Fields returns the failing field names in sorted order.
func (v ValidationResult) Fields() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
