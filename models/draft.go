package models

import (
	"maps"
	"time"
)

// DateLayout is the wire and cache format for the date field.
const DateLayout = "2006-01-02"

// DraftRecord is the in-progress, not-yet-submitted dispatch form.
type DraftRecord struct {
	Kind       FormKind          `json:"formKind"`
	Fields     map[string]string `json:"fields"`
	Quantities map[string]string `json:"quantities"`
	Total      string            `json:"total"`
}

// NewDraftRecord builds the default record for kind: date set to today,
// identifiers empty, selectors at their defaults, no quantities entered.
func NewDraftRecord(kind FormKind, now time.Time) DraftRecord {
	spec := kind.Spec()
	rec := DraftRecord{
		Kind:       kind,
		Fields:     map[string]string{},
		Quantities: map[string]string{},
		Total:      "0.00",
	}
	if spec == nil {
		return rec
	}
	for _, f := range spec.Fields {
		rec.Fields[f.Name] = f.Default
	}
	rec.Fields["date"] = now.Format(DateLayout)
	for _, q := range spec.Quantities {
		rec.Quantities[q.Key] = ""
	}
	return rec
}

func (r DraftRecord) Clone() DraftRecord {
	out := r
	out.Fields = maps.Clone(r.Fields)
	out.Quantities = maps.Clone(r.Quantities)
	if out.Fields == nil {
		out.Fields = map[string]string{}
	}
	if out.Quantities == nil {
		out.Quantities = map[string]string{}
	}
	return out
}

func (r DraftRecord) Equal(o DraftRecord) bool {
	return r.Kind == o.Kind &&
		r.Total == o.Total &&
		maps.Equal(r.Fields, o.Fields) &&
		maps.Equal(r.Quantities, o.Quantities)
}

// Get reads a header field, quantity or the derived total by name.
func (r DraftRecord) Get(name string) string {
	if name == TotalField {
		return r.Total
	}
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return r.Quantities[name]
}

// Normalize drops undeclared keys and fills missing declared keys with "".
// The total is left as is.
func (r DraftRecord) Normalize() DraftRecord {
	spec := r.Kind.Spec()
	out := DraftRecord{
		Kind:       r.Kind,
		Fields:     map[string]string{},
		Quantities: map[string]string{},
		Total:      r.Total,
	}
	if spec == nil {
		return out
	}
	for _, f := range spec.Fields {
		out.Fields[f.Name] = r.Fields[f.Name]
	}
	for _, q := range spec.Quantities {
		out.Quantities[q.Key] = r.Quantities[q.Key]
	}
	return out
}

// Payload is the flat body the ledger expects: every field, every quantity,
// the derived total and the type discriminator.
func (r DraftRecord) Payload() map[string]string {
	out := make(map[string]string, len(r.Fields)+len(r.Quantities)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	for k, v := range r.Quantities {
		out[k] = v
	}
	out[TotalField] = r.Total
	if spec := r.Kind.Spec(); spec != nil {
		out["type"] = spec.LedgerType
	}
	return out
}
