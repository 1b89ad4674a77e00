package models

import (
	"errors"
	"fmt"
	"strings"
)

// FormKind selects which dispatch variant governs field shape and validation.
type FormKind string

const (
	FormKindOil  FormKind = "oil"
	FormKindSoap FormKind = "soap"
	FormKindDoc  FormKind = "doc"
)

// TotalField is the machine-written derived total on every dispatch form.
const TotalField = "totalMT"

type InputKind string

const (
	InputText     InputKind = "text"
	InputDate     InputKind = "date"
	InputSelector InputKind = "selector"
)

// TotalRule picks how the derived total is computed for a kind.
type TotalRule int

const (
	// TotalWeighted sums quantity x unit mass / 1000 over the weight table.
	TotalWeighted TotalRule = iota
	// TotalDirectSum adds mass sub-fields that are already in MT.
	TotalDirectSum
)

type FieldDef struct {
	Name     string
	Label    string
	Input    InputKind
	Required bool
	Options  []string
	Default  string
}

type QuantityDef struct {
	Key   string
	Label string
}

type FormSpec struct {
	Kind        FormKind
	Title       string
	LedgerType  string
	Fields      []FieldDef
	Quantities  []QuantityDef
	TotalRule   TotalRule
	LookupField string
}

var transporterOptions = []string{"Own", "Hired"}

var formSpecs = map[FormKind]*FormSpec{
	FormKindOil: {
		Kind:       FormKindOil,
		Title:      "Oil Dispatch",
		LedgerType: "oil_dispatch",
		Fields: []FieldDef{
			{Name: "date", Label: "Date", Input: InputDate, Required: true},
			{Name: "vehicleNo", Label: "Vehicle No", Input: InputText},
			{Name: "driverName", Label: "Driver Name", Input: InputText},
			{Name: "partyName", Label: "Party Name", Input: InputText},
			{Name: "destinationCategory", Label: "Destination Category", Input: InputSelector, Required: true,
				Options: []string{"Local", "Outstation", "Export"}},
			{Name: "transporter", Label: "Transporter", Input: InputSelector, Options: transporterOptions, Default: "Own"},
			{Name: "remarks", Label: "Remarks", Input: InputText},
		},
		Quantities: []QuantityDef{
			{Key: "1L", Label: "1 L pouch"},
			{Key: "2L", Label: "2 L bottle"},
			{Key: "5L", Label: "5 L jar"},
			{Key: "10L", Label: "10 L jar"},
			{Key: "15L", Label: "15 L tin"},
			{Key: "20L", Label: "20 L tin"},
		},
		TotalRule:   TotalWeighted,
		LookupField: "vehicleNo",
	},
	FormKindSoap: {
		Kind:       FormKindSoap,
		Title:      "Soap Dispatch",
		LedgerType: "soap_dispatch",
		Fields: []FieldDef{
			{Name: "date", Label: "Date", Input: InputDate, Required: true},
			{Name: "invoiceNo", Label: "Invoice No", Input: InputText, Required: true},
			{Name: "vehicleNo", Label: "Vehicle No", Input: InputText, Required: true},
			{Name: "partyName", Label: "Party Name", Input: InputText},
			{Name: "transporter", Label: "Transporter", Input: InputSelector, Options: transporterOptions, Default: "Own"},
			{Name: "remarks", Label: "Remarks", Input: InputText},
		},
		Quantities: []QuantityDef{
			{Key: "bar100g", Label: "100 g bar (carton)"},
			{Key: "bar150g", Label: "150 g bar (carton)"},
			{Key: "bar200g", Label: "200 g bar (carton)"},
			{Key: "powder500g", Label: "500 g powder (carton)"},
			{Key: "powder1kg", Label: "1 kg powder (carton)"},
		},
		TotalRule:   TotalWeighted,
		LookupField: "invoiceNo",
	},
	FormKindDoc: {
		Kind:       FormKindDoc,
		Title:      "DOC Dispatch",
		LedgerType: "doc_dispatch",
		Fields: []FieldDef{
			{Name: "date", Label: "Date", Input: InputDate, Required: true},
			{Name: "vehicleNo", Label: "Vehicle No", Input: InputText, Required: true},
			{Name: "partyName", Label: "Party Name", Input: InputText, Required: true},
			{Name: "invoiceNo", Label: "Invoice No", Input: InputText},
			{Name: "remarks", Label: "Remarks", Input: InputText},
		},
		Quantities: []QuantityDef{
			{Key: "soyaDocMT", Label: "Soya DOC (MT)"},
			{Key: "sunflowerDocMT", Label: "Sunflower DOC (MT)"},
		},
		TotalRule:   TotalDirectSum,
		LookupField: "vehicleNo",
	},
}

var ErrUnknownFormKind = errors.New("unknown form kind")

// FormKinds lists every kind in display order.
func FormKinds() []FormKind {
	return []FormKind{FormKindOil, FormKindSoap, FormKindDoc}
}

func ParseFormKind(s string) (FormKind, error) {
	k := FormKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := formSpecs[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormKind, s)
	}
	return k, nil
}

func (k FormKind) Valid() bool {
	_, ok := formSpecs[k]
	return ok
}

// Spec returns the schema for k, or nil for an unknown kind.
func (k FormKind) Spec() *FormSpec {
	return formSpecs[k]
}

func (k FormKind) String() string { return string(k) }

func (s *FormSpec) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

func (s *FormSpec) IsQuantity(name string) bool {
	for _, q := range s.Quantities {
		if q.Key == name {
			return true
		}
	}
	return false
}

// Declares reports whether name is an input the user may set on this kind.
func (s *FormSpec) Declares(name string) bool {
	_, ok := s.Field(name)
	return ok || s.IsQuantity(name)
}

func (s *FormSpec) RequiredFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
