package models

import "github.com/shopspring/decimal"

// unitMassKg is the WeightTable: mass in kg of one unit of each product line.
var unitMassKg = map[string]decimal.Decimal{
	"1L":  decimal.RequireFromString("0.910"),
	"2L":  decimal.RequireFromString("1.820"),
	"5L":  decimal.RequireFromString("4.550"),
	"10L": decimal.RequireFromString("9.100"),
	"15L": decimal.RequireFromString("13.650"),
	"20L": decimal.RequireFromString("18.200"),

	"bar100g":    decimal.RequireFromString("7.200"),
	"bar150g":    decimal.RequireFromString("7.200"),
	"bar200g":    decimal.RequireFromString("8.000"),
	"powder500g": decimal.RequireFromString("12.000"),
	"powder1kg":  decimal.RequireFromString("12.000"),
}

// UnitMass returns the unit mass for a product line and whether it is known.
func UnitMass(productLine string) (decimal.Decimal, bool) {
	m, ok := unitMassKg[productLine]
	return m, ok
}
