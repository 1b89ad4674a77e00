package forms

import (
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/utils"
	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// RecomputeTotal derives the total for kind from its quantity inputs,
// formatted with exactly two decimals. Empty or non-numeric inputs count as 0.
//
// Weighted kinds: round2(sum(qty * unitMassKg) / 1000).
// DOC: round2(soyaDocMT + sunflowerDocMT), no weight lookup.
func RecomputeTotal(kind models.FormKind, quantities map[string]string) string {
	spec := kind.Spec()
	if spec == nil {
		return utils.FormatFixed2(decimal.Zero)
	}

	sum := decimal.Zero
	switch spec.TotalRule {
	case models.TotalDirectSum:
		for _, q := range spec.Quantities {
			sum = sum.Add(utils.ParseNumOrZero(quantities[q.Key]))
		}
	default:
		for _, q := range spec.Quantities {
			mass, ok := models.UnitMass(q.Key)
			if !ok {
				continue
			}
			sum = sum.Add(utils.ParseNumOrZero(quantities[q.Key]).Mul(mass))
		}
		sum = sum.Div(thousand)
	}
	return utils.FormatFixed2(sum)
}
