// Package rateengine computes shipment weights and the synthetic vendor
// price list shown while booking a domestic shipment.
package rateengine

import "math"

// VolumetricDivisor converts cubic centimetres into volumetric kilograms.
const VolumetricDivisor = 5000.0

type DimensionUnit string

const (
	UnitCM   DimensionUnit = "CM"
	UnitInch DimensionUnit = "INCH"
)

type WeightUnit string

const (
	UnitKG WeightUnit = "KG"
	UnitGM WeightUnit = "GM"
)

// BoxRow is one line of the box table. A row with Qty 3 stands for three
// identical physical boxes.
type BoxRow struct {
	Qty     float64 `json:"qty"`
	Weight  float64 `json:"weight"`
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
	Height  float64 `json:"height"`
}

// num turns NaN and infinities into zero so malformed rows never poison a sum.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CalcVolumetricWeight sums (L*B*H)/5000 per box across all rows.
// Dimensions are read as centimetres and the result as kilograms; the shipment
// type and unit arguments are carried for callers but do not change the result.
func CalcVolumetricWeight(shipmentType string, rows []BoxRow, dimensionUnit DimensionUnit, weightUnit WeightUnit) float64 {
	var total float64
	for _, r := range rows {
		perBox := num(r.Length) * num(r.Breadth) * num(r.Height) / VolumetricDivisor
		total += perBox * num(r.Qty)
	}
	return total
}

// CalcActualWeightFromBoxes returns the sum of qty*weight.
func CalcActualWeightFromBoxes(rows []BoxRow) float64 {
	var total float64
	for _, r := range rows {
		total += num(r.Qty) * num(r.Weight)
	}
	return total
}

// CalcChargeableWeight applies the freight billing rule: the heavier of the
// physical and the volumetric weight.
func CalcChargeableWeight(actualWeight, volumetricWeight float64) float64 {
	return math.Max(num(actualWeight), num(volumetricWeight))
}
