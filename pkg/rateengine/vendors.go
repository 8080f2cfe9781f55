package rateengine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Vendor is one courier on the rate card.
type Vendor struct {
	Code  string  `yaml:"code" json:"code"`
	Name  string  `yaml:"name" json:"name"`
	Base  float64 `yaml:"base" json:"base"`
	PerKg float64 `yaml:"per_kg" json:"perKg"`
	TAT   string  `yaml:"tat" json:"tat"`
}

// RateCard holds every constant the price computation depends on.
type RateCard struct {
	Vendors             []Vendor `yaml:"vendors"`
	FuelSurchargePct    float64  `yaml:"fuel_surcharge_pct"`
	GSTPct              float64  `yaml:"gst_pct"`
	CODFee              float64  `yaml:"cod_fee"`
	SameRouteMultiplier float64  `yaml:"same_route_multiplier"`

	// per vendor code, replaces FuelSurchargePct for that vendor
	fuelOverrides map[string]float64
}

// Charge is one line of a price breakup.
type Charge struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// VendorRate is a generated quote. It is never persisted.
type VendorRate struct {
	ID               string   `json:"id"`
	VendorCode       string   `json:"vendorCode"`
	VendorName       string   `json:"vendorName"`
	TAT              string   `json:"tat"`
	ChargeableWeight float64  `json:"chargeableWeight"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	Breakup          []Charge `json:"breakup"`
}

// RateQuery is the input of RateCard.Generate.
type RateQuery struct {
	OriginPincode    string
	DestPincode      string
	ShipmentType     string
	IsCOD            bool
	ChargeableWeight float64
}

const (
	ChargeBaseFreight = "Base Freight"
	ChargeFuel        = "Fuel Surcharge"
	ChargeCOD         = "COD Charges"
	ChargeGST         = "GST"
)

// DefaultRateCard returns the built-in card: Delhivery, Bluedart and Ekart,
// 12% fuel, flat 40 COD fee, 18% GST, 5% off when the pincodes match.
func DefaultRateCard() RateCard {
	return RateCard{
		Vendors: []Vendor{
			{Code: "DELHIVERY", Name: "Delhivery", Base: 180, PerKg: 55, TAT: "2-3 days"},
			{Code: "BLUEDART", Name: "Bluedart", Base: 220, PerKg: 65, TAT: "1-2 days"},
			{Code: "EKART", Name: "Ekart", Base: 160, PerKg: 50, TAT: "3-5 days"},
		},
		FuelSurchargePct:    12,
		GSTPct:              18,
		CODFee:              40,
		SameRouteMultiplier: 0.95,
	}
}

// GenerateVendorRates prices a shipment against the default rate card.
func GenerateVendorRates(originPincode, destPincode, shipmentType string, isCOD bool, chargeableWeight float64) []VendorRate {
	return DefaultRateCard().Generate(RateQuery{
		OriginPincode:    originPincode,
		DestPincode:      destPincode,
		ShipmentType:     shipmentType,
		IsCOD:            isCOD,
		ChargeableWeight: chargeableWeight,
	})
}

// WithFuelSurcharges returns a copy of the card whose fuel percentage is
// replaced per vendor code. Codes are matched case-insensitively.
func (c RateCard) WithFuelSurcharges(pcts map[string]float64) RateCard {
	out := c
	out.Vendors = append([]Vendor(nil), c.Vendors...)
	out.fuelOverrides = make(map[string]float64, len(c.fuelOverrides)+len(pcts))
	for k, v := range c.fuelOverrides {
		out.fuelOverrides[k] = v
	}
	for k, v := range pcts {
		out.fuelOverrides[strings.ToUpper(k)] = v
	}
	return out
}

// FuelPct returns the fuel surcharge percentage applied to a vendor.
func (c RateCard) FuelPct(vendorCode string) float64 {
	if pct, ok := c.fuelOverrides[strings.ToUpper(vendorCode)]; ok {
		return pct
	}
	return c.FuelSurchargePct
}

// Generate returns one quote per vendor, in card order.
func (c RateCard) Generate(q RateQuery) []VendorRate {
	weight := decimal.NewFromFloat(num(q.ChargeableWeight))
	multiplier := decimal.NewFromInt(1)
	if strings.TrimSpace(q.OriginPincode) == strings.TrimSpace(q.DestPincode) {
		multiplier = decimal.NewFromFloat(c.SameRouteMultiplier)
	}
	hundred := decimal.NewFromInt(100)
	gstRate := decimal.NewFromFloat(c.GSTPct).Div(hundred)

	rates := make([]VendorRate, 0, len(c.Vendors))
	for _, v := range c.Vendors {
		baseFreight := decimal.NewFromFloat(v.Base).
			Add(weight.Mul(decimal.NewFromFloat(v.PerKg))).
			Mul(multiplier)
		fuel := baseFreight.Mul(decimal.NewFromFloat(c.FuelPct(v.Code))).Div(hundred)
		cod := decimal.Zero
		if q.IsCOD {
			cod = decimal.NewFromFloat(c.CODFee)
		}
		subtotal := baseFreight.Add(fuel).Add(cod)
		gst := subtotal.Mul(gstRate)
		total := subtotal.Add(gst)

		breakup := []Charge{
			{Label: ChargeBaseFreight, Amount: round2(baseFreight)},
			{Label: ChargeFuel, Amount: round2(fuel)},
		}
		if q.IsCOD {
			breakup = append(breakup, Charge{Label: ChargeCOD, Amount: round2(cod)})
		}
		breakup = append(breakup, Charge{Label: ChargeGST, Amount: round2(gst)})

		rates = append(rates, VendorRate{
			ID:               strings.ToLower(v.Code),
			VendorCode:       v.Code,
			VendorName:       v.Name,
			TAT:              v.TAT,
			ChargeableWeight: round2(weight),
			Price:            round2(total),
			Currency:         "INR",
			Breakup:          breakup,
		})
	}
	return rates
}

// Find returns the quote for vendorCode.
func Find(rates []VendorRate, vendorCode string) (VendorRate, bool) {
	for _, r := range rates {
		if strings.EqualFold(r.VendorCode, vendorCode) {
			return r, true
		}
	}
	return VendorRate{}, false
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
