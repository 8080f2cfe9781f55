package booking

import "github.com/shopspring/decimal"

// GoodsRow is one line of the goods (commercial invoice) table. BoxNo is the
// box the goods travel in; it is not checked against the box table.
type GoodsRow struct {
	BoxNo       Int    `json:"boxNo"`
	Description string `json:"description"`
	HSNCode     string `json:"hsnCode"`
	Qty         Number `json:"qty"`
	Unit        string `json:"unit"`
	Rate        Number `json:"rate"`
	Amount      Number `json:"amount"`
}

// Recompute sets Amount = Qty * Rate, rounded to paise.
func (g *GoodsRow) Recompute() {
	amount := decimal.NewFromFloat(g.Qty.Float()).Mul(decimal.NewFromFloat(g.Rate.Float()))
	g.Amount = Number(amount.Round(2).InexactFloat64())
}

func (g *GoodsRow) SetQty(q float64) {
	g.Qty = Number(q)
	g.Recompute()
}

func (g *GoodsRow) SetRate(r float64) {
	g.Rate = Number(r)
	g.Recompute()
}

// RecomputeGoods refreshes every amount from its qty and rate.
func RecomputeGoods(rows []GoodsRow) {
	for i := range rows {
		rows[i].Recompute()
	}
}

// GoodsTotal sums the amounts of all rows.
func GoodsTotal(rows []GoodsRow) float64 {
	total := decimal.Zero
	for _, g := range rows {
		total = total.Add(decimal.NewFromFloat(g.Amount.Float()))
	}
	return total.Round(2).InexactFloat64()
}
