package booking

// NormalizeBoxRows rebalances rows so their quantities sum to boxesCount.
//
// Rows below qty 1 are raised to 1 first. Missing boxes are appended as new
// single-box rows; surplus boxes are taken from the last row backwards,
// dropping a row once it would fall below qty 1. Dropped rows lose whatever
// dimensions they carried. A count of zero or less yields no rows.
// The input slice is never modified.
func NormalizeBoxRows(rows []BoxRow, boxesCount int) []BoxRow {
	if boxesCount <= 0 {
		return []BoxRow{}
	}

	out := make([]BoxRow, 0, max(len(rows), boxesCount))
	total := 0
	for _, r := range rows {
		if r.Qty < 1 {
			r.Qty = 1
		}
		out = append(out, r)
		total += int(r.Qty)
	}

	for total < boxesCount {
		out = append(out, BoxRow{Qty: 1})
		total++
	}

	for total > boxesCount {
		last := &out[len(out)-1]
		excess := total - boxesCount
		if int(last.Qty) > excess {
			last.Qty -= Int(excess)
			total = boxesCount
			break
		}
		total -= int(last.Qty)
		out = out[:len(out)-1]
	}
	return out
}
