package utils

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BookingPoint is one booking reduced to what the dashboard aggregates.
type BookingPoint struct {
	At     time.Time
	Amount float64
}

// PeriodTotal summarises the bookings of one period.
type PeriodTotal struct {
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	Count   int       `json:"count"`
	Amount  float64   `json:"amount"`
	Growth  float64   `json:"growthPct"`
	Trend   string    `json:"trend"`
	Average float64   `json:"averageAmount"`
}

// periodStart truncates t to the start of its day, ISO week or month.
func periodStart(t time.Time, period string) (time.Time, string) {
	y, m, d := t.Date()
	switch period {
	case "week":
		day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		year, week := start.ISOWeek()
		return start, fmt.Sprintf("%d-W%02d", year, week)
	case "month":
		start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
		return start, start.Format("2006-01")
	default:
		start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		return start, start.Format(time.DateOnly)
	}
}

// GroupBookings buckets points by day, week or month, oldest first, and
// fills in the period-over-period growth of the booked amount.
func GroupBookings(points []BookingPoint, period string) []PeriodTotal {
	byLabel := map[string]*PeriodTotal{}
	for _, p := range points {
		start, label := periodStart(p.At, period)
		pt, ok := byLabel[label]
		if !ok {
			pt = &PeriodTotal{Label: label, Start: start}
			byLabel[label] = pt
		}
		pt.Count++
		pt.Amount += p.Amount
	}

	out := make([]PeriodTotal, 0, len(byLabel))
	for _, pt := range byLabel {
		pt.Amount = round2(pt.Amount)
		pt.Average = round2(pt.Amount / float64(pt.Count))
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })

	for i := range out {
		out[i].Trend = "stable"
		if i == 0 {
			continue
		}
		if prev := out[i-1].Amount; prev != 0 {
			out[i].Growth = round2((out[i].Amount - prev) / prev * 100)
		}
		out[i].Trend = trend(out[i].Growth)
	}
	return out
}

func trend(growth float64) string {
	switch {
	case growth > 5:
		return "up"
	case growth < -5:
		return "down"
	}
	return "stable"
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
