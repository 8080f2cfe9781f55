package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGroupBookings_Day(t *testing.T) {
	points := []BookingPoint{
		{At: at("2026-10-16T18:00:00Z"), Amount: 300},
		{At: at("2026-10-15T09:00:00Z"), Amount: 100},
		{At: at("2026-10-15T21:30:00Z"), Amount: 100.5},
		{At: at("2026-10-17T08:00:00Z"), Amount: 290},
	}

	got := GroupBookings(points, "day")
	require.Len(t, got, 3)

	assert.Equal(t, "2026-10-15", got[0].Label)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 200.5, got[0].Amount)
	assert.Equal(t, 100.25, got[0].Average)
	assert.Equal(t, "stable", got[0].Trend)

	assert.Equal(t, "2026-10-16", got[1].Label)
	assert.Equal(t, 49.63, got[1].Growth)
	assert.Equal(t, "up", got[1].Trend)

	assert.Equal(t, -3.33, got[2].Growth)
	assert.Equal(t, "stable", got[2].Trend)
}

func TestGroupBookings_WeekAndMonth(t *testing.T) {
	points := []BookingPoint{
		{At: at("2026-10-12T10:00:00Z"), Amount: 10}, // Monday
		{At: at("2026-10-18T10:00:00Z"), Amount: 10}, // Sunday, same ISO week
		{At: at("2026-10-19T10:00:00Z"), Amount: 5},
		{At: at("2026-09-30T10:00:00Z"), Amount: 40},
	}

	weeks := GroupBookings(points, "week")
	require.Len(t, weeks, 3)
	assert.Equal(t, "2026-W40", weeks[0].Label)
	assert.Equal(t, "2026-W42", weeks[1].Label)
	assert.Equal(t, 2, weeks[1].Count)
	assert.Equal(t, at("2026-10-12T00:00:00Z"), weeks[1].Start)
	assert.Equal(t, "down", weeks[2].Trend)

	months := GroupBookings(points, "month")
	require.Len(t, months, 2)
	assert.Equal(t, "2026-09", months[0].Label)
	assert.Equal(t, 25.0, months[1].Amount)
	assert.Equal(t, -37.5, months[1].Growth)
}

func TestGroupBookings_Empty(t *testing.T) {
	assert.Empty(t, GroupBookings(nil, "day"))
}
