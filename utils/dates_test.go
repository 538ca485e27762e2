package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDate(t *testing.T) {
	ts := time.Date(2025, 1, 1, 23, 59, 0, 0, time.Local)
	assert.Equal(t, "2025-01-01", LocalDate(ts))
	assert.Equal(t, "2025-01-02", LocalDate(ts.Add(time.Minute)))
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", LocalDate(d))

	_, err = ParseDate("15/03/2025")
	assert.Error(t, err)
}

func TestDateRange(t *testing.T) {
	got := DateRange("2025-01-30", "2025-02-02")
	assert.Equal(t, []string{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}, got)

	assert.Equal(t, []string{"2025-01-30"}, DateRange("2025-01-30", "2025-01-30"))
	assert.Nil(t, DateRange("2025-02-02", "2025-01-30"))
	assert.Nil(t, DateRange("bogus", "2025-01-30"))
}

func TestDaysAgo(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local)

	cases := []struct {
		date string
		want int
	}{
		{"2025-06-10", 0},
		{"2025-06-09", 1},
		{"2025-05-11", 30},
		{"2025-06-11", -1},
	}
	for _, tc := range cases {
		got, err := DaysAgo(tc.date, now)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.date)
	}

	_, err := DaysAgo("not-a-date", now)
	assert.Error(t, err)
}
