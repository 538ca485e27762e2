package utils

import "time"

const DateLayout = "2006-01-02"

// LocalDate formats t as a local-timezone calendar date (YYYY-MM-DD).
// This string is the partition key for all per-day aggregation; comparing
// two of them is how date rollover is detected.
func LocalDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// LocalTime formats t as a local time-of-day string. Display only.
func LocalTime(t time.Time) string {
	return t.In(time.Local).Format("15:04")
}

// ParseDate parses a YYYY-MM-DD string in the local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// DayStartLocal truncates t to local midnight.
func DayStartLocal(t time.Time) time.Time {
	tt := t.In(time.Local)
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.Local)
}

// DateRange enumerates every calendar date from start to end inclusive.
// Returns nil if end is before start or either string is malformed.
func DateRange(start, end string) []string {
	from, err := ParseDate(start)
	if err != nil {
		return nil
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil
	}
	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// DaysAgo reports how many whole calendar days before today the given
// date is. Today is 0, yesterday 1; future dates are negative.
func DaysAgo(date string, now time.Time) (int, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	today := DayStartLocal(now)
	return int(today.Sub(DayStartLocal(d)).Hours() / 24), nil
}
