// Package expiry generates the monthly VIX expiration calendar.
package expiry

import (
	"fmt"
	"time"
)

// DefaultLookahead extends the calendar past the end of the requested range so
// that cycles already in progress at the range boundary are still covered.
const DefaultLookahead = 90 * 24 * time.Hour

// monthCodes is the standard financial-futures month letter convention.
var monthCodes = [12]string{"F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

// Date represents one monthly expiration. Date always falls on the third
// Wednesday of its month.
type Date struct {
	Date  time.Time `json:"expiry_date"`
	Year  int       `json:"year"`
	Month int       `json:"month"`
}

// MonthCode returns the futures month letter for this expiry (F=Jan .. Z=Dec).
func (d Date) MonthCode() string {
	return monthCodes[d.Month-1]
}

// CalendarCode returns the month letter concatenated with the 2-digit year,
// e.g. "Q25" for August 2025. Used for calendar-style futures symbols.
func (d Date) CalendarCode() string {
	return fmt.Sprintf("%s%02d", d.MonthCode(), d.Year%100)
}

// RollDate returns the last day the position is held: one calendar day before
// expiration.
func (d Date) RollDate() time.Time {
	return d.Date.AddDate(0, 0, -1)
}

// String formats the expiry as YYYY-MM-DD.
func (d Date) String() string {
	return d.Date.Format("2006-01-02")
}

// ThirdWednesday returns the third Wednesday of the given month. The
// computation is independent of month length and leap years: find the first
// Wednesday, then advance two weeks.
func ThirdWednesday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysToFirstWed := (int(time.Wednesday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, daysToFirstWed+14)
}

// Calendar returns one Date per month, starting with the month containing
// start and ending with the month containing end+lookahead, ordered ascending.
// The lookahead buffer keeps cycles that are already in progress at the range
// boundary in scope. A negative lookahead is treated as zero. The sequence is
// deterministic and restartable: the same inputs always yield the same dates.
func Calendar(start, end time.Time, lookahead time.Duration) []Date {
	if lookahead < 0 {
		lookahead = 0
	}
	horizon := end.Add(lookahead)

	var out []Date
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(horizon) {
		out = append(out, Date{
			Date:  ThirdWednesday(cur.Year(), cur.Month()),
			Year:  cur.Year(),
			Month: int(cur.Month()),
		})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}
