package service

import "time"

// NextOccurrence computes the next future occurrence of hour:minute on the
// anchor weekday, in loc. When now already falls on the anchor weekday the
// result is a full week out, even if hour:minute has not yet passed today.
// Pure function of its arguments; deterministic for a fixed now.
func NextOccurrence(now time.Time, anchor time.Weekday, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)

	days := (int(anchor) - int(local.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}

	target := local.AddDate(0, 0, days)
	return time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, loc)
}

// FormatOccurrenceDate renders the date part used in broadcast titles,
// e.g. "3/9/25"
func FormatOccurrenceDate(t time.Time) string {
	return t.Format("1/2/06")
}
