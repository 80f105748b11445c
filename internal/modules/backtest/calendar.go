package backtest

import "time"

// DateLayout is the wire format for all dates in reports.
const DateLayout = "2006-01-02"

// ShiftYears moves a date by n calendar years, mapping Feb 29 to Feb 28 when
// the target year is not a leap year. time.AddDate would roll over to Mar 1
// instead, which shifts every anniversary of a leap-day start.
func ShiftYears(t time.Time, n int) time.Time {
	year := t.Year() + n
	day := t.Day()
	if t.Month() == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, t.Month(), day, 0, 0, 0, 0, t.Location())
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// RebalanceDate pairs an as-of date with the end of its holding period.
type RebalanceDate struct {
	AsOf time.Time
	End  time.Time
}

// AsOfDates builds the walk-forward schedule: annual as-of dates anchored on
// today's calendar day, from years ago up to the last date whose full holding
// period has already elapsed. A point is skipped when its fundamentals cutoff
// predates the earliest available statement (minStatementDate, when known) or
// when its holding period has not finished yet. Dates come back ascending.
func AsOfDates(today time.Time, years, holdingYears, lagDays int, minStatementDate *time.Time) []RebalanceDate {
	today = truncateDay(today)
	var out []RebalanceDate
	for back := years; back >= holdingYears; back-- {
		asOf := ShiftYears(today, -back)
		end := ShiftYears(asOf, holdingYears)
		if end.After(today) {
			continue
		}
		if minStatementDate != nil {
			cutoff := asOf.AddDate(0, 0, -lagDays)
			if cutoff.Before(truncateDay(*minStatementDate)) {
				continue
			}
		}
		out = append(out, RebalanceDate{AsOf: asOf, End: end})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
