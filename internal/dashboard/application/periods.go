package application

import (
	"time"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
)

// Period is a closed local-time range.
type Period struct {
	From time.Time
	To   time.Time
}

// Today spans local midnight to now.
func Today(now time.Time, loc *time.Location) Period {
	return Period{From: analytics.ResolutionDaily.Truncate(now, loc), To: now.In(loc)}
}

// Yesterday is the previous local day's bucket.
func Yesterday(now time.Time, loc *time.Location) time.Time {
	return analytics.ResolutionDaily.Truncate(now, loc).AddDate(0, 0, -1)
}

// LastWeek is the previous week's bucket, weeks starting Monday.
func LastWeek(now time.Time, loc *time.Location) time.Time {
	return analytics.ResolutionWeekly.Truncate(now, loc).AddDate(0, 0, -7)
}

// LastMonth is the previous month's bucket.
func LastMonth(now time.Time, loc *time.Location) time.Time {
	return analytics.ResolutionMonthly.Truncate(now, loc).AddDate(0, -1, 0)
}

// MonthToDate spans the current month's start to now.
func MonthToDate(now time.Time, loc *time.Location) Period {
	return Period{From: analytics.ResolutionMonthly.Truncate(now, loc), To: now.In(loc)}
}

// YearToDate spans January 1st to now.
func YearToDate(now time.Time, loc *time.Location) Period {
	local := now.In(loc)
	from := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)
	return Period{From: from, To: local}
}
