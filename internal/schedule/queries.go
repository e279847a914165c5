// Package schedule derives calendar views over a flat list of cases: the
// next hearing per case, today's hearings, the upcoming week, and the
// urgency ordering. All functions are pure; callers pass the reference
// instant explicitly. Dates compare as YYYY-MM-DD strings, which orders the
// same as calendar dates.
package schedule

import (
	"sort"
	"time"

	"casetrack-backend/internal/cases"
)

// DateLayout is the calendar-date form hearings are stored in.
const DateLayout = "2006-01-02"

// Today formats an instant as the local calendar date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Window returns the inclusive [from, to] calendar-date bounds for the next
// `days` days. The upper bound is a fixed days*24h offset from now; both
// bounds are truncated to date granularity before any comparison, so
// time-of-day components can never skew the window.
func Window(now time.Time, days int) (from, to string) {
	from = now.Format(DateLayout)
	to = now.Add(time.Duration(days) * 24 * time.Hour).Format(DateLayout)
	return from, to
}

// NextHearing returns the hearing with the earliest date on or after today.
// Ties break by insertion order. The second return value is false when the
// case has no future hearing.
func NextHearing(c cases.Case, today string) (cases.HearingDate, bool) {
	var next cases.HearingDate
	found := false
	for _, h := range c.HearingDates {
		if h.Date < today {
			continue
		}
		if !found || h.Date < next.Date {
			next = h
			found = true
		}
	}
	return next, found
}

// TodaysHearings returns the Active cases having at least one hearing dated
// today. Closed cases are excluded unconditionally.
func TodaysHearings(list []cases.Case, today string) []cases.Case {
	out := make([]cases.Case, 0)
	for _, c := range list {
		if c.Status != cases.StatusActive {
			continue
		}
		for _, h := range c.HearingDates {
			if h.Date == today {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// UpcomingHearing is a hearing flattened out of its case, carrying enough of
// the parent for display without a join.
type UpcomingHearing struct {
	Hearing    cases.HearingDate
	CaseID     string
	ClientName string
	CaseNumber string
}

// UpcomingWeek returns the individual hearings of Active cases falling in
// the inclusive [today, today+7d] window, ascending by date. The sort is
// stable, so same-day hearings keep case order.
func UpcomingWeek(list []cases.Case, now time.Time) []UpcomingHearing {
	from, to := Window(now, 7)

	out := make([]UpcomingHearing, 0)
	for _, c := range list {
		if c.Status != cases.StatusActive {
			continue
		}
		for _, h := range c.HearingDates {
			if h.Date < from || h.Date > to {
				continue
			}
			out = append(out, UpcomingHearing{
				Hearing:    h,
				CaseID:     c.ID,
				ClientName: c.ClientName,
				CaseNumber: c.CaseNumber,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hearing.Date < out[j].Hearing.Date
	})
	return out
}

// SortByUrgency returns the cases ordered ascending by next-hearing date.
// Cases with no future hearing sort after all cases that have one. The sort
// is stable: equal next-hearing dates and the no-next-hearing tail both keep
// input order. The input slice is not modified.
func SortByUrgency(list []cases.Case, today string) []cases.Case {
	type keyed struct {
		c    cases.Case
		date string
		has  bool
	}

	ks := make([]keyed, 0, len(list))
	for _, c := range list {
		next, ok := NextHearing(c, today)
		k := keyed{c: c, has: ok}
		if ok {
			k.date = next.Date
		}
		ks = append(ks, k)
	}

	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].has != ks[j].has {
			return ks[i].has
		}
		if !ks[i].has {
			return false
		}
		return ks[i].date < ks[j].date
	})

	out := make([]cases.Case, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.c)
	}
	return out
}
