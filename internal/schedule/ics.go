package schedule

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"casetrack-backend/internal/cases"
)

// BuildICS serializes the hearings of Active cases as an iCalendar feed of
// all-day events, one VEVENT per hearing. Hearings that fail to parse as a
// calendar date are skipped rather than breaking the whole feed.
func BuildICS(list []cases.Case, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//casetrack//hearings//EN")

	for _, c := range list {
		if c.Status != cases.StatusActive {
			continue
		}
		for _, h := range c.HearingDates {
			day, err := time.Parse(DateLayout, h.Date)
			if err != nil {
				continue
			}

			event := cal.AddEvent(fmt.Sprintf("%s-%s@casetrack", c.ID, h.ID))
			event.SetDtStampTime(now)
			event.SetAllDayStartAt(day)
			event.SetAllDayEndAt(day.Add(24 * time.Hour))
			event.SetSummary(fmt.Sprintf("%s - %s", c.ClientName, c.CaseNumber))
			event.SetLocation(c.CourtName)

			desc := ""
			if h.Time != nil {
				desc = "Time: " + *h.Time
			}
			if h.Notes != nil {
				if desc != "" {
					desc += "\n"
				}
				desc += *h.Notes
			}
			if desc != "" {
				event.SetDescription(desc)
			}
		}
	}

	return cal.Serialize()
}
