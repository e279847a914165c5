package schedule

import (
	"strings"
	"testing"

	"casetrack-backend/internal/cases"
)

func TestBuildICSOneEventPerHearing(t *testing.T) {
	c := activeCase("case-1",
		hearing("h1", "2026-03-12"),
		hearing("h2", "2026-03-20"),
	)
	c.ClientName = "John Smith"
	c.CaseNumber = "CN-42"
	c.CourtName = "High Court"

	out := BuildICS([]cases.Case{c}, refNow)

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
	if !strings.Contains(out, "UID:case-1-h1@casetrack") {
		t.Fatalf("missing uid for h1:\n%s", out)
	}
	if !strings.Contains(out, "SUMMARY:John Smith - CN-42") {
		t.Fatalf("missing summary:\n%s", out)
	}
	if !strings.Contains(out, "LOCATION:High Court") {
		t.Fatalf("missing location:\n%s", out)
	}
	if !strings.Contains(out, "DTSTART;VALUE=DATE:20260312") {
		t.Fatalf("missing all-day start:\n%s", out)
	}
}

func TestBuildICSSkipsClosedAndUnparseable(t *testing.T) {
	closed := activeCase("closed", hearing("h1", "2026-03-12"))
	closed.Status = cases.StatusClosed
	bad := activeCase("bad", hearing("h2", "12/03/2026"))
	good := activeCase("good", hearing("h3", "2026-03-12"))

	out := BuildICS([]cases.Case{closed, bad, good}, refNow)

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 1 {
		t.Fatalf("expected 1 event, got %d", got)
	}
	if !strings.Contains(out, "UID:good-h3@casetrack") {
		t.Fatalf("expected the good hearing only:\n%s", out)
	}
}

func TestBuildICSDescriptionCarriesTimeAndNotes(t *testing.T) {
	h := hearing("h1", "2026-03-12")
	h.Time = strPtr("10:30")
	h.Notes = strPtr("Bring originals")
	c := activeCase("case-1", h)

	out := BuildICS([]cases.Case{c}, refNow)

	if !strings.Contains(out, "Time: 10:30") {
		t.Fatalf("missing hearing time in description:\n%s", out)
	}
	if !strings.Contains(out, "Bring originals") {
		t.Fatalf("missing hearing notes in description:\n%s", out)
	}
}
