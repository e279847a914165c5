package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"casetrack-backend/internal/cases"
)

func newQueryRouter(t *testing.T, svc *cases.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(svc, func() time.Time {
		return time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "u1")
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func seedQueryCase(t *testing.T, svc *cases.Service, client, number string, dates ...string) {
	t.Helper()
	hearings := make([]cases.HearingDate, 0, len(dates))
	for _, d := range dates {
		hearings = append(hearings, cases.HearingDate{Date: d})
	}
	_, err := svc.CreateCase(context.Background(), "u1", cases.CreateCaseInput{
		ClientName:   client,
		CaseNumber:   number,
		CourtName:    "District Court",
		HearingDates: hearings,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", number, err)
	}
}

func getJSON(t *testing.T, r *gin.Engine, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if out != nil && resp.Code == http.StatusOK {
		if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.Code
}

func TestListFiltersAndSortsByUrgency(t *testing.T) {
	svc := &cases.Service{Repo: cases.NewMemoryRepo()}
	r := newQueryRouter(t, svc)

	seedQueryCase(t, svc, "John Smith", "CN-1", "2026-03-20")
	seedQueryCase(t, svc, "Jane Doe", "CN-2", "2026-03-11")
	seedQueryCase(t, svc, "Smithers", "CN-3", "2026-03-15")

	var list []struct {
		CaseNumber  string `json:"caseNumber"`
		NextHearing *struct {
			Date string `json:"date"`
		} `json:"nextHearing"`
	}
	if code := getJSON(t, r, "/api/v1/cases?q=smith&sort=urgency", &list); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}
	// Smithers hears sooner, so it sorts first.
	if list[0].CaseNumber != "CN-3" || list[1].CaseNumber != "CN-1" {
		t.Fatalf("unexpected order: %s, %s", list[0].CaseNumber, list[1].CaseNumber)
	}
	if list[0].NextHearing == nil || list[0].NextHearing.Date != "2026-03-15" {
		t.Fatalf("expected next hearing on CN-3: %+v", list[0].NextHearing)
	}
}

func TestTodayEndpoint(t *testing.T) {
	svc := &cases.Service{Repo: cases.NewMemoryRepo()}
	r := newQueryRouter(t, svc)

	seedQueryCase(t, svc, "John Smith", "CN-1", "2026-03-10")
	seedQueryCase(t, svc, "Jane Doe", "CN-2", "2026-03-12")

	var list []struct {
		CaseNumber string `json:"caseNumber"`
	}
	if code := getJSON(t, r, "/api/v1/hearings/today", &list); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(list) != 1 || list[0].CaseNumber != "CN-1" {
		t.Fatalf("expected only CN-1 today, got %v", list)
	}
}

func TestUpcomingEndpointFlattensHearings(t *testing.T) {
	svc := &cases.Service{Repo: cases.NewMemoryRepo()}
	r := newQueryRouter(t, svc)

	// Two upcoming hearings for one case; one beyond the window.
	seedQueryCase(t, svc, "John Smith", "CN-1", "2026-03-11", "2026-03-17", "2026-03-30")

	var list []struct {
		Date       string `json:"date"`
		CaseID     string `json:"caseId"`
		ClientName string `json:"clientName"`
	}
	if code := getJSON(t, r, "/api/v1/hearings/upcoming", &list); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].Date != "2026-03-11" || list[1].Date != "2026-03-17" {
		t.Fatalf("unexpected dates: %s, %s", list[0].Date, list[1].Date)
	}
	if list[0].CaseID == "" || list[0].ClientName != "John Smith" {
		t.Fatalf("entry missing case fields: %+v", list[0])
	}
}

func TestCalendarEndpointServesICS(t *testing.T) {
	svc := &cases.Service{Repo: cases.NewMemoryRepo()}
	r := newQueryRouter(t, svc)

	seedQueryCase(t, svc, "John Smith", "CN-1", "2026-03-12")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar.ics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("unexpected content type: %q", ct)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "John Smith - CN-1") {
		t.Fatalf("calendar body missing event: %q", body)
	}
}
