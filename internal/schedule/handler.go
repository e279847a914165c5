package schedule

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"casetrack-backend/internal/cases"
	"casetrack-backend/internal/search"
	"casetrack-backend/internal/shared/server/middleware"
	"casetrack-backend/internal/shared/server/respond"
)

// Handler serves the derived views: the case list with search and urgency
// sort, today's hearings, the upcoming week, and the ICS feed.
type Handler struct {
	Svc *cases.Service
	Now func() time.Time
}

// NewHandler constructs a Handler. now may be nil, in which case time.Now
// is used.
func NewHandler(svc *cases.Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{Svc: svc, Now: now}
}

// RegisterRoutes attaches the query routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cases", h.list)
	rg.GET("/hearings/today", h.today)
	rg.GET("/hearings/upcoming", h.upcoming)
	rg.GET("/calendar.ics", h.calendar)
}

// listItem decorates a case with its derived next hearing.
type listItem struct {
	cases.CaseResponse
	NextHearing *cases.HearingResponse `json:"nextHearing,omitempty"`
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list cases")
		return
	}

	today := Today(h.Now())

	// Filter first, then sort.
	list = search.Cases(list, c.Query("q"))
	if c.Query("sort") == "urgency" {
		list = SortByUrgency(list, today)
	}

	resp := make([]listItem, 0, len(list))
	for _, item := range list {
		entry := listItem{CaseResponse: cases.ToResponse(item)}
		if next, ok := NextHearing(item, today); ok {
			hr := cases.HearingResponse{
				ID:    next.ID,
				Date:  next.Date,
				Time:  next.Time,
				Notes: next.Notes,
			}
			entry.NextHearing = &hr
		}
		resp = append(resp, entry)
	}
	respond.OK(c, resp)
}

func (h *Handler) today(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to load today's hearings")
		return
	}

	matched := TodaysHearings(list, Today(h.Now()))
	resp := make([]cases.CaseResponse, 0, len(matched))
	for _, item := range matched {
		resp = append(resp, cases.ToResponse(item))
	}
	respond.OK(c, resp)
}

// upcomingResponse is one flattened hearing of the next-7-days view.
type upcomingResponse struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Time       *string `json:"time,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	CaseID     string  `json:"caseId"`
	ClientName string  `json:"clientName"`
	CaseNumber string  `json:"caseNumber"`
}

func (h *Handler) upcoming(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to load upcoming hearings")
		return
	}

	week := UpcomingWeek(list, h.Now())
	resp := make([]upcomingResponse, 0, len(week))
	for _, u := range week {
		resp = append(resp, upcomingResponse{
			ID:         u.Hearing.ID,
			Date:       u.Hearing.Date,
			Time:       u.Hearing.Time,
			Notes:      u.Hearing.Notes,
			CaseID:     u.CaseID,
			ClientName: u.ClientName,
			CaseNumber: u.CaseNumber,
		})
	}
	respond.OK(c, resp)
}

func (h *Handler) calendar(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to build calendar")
		return
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="hearings.ics"`)
	c.String(http.StatusOK, BuildICS(list, h.Now()))
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, cases.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, err.Error())
}
