package reminders

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"casetrack-backend/internal/shared/server/middleware"
	"casetrack-backend/internal/shared/server/respond"
)

// Handler exposes the reminder dispatch endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches reminder routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reminders/send", h.send)
}

type sendReminderRequest struct {
	To string `json:"to"`
}

func (h *Handler) send(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req sendReminderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	recipient := strings.TrimSpace(req.To)
	if recipient == "" {
		recipient = middleware.UserEmailFromContext(c)
	}
	if recipient == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no recipient: provide \"to\" or sign in with an email", nil)
		return
	}

	queued, err := h.Svc.Dispatch(c.Request.Context(), userID, recipient, c.GetString("requestId"))
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "reminder_error", "failed to dispatch reminder", err.Error())
		return
	}

	status := http.StatusOK
	if queued {
		status = http.StatusAccepted
	}
	respond.JSON(c, status, gin.H{"queued": queued})
}
