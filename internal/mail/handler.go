package mail

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"casetrack-backend/internal/shared/server/respond"
)

// Handler exposes a thin send-email endpoint over the Mailer.
type Handler struct {
	Mailer Mailer
}

// NewHandler constructs a Handler.
func NewHandler(m Mailer) *Handler {
	return &Handler{Mailer: m}
}

// RegisterRoutes attaches the mail route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/email", h.send)
}

type sendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (h *Handler) send(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.HTML) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "to, subject, and html are required", nil)
		return
	}

	if err := h.Mailer.Send(c.Request.Context(), req.To, req.Subject, req.HTML); err != nil {
		respond.Error(c, http.StatusBadGateway, "mail_error", "failed to send email", err.Error())
		return
	}
	respond.OK(c, gin.H{"success": true})
}
