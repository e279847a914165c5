package server

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "casetrack-backend/internal/auth"
	"casetrack-backend/internal/cases"
	"casetrack-backend/internal/mail"
	"casetrack-backend/internal/reminders"
	"casetrack-backend/internal/schedule"
	"casetrack-backend/internal/shared/config"
	"casetrack-backend/internal/shared/metrics"
	"casetrack-backend/internal/shared/server/middleware"
	"casetrack-backend/internal/shared/server/respond"
	"casetrack-backend/internal/shared/storage/object"
	"casetrack-backend/internal/uploads"
)

// RouterDeps carries the pre-built handlers the router wires up.
type RouterDeps struct {
	Config           config.Config
	CasesHandler     *cases.Handler
	ScheduleHandler  *schedule.Handler
	MailHandler      *mail.Handler
	RemindersHandler *reminders.Handler
	GoogleAuth       *googleauth.GoogleService
	Store            object.ObjectStore
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"MAIL": {Rate: 0.2, Burst: 3},
			},
			GroupFor: func(c *gin.Context) string {
				p := c.FullPath()
				if strings.HasSuffix(p, "/email") || strings.HasSuffix(p, "/reminders/send") {
					return "MAIL"
				}
				return ""
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	registerMeRoutes(api)
	if deps.CasesHandler != nil {
		deps.CasesHandler.RegisterRoutes(api)
	}
	if deps.ScheduleHandler != nil {
		deps.ScheduleHandler.RegisterRoutes(api)
	}
	if deps.MailHandler != nil {
		deps.MailHandler.RegisterRoutes(api)
	}
	if deps.RemindersHandler != nil {
		deps.RemindersHandler.RegisterRoutes(api)
	}
	uploads.RegisterRoutes(api)
	if deps.Store != nil {
		registerFileRoutes(api, deps.Store)
	}

	return r
}

// registerFileRoutes serves stored case files back to the client.
func registerFileRoutes(rg *gin.RouterGroup, store object.ObjectStore) {
	rg.GET("/files/*key", func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if key == "" {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}

		rc, err := store.Open(c.Request.Context(), key)
		if err != nil {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(filepath.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
