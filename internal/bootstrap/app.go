package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	googleauth "casetrack-backend/internal/auth"
	"casetrack-backend/internal/cases"
	"casetrack-backend/internal/mail"
	"casetrack-backend/internal/queue"
	"casetrack-backend/internal/reminders"
	"casetrack-backend/internal/schedule"
	"casetrack-backend/internal/shared/config"
	"casetrack-backend/internal/shared/server"
	"casetrack-backend/internal/shared/storage/db"
	"casetrack-backend/internal/shared/storage/object"
	localstore "casetrack-backend/internal/shared/storage/object/local"
	s3store "casetrack-backend/internal/shared/storage/object/s3"
)

const localFileURLBase = "/api/v1/files"

// App holds shared dependencies for the API and the worker.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	Cron              *cron.Cron
	CasesRepo         cases.Repo
	CasesService      *cases.Service
	Mailer            mail.Mailer
	RemindersService  *reminders.Service
	ReminderProcessor ReminderProcessor
	CasesHandler      *cases.Handler
	ScheduleHandler   *schedule.Handler
	MailHandler       *mail.Handler
	RemindersHandler  *reminders.Handler
	GoogleAuth        *googleauth.GoogleService
}

// ReminderProcessor allows callers to override reminder processing for tests.
type ReminderProcessor interface {
	SendNow(ctx context.Context, userID, recipient string) (bool, error)
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		CasesHandler:     app.CasesHandler,
		ScheduleHandler:  app.ScheduleHandler,
		MailHandler:      app.MailHandler,
		RemindersHandler: app.RemindersHandler,
		GoogleAuth:       app.GoogleAuth,
		Store:            app.Store,
	})

	if err := scheduleReminders(app); err != nil {
		return nil, err
	}

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir, localFileURLBase), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("CT_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var repo cases.Repo
	if app.DB != nil {
		repo = &cases.PGRepo{DB: app.DB}
	} else {
		repo = cases.NewMemoryRepo()
	}

	caseSvc := &cases.Service{
		Repo:  repo,
		Store: app.Store,
	}

	mailer := mail.NewResendMailer(app.Config.ResendAPIKey, app.Config.MailFrom)
	reminderSvc := reminders.NewService(caseSvc, mailer, app.Queue, nil)

	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
	)

	app.CasesRepo = repo
	app.CasesService = caseSvc
	app.Mailer = mailer
	app.RemindersService = reminderSvc
	app.ReminderProcessor = reminderSvc
	app.CasesHandler = cases.NewHandler(caseSvc)
	app.ScheduleHandler = schedule.NewHandler(caseSvc, nil)
	app.MailHandler = mail.NewHandler(mailer)
	app.RemindersHandler = reminders.NewHandler(reminderSvc)
	app.GoogleAuth = googleAuthSvc
}

// scheduleReminders starts the cron loop when a recurring reminder is
// configured. All three settings are required to turn it on.
func scheduleReminders(app *App) error {
	spec := strings.TrimSpace(app.Config.ReminderCron)
	recipient := strings.TrimSpace(app.Config.ReminderTo)
	userID := strings.TrimSpace(app.Config.ReminderUserID)
	if spec == "" {
		return nil
	}
	if recipient == "" || userID == "" {
		return fmt.Errorf("REMINDER_CRON requires REMINDER_TO and REMINDER_USER_ID")
	}

	c := cron.New(cron.WithLocation(time.Local))
	if _, err := app.RemindersService.Schedule(c, spec, userID, recipient); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	c.Start()
	app.Cron = c
	return nil
}
