package reminders

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"casetrack-backend/internal/cases"
	"casetrack-backend/internal/mail"
	"casetrack-backend/internal/queue"
	"casetrack-backend/internal/schedule"
	"casetrack-backend/internal/shared/metrics"
	"casetrack-backend/internal/shared/telemetry"
)

// Service composes hearing-reminder emails from the schedule views and
// delivers them, either inline through the mailer or via the queue when one
// is configured.
type Service struct {
	Cases  *cases.Service
	Mailer mail.Mailer
	Queue  queue.Client
	Now    func() time.Time
}

// NewService constructs a Service. now may be nil.
func NewService(casesSvc *cases.Service, mailer mail.Mailer, q queue.Client, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{Cases: casesSvc, Mailer: mailer, Queue: q, Now: now}
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<h2>Hearing reminder</h2>
{{if .Today}}
<h3>Today ({{.TodayDate}})</h3>
<ul>
{{range .Today}}<li><strong>{{.ClientName}}</strong> ({{.CaseNumber}}) at {{.CourtName}}{{if .Time}}, {{.Time}}{{end}}</li>
{{end}}</ul>
{{end}}
{{if .Week}}
<h3>Next 7 days</h3>
<ul>
{{range .Week}}<li>{{.Date}}: <strong>{{.ClientName}}</strong> ({{.CaseNumber}}){{if .Time}}, {{.Time}}{{end}}</li>
{{end}}</ul>
{{end}}
`))

type todayEntry struct {
	ClientName string
	CaseNumber string
	CourtName  string
	Time       string
}

type weekEntry struct {
	Date       string
	ClientName string
	CaseNumber string
	Time       string
}

type reminderData struct {
	TodayDate string
	Today     []todayEntry
	Week      []weekEntry
}

// Compose builds the reminder subject and HTML body for a user. The third
// return value is the number of hearings covered; zero means there is
// nothing worth sending.
func (s *Service) Compose(ctx context.Context, userID string) (string, string, int, error) {
	list, err := s.Cases.List(ctx, userID)
	if err != nil {
		return "", "", 0, fmt.Errorf("load cases: %w", err)
	}

	now := s.Now()
	today := schedule.Today(now)

	data := reminderData{TodayDate: today}
	for _, c := range schedule.TodaysHearings(list, today) {
		entry := todayEntry{
			ClientName: c.ClientName,
			CaseNumber: c.CaseNumber,
			CourtName:  c.CourtName,
		}
		for _, h := range c.HearingDates {
			if h.Date == today && h.Time != nil {
				entry.Time = *h.Time
				break
			}
		}
		data.Today = append(data.Today, entry)
	}
	for _, u := range schedule.UpcomingWeek(list, now) {
		entry := weekEntry{
			Date:       u.Hearing.Date,
			ClientName: u.ClientName,
			CaseNumber: u.CaseNumber,
		}
		if u.Hearing.Time != nil {
			entry.Time = *u.Hearing.Time
		}
		data.Week = append(data.Week, entry)
	}

	count := len(data.Today) + len(data.Week)
	if count == 0 {
		return "", "", 0, nil
	}

	var body strings.Builder
	if err := reminderTemplate.Execute(&body, data); err != nil {
		return "", "", 0, fmt.Errorf("render reminder: %w", err)
	}

	subject := fmt.Sprintf("Hearing reminder: %d upcoming", count)
	if len(data.Today) > 0 {
		subject = fmt.Sprintf("Hearing reminder: %d today, %d this week", len(data.Today), len(data.Week))
	}
	return subject, body.String(), count, nil
}

// SendNow composes and sends the reminder inline. It reports whether an
// email went out; an empty schedule sends nothing and is not an error.
func (s *Service) SendNow(ctx context.Context, userID, recipient string) (bool, error) {
	subject, html, count, err := s.Compose(ctx, userID)
	if err != nil {
		return false, err
	}
	if count == 0 {
		telemetry.Info("reminders.skipped", map[string]any{
			"user_id": userID,
			"reason":  "no upcoming hearings",
		})
		return false, nil
	}
	if err := s.Mailer.Send(ctx, recipient, subject, html); err != nil {
		metrics.IncRemindersFailed()
		return false, fmt.Errorf("send reminder: %w", err)
	}
	metrics.IncRemindersSent()
	return true, nil
}

// Dispatch enqueues the reminder when a queue is configured, otherwise
// sends inline. It reports whether the work was queued.
func (s *Service) Dispatch(ctx context.Context, userID, recipient, requestID string) (bool, error) {
	if s.Queue == nil {
		_, err := s.SendNow(ctx, userID, recipient)
		return false, err
	}

	msg := queue.Message{
		UserID:     userID,
		Recipient:  recipient,
		RequestID:  requestID,
		EnqueuedAt: s.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("enqueue reminder: %w", err)
	}
	return true, nil
}

// Schedule registers a recurring reminder for one recipient on the given
// cron spec.
func (s *Service) Schedule(c *cron.Cron, spec, userID, recipient string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sent, err := s.SendNow(ctx, userID, recipient)
		if err != nil {
			telemetry.Error("reminders.cron.failed", map[string]any{
				"user_id": userID,
				"err":     err.Error(),
			})
			return
		}
		telemetry.Info("reminders.cron.ran", map[string]any{
			"user_id": userID,
			"sent":    sent,
		})
	})
}
