package mail

import "context"

// Mailer delivers an HTML email to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}
