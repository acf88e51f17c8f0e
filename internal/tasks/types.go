package tasks

import "context"

// Task type names registered with the queue.
const (
	TypeResetPasswordEmail = "email:reset_password"
)

// ResetPasswordEmailPayload carries everything the mail transport needs
// to deliver a reset notification. The raw token appears only inside
// the reset URL; it is never persisted.
type ResetPasswordEmailPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	TeamName string `json:"teamName"`
	ResetURL string `json:"resetUrl"`
}

// Scheduler enqueues notification tasks. Scheduling is best-effort from
// the request path: callers log failures and continue, the queue owns
// retry and backoff.
type Scheduler interface {
	ScheduleResetPasswordEmail(ctx context.Context, p ResetPasswordEmailPayload) error
}

// Mailer delivers a notification. The worker resolves payloads to
// Mailer calls; the actual transport (SMTP, provider API) sits behind
// this interface.
type Mailer interface {
	SendResetPasswordEmail(ctx context.Context, p ResetPasswordEmailPayload) error
}
