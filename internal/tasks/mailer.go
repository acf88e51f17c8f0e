package tasks

import (
	"context"
	"log"
)

// LogMailer writes notifications to the process log. It stands in for a
// real mail transport in development and tests.
type LogMailer struct{}

func (LogMailer) SendResetPasswordEmail(ctx context.Context, p ResetPasswordEmailPayload) error {
	log.Printf("[Mail] Password reset for %s (%s): %s", p.Name, p.Email, p.ResetURL)
	return nil
}
