package tasks

import "context"

// SyncScheduler delivers notifications inline through the Mailer,
// without a queue. Used when the task queue is disabled; delivery stays
// best-effort because callers already treat scheduling errors as
// non-fatal.
type SyncScheduler struct {
	mailer Mailer
}

func NewSyncScheduler(mailer Mailer) *SyncScheduler {
	return &SyncScheduler{mailer: mailer}
}

func (s *SyncScheduler) ScheduleResetPasswordEmail(
	ctx context.Context,
	p ResetPasswordEmailPayload,
) error {
	return s.mailer.SendResetPasswordEmail(ctx, p)
}
