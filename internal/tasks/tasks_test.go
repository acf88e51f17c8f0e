package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []ResetPasswordEmailPayload
	err  error
}

func (m *recordingMailer) SendResetPasswordEmail(
	ctx context.Context,
	p ResetPasswordEmailPayload,
) error {
	m.sent = append(m.sent, p)
	return m.err
}

func TestSyncSchedulerDeliversInline(t *testing.T) {
	mailer := &recordingMailer{}
	s := NewSyncScheduler(mailer)

	p := ResetPasswordEmailPayload{
		Email:    "alice@example.com",
		Name:     "alice",
		TeamName: "Team Wiki",
		ResetURL: "http://localhost:8080/auth/password.callback?token=abc",
	}
	require.NoError(t, s.ScheduleResetPasswordEmail(context.Background(), p))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, p, mailer.sent[0])
}

func TestSyncSchedulerPropagatesMailerError(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	s := NewSyncScheduler(mailer)

	err := s.ScheduleResetPasswordEmail(context.Background(), ResetPasswordEmailPayload{})
	assert.Error(t, err)
}

func TestWorkerHandlesResetPasswordEmail(t *testing.T) {
	mailer := &recordingMailer{}
	w := &Worker{mailer: mailer}

	p := ResetPasswordEmailPayload{
		Email:    "alice@example.com",
		Name:     "alice",
		ResetURL: "http://localhost:8080/auth/password.callback?token=abc",
	}
	payload, err := json.Marshal(p)
	require.NoError(t, err)

	task := asynq.NewTask(TypeResetPasswordEmail, payload)
	require.NoError(t, w.handleResetPasswordEmail(context.Background(), task))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, p, mailer.sent[0])
}

func TestWorkerRejectsMalformedPayload(t *testing.T) {
	w := &Worker{mailer: &recordingMailer{}}

	task := asynq.NewTask(TypeResetPasswordEmail, []byte("not-json"))
	err := w.handleResetPasswordEmail(context.Background(), task)
	assert.Error(t, err)
}

func TestLogMailerNeverFails(t *testing.T) {
	err := LogMailer{}.SendResetPasswordEmail(
		context.Background(),
		ResetPasswordEmailPayload{Email: "alice@example.com"},
	)
	assert.NoError(t, err)
}
