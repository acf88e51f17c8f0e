package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

// Worker consumes notification tasks and delivers them through a Mailer.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	mailer Mailer
}

func NewWorker(opt asynq.RedisClientOpt, concurrency int, mailer Mailer) *Worker {
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			emailQueue: 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		mailer: mailer,
	}
	w.mux.HandleFunc(TypeResetPasswordEmail, w.handleResetPasswordEmail)
	return w
}

// Start runs the worker in the background. Errors other than a clean
// shutdown are logged; the request path never depends on the worker.
func (w *Worker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil && err != asynq.ErrServerClosed {
			log.Printf("Task worker stopped with error: %v", err)
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleResetPasswordEmail(ctx context.Context, t *asynq.Task) error {
	var p ResetPasswordEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid reset email payload: %w", err)
	}
	return w.mailer.SendResetPasswordEmail(ctx, p)
}
