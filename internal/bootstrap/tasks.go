package bootstrap

import (
	"log"

	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/tasks"

	"github.com/hibiken/asynq"
)

// initializeTaskQueue sets up notification scheduling. With the queue
// enabled, reset emails go through asynq and an in-process worker
// delivers them; otherwise a synchronous scheduler delivers inline.
func initializeTaskQueue(cfg *config.Config) (tasks.Scheduler, func() error, *tasks.Worker) {
	mailer := tasks.LogMailer{}

	if !cfg.QueueEnabled {
		log.Println("Task queue disabled, delivering notifications inline")
		return tasks.NewSyncScheduler(mailer), nil, nil
	}

	opt := asynq.RedisClientOpt{
		Addr:     cfg.QueueRedisAddr,
		Password: cfg.QueueRedisPassword,
		DB:       cfg.QueueRedisDB,
	}

	scheduler := tasks.NewAsynqScheduler(opt)
	worker := tasks.NewWorker(opt, cfg.QueueConcurrency, mailer)
	worker.Start()

	log.Printf(
		"Task queue initialized (redis: %s, db: %d, concurrency: %d)",
		cfg.QueueRedisAddr, cfg.QueueRedisDB, cfg.QueueConcurrency,
	)
	return scheduler, scheduler.Close, worker
}
