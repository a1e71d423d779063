package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/newsstandhq/newsstand/pkg/config"
	"github.com/newsstandhq/newsstand/pkg/subscriptions"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const TaskExpireSubscriptions = "expire_subscriptions"

// Task is one unit of periodic background work.
type Task func(ctx context.Context) error

// Worker runs each registered task on its own timer until Shutdown.
type Worker struct {
	interval time.Duration
	log      logger.Logger

	tasks map[string]Task

	shutdown chan struct{}
	done     chan struct{}
}

func New(cfg *config.Config, db *bun.DB) *Worker {
	subscriptionService := subscriptions.NewService(db, cfg.DatabaseMaxRetries)

	w := newWorker(cfg.SubscriptionSweepInterval)
	w.tasks[TaskExpireSubscriptions] = func(ctx context.Context) error {
		_, err := subscriptionService.ExpireDue(ctx)
		return err
	}
	return w
}

func newWorker(interval time.Duration) *Worker {
	return &Worker{
		interval: interval,
		log:      logger.New(),
		tasks:    map[string]Task{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start() {
	for name, task := range w.tasks {
		go w.run(name, task)
	}
}

func (w *Worker) run(name string, task Task) {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-w.shutdown:
			w.done <- struct{}{}
			return
		case <-timer.C:
			id, err := uuid.NewRandom()
			if err != nil {
				w.log.Err(err).Error("new uuid error")
				timer.Reset(w.interval)
				continue
			}
			log := w.log.ID(id.String()).Root(logger.Data{"task": name})
			ctx := log.WithContext(context.Background())

			if err := task(ctx); err != nil {
				log.Err(err).Error("task error")
			}
			timer.Reset(w.interval)
		}
	}
}

// Shutdown stops every task loop, waiting for a running task to finish.
func (w *Worker) Shutdown() {
	close(w.shutdown)
	for range w.tasks {
		<-w.done
	}
}
