// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"staff-loans/internal/common/config"
	"staff-loans/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every loan worker handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// WorkerSet keeps the opened job workers so they can be closed on shutdown.
type WorkerSet struct {
	client  zbc.Client
	log     logger.Logger
	workers map[string]worker.JobWorker
}

func NewWorkerSet(client zbc.Client, log logger.Logger) *WorkerSet {
	return &WorkerSet{client: client, log: log, workers: make(map[string]worker.JobWorker)}
}

func (s *WorkerSet) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) {
	if !wcfg.Enabled {
		s.log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	s.workers[taskType] = s.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	s.log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

func (s *WorkerSet) TaskTypes() []string {
	out := make([]string, 0, len(s.workers))
	for taskType := range s.workers {
		out = append(out, taskType)
	}
	return out
}

// Stop closes every worker and waits for in-flight jobs or ctx expiry.
func (s *WorkerSet) Stop(ctx context.Context) {
	for taskType, w := range s.workers {
		s.log.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		w.Close()

		done := make(chan struct{})
		go func() {
			w.AwaitClose()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			s.log.Warn("worker did not stop in time", map[string]interface{}{"taskType": taskType})
			return
		case <-time.After(10 * time.Second):
		}
	}
}
