// internal/workers/loan/score-loan-completeness/handler.go
package scoreloancompleteness

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"staff-loans/internal/common/camunda"
	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/common/observability"
	"staff-loans/internal/common/validation"
	"staff-loans/internal/loan/completeness"
	"staff-loans/internal/loan/wizard"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-loan-completeness"
)

var inputSchema = validation.MustCompile(TaskType, inputSchemaJSON)

type Handler struct {
	config       *Config
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		obs:          obs,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartSpan(ctx, TaskType, map[string]string{"jobKey": strconv.FormatInt(job.Key, 10)})
	defer span.End()

	var input Input
	if err := h.parse(job.Variables, &input); err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "success")
}

func (h *Handler) parse(variables string, input *Input) error {
	raw := []byte(variables)
	if err := inputSchema.Validate(raw).Err(); err != nil {
		return err
	}
	if err := validation.ApplicationSnapshot.ValidateField(raw, "application").Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, input); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Application == nil {
		return nil, apperrors.NewInvalidInputError("application is required")
	}

	app := input.Application
	score := completeness.ScoreApplication(app)
	metrics.CompletenessScore.WithLabelValues(string(app.ProductType)).Observe(score.Overall)

	out := &Output{
		Score:     score,
		Percent:   score.Percent(),
		Indicator: completeness.IndicatorFor(score),
		Complete:  completeness.IsComplete(score),
		Resumable: wizard.CanResume(app),
	}

	h.logger.Info("completeness scored", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"productType":   string(app.ProductType),
		"score":         out.Percent,
		"indicator":     string(out.Indicator),
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
