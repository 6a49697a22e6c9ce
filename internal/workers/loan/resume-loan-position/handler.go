// internal/workers/loan/resume-loan-position/handler.go
package resumeloanposition

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
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/loan/wizard"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resume-loan-position"
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

	raw := []byte(job.Variables)
	err := inputSchema.Validate(raw).Err()
	if err == nil {
		err = validation.ApplicationSnapshot.ValidateField(raw, "application").Err()
	}
	var input Input
	if err == nil {
		if jsonErr := json.Unmarshal(raw, &input); jsonErr != nil {
			err = apperrors.NewInvalidInputError(jsonErr.Error())
		}
	}
	var output *Output
	if err == nil {
		output, err = h.execute(ctx, &input)
	}
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	app := input.Application
	if app == nil {
		return nil, apperrors.NewInvalidInputError("application is required")
	}

	// A recorded guarantor means one was required when the step was saved.
	if app.GuarantorID != "" {
		app.GuarantorRequired = true
	}

	step := wizard.ResumePosition(app, documents.Resolve(app.ProductType))
	out := &Output{
		Resumable:  wizard.CanResume(app),
		ResumeStep: int(step),
		StepName:   step.String(),
	}

	h.logger.Info("resume position computed", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"resumable":     out.Resumable,
		"step":          out.StepName,
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
