// internal/workers/loan/resolve-loan-documents/handler.go
package resolveloandocuments

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"staff-loans/internal/common/camunda"
	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/common/observability"
	"staff-loans/internal/common/validation"
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-loan-documents"
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
	if err := inputSchema.Validate([]byte(job.Variables)).Err(); err != nil {
		h.fail(ctx, client, job, err)
		return
	}
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	output := h.execute(&input)

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "success")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// execute never fails: unknown product types resolve to the fallback set.
func (h *Handler) execute(input *Input) *Output {
	productType := models.ProductType(input.ProductType)
	reqs := documents.Resolve(productType)

	missing := documents.Keys(documents.MissingRequired(reqs, input.SupportingDocuments))
	if missing == nil {
		missing = []string{}
	}

	var unknown []string
	for key := range input.SupportingDocuments {
		if _, ok := documents.Lookup(reqs, key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	out := &Output{
		Requirements:     reqs,
		KnownProductType: documents.IsKnown(productType),
		MissingRequired:  missing,
		UnknownKeys:      unknown,
		DocumentsReady:   len(missing) == 0,
	}

	if !out.KnownProductType {
		h.logger.Warn("unknown product type, using fallback documents", map[string]interface{}{
			"productType": input.ProductType,
		})
	}
	return out
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	return h.execute(input), nil
}
