// internal/workers/loan/validate-loan-step/handler.go
package validateloanstep

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"staff-loans/internal/common/camunda"
	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/common/observability"
	"staff-loans/internal/common/validation"
	"staff-loans/internal/loan/catalog"
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/loan/wizard"
	"staff-loans/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-loan-step"
)

var inputSchema = validation.MustCompile(TaskType, inputSchemaJSON)

// ProductFinder resolves the product an application refers to.
type ProductFinder interface {
	Find(ctx context.Context, id string) (models.LoanProduct, error)
}

type Handler struct {
	config       *Config
	products     ProductFinder
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. With a nil products finder the product is
// taken from the application as given.
func NewHandler(config *Config, products ProductFinder, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		products:     products,
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

	input, err := parseInput(job.Variables)
	if err == nil {
		var output *Output
		output, err = h.execute(ctx, input)
		if err == nil {
			if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
				h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
				return
			}
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "success")
			return
		}
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func parseInput(variables string) (*Input, error) {
	raw := []byte(variables)
	if err := inputSchema.Validate(raw).Err(); err != nil {
		return nil, err
	}
	if err := validation.ApplicationSnapshot.ValidateField(raw, "application").Err(); err != nil {
		return nil, err
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// execute reports a failed validation in the output so the process can route
// back to the step. Only malformed input fails the job.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	step := wizard.Step(input.Step)
	if !step.Valid() {
		return nil, apperrors.NewInvalidInputError("step must be between 1 and 6")
	}
	if input.Application == nil {
		return nil, apperrors.NewInvalidInputError("application is required")
	}

	out := &Output{Step: int(step), StepName: step.String(), NextStep: int(step)}

	if h.products != nil && input.Application.LoanProductID != "" {
		product, err := h.products.Find(ctx, input.Application.LoanProductID)
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			out.Field = "selectedProduct"
			out.Reason = "The selected loan product is no longer available."
			out.NextStep = int(wizard.StepProductSelect)
			metrics.WizardStepTransitions.WithLabelValues(step.String(), "rejected").Inc()
			return out, nil
		case err != nil:
			return nil, apperrors.NewProductCatalogFailedError(err)
		}
		input.Application.SelectProduct(product)
	}

	facts := wizard.Facts{
		Requirements: documents.Resolve(input.Application.ProductType),
		Candidates:   input.Candidates,
	}

	err := wizard.ValidateStep(step, input.Application, facts)

	var verr *apperrors.ValidationError
	switch {
	case err == nil:
		out.Valid = true
		if step < wizard.StepReview {
			out.NextStep = int(step + 1)
		}
		metrics.WizardStepTransitions.WithLabelValues(step.String(), "advanced").Inc()
	case errors.As(err, &verr):
		out.Field = verr.Field
		out.Reason = verr.Reason
		metrics.WizardStepTransitions.WithLabelValues(step.String(), "rejected").Inc()
	default:
		return nil, err
	}

	h.logger.Info("loan step validated", map[string]interface{}{
		"applicationId": input.Application.ApplicationID,
		"step":          out.StepName,
		"valid":         out.Valid,
		"field":         out.Field,
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
