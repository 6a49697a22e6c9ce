// internal/workers/loan/compute-affordability/handler.go
package computeaffordability

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"staff-loans/internal/common/camunda"
	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/common/observability"
	"staff-loans/internal/common/validation"
	"staff-loans/internal/loan/affordability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	TaskType = "compute-affordability"
)

var inputSchema = validation.MustCompile(TaskType, inputSchemaJSON)

type Handler struct {
	config       *Config
	obs          *observability.Observability
	validate     *validator.Validate
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		obs:          obs,
		validate:     newValidator(),
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

// newValidator compares decimals numerically in gte/lte tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
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

	output, err := h.run(ctx, job.Variables)
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

func (h *Handler) run(ctx context.Context, variables string) (*Output, error) {
	if err := inputSchema.Validate([]byte(variables)).Err(); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return h.execute(ctx, &input)
}

// execute fails with AFFORDABILITY_UNDEFINED when salary or tenure is not
// positive. A requested amount is capped, never rejected.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if err := h.validate.Struct(input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	ceiling, ok := affordability.Ceiling(input.NetSalary, input.TenureDuration)
	if !ok {
		return nil, apperrors.NewAffordabilityUndefinedError(
			fmt.Sprintf("netSalary=%s tenureDuration=%d", input.NetSalary.String(), input.TenureDuration))
	}

	out := &Output{
		MaxLoanAmount:       ceiling,
		MaxMonthlyRepayment: affordability.MaxMonthlyRepayment(input.NetSalary),
		LoanAmount:          ceiling,
	}
	if input.LoanAmount != nil {
		out.LoanAmount, out.Clamped = affordability.Clamp(*input.LoanAmount, input.NetSalary, input.TenureDuration)
	}

	h.logger.Info("affordability computed", map[string]interface{}{
		"tenureDuration": input.TenureDuration,
		"maxLoanAmount":  ceiling.String(),
		"clamped":        out.Clamped,
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
