// internal/workers/loan/record-guarantor-decision/handler.go
package recordguarantordecision

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
	"staff-loans/internal/loan/guarantor"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/bsm/redislock"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-guarantor-decision"
)

var inputSchema = validation.MustCompile(TaskType, inputSchemaJSON)

// Decider commits a guarantor decision at most once per loan.
type Decider interface {
	DecideGuarantor(ctx context.Context, loanID, staffID string, decision models.GuarantorDecision) (string, error)
}

type Handler struct {
	config       *Config
	decider      Decider
	locker       *redislock.Client
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, decider Decider, locker *redislock.Client, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		decider:      decider,
		locker:       locker,
		obs:          obs,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
		now:          time.Now,
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
	err := inputSchema.Validate([]byte(job.Variables)).Err()
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(job.Variables), &input); jsonErr != nil {
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Decision.Terminal() {
		return nil, apperrors.NewInvalidInputError("decision must be ACCEPTED or DECLINED")
	}
	if input.Decision == models.DecisionAccepted {
		if err := guarantor.CheckSignature(input.Signature); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
	}

	log := h.logger.WithFields(map[string]interface{}{
		"loanId":   input.LoanID,
		"staffId":  input.StaffID,
		"decision": string(input.Decision),
	})

	lock, err := h.locker.Obtain(ctx, h.config.LockPrefix+input.LoanID, h.config.LockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		metrics.GuarantorDecisions.WithLabelValues(string(input.Decision), "locked").Inc()
		return nil, apperrors.NewDecisionLockedError(input.LoanID)
	}
	if err != nil {
		return nil, &apperrors.GuarantorActionError{LoanID: input.LoanID, Action: actionOf(input.Decision), Err: err}
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn("failed to release decision lock", map[string]interface{}{"error": err.Error()})
		}
	}()

	message, err := h.decider.DecideGuarantor(ctx, input.LoanID, input.StaffID, input.Decision)
	if err != nil {
		metrics.GuarantorDecisions.WithLabelValues(string(input.Decision), "failed").Inc()
		return nil, h.translate(input, err)
	}
	if message == "" {
		message = guarantor.DefaultMessage(input.Decision, input.LoanProductName)
	}

	metrics.GuarantorDecisions.WithLabelValues(string(input.Decision), "recorded").Inc()
	log.Info("guarantor decision recorded", nil)

	return &Output{
		LoanID:    input.LoanID,
		Decision:  input.Decision,
		Message:   message,
		DecidedAt: h.now().UTC(),
	}, nil
}

func (h *Handler) translate(input *Input, err error) error {
	switch {
	case errors.Is(err, store.ErrAlreadyDecided):
		return apperrors.NewDecisionAlreadyTakenError(input.LoanID)
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewApplicationNotFoundError(input.LoanID)
	case errors.Is(err, store.ErrNotGuarantor), errors.Is(err, store.ErrInvalidDecision):
		return apperrors.NewInvalidInputError(err.Error())
	default:
		return &apperrors.GuarantorActionError{LoanID: input.LoanID, Action: actionOf(input.Decision), Err: err}
	}
}

func actionOf(d models.GuarantorDecision) string {
	if d == models.DecisionDeclined {
		return "decline"
	}
	return "accept"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
