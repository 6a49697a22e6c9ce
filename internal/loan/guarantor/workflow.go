// Package guarantor records a staff member's decision on the loans they were
// asked to guarantee. A decision is taken once and never reverted.
package guarantor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/models"
)

// Store is the part of the application store the guarantor screens use.
type Store interface {
	FetchApplicationDetails(ctx context.Context, applicationID string) (*models.LoanApplication, error)
	DecideGuarantor(ctx context.Context, loanID, staffID string, decision models.GuarantorDecision) (string, error)
	FetchGuarantorLoans(ctx context.Context, staffID string) ([]models.GuarantorLoan, error)
}

var (
	ErrUnknownLoan      = errors.New("GUARANTOR_LOAN_NOT_FOUND")
	ErrNotReviewed      = errors.New("LOAN_DETAILS_NOT_REVIEWED")
	ErrDecisionInFlight = errors.New("GUARANTOR_DECISION_IN_FLIGHT")
)

// ScrollTolerance is how close to the bottom of the details the reader must
// scroll for the review gate to open.
const ScrollTolerance = 5

// Outcome is the result of an Accept or Decline. Changed is false when the
// loan was already decided and nothing was sent.
type Outcome struct {
	Decision models.GuarantorDecision
	Message  string
	Changed  bool
}

type entry struct {
	loan     models.GuarantorLoan
	details  *models.LoanApplication
	reviewed bool
	inFlight bool
}

// Workflow tracks every invite for one guarantor.
type Workflow struct {
	mu      sync.Mutex
	store   Store
	staffID string
	logger  logger.Logger
	loans   map[string]*entry
	order   []string
}

func New(s Store, staffID string, log logger.Logger) *Workflow {
	return &Workflow{
		store:   s,
		staffID: staffID,
		logger:  log.WithFields(map[string]interface{}{"component": "guarantor", "staffId": staffID}),
		loans:   map[string]*entry{},
	}
}

// Refresh reloads the invite list. Server values replace local ones except
// that a decision taken here is never reverted to pending.
func (w *Workflow) Refresh(ctx context.Context) error {
	loans, err := w.store.FetchGuarantorLoans(ctx, w.staffID)
	if err != nil {
		return fmt.Errorf("fetch guarantor loans: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(map[string]*entry, len(loans))
	order := make([]string, 0, len(loans))
	for _, loan := range loans {
		if _, dup := next[loan.LoanID]; dup {
			continue
		}
		e, ok := w.loans[loan.LoanID]
		if !ok {
			e = &entry{}
		}
		local := e.loan.GuarantorDecision
		e.loan = loan
		if local.Terminal() {
			e.loan.GuarantorDecision = local
		}
		next[loan.LoanID] = e
		order = append(order, loan.LoanID)
	}

	w.loans = next
	w.order = order
	return nil
}

// Loans returns the invites in server order.
func (w *Workflow) Loans() []models.GuarantorLoan {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.GuarantorLoan, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.loans[id].loan)
	}
	return out
}

// PendingCount feeds the invite badge.
func (w *Workflow) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, e := range w.loans {
		if !e.loan.GuarantorDecision.Terminal() {
			n++
		}
	}
	return n
}

func (w *Workflow) Decision(loanID string) (models.GuarantorDecision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.loans[loanID]
	if !ok {
		return models.DecisionPending, fmt.Errorf("%w: %s", ErrUnknownLoan, loanID)
	}
	return e.loan.GuarantorDecision, nil
}

// OpenDetails loads the full application behind an invite and closes the
// review gate until the reader gets to the end of it again.
func (w *Workflow) OpenDetails(ctx context.Context, loanID string) (*models.LoanApplication, error) {
	w.mu.Lock()
	if _, ok := w.loans[loanID]; !ok {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownLoan, loanID)
	}
	w.mu.Unlock()

	details, err := w.store.FetchApplicationDetails(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("fetch loan details %s: %w", loanID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.loans[loanID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLoan, loanID)
	}
	e.details = details
	e.reviewed = false
	return details.Clone(), nil
}

// ReportScroll records a scroll position of the details view and reports
// whether the review gate is now open.
func (w *Workflow) ReportScroll(loanID string, top, clientHeight, scrollHeight float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.loans[loanID]
	if !ok {
		return false
	}
	if top+clientHeight >= scrollHeight-ScrollTolerance {
		e.reviewed = true
	}
	return e.reviewed
}

// MarkReviewed opens the review gate directly, for details too short to scroll.
func (w *Workflow) MarkReviewed(loanID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.loans[loanID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLoan, loanID)
	}
	e.reviewed = true
	return nil
}

// CanDecide is true once the details were reviewed, while the loan is still
// pending and no decision is being sent.
func (w *Workflow) CanDecide(loanID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.loans[loanID]
	return ok && e.reviewed && !e.inFlight && !e.loan.GuarantorDecision.Terminal()
}

// Accept commits an acceptance. signature is the drawn signature as an
// encoded raster image.
func (w *Workflow) Accept(ctx context.Context, loanID string, signature []byte) (Outcome, error) {
	return w.decide(ctx, loanID, models.DecisionAccepted, func() error {
		return CheckSignature(signature)
	})
}

func (w *Workflow) Decline(ctx context.Context, loanID string) (Outcome, error) {
	return w.decide(ctx, loanID, models.DecisionDeclined, nil)
}

func (w *Workflow) decide(ctx context.Context, loanID string, decision models.GuarantorDecision, precheck func() error) (Outcome, error) {
	action := actionName(decision)

	w.mu.Lock()
	e, ok := w.loans[loanID]
	switch {
	case !ok:
		w.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownLoan, loanID)
	case e.loan.GuarantorDecision.Terminal():
		current := e.loan.GuarantorDecision
		w.mu.Unlock()
		return Outcome{Decision: current}, nil
	case e.inFlight:
		w.mu.Unlock()
		return Outcome{}, ErrDecisionInFlight
	case !e.reviewed:
		w.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotReviewed, loanID)
	}
	if precheck != nil {
		if err := precheck(); err != nil {
			w.mu.Unlock()
			return Outcome{}, err
		}
	}
	e.inFlight = true
	productName := e.loan.LoanProductName
	w.mu.Unlock()

	msg, err := w.store.DecideGuarantor(ctx, loanID, w.staffID, decision)

	w.mu.Lock()
	defer w.mu.Unlock()
	e.inFlight = false

	if err != nil {
		metrics.GuarantorDecisions.WithLabelValues(string(decision), "failed").Inc()
		w.logger.Warn("guarantor decision failed", map[string]interface{}{"loanId": loanID, "action": action, "error": err.Error()})
		return Outcome{Decision: models.DecisionPending}, &apperrors.GuarantorActionError{LoanID: loanID, Action: action, Err: err}
	}

	e.loan.GuarantorDecision = decision
	if strings.TrimSpace(msg) == "" {
		msg = DefaultMessage(decision, productName)
	}
	metrics.GuarantorDecisions.WithLabelValues(string(decision), "recorded").Inc()
	w.logger.Info("guarantor decision recorded", map[string]interface{}{"loanId": loanID, "decision": string(decision)})

	return Outcome{Decision: decision, Message: msg, Changed: true}, nil
}

// DefaultMessage is shown when the backend does not send its own.
func DefaultMessage(decision models.GuarantorDecision, productName string) string {
	return fmt.Sprintf("You have successfully %s to be a guarantor of this loan (%s).", pastTense(decision), productName)
}

func actionName(d models.GuarantorDecision) string {
	if d == models.DecisionDeclined {
		return "decline"
	}
	return "accept"
}

func pastTense(d models.GuarantorDecision) string {
	if d == models.DecisionDeclined {
		return "declined"
	}
	return "accepted"
}
