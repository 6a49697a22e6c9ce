package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/loan/affordability"
	"staff-loans/internal/loan/completeness"
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/shopspring/decimal"
)

// Store is the part of the application store the wizard writes through.
type Store interface {
	SubmitApplicationStep2(ctx context.Context, payload store.Step2Payload) (string, error)
	SubmitApplicationStep3(ctx context.Context, applicationID string, payload store.Step3Payload) error
	SubmitApplicationStep4(ctx context.Context, applicationID string, payload store.Step4Payload) error
	AcceptTerms(ctx context.Context, applicationID string) error
	FetchGuarantorCandidates(ctx context.Context, staffID string) ([]models.Person, error)
}

var (
	ErrSubmitInFlight     = errors.New("STEP_SUBMIT_IN_FLIGHT")
	ErrNotResumable       = errors.New("APPLICATION_NOT_RESUMABLE")
	ErrProductLocked      = errors.New("PRODUCT_SELECTION_LOCKED")
	ErrEmptyApplicationID = errors.New("store returned an empty application id")
)

// Workflow drives one wizard instance for one user. Reads are safe from
// other goroutines; a second Submit while one is in flight is rejected.
type Workflow struct {
	mu         sync.RWMutex
	store      Store
	logger     logger.Logger
	state      State
	app        *models.LoanApplication
	candidates []models.Person
	inFlight   bool
}

// New starts a fresh application for staffID at the product step.
func New(s Store, staffID string, log logger.Logger) *Workflow {
	return &Workflow{
		store:  s,
		logger: log.WithFields(map[string]interface{}{"component": "wizard", "staffId": staffID}),
		state:  NewState(),
		app: &models.LoanApplication{
			StaffID:             staffID,
			GuarantorRequired:   true,
			SupportingDocuments: map[string]string{},
		},
	}
}

// Resume re-enters the wizard for a persisted application at its resume
// position. Steps before StepGuarantorApprover are not reachable.
func Resume(s Store, snapshot *models.LoanApplication, log logger.Logger) (*Workflow, error) {
	if snapshot == nil || blank(snapshot.ApplicationID) {
		return nil, fmt.Errorf("%w: application has no id", ErrNotResumable)
	}

	app := snapshot.Clone()
	if app.SupportingDocuments == nil {
		app.SupportingDocuments = map[string]string{}
	}
	if !blank(app.GuarantorID) {
		app.GuarantorRequired = true
	}

	start := ResumePosition(app, documents.Resolve(app.ProductType))
	w := &Workflow{
		store: s,
		logger: log.WithFields(map[string]interface{}{
			"component":     "wizard",
			"staffId":       app.StaffID,
			"applicationId": app.ApplicationID,
		}),
		state: State{
			Current: start,
			Reached: start,
			Floor:   StepGuarantorApprover,
			Phase:   PhasePersisted,
		},
		app: app,
	}

	if !documents.IsKnown(app.ProductType) {
		w.logger.Debug("product type has no document set, using fallback", map[string]interface{}{
			"productType": string(app.ProductType),
		})
	}
	w.logger.Info("application resumed", map[string]interface{}{"step": start.String()})
	return w, nil
}

func (w *Workflow) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Snapshot returns a copy of the application as currently entered.
func (w *Workflow) Snapshot() *models.LoanApplication {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.app.Clone()
}

func (w *Workflow) Requirements() []documents.Requirement {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return documents.Resolve(w.app.ProductType)
}

func (w *Workflow) Completeness() models.CompletenessScore {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return completeness.ScoreApplication(w.app)
}

// SelectProduct stages a product. It is only possible on the product step
// and never for a resumed application.
func (w *Workflow) SelectProduct(p models.LoanProduct) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Current != StepProductSelect || w.state.Finalized {
		return fmt.Errorf("%w: current step is %s", ErrProductLocked, w.state.Current)
	}
	w.app.SelectProduct(p)
	return nil
}

// Edit applies fn to the application. Server-owned fields, the product and
// the document map are restored afterwards, so documents change only through
// AttachDocument and DetachDocument. The loan amount is re-clamped to the
// affordability ceiling.
func (w *Workflow) Edit(fn func(app *models.LoanApplication)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id, staffID, status, created := w.app.ApplicationID, w.app.StaffID, w.app.Status, w.app.CreatedAt
	product, productID, productName, productType := w.app.SelectedProduct, w.app.LoanProductID, w.app.LoanProductName, w.app.ProductType
	docs := w.app.Clone().SupportingDocuments

	fn(w.app)

	w.app.ApplicationID, w.app.StaffID, w.app.Status, w.app.CreatedAt = id, staffID, status, created
	w.app.SelectedProduct, w.app.LoanProductID, w.app.LoanProductName, w.app.ProductType = product, productID, productName, productType
	w.app.SupportingDocuments = docs
	w.clampLocked()
}

// SetLoanAmount stores amount, capped at the affordability ceiling. It
// reports the stored value and whether it was capped.
func (w *Workflow) SetLoanAmount(amount decimal.Decimal) (decimal.Decimal, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.app.LoanAmount = amount
	clamped := w.clampLocked()
	return w.app.LoanAmount, clamped
}

// MaxLoanAmount is the current affordability ceiling, if salary and tenure
// are set.
func (w *Workflow) MaxLoanAmount() (decimal.Decimal, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return affordability.Ceiling(w.app.NetSalary, w.app.TenureDuration)
}

func (w *Workflow) clampLocked() bool {
	amount, clamped := affordability.Clamp(w.app.LoanAmount, w.app.NetSalary, w.app.TenureDuration)
	if clamped {
		w.logger.Debug("loan amount capped at affordability ceiling", map[string]interface{}{
			"requested": w.app.LoanAmount.String(),
			"ceiling":   amount.String(),
		})
		w.app.LoanAmount = amount
	}
	return clamped
}

// AttachDocument records an uploaded document reference. Keys must come from
// the product's requirement set.
func (w *Workflow) AttachDocument(key, ref string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := documents.Lookup(documents.Resolve(w.app.ProductType), key); !ok {
		return apperrors.NewValidationError(int(StepDocuments), key, fmt.Sprintf("%s is not a document for this loan product.", key))
	}
	w.app.SupportingDocuments[key] = strings.TrimSpace(ref)
	return nil
}

func (w *Workflow) DetachDocument(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.app.SupportingDocuments, key)
}

// Candidates loads the guarantor/approver list once per workflow.
func (w *Workflow) Candidates(ctx context.Context) ([]models.Person, error) {
	w.mu.RLock()
	cached, staffID := w.candidates, w.app.StaffID
	w.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	people, err := w.store.FetchGuarantorCandidates(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("fetch guarantor candidates: %w", err)
	}
	if people == nil {
		people = []models.Person{}
	}

	w.mu.Lock()
	w.candidates = people
	w.mu.Unlock()
	return people, nil
}

// Back moves to the previous step.
func (w *Workflow) Back() error {
	w.mu.RLock()
	target := w.state.Current - 1
	w.mu.RUnlock()
	return w.GoTo(target)
}

// GoTo jumps to an already reached step without validation.
func (w *Workflow) GoTo(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := Transition(w.state, NavigateTo(step), w.app, Facts{})
	if err != nil {
		return err
	}
	w.state = next
	return nil
}

// Submit validates the current step, persists its payload and advances.
// Validation failures return *errors.ValidationError, store failures
// *errors.StepPersistenceError; in both cases the workflow stays put and
// keeps every entered value.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return ErrSubmitInFlight
	}
	if w.state.Finalized {
		w.mu.Unlock()
		return nil
	}
	w.inFlight = true
	current := w.state
	app := w.app.Clone()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.inFlight = false
		w.mu.Unlock()
	}()

	step := current.Current
	facts := Facts{Requirements: documents.Resolve(app.ProductType)}

	if step == StepGuarantorApprover {
		candidates, err := w.Candidates(ctx)
		if err != nil {
			return w.persistenceFailed(step, app.ApplicationID, err)
		}
		facts.Candidates = candidates
	}

	next, err := Transition(current, Submit(), app, facts)
	if err != nil {
		metrics.WizardStepTransitions.WithLabelValues(step.String(), "invalid").Inc()
		w.logger.Debug("step validation failed", map[string]interface{}{"step": step.String(), "error": err.Error()})
		return err
	}

	id, err := w.persist(ctx, step, app, facts)
	if err != nil {
		return w.persistenceFailed(step, app.ApplicationID, err)
	}

	w.mu.Lock()
	if id != "" {
		w.app.ApplicationID = id
		w.logger = w.logger.WithFields(map[string]interface{}{"applicationId": id})
	}
	if step == StepGuarantorApprover && !app.GuarantorRequired {
		w.app.GuarantorID = ""
	}
	w.state = next
	w.mu.Unlock()

	metrics.WizardStepTransitions.WithLabelValues(step.String(), "advanced").Inc()
	if next.Finalized {
		w.logger.Info("application finalized", nil)
	} else {
		w.logger.Info("step submitted", map[string]interface{}{"step": step.String(), "next": next.Current.String()})
	}
	return nil
}

// persist sends the payload for step. Only step 2 returns an id.
func (w *Workflow) persist(ctx context.Context, step Step, app *models.LoanApplication, facts Facts) (string, error) {
	switch step {
	case StepApplicationDetails:
		id, err := w.store.SubmitApplicationStep2(ctx, store.NewStep2Payload(app))
		if err != nil {
			return "", err
		}
		if blank(id) {
			return "", ErrEmptyApplicationID
		}
		return id, nil
	case StepGuarantorApprover:
		return "", w.store.SubmitApplicationStep3(ctx, app.ApplicationID, store.NewStep3Payload(app))
	case StepDocuments:
		docs := documents.Filter(facts.Requirements, app.SupportingDocuments)
		return "", w.store.SubmitApplicationStep4(ctx, app.ApplicationID, store.NewStep4Payload(app, docs))
	case StepTerms:
		return "", w.store.AcceptTerms(ctx, app.ApplicationID)
	default:
		return "", nil
	}
}

func (w *Workflow) persistenceFailed(step Step, applicationID string, err error) error {
	metrics.WizardStepTransitions.WithLabelValues(step.String(), "persist_failed").Inc()
	w.logger.Warn("step persistence failed", map[string]interface{}{"step": step.String(), "error": err.Error()})
	return &apperrors.StepPersistenceError{Step: int(step), ApplicationID: applicationID, Err: err}
}
