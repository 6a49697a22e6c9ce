// Package wizard is the six-step loan application state machine. Transition
// is pure; Workflow adds persistence around it.
package wizard

import (
	"errors"
	"fmt"

	"staff-loans/internal/models"
)

type Step int

const (
	StepProductSelect Step = iota + 1
	StepApplicationDetails
	StepGuarantorApprover
	StepDocuments
	StepTerms
	StepReview
)

var stepNames = map[Step]string{
	StepProductSelect:      "ProductSelect",
	StepApplicationDetails: "ApplicationDetails",
	StepGuarantorApprover:  "GuarantorApprover",
	StepDocuments:          "Documents",
	StepTerms:              "Terms",
	StepReview:             "Review",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

func (s Step) Valid() bool {
	return s >= StepProductSelect && s <= StepReview
}

// Phase separates the client-only draft (before step 2 is accepted by the
// store) from the persisted application.
type Phase int

const (
	PhaseDraft Phase = iota
	PhasePersisted
)

func (p Phase) String() string {
	if p == PhasePersisted {
		return "persisted"
	}
	return "draft"
}

type State struct {
	Current   Step
	Reached   Step // furthest step arrived at
	Floor     Step // lowest step navigation may return to
	Phase     Phase
	Finalized bool
}

// NewState is the state of a brand new application.
func NewState() State {
	return State{
		Current: StepProductSelect,
		Reached: StepProductSelect,
		Floor:   StepProductSelect,
		Phase:   PhaseDraft,
	}
}

type EventKind int

const (
	EventSubmit EventKind = iota
	EventNavigate
)

type Event struct {
	Kind   EventKind
	Target Step
}

func Submit() Event { return Event{Kind: EventSubmit} }

func NavigateTo(step Step) Event { return Event{Kind: EventNavigate, Target: step} }

var (
	ErrNavigationNotAllowed = errors.New("NAVIGATION_NOT_ALLOWED")
	ErrFinalized            = errors.New("WIZARD_FINALIZED")
	ErrInvalidState         = errors.New("INVALID_WIZARD_STATE")
	ErrUnknownEvent         = errors.New("UNKNOWN_WIZARD_EVENT")
)

// Transition computes the next state without side effects. A submit on the
// review step finalizes; a second submit there changes nothing.
func Transition(s State, ev Event, app *models.LoanApplication, facts Facts) (State, error) {
	switch ev.Kind {
	case EventSubmit:
		return submit(s, app, facts)
	case EventNavigate:
		return navigate(s, ev.Target)
	default:
		return s, fmt.Errorf("%w: %d", ErrUnknownEvent, ev.Kind)
	}
}

func submit(s State, app *models.LoanApplication, facts Facts) (State, error) {
	if !s.Current.Valid() {
		return s, fmt.Errorf("%w: current step %d", ErrInvalidState, s.Current)
	}
	if s.Phase == PhaseDraft && s.Current > StepApplicationDetails {
		return s, fmt.Errorf("%w: %s reached without a persisted application", ErrInvalidState, s.Current)
	}
	if s.Current == StepReview {
		s.Finalized = true
		return s, nil
	}

	if err := ValidateStep(s.Current, app, facts); err != nil {
		return s, err
	}

	if s.Current == StepApplicationDetails {
		s.Phase = PhasePersisted
	}
	s.Current++
	if s.Current > s.Reached {
		s.Reached = s.Current
	}
	return s, nil
}

// navigate moves to any step already reached, without validation.
func navigate(s State, target Step) (State, error) {
	if s.Finalized {
		return s, ErrFinalized
	}
	if !target.Valid() || target < s.Floor || target > s.Reached {
		return s, fmt.Errorf("%w: %s (allowed %s..%s)", ErrNavigationNotAllowed, target, s.Floor, s.Reached)
	}
	s.Current = target
	return s, nil
}
