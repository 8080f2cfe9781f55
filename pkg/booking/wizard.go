package booking

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownFlow = errors.New("booking: unknown flow")
	ErrUnknownStep = errors.New("booking: step not part of this flow")
	ErrLastStep    = errors.New("booking: already on the last step")
	ErrNotLastStep = errors.New("booking: submit is only allowed on the last step")
)

type Step int

const (
	StepRoute Step = iota + 1
	StepShipment
	StepParties
	StepRate
)

func (s Step) String() string {
	switch s {
	case StepRoute:
		return "route"
	case StepShipment:
		return "shipment"
	case StepParties:
		return "parties"
	case StepRate:
		return "rate"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Steps lists the wizard steps of a flow in order. Rate selection only exists
// for domestic bookings; export rates come from the courier API.
func Steps(flow Flow) []Step {
	switch flow {
	case FlowDomestic:
		return []Step{StepRoute, StepShipment, StepParties, StepRate}
	case FlowExport:
		return []Step{StepRoute, StepShipment, StepParties}
	}
	return nil
}

// ValidateStep checks the fields one step is responsible for.
func ValidateStep(d *Draft, s Step) error {
	if !slices.Contains(Steps(d.Flow), s) {
		return ErrUnknownStep
	}
	switch s {
	case StepRoute:
		return validateRoute(d)
	case StepShipment:
		return validateShipment(d)
	case StepParties:
		return validateParties(d)
	case StepRate:
		return validateRate(d)
	}
	return ErrUnknownStep
}

// Wizard walks a draft through its steps. Next validates before moving,
// Back never does, and there is no way to jump.
type Wizard struct {
	draft *Draft
	steps []Step
	pos   int
}

func NewWizard(d *Draft) (*Wizard, error) {
	steps := Steps(d.Flow)
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, d.Flow)
	}
	return &Wizard{draft: d, steps: steps}, nil
}

func (w *Wizard) Draft() *Draft { return w.draft }

func (w *Wizard) Step() Step { return w.steps[w.pos] }

func (w *Wizard) IsLast() bool { return w.pos == len(w.steps)-1 }

// Next validates the current step and advances. On the last step it returns
// ErrLastStep; use Submit there.
func (w *Wizard) Next() error {
	if w.IsLast() {
		return ErrLastStep
	}
	if err := ValidateStep(w.draft, w.Step()); err != nil {
		return err
	}
	w.pos++
	return nil
}

// Back returns to the previous step. It is a no-op on the first step.
func (w *Wizard) Back() {
	if w.pos > 0 {
		w.pos--
	}
}

// Submit validates the last step and hands the draft to build.
func (w *Wizard) Submit(build func(*Draft) error) error {
	if !w.IsLast() {
		return ErrNotLastStep
	}
	if err := ValidateStep(w.draft, w.Step()); err != nil {
		return err
	}
	return build(w.draft)
}

// Complete drives a fresh wizard from the first step to submission, stopping
// at the first step that does not validate.
func Complete(d *Draft, build func(*Draft) error) error {
	w, err := NewWizard(d)
	if err != nil {
		return err
	}
	for !w.IsLast() {
		if err := w.Next(); err != nil {
			return err
		}
	}
	return w.Submit(build)
}
