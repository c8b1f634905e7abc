package booking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/glowbook/service-booking/internal/domain"
	"github.com/google/uuid"
)

// ServiceStep is a weighted unit of work within an executing service.
type ServiceStep struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Percentage  int        `json:"percentage"`
	Order       int        `json:"order"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StepTemplate describes a step before execution begins. A zero Order means
// "position in the template".
type StepTemplate struct {
	Title      string `json:"title"`
	Percentage int    `json:"percentage"`
	Order      int    `json:"order,omitempty"`
}

// DefaultStepTemplate is used when a provider starts a service without supplying steps.
var DefaultStepTemplate = []StepTemplate{
	{Title: "Arrival and setup", Percentage: 10, Order: 1},
	{Title: "Preparation", Percentage: 20, Order: 2},
	{Title: "Service", Percentage: 60, Order: 3},
	{Title: "Finishing and cleanup", Percentage: 10, Order: 4},
}

// BookingProgress owns the ordered steps of one booking and their derived values.
// The derived fields are recomputed inside every mutation, so readers never see
// them disagree with the step flags.
type BookingProgress struct {
	steps            []ServiceStep
	currentStepIndex int
	totalProgress    int
	frozen           bool
}

// NewProgress validates a template and builds a progress tracker with fresh step ids.
// Percentages must sum to 100 and orders must be unique.
func NewProgress(template []StepTemplate) (*BookingProgress, error) {
	if len(template) == 0 {
		return nil, domain.NewValidationError("step template must contain at least one step")
	}

	steps := make([]ServiceStep, len(template))
	seenOrder := make(map[int]struct{}, len(template))
	sum := 0
	for i, t := range template {
		if strings.TrimSpace(t.Title) == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("step %d: title is required", i+1))
		}
		if t.Percentage < 0 || t.Percentage > 100 {
			return nil, domain.NewValidationError(fmt.Sprintf("step %q: percentage must be between 0 and 100", t.Title))
		}
		order := t.Order
		if order == 0 {
			order = i + 1
		}
		if _, dup := seenOrder[order]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("duplicate step order %d", order))
		}
		seenOrder[order] = struct{}{}
		sum += t.Percentage
		steps[i] = ServiceStep{
			ID:         uuid.New(),
			Title:      strings.TrimSpace(t.Title),
			Percentage: t.Percentage,
			Order:      order,
		}
	}
	if sum != 100 {
		return nil, domain.NewValidationError(fmt.Sprintf("step percentages must sum to 100, got %d", sum))
	}

	return newProgress(steps, false), nil
}

// ReconstructProgress rebuilds a tracker from persistence data (no validation).
func ReconstructProgress(steps []ServiceStep, frozen bool) *BookingProgress {
	cp := make([]ServiceStep, len(steps))
	copy(cp, steps)
	return newProgress(cp, frozen)
}

func newProgress(steps []ServiceStep, frozen bool) *BookingProgress {
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	p := &BookingProgress{steps: steps, frozen: frozen}
	p.recompute()
	return p
}

func (p *BookingProgress) recompute() {
	total := 0
	current := -1
	for i, s := range p.steps {
		if s.IsCompleted {
			total += s.Percentage
		} else if current == -1 {
			current = i
		}
	}
	if current == -1 && len(p.steps) > 0 {
		current = len(p.steps) - 1
	}
	p.totalProgress = total
	p.currentStepIndex = current
}

// MarkComplete completes the step with the given id. Completing an already
// completed step is a no-op; changed reports whether anything was modified.
func (p *BookingProgress) MarkComplete(stepID uuid.UUID, now time.Time) (changed bool, err error) {
	if p.frozen {
		return false, domain.NewInvalidTransitionError("progress_frozen", "progress can no longer be modified")
	}
	for i := range p.steps {
		if p.steps[i].ID != stepID {
			continue
		}
		if p.steps[i].IsCompleted {
			return false, nil
		}
		completedAt := now
		p.steps[i].IsCompleted = true
		p.steps[i].CompletedAt = &completedAt
		p.recompute()
		return true, nil
	}
	return false, domain.NewNotFoundError("Step", stepID.String())
}

// Freeze makes the tracker read-only.
func (p *BookingProgress) Freeze() { p.frozen = true }

// Frozen reports whether the tracker is read-only.
func (p *BookingProgress) Frozen() bool { return p.frozen }

// Steps returns a copy of the steps in traversal order.
func (p *BookingProgress) Steps() []ServiceStep {
	cp := make([]ServiceStep, len(p.steps))
	copy(cp, p.steps)
	return cp
}

// TotalProgress is the sum of the percentages of completed steps.
func (p *BookingProgress) TotalProgress() int { return p.totalProgress }

// CurrentStepIndex is the index of the first incomplete step, or of the last
// step when all are complete. ok is false when there are no steps.
func (p *BookingProgress) CurrentStepIndex() (index int, ok bool) {
	if len(p.steps) == 0 {
		return 0, false
	}
	return p.currentStepIndex, true
}

// CurrentStep returns the step at CurrentStepIndex.
func (p *BookingProgress) CurrentStep() (ServiceStep, bool) {
	i, ok := p.CurrentStepIndex()
	if !ok {
		return ServiceStep{}, false
	}
	return p.steps[i], true
}

// NextStep returns the step right after the current one, if any.
func (p *BookingProgress) NextStep() (ServiceStep, bool) {
	i, ok := p.CurrentStepIndex()
	if !ok || i+1 >= len(p.steps) {
		return ServiceStep{}, false
	}
	return p.steps[i+1], true
}

// AllCompleted reports whether every step is complete.
func (p *BookingProgress) AllCompleted() bool {
	if len(p.steps) == 0 {
		return false
	}
	for _, s := range p.steps {
		if !s.IsCompleted {
			return false
		}
	}
	return true
}
