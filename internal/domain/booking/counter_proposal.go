package booking

import (
	"time"

	"github.com/glowbook/service-booking/internal/domain"
)

// ProposalStatus is the state of a counter-proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRefused  ProposalStatus = "refused"
)

// CounterProposal is a provider's alternate slot offer on a pending booking.
type CounterProposal struct {
	Slot      Slot           `json:"slot"`
	Message   string         `json:"message,omitempty"`
	Status    ProposalStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewCounterProposal builds a pending proposal for the given slot.
func NewCounterProposal(slot Slot, message string, now time.Time) (*CounterProposal, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	return &CounterProposal{
		Slot:      slot,
		Message:   message,
		Status:    ProposalPending,
		CreatedAt: now,
	}, nil
}

// IsPending reports whether the proposal awaits the customer.
func (p *CounterProposal) IsPending() bool { return p.Status == ProposalPending }

// Accept resolves the proposal as accepted. A proposal resolves exactly once.
func (p *CounterProposal) Accept() error {
	return p.resolve(ProposalAccepted)
}

// Refuse resolves the proposal as refused. A proposal resolves exactly once.
func (p *CounterProposal) Refuse() error {
	return p.resolve(ProposalRefused)
}

func (p *CounterProposal) resolve(to ProposalStatus) error {
	if p.Status != ProposalPending {
		return domain.NewInvalidTransitionError("counter_proposal_resolved",
			"counter-proposal was already "+string(p.Status))
	}
	p.Status = to
	return nil
}
