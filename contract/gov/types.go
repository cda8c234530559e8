package gov

import (
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// ProposalStatus walks one way: building, ongoing (maybe veto mode), accepted or rejected,
// executed, finished.
type ProposalStatus uint8

const (
	StatusBuilding ProposalStatus = iota
	StatusOngoing
	StatusVetoMode
	StatusRejected
	StatusAccepted
	StatusExecuted
	StatusFinished
)

// String returns the short lowercase label used in events and JSON.
func (s ProposalStatus) String() string {
	switch s {
	case StatusBuilding:
		return "building"
	case StatusOngoing:
		return "ongoing"
	case StatusVetoMode:
		return "veto_mode"
	case StatusRejected:
		return "rejected"
	case StatusAccepted:
		return "accepted"
	case StatusExecuted:
		return "executed"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// IsTerminal is true for the two states nothing ever leaves.
func (s ProposalStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusFinished
}

// IsVoting covers both states in which votes are accepted.
func (s ProposalStatus) IsVoting() bool {
	return s == StatusOngoing || s == StatusVetoMode
}

// LastDayCheck memoizes the final-minute evaluation: not yet run, passed, or failed (veto engaged).
type LastDayCheck uint8

const (
	LastDayUnchecked LastDayCheck = iota
	LastDayPassing
	LastDayFailing
)

func (c LastDayCheck) String() string {
	switch c {
	case LastDayPassing:
		return "passing"
	case LastDayFailing:
		return "failing"
	default:
		return "unchecked"
	}
}

// Attachment points at an off-chain file backing a proposal.
type Attachment struct {
	KvsAddress string
	Component  sdk.Address
	FileHash   string
}

// ProposalStep is one authorized call. Args are opaque to governance and only the target decodes them.
type ProposalStep struct {
	Component    sdk.Address
	Badge        sdk.Asset
	Method       string
	Args         []byte
	ReturnBucket bool
	Reentrancy   bool
}

type Proposal struct {
	ID           uint64
	Title        string
	Description  string
	Attachments  []Attachment
	Steps        []ProposalStep
	VotesFor     decimal.Decimal
	VotesAgainst decimal.Decimal
	// Deadline is the submission deadline while building and the voting deadline afterwards (unix seconds).
	Deadline   int64
	LastDay    LastDayCheck
	NextIndex  uint64
	Status     ProposalStatus
	Reentrancy bool
	CreatedAt  int64
}

// TotalVotes sums both sides in pool units.
func (p *Proposal) TotalVotes() decimal.Decimal {
	return p.VotesFor.Add(p.VotesAgainst)
}

// Done reports whether the cursor walked every step.
func (p *Proposal) Done() bool {
	return p.NextIndex >= uint64(len(p.Steps))
}

// ReceiptClaim is the data half of a proposal receipt. Ownership of the receipt token lives in the ledger.
type ReceiptClaim struct {
	ProposalID uint64
	FeePaid    decimal.Decimal
	Status     ProposalStatus
}

// GovernanceParameters holds the tunables. Durations are minutes.
type GovernanceParameters struct {
	Fee               decimal.Decimal
	ProposalDuration  int64
	Quorum            decimal.Decimal
	ApprovalThreshold decimal.Decimal
	MaxSubmitDelay    int64
}

// DefaultParameters mirrors what a fresh deployment starts with.
func DefaultParameters() GovernanceParameters {
	return GovernanceParameters{
		Fee:               decimal.NewFromInt(10000),
		ProposalDuration:  3,
		Quorum:            decimal.NewFromInt(10000),
		ApprovalThreshold: decimal.RequireFromString("0.5"),
		MaxSubmitDelay:    7,
	}
}

// Wiring is where governance finds its collaborators.
type Wiring struct {
	Staking          sdk.Address
	VotingIDResource sdk.Asset
	Proxy            sdk.Address
	ControllerBadge  sdk.Asset
	FeeToken         sdk.Asset
	ReceiptResource  sdk.Asset
}

// DeferredCall is a step parked in the reentrancy proxy until someone runs it from a fresh stack.
type DeferredCall struct {
	Component sdk.Address
	Method    string
	Args      []byte
}
