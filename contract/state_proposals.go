package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

func loadProposal(st sdk.State, id uint64) (*gov.Proposal, error) {
	raw, err := st.Get(proposalKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: proposal %d", ErrNotFound, id)
	}
	return gov.DecodeProposal(raw)
}

func saveProposal(st sdk.State, p *gov.Proposal) error {
	return st.Set(proposalKey(p.ID), gov.EncodeProposal(p))
}

func loadReceiptClaim(st sdk.State, id uint64) (*gov.ReceiptClaim, error) {
	raw, err := st.Get(receiptKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: receipt %d", ErrNotFound, id)
	}
	return gov.DecodeReceiptClaim(raw)
}

func saveReceiptClaim(st sdk.State, c *gov.ReceiptClaim) error {
	return st.Set(receiptKey(c.ProposalID), gov.EncodeReceiptClaim(c))
}

// mirrorStatus copies the proposal status onto its receipt claim so holders can read it there.
func mirrorStatus(st sdk.State, p *gov.Proposal) error {
	claim, err := loadReceiptClaim(st, p.ID)
	if err != nil {
		return err
	}
	claim.Status = p.Status
	return saveReceiptClaim(st, claim)
}

// loadVote returns the signed power a voting id committed, ok=false when it never voted.
func loadVote(st sdk.State, proposalID, votingID uint64) (decimal.Decimal, bool, error) {
	raw, err := st.Get(voteKey(proposalID, votingID))
	if err != nil || raw == nil {
		return decimal.Zero, false, err
	}
	v, err := decimal.NewFromString(string(raw))
	return v, err == nil, err
}

func saveVote(st sdk.State, proposalID, votingID uint64, signed decimal.Decimal) error {
	return st.Set(voteKey(proposalID, votingID), []byte(signed.String()))
}
