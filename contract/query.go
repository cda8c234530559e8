package contract

import (
	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// Read-only views. They still enter the governance frame so state reads hit our own scope.

func (g *Governance) GetProposal(tx *host.Tx, id uint64) (*gov.Proposal, error) {
	var p *gov.Proposal
	err := g.enter(tx, func(*gov.Wiring) error {
		var err error
		p, err = loadProposal(tx, id)
		return err
	})
	return p, err
}

func (g *Governance) GetReceipt(tx *host.Tx, id uint64) (*gov.ReceiptClaim, error) {
	var c *gov.ReceiptClaim
	err := g.enter(tx, func(*gov.Wiring) error {
		var err error
		c, err = loadReceiptClaim(tx, id)
		return err
	})
	return c, err
}

func (g *Governance) GetParameters(tx *host.Tx) (*gov.GovernanceParameters, error) {
	var p *gov.GovernanceParameters
	err := g.enter(tx, func(*gov.Wiring) error {
		var err error
		p, err = loadParameters(tx)
		return err
	})
	return p, err
}

func (g *Governance) GetWiring(tx *host.Tx) (*gov.Wiring, error) {
	var out *gov.Wiring
	err := g.enter(tx, func(w *gov.Wiring) error {
		out = w
		return nil
	})
	return out, err
}

// GetVote returns the signed power a voting id put on a proposal; ok is false if it never voted.
func (g *Governance) GetVote(tx *host.Tx, id, votingID uint64) (decimal.Decimal, bool, error) {
	var (
		v  decimal.Decimal
		ok bool
	)
	err := g.enter(tx, func(*gov.Wiring) error {
		var err error
		v, ok, err = loadVote(tx, id, votingID)
		return err
	})
	return v, ok, err
}

// ProposalCount is the next id to be handed out.
func (g *Governance) ProposalCount(tx *host.Tx) (uint64, error) {
	var n uint64
	err := g.enter(tx, func(*gov.Wiring) error {
		var err error
		n, err = getCount(tx, proposalsCount)
		return err
	})
	return n, err
}

// TreasuryBalance is the spendable balance of asset, escrowed fees excluded.
func (g *Governance) TreasuryBalance(tx *host.Tx, asset sdk.Asset) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := g.enter(tx, func(w *gov.Wiring) error {
		var err error
		bal, err = g.treasuryBalance(tx, w, asset)
		return err
	})
	return bal, err
}

func (g *Governance) EscrowBalance(tx *host.Tx) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := g.enter(tx, func(*gov.Wiring) error {
		var err error
		bal, err = getEscrow(tx)
		return err
	})
	return bal, err
}

// ProposalJSON renders a proposal for the CLI and indexers.
func (g *Governance) ProposalJSON(tx *host.Tx, id uint64) ([]byte, error) {
	p, err := g.GetProposal(tx, id)
	if err != nil {
		return nil, err
	}
	return gov.ToJSON(p)
}
