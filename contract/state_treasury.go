package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// The treasury is governance's own ledger account. Bonded fees sit in the same account but are
// tracked by the escrow counter below and may only leave through a refund or retrieve_fee.

func getEscrow(st sdk.State) (decimal.Decimal, error) {
	raw, err := st.Get(feeEscrowKey)
	if err != nil || raw == nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(raw))
}

func setEscrow(st sdk.State, amount decimal.Decimal) error {
	return st.Set(feeEscrowKey, []byte(amount.String()))
}

// bondFee parks a fee bucket in the governance account and books it as escrow.
func (g *Governance) bondFee(tx *host.Tx, fee sdk.Bucket) error {
	if err := tx.Deposit(g.addr, fee); err != nil {
		return err
	}
	escrow, err := getEscrow(tx)
	if err != nil {
		return err
	}
	return setEscrow(tx, escrow.Add(fee.Amount))
}

// releaseFee moves a bonded fee out of escrow. The tokens stay in the account and
// simply count as treasury from here on.
func (g *Governance) releaseFee(tx *host.Tx, amount decimal.Decimal) error {
	escrow, err := getEscrow(tx)
	if err != nil {
		return err
	}
	if escrow.LessThan(amount) {
		return fmt.Errorf("%w: escrow holds %s, release needs %s", ErrInsufficientPayment, escrow, amount)
	}
	return setEscrow(tx, escrow.Sub(amount))
}

// refundToTreasury is the rejection path for a bonded fee.
func (g *Governance) refundToTreasury(tx *host.Tx, w *gov.Wiring, proposalID uint64) error {
	claim, err := loadReceiptClaim(tx, proposalID)
	if err != nil {
		return err
	}
	if err := g.releaseFee(tx, claim.FeePaid); err != nil {
		return err
	}
	emitTokensPutEvent(tx, w.FeeToken, claim.FeePaid)
	return nil
}

// treasuryBalance is what governance may spend: the account balance minus escrowed fees.
func (g *Governance) treasuryBalance(tx *host.Tx, w *gov.Wiring, asset sdk.Asset) (decimal.Decimal, error) {
	bal, err := tx.Balance(g.addr, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if asset != w.FeeToken {
		return bal, nil
	}
	escrow, err := getEscrow(tx)
	if err != nil {
		return decimal.Zero, err
	}
	return bal.Sub(escrow), nil
}
