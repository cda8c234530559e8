package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// PutTokens is the open door into the treasury. Anyone may donate.
func (g *Governance) PutTokens(tx *host.Tx, b sdk.Bucket) error {
	return g.enter(tx, func(*gov.Wiring) error {
		return g.putTokens(tx, b)
	})
}

func (g *Governance) putTokens(tx *host.Tx, b sdk.Bucket) error {
	if b.IsEmpty() {
		return nil
	}
	if err := tx.Deposit(g.addr, b); err != nil {
		return err
	}
	emitTokensPutEvent(tx, b.Asset, b.Amount)
	return nil
}

// SendTokens moves treasury funds to an address. Controller only, normally reached as a proposal
// step through the reentrancy proxy.
func (g *Governance) SendTokens(tx *host.Tx, asset sdk.Asset, amount decimal.Decimal, to sdk.Address) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		if !to.IsValid() {
			return fmt.Errorf("%w: recipient %q", ErrParameterInvalid, to)
		}
		_, err := g.sendTokens(tx, w, asset, amount, to)
		return err
	})
}

// sendTokens withdraws from the spendable treasury. Escrowed fees are never touched. With an
// empty recipient the bucket goes back to the calling component.
func (g *Governance) sendTokens(tx *host.Tx, w *gov.Wiring, asset sdk.Asset, amount decimal.Decimal, to sdk.Address) (*sdk.Bucket, error) {
	if err := requireOwner(tx, w); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrParameterInvalid)
	}
	avail, err := g.treasuryBalance(tx, w, asset)
	if err != nil {
		return nil, err
	}
	if avail.LessThan(amount) {
		return nil, fmt.Errorf("%w: treasury holds %s %s, needs %s", host.ErrInsufficientFunds, avail, asset, amount)
	}
	b, err := tx.Withdraw(asset, amount)
	if err != nil {
		return nil, err
	}
	if to == "" {
		emitTokensSentEvent(tx, asset, amount, tx.Caller())
		return &b, nil
	}
	if err := tx.Deposit(to, b); err != nil {
		return nil, err
	}
	emitTokensSentEvent(tx, asset, amount, to)
	return nil, nil
}
