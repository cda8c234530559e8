package reentrancy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"okinoko_gov/contract"
	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"
)

var (
	ErrUnauthorized = errors.New("controller badge required")
	ErrPending      = errors.New("a deferred step is already pending for this proposal")
	ErrNoPending    = errors.New("no deferred step pending for this proposal")
)

// Proxy parks proposal steps that would call back into governance and runs them later from a
// fresh call stack. It holds the controller badge in its own account and presents it on both
// the parked call and the finish_reentrancy_step callback.
type Proxy struct {
	addr       sdk.Address
	governance sdk.Address
	badge      sdk.Asset
	logger     *slog.Logger
}

type OptionFunc func(*Proxy)

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(p *Proxy) {
		p.logger = logger
	}
}

func New(addr, governance sdk.Address, badge sdk.Asset, opts ...OptionFunc) *Proxy {
	p := &Proxy{addr: addr, governance: governance, badge: badge}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return p
}

func (p *Proxy) Address() sdk.Address {
	return p.addr
}

func stepKey(id uint64) string {
	return "rs|" + strconv.FormatUint(id, 10)
}

// Call accepts send_step from governance. The payload is an encoded gov.Deferral.
func (p *Proxy) Call(tx *host.Tx, method string, args []byte) (*sdk.Bucket, error) {
	if method != contract.MethodSendStep {
		return nil, fmt.Errorf("%w: %s", contract.ErrUnknownMethod, method)
	}
	ok, err := tx.Authorized(p.badge)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	d, err := gov.DecodeDeferral(args)
	if err != nil {
		return nil, err
	}
	return nil, p.store(tx, d)
}

func (p *Proxy) store(tx *host.Tx, d *gov.Deferral) error {
	key := stepKey(d.ProposalID)
	existing, err := tx.Get(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: proposal %d", ErrPending, d.ProposalID)
	}
	if err := tx.Set(key, gov.EncodeDeferral(d)); err != nil {
		return err
	}
	tx.Log(fmt.Sprintf("rq|id:%d|c:%s|m:%s", d.ProposalID, d.Call.Component, d.Call.Method))
	return nil
}

// Pending returns the parked call for a proposal, nil when there is none.
func (p *Proxy) Pending(tx *host.Tx, id uint64) (*gov.DeferredCall, error) {
	leave, err := tx.Enter(p.addr)
	if err != nil {
		return nil, err
	}
	defer leave()
	raw, err := tx.Get(stepKey(id))
	if err != nil || raw == nil {
		return nil, err
	}
	d, err := gov.DecodeDeferral(raw)
	if err != nil {
		return nil, err
	}
	return &d.Call, nil
}

// Execute runs the parked call for proposal id and then tells governance it may move on.
// Anyone may trigger it; authority comes from the badge the proxy holds. Tokens the call
// returns go to the governance treasury.
func (p *Proxy) Execute(tx *host.Tx, id uint64) error {
	leave, err := tx.Enter(p.addr)
	if err != nil {
		return err
	}
	defer leave()

	key := stepKey(id)
	raw, err := tx.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: proposal %d", ErrNoPending, id)
	}
	d, err := gov.DecodeDeferral(raw)
	if err != nil {
		return err
	}

	out, err := tx.Call(p.badge, d.Call.Component, d.Call.Method, d.Call.Args)
	if err != nil {
		return fmt.Errorf("deferred step of proposal %d: %w", id, err)
	}
	if out != nil && !out.IsEmpty() {
		if err := tx.Deposit(p.governance, *out); err != nil {
			return err
		}
	}
	if err := tx.Delete(key); err != nil {
		return err
	}
	if _, err := tx.Call(p.badge, p.governance, contract.MethodFinishReentrancyStep, contract.ProposalIDArgs(id)); err != nil {
		return err
	}
	p.logger.Debug("deferred step executed", "proposal", id, "component", d.Call.Component, "method", d.Call.Method)
	tx.Log(fmt.Sprintf("rx|id:%d", id))
	return nil
}
