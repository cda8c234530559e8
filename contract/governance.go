package contract

import (
	"fmt"
	"io"
	"log/slog"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// VotingPowerOracle is what governance consumes from the staking side. Both calls run inside
// the oracle's own frame, so implementations read their own state.
type VotingPowerOracle interface {
	// AcquireVotePower returns the voter's power and locks the stake behind it until lockUntil.
	AcquireVotePower(tx *host.Tx, lockUntil int64, votingID uint64) (decimal.Decimal, error)
	// RealAmount converts pool units into real token value.
	RealAmount(tx *host.Tx, amount decimal.Decimal) (decimal.Decimal, error)
}

// Governance is the proposal engine component. It keeps nothing in memory between transactions;
// wiring and parameters live in state so set_staking_component and set_parameters can change them.
type Governance struct {
	addr   sdk.Address
	logger *slog.Logger
}

type OptionFunc func(*Governance)

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(g *Governance) {
		g.logger = logger
	}
}

func New(addr sdk.Address, opts ...OptionFunc) *Governance {
	g := &Governance{addr: addr}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return g
}

func (g *Governance) Address() sdk.Address {
	return g.addr
}

// InitArgs carries everything a fresh deployment needs. Params may be nil for the defaults.
type InitArgs struct {
	Wiring gov.Wiring
	Params *gov.GovernanceParameters
}

// Init is the one-time setup: registers the receipt resource and stores wiring and parameters.
func (g *Governance) Init(tx *host.Tx, args InitArgs) error {
	leave, err := tx.Enter(g.addr)
	if err != nil {
		return err
	}
	defer leave()

	if _, err := loadWiring(tx); err == nil {
		return fmt.Errorf("%w: already initialized", ErrPhaseViolation)
	}
	w := args.Wiring
	if !w.Staking.IsComponent() || !w.Proxy.IsComponent() {
		return fmt.Errorf("%w: staking and proxy must be components", ErrParameterInvalid)
	}
	for _, a := range []sdk.Asset{w.VotingIDResource, w.ControllerBadge, w.FeeToken, w.ReceiptResource} {
		if !a.IsValid() {
			return fmt.Errorf("%w: invalid resource %q", ErrParameterInvalid, a)
		}
	}
	params := gov.DefaultParameters()
	if args.Params != nil {
		params = *args.Params
	}
	if err := validateParameters(&params); err != nil {
		return err
	}
	if err := tx.CreateResource(w.ReceiptResource); err != nil {
		return err
	}
	if err := saveWiring(tx, &w); err != nil {
		return err
	}
	if err := saveParameters(tx, &params); err != nil {
		return err
	}
	emitInitEvent(tx, &w)
	emitParametersEvent(tx, &params)
	return nil
}

// enter is the common preamble of every public entry point: push our frame and load the wiring.
func (g *Governance) enter(tx *host.Tx, fn func(w *gov.Wiring) error) error {
	leave, err := tx.Enter(g.addr)
	if err != nil {
		return err
	}
	defer leave()
	w, err := loadWiring(tx)
	if err != nil {
		return err
	}
	return fn(w)
}

// requireOwner checks the call carries the controller badge.
func requireOwner(tx *host.Tx, w *gov.Wiring) error {
	ok, err := tx.Authorized(w.ControllerBadge)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: controller badge required", ErrUnauthorized)
	}
	return nil
}

// oracle resolves the configured staking component into its oracle view.
func oracle(tx *host.Tx, w *gov.Wiring) (VotingPowerOracle, error) {
	comp, err := tx.Lookup(w.Staking)
	if err != nil {
		return nil, err
	}
	o, ok := comp.(VotingPowerOracle)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a voting power oracle", ErrParameterInvalid, w.Staking)
	}
	return o, nil
}

// Call routes dispatcher calls (proposal steps, the reentrancy proxy) to the owner-restricted methods.
// The caller's frame was pushed by the dispatcher already.
func (g *Governance) Call(tx *host.Tx, method string, args []byte) (*sdk.Bucket, error) {
	w, err := loadWiring(tx)
	if err != nil {
		return nil, err
	}
	switch method {
	case MethodSetParameters:
		p, err := decodeSetParametersArgs(args)
		if err != nil {
			return nil, err
		}
		return nil, g.setParameters(tx, w, p)
	case MethodSetStakingComponent:
		comp, vid, err := decodeSetStakingArgs(args)
		if err != nil {
			return nil, err
		}
		return nil, g.setStakingComponent(tx, w, comp, vid)
	case MethodHurryProposal:
		id, dur, err := decodeHurryArgs(args)
		if err != nil {
			return nil, err
		}
		return nil, g.hurryProposal(tx, w, id, dur)
	case MethodFinishReentrancyStep:
		id, err := decodeProposalIDArgs(args)
		if err != nil {
			return nil, err
		}
		return nil, g.finishReentrancyStep(tx, w, id)
	case MethodSendTokens:
		asset, amount, to, err := decodeSendTokensArgs(args)
		if err != nil {
			return nil, err
		}
		return g.sendTokens(tx, w, asset, amount, to)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}
