package node

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"okinoko_gov/archive"
	"okinoko_gov/contract"
	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/reentrancy"
	"okinoko_gov/sdk"
	"okinoko_gov/staking"
	"okinoko_gov/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Well-known addresses of a single-DAO deployment.
var (
	GovernanceAddress = sdk.Component("governance")
	StakingAddress    = sdk.Component("staking")
	ProxyAddress      = sdk.Component("reentrancy_proxy")

	FeeToken         = sdk.Resource("gov_token")
	ControllerBadge  = sdk.Resource("controller_badge")
	ReceiptResource  = sdk.Resource("proposal_receipt")
	VotingIDResource = sdk.Resource("voting_id")
)

// Node ties a backend, the chain and the three components together.
type Node struct {
	Chain   *host.Chain
	Gov     *contract.Governance
	Staking *staking.Staking
	Proxy   *reentrancy.Proxy
	Archive *archive.Archive

	backend      store.Backend
	logger       *slog.Logger
	promRegistry prometheus.Registerer
}

type OptionFunc func(*Node)

func WithBackend(backend store.Backend) OptionFunc {
	return func(n *Node) {
		n.backend = backend
	}
}

func WithArchive(a *archive.Archive) OptionFunc {
	return func(n *Node) {
		n.Archive = a
	}
}

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(n *Node) {
		n.logger = logger
	}
}

func WithPromRegistry(reg prometheus.Registerer) OptionFunc {
	return func(n *Node) {
		n.promRegistry = reg
	}
}

// New builds a node. Without a backend it runs on a fresh in-memory store.
func New(opts ...OptionFunc) (*Node, error) {
	n := &Node{}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if n.backend == nil {
		mem, err := store.NewMemory()
		if err != nil {
			return nil, err
		}
		n.backend = mem
	}
	chainOpts := []host.ChainOptionFunc{host.WithLogger(n.logger)}
	if n.promRegistry != nil {
		chainOpts = append(chainOpts, host.WithPromRegistry(n.promRegistry))
	}
	if n.Archive != nil {
		chainOpts = append(chainOpts, host.WithSink(n.Archive))
	}
	n.Chain = host.New(n.backend, chainOpts...)
	n.Gov = contract.New(GovernanceAddress, contract.WithLogger(n.logger))
	n.Staking = staking.New(StakingAddress, staking.WithLogger(n.logger))
	n.Proxy = reentrancy.New(ProxyAddress, GovernanceAddress, ControllerBadge, reentrancy.WithLogger(n.logger))
	n.Chain.Register(n.Gov)
	n.Chain.Register(n.Staking)
	n.Chain.Register(n.Proxy)
	return n, nil
}

// Exec runs fn as sender at the given unix time (0 means wall clock).
func (n *Node) Exec(ctx context.Context, sender sdk.Address, at int64, fn func(tx *host.Tx) error) (host.Receipt, error) {
	env := sdk.Env{Sender: sdk.Sender{Address: sender, RequiredAuths: []sdk.Address{sender}}}
	if at != 0 {
		env.Timestamp = strconv.FormatInt(at, 10)
	}
	return n.Chain.Exec(ctx, env, fn)
}

// Bootstrap is the one-time deployment run by admin: it creates the fee token and controller
// badge, hands a badge to governance, the proxy and admin, then initializes staking and governance.
func (n *Node) Bootstrap(ctx context.Context, admin sdk.Address, at int64, params *gov.GovernanceParameters) error {
	_, err := n.Exec(ctx, admin, at, func(tx *host.Tx) error {
		if err := tx.CreateResource(FeeToken); err != nil {
			return err
		}
		if err := tx.CreateResource(ControllerBadge); err != nil {
			return err
		}
		badge := decimal.NewFromInt(1)
		for _, holder := range []sdk.Address{GovernanceAddress, ProxyAddress, admin} {
			if err := tx.Mint(ControllerBadge, badge, holder); err != nil {
				return err
			}
		}
		if err := n.Staking.Init(tx, staking.Config{
			Token:      FeeToken,
			IDResource: VotingIDResource,
			Controller: ControllerBadge,
		}); err != nil {
			return err
		}
		return n.Gov.Init(tx, contract.InitArgs{
			Wiring: gov.Wiring{
				Staking:          StakingAddress,
				VotingIDResource: VotingIDResource,
				Proxy:            ProxyAddress,
				ControllerBadge:  ControllerBadge,
				FeeToken:         FeeToken,
				ReceiptResource:  ReceiptResource,
			},
			Params: params,
		})
	})
	if err != nil {
		return err
	}
	n.logger.Info("governance bootstrapped", "admin", admin, "governance", GovernanceAddress)
	return nil
}

func (n *Node) Close() error {
	var errs []error
	if n.Archive != nil {
		errs = append(errs, n.Archive.Close())
	}
	errs = append(errs, n.backend.Close())
	return errors.Join(errs...)
}
