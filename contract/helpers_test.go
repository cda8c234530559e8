package contract_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"okinoko_gov/contract"
	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/internal/node"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const defaultTimestamp = "2025-09-03T00:00:00"

var (
	admin           = sdk.Account("admin")
	proposer        = sdk.Account("someone")
	outsider        = sdk.Account("outsider")
	otherToken      = sdk.Resource("other_token")
	recorderAddress = sdk.Component("recorder")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func receiptProof(id uint64) sdk.NonFungibleProof {
	return sdk.NonFungibleProof{Resource: node.ReceiptResource, ID: id}
}

func votingProof(id uint64) sdk.NonFungibleProof {
	return sdk.NonFungibleProof{Resource: node.VotingIDResource, ID: id}
}

// recorder is a target component for proposal steps. It appends every successful call to its own
// state so tests can see exactly which steps ran.
type recorder struct {
	addr sdk.Address
	gov  *contract.Governance
}

func (r *recorder) Address() sdk.Address { return r.addr }

func (r *recorder) Call(tx *host.Tx, method string, args []byte) (*sdk.Bucket, error) {
	switch method {
	case "record":
	case "guarded":
		ok, err := tx.Authorized(node.ControllerBadge)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("guarded step needs the controller badge")
		}
	case "pay":
		b, err := tx.Withdraw(node.FeeToken, dec(string(args)))
		if err != nil {
			return nil, err
		}
		return &b, nil
	case "fail":
		return nil, errors.New("step failed on purpose")
	case "reenter":
		// governance is still on the stack while it executes us
		return nil, r.gov.PutTokens(tx, sdk.Bucket{})
	default:
		return nil, contract.ErrUnknownMethod
	}
	prev, err := tx.Get("calls")
	if err != nil {
		return nil, err
	}
	entry := method + ":" + string(args) + ";"
	return nil, tx.Set("calls", append(prev, entry...))
}

type govTest struct {
	t  *testing.T
	n  *node.Node
	t0 int64
}

// SetupGovernanceTest deploys governance, staking and the proxy on a fresh in-memory chain and
// funds the usual test accounts.
func SetupGovernanceTest(t *testing.T, opts ...node.OptionFunc) *govTest {
	t.Helper()
	n, err := node.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	t0, ok := sdk.ParseTimestamp(defaultTimestamp)
	require.True(t, ok)

	g := &govTest{t: t, n: n, t0: t0}
	n.Chain.Register(&recorder{addr: recorderAddress, gov: n.Gov})
	require.NoError(t, n.Bootstrap(context.Background(), admin, t0, nil))
	g.call(admin, 0, true, func(tx *host.Tx) error {
		if err := tx.CreateResource(otherToken); err != nil {
			return err
		}
		for _, acc := range []sdk.Address{proposer, outsider, admin} {
			if err := tx.Mint(node.FeeToken, dec("200000"), acc); err != nil {
				return err
			}
			if err := tx.Mint(otherToken, dec("200000"), acc); err != nil {
				return err
			}
		}
		return tx.Mint(node.FeeToken, dec("50000"), recorderAddress)
	})
	return g
}

// call runs fn as sender offset seconds after the default timestamp and asserts the outcome.
func (g *govTest) call(sender sdk.Address, offset int64, expectedResult bool, fn func(tx *host.Tx) error) error {
	g.t.Helper()
	rec, err := g.n.Exec(context.Background(), sender, g.t0+offset, fn)
	for _, line := range rec.Logs {
		g.t.Logf("[%s] %s", rec.TxID, line)
	}
	if expectedResult {
		require.NoError(g.t, err)
	} else {
		require.Error(g.t, err, "call did not fail (as expected)")
	}
	return err
}

// read runs fn in a throwaway transaction.
func (g *govTest) read(fn func(tx *host.Tx) error) {
	g.t.Helper()
	g.call(admin, 0, true, fn)
}

func (g *govTest) balance(owner sdk.Address, asset sdk.Asset) decimal.Decimal {
	g.t.Helper()
	var bal decimal.Decimal
	g.read(func(tx *host.Tx) error {
		var err error
		bal, err = tx.Balance(owner, asset)
		return err
	})
	return bal
}

func (g *govTest) proposal(id uint64) *gov.Proposal {
	g.t.Helper()
	var p *gov.Proposal
	g.read(func(tx *host.Tx) error {
		var err error
		p, err = g.n.Gov.GetProposal(tx, id)
		return err
	})
	return p
}

func (g *govTest) receipt(id uint64) *gov.ReceiptClaim {
	g.t.Helper()
	var c *gov.ReceiptClaim
	g.read(func(tx *host.Tx) error {
		var err error
		c, err = g.n.Gov.GetReceipt(tx, id)
		return err
	})
	return c
}

func (g *govTest) treasury() decimal.Decimal {
	g.t.Helper()
	var bal decimal.Decimal
	g.read(func(tx *host.Tx) error {
		var err error
		bal, err = g.n.Gov.TreasuryBalance(tx, node.FeeToken)
		return err
	})
	return bal
}

func (g *govTest) escrow() decimal.Decimal {
	g.t.Helper()
	var bal decimal.Decimal
	g.read(func(tx *host.Tx) error {
		var err error
		bal, err = g.n.Gov.EscrowBalance(tx)
		return err
	})
	return bal
}

// recorded lists the calls the recorder saw, in order.
func (g *govTest) recorded() []string {
	g.t.Helper()
	var raw []byte
	g.read(func(tx *host.Tx) error {
		leave, err := tx.Enter(recorderAddress)
		if err != nil {
			return err
		}
		defer leave()
		raw, err = tx.Get("calls")
		return err
	})
	if len(raw) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(raw), ";"), ";")
}

// newVoter funds an account, creates its voting id and stakes amount behind it.
func (g *govTest) newVoter(name, amount string) (sdk.Address, uint64) {
	g.t.Helper()
	voter := sdk.Account(name)
	g.call(admin, 0, true, func(tx *host.Tx) error {
		return tx.Mint(node.FeeToken, dec(amount), voter)
	})
	var id uint64
	g.call(voter, 0, true, func(tx *host.Tx) error {
		var err error
		if id, err = g.n.Staking.CreateID(tx); err != nil {
			return err
		}
		b, err := tx.Withdraw(node.FeeToken, dec(amount))
		if err != nil {
			return err
		}
		_, err = g.n.Staking.Stake(tx, votingProof(id), b)
		return err
	})
	return voter, id
}

func recordStep(args string) gov.ProposalStep {
	return gov.ProposalStep{Component: recorderAddress, Method: "record", Args: []byte(args)}
}

func govStep(method string, args []byte) gov.ProposalStep {
	return gov.ProposalStep{Component: node.GovernanceAddress, Method: method, Args: args}
}

// createProposal pays with the given amount and returns the new proposal id.
func (g *govTest) createProposal(offset int64, payment string, first gov.ProposalStep, more ...gov.ProposalStep) uint64 {
	g.t.Helper()
	var id uint64
	g.call(proposer, offset, true, func(tx *host.Tx) error {
		pay, err := tx.Withdraw(node.FeeToken, dec(payment))
		if err != nil {
			return err
		}
		change, pid, err := g.n.Gov.CreateProposal(tx, contract.ProposalInput{
			Title:       "upgrade node infra",
			Description: "upgrade description",
			FirstStep:   first,
		}, pay)
		if err != nil {
			return err
		}
		id = pid
		for _, step := range more {
			if err := g.n.Gov.AddProposalStep(tx, receiptProof(pid), step); err != nil {
				return err
			}
		}
		return tx.Deposit(proposer, change)
	})
	return id
}

func (g *govTest) submit(id uint64, offset int64) gov.ProposalStatus {
	g.t.Helper()
	var status gov.ProposalStatus
	g.call(proposer, offset, true, func(tx *host.Tx) error {
		var err error
		status, err = g.n.Gov.SubmitProposal(tx, receiptProof(id))
		return err
	})
	return status
}

func (g *govTest) vote(voter sdk.Address, votingID, proposalID uint64, forAgainst bool, offset int64, expectedResult bool) error {
	g.t.Helper()
	return g.call(voter, offset, expectedResult, func(tx *host.Tx) error {
		return g.n.Gov.VoteOnProposal(tx, proposalID, forAgainst, votingProof(votingID))
	})
}

func (g *govTest) finish(id uint64, offset int64) gov.ProposalStatus {
	g.t.Helper()
	var status gov.ProposalStatus
	g.call(outsider, offset, true, func(tx *host.Tx) error {
		var err error
		status, err = g.n.Gov.FinishVoting(tx, id)
		return err
	})
	return status
}

func (g *govTest) execute(id uint64, maxSteps int64, offset int64, expectedResult bool) error {
	g.t.Helper()
	return g.call(outsider, offset, expectedResult, func(tx *host.Tx) error {
		return g.n.Gov.ExecuteProposalStep(tx, id, maxSteps)
	})
}

// acceptedProposal walks a proposal with the given steps through a successful vote.
// Submitted at +20, so the voting deadline is +200 and finish runs at +200.
func (g *govTest) acceptedProposal(first gov.ProposalStep, more ...gov.ProposalStep) uint64 {
	g.t.Helper()
	voter, vid := g.newVoter("voter-accept", "20000")
	id := g.createProposal(0, "10000", first, more...)
	require.Equal(g.t, gov.StatusOngoing, g.submit(id, 20))
	g.vote(voter, vid, id, true, 30, true)
	require.Equal(g.t, gov.StatusAccepted, g.finish(id, 200))
	return id
}
