package reentrancy_test

import (
	"context"
	"testing"

	"okinoko_gov/contract"
	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/internal/node"
	"okinoko_gov/reentrancy"
	"okinoko_gov/sdk"
	"okinoko_gov/staking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const at int64 = 1_756_857_600

var (
	admin = sdk.Account("admin")
	bob   = sdk.Account("bob")
)

func setup(t *testing.T) *node.Node {
	t.Helper()
	n, err := node.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	require.NoError(t, n.Bootstrap(context.Background(), admin, at, nil))
	return n
}

func park(n *node.Node, sender sdk.Address, id uint64) error {
	d := &gov.Deferral{
		ProposalID: id,
		Call:       gov.DeferredCall{Component: node.StakingAddress, Method: staking.MethodSyncRewards},
	}
	_, err := n.Exec(context.Background(), sender, at+10, func(tx *host.Tx) error {
		_, err := tx.Call("", node.ProxyAddress, contract.MethodSendStep, gov.EncodeDeferral(d))
		return err
	})
	return err
}

func pending(t *testing.T, n *node.Node, id uint64) *gov.DeferredCall {
	t.Helper()
	var call *gov.DeferredCall
	_, err := n.Exec(context.Background(), bob, at+20, func(tx *host.Tx) error {
		var err error
		call, err = n.Proxy.Pending(tx, id)
		return err
	})
	require.NoError(t, err)
	return call
}

func TestSendStepNeedsBadge(t *testing.T) {
	n := setup(t)
	assert.ErrorIs(t, park(n, bob, 3), reentrancy.ErrUnauthorized)
	assert.Nil(t, pending(t, n, 3))
}

func TestSendStepParksOnce(t *testing.T) {
	n := setup(t)
	require.NoError(t, park(n, admin, 3))

	call := pending(t, n, 3)
	require.NotNil(t, call)
	assert.Equal(t, node.StakingAddress, call.Component)
	assert.Equal(t, staking.MethodSyncRewards, call.Method)

	assert.ErrorIs(t, park(n, admin, 3), reentrancy.ErrPending)
	assert.Nil(t, pending(t, n, 4))
}

func TestUnknownMethod(t *testing.T) {
	n := setup(t)
	_, err := n.Exec(context.Background(), admin, at+10, func(tx *host.Tx) error {
		_, err := tx.Call("", node.ProxyAddress, "run", nil)
		return err
	})
	assert.ErrorIs(t, err, contract.ErrUnknownMethod)
}

func TestExecuteWithoutPending(t *testing.T) {
	n := setup(t)
	_, err := n.Exec(context.Background(), bob, at+30, func(tx *host.Tx) error {
		return n.Proxy.Execute(tx, 1)
	})
	assert.ErrorIs(t, err, reentrancy.ErrNoPending)
}

func TestExecuteRollsBackWhenGovernanceRefuses(t *testing.T) {
	n := setup(t)
	require.NoError(t, park(n, admin, 9))

	_, err := n.Exec(context.Background(), bob, at+30, func(tx *host.Tx) error {
		return n.Proxy.Execute(tx, 9)
	})
	assert.ErrorIs(t, err, contract.ErrNotFound)
	// the parked call survives the aborted attempt
	assert.NotNil(t, pending(t, n, 9))
}
