package staking_test

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"testing"

	"okinoko_gov/host"
	"okinoko_gov/sdk"
	"okinoko_gov/staking"
	"okinoko_gov/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	admin      = sdk.Account("admin")
	alice      = sdk.Account("alice")
	token      = sdk.Resource("token")
	ids        = sdk.Resource("voting_id")
	controller = sdk.Resource("controller")
	govAddr    = sdk.Component("governance")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	t     *testing.T
	chain *host.Chain
	s     *staking.Staking
	now   int64
}

func setup(t *testing.T, opts ...staking.OptionFunc) *fixture {
	t.Helper()
	mem, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	f := &fixture{t: t, chain: host.New(mem), s: staking.New(sdk.Component("staking"), opts...), now: 1_700_000_000}
	f.chain.Register(f.s)
	f.exec(admin, func(tx *host.Tx) error {
		if err := tx.CreateResource(token); err != nil {
			return err
		}
		if err := tx.CreateResource(controller); err != nil {
			return err
		}
		if err := tx.Mint(controller, decimal.NewFromInt(1), govAddr); err != nil {
			return err
		}
		if err := tx.Mint(token, dec("100000"), alice); err != nil {
			return err
		}
		if err := tx.Mint(token, dec("100000"), admin); err != nil {
			return err
		}
		return f.s.Init(tx, staking.Config{Token: token, IDResource: ids, Controller: controller})
	})
	return f
}

func (f *fixture) run(sender sdk.Address, fn func(tx *host.Tx) error) error {
	f.t.Helper()
	env := sdk.Env{Sender: sdk.Sender{Address: sender}, Timestamp: strconv.FormatInt(f.now, 10)}
	_, err := f.chain.Exec(context.Background(), env, fn)
	return err
}

func (f *fixture) exec(sender sdk.Address, fn func(tx *host.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.run(sender, fn))
}

func (f *fixture) stake(sender sdk.Address, amount string) uint64 {
	f.t.Helper()
	var id uint64
	f.exec(sender, func(tx *host.Tx) error {
		var err error
		if id, err = f.s.CreateID(tx); err != nil {
			return err
		}
		b, err := tx.Withdraw(token, dec(amount))
		if err != nil {
			return err
		}
		_, err = f.s.Stake(tx, sdk.NonFungibleProof{Resource: ids, ID: id}, b)
		return err
	})
	return id
}

// acquire asks for vote power the way governance does: from its own frame, presenting the badge.
func (f *fixture) acquire(badge sdk.Asset, lockUntil int64, id uint64) (decimal.Decimal, error) {
	var power decimal.Decimal
	err := f.run(alice, func(tx *host.Tx) error {
		leave, err := tx.Enter(govAddr)
		if err != nil {
			return err
		}
		defer leave()
		return tx.Invoke(badge, f.s.Address(), func() error {
			var err error
			power, err = f.s.AcquireVotePower(tx, lockUntil, id)
			return err
		})
	})
	return power, err
}

func (f *fixture) realAmount(units string) decimal.Decimal {
	f.t.Helper()
	var v decimal.Decimal
	f.exec(alice, func(tx *host.Tx) error {
		return tx.Invoke("", f.s.Address(), func() error {
			var err error
			v, err = f.s.RealAmount(tx, dec(units))
			return err
		})
	})
	return v
}

func TestStakeAndUnstake(t *testing.T) {
	f := setup(t)
	id := f.stake(alice, "4000")

	var ident *staking.Identity
	f.exec(alice, func(tx *host.Tx) error {
		var err error
		ident, err = f.s.Identity(tx, id)
		return err
	})
	assert.True(t, dec("4000").Equal(ident.Units))

	f.exec(alice, func(tx *host.Tx) error {
		b, err := f.s.Unstake(tx, sdk.NonFungibleProof{Resource: ids, ID: id}, dec("1500"))
		if err != nil {
			return err
		}
		return tx.Deposit(alice, b)
	})
	f.exec(alice, func(tx *host.Tx) error {
		bal, err := tx.Balance(alice, token)
		assert.True(t, dec("97500").Equal(bal))
		return err
	})

	err := f.run(alice, func(tx *host.Tx) error {
		b, err := f.s.Unstake(tx, sdk.NonFungibleProof{Resource: ids, ID: id}, dec("5000"))
		if err != nil {
			return err
		}
		return tx.Deposit(alice, b)
	})
	assert.ErrorIs(t, err, staking.ErrInvalidAmount)
}

func TestStakeRequiresOwnID(t *testing.T) {
	f := setup(t)
	id := f.stake(alice, "1000")
	err := f.run(admin, func(tx *host.Tx) error {
		b, err := tx.Withdraw(token, dec("10"))
		if err != nil {
			return err
		}
		_, err = f.s.Stake(tx, sdk.NonFungibleProof{Resource: ids, ID: id}, b)
		return err
	})
	assert.ErrorIs(t, err, host.ErrUnauthorized)
}

func TestAcquireVotePowerNeedsBadge(t *testing.T) {
	f := setup(t)
	id := f.stake(alice, "3000")

	_, err := f.acquire("", f.now+600, id)
	assert.ErrorIs(t, err, staking.ErrUnauthorized)

	power, err := f.acquire(controller, f.now+600, id)
	require.NoError(t, err)
	assert.True(t, dec("3000").Equal(power))

	// an earlier lock never shortens the current one
	_, err = f.acquire(controller, f.now+60, id)
	require.NoError(t, err)

	f.now += 599
	err = f.run(alice, func(tx *host.Tx) error {
		b, err := f.s.Unstake(tx, sdk.NonFungibleProof{Resource: ids, ID: id}, dec("1"))
		if err != nil {
			return err
		}
		return tx.Deposit(alice, b)
	})
	assert.ErrorIs(t, err, staking.ErrLocked)

	f.now++
	f.exec(alice, func(tx *host.Tx) error {
		b, err := f.s.Unstake(tx, sdk.NonFungibleProof{Resource: ids, ID: id}, dec("1"))
		if err != nil {
			return err
		}
		return tx.Deposit(alice, b)
	})
}

func TestLocksAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := setup(t, staking.WithLogger(logger))
	id := f.stake(alice, "3000")

	_, err := f.acquire(controller, f.now+600, id)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"stake locked"`)

	buf.Reset()
	// an earlier lock changes nothing and logs nothing
	_, err = f.acquire(controller, f.now+60, id)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "stake locked")
}

func TestRewardsRaiseRealValue(t *testing.T) {
	f := setup(t)
	f.stake(alice, "2000")
	assert.True(t, dec("10").Equal(f.realAmount("10")))

	// a plain deposit is surplus until someone syncs it
	f.exec(admin, func(tx *host.Tx) error {
		b, err := tx.Withdraw(token, dec("2000"))
		if err != nil {
			return err
		}
		return tx.Deposit(f.s.Address(), b)
	})
	assert.True(t, dec("10").Equal(f.realAmount("10")))

	f.exec(admin, func(tx *host.Tx) error {
		_, err := tx.Call("", f.s.Address(), staking.MethodSyncRewards, nil)
		return err
	})
	assert.True(t, dec("20").Equal(f.realAmount("10")))

	// new stakers buy in at the new rate
	id := f.stake(admin, "1000")
	f.exec(admin, func(tx *host.Tx) error {
		ident, err := f.s.Identity(tx, id)
		assert.True(t, dec("500").Equal(ident.Units))
		return err
	})
}

func TestSetController(t *testing.T) {
	f := setup(t)
	id := f.stake(alice, "100")
	newBadge := sdk.Resource("controller2")

	err := f.run(alice, func(tx *host.Tx) error {
		_, err := tx.Call("", f.s.Address(), staking.MethodSetController, []byte(newBadge))
		return err
	})
	assert.ErrorIs(t, err, staking.ErrUnauthorized)

	f.exec(alice, func(tx *host.Tx) error {
		leave, err := tx.Enter(govAddr)
		if err != nil {
			return err
		}
		defer leave()
		_, err = tx.Call(controller, f.s.Address(), staking.MethodSetController, []byte(newBadge))
		return err
	})
	_, err = f.acquire(controller, f.now+60, id)
	assert.ErrorIs(t, err, staking.ErrUnauthorized)
}

func TestStakeWrongToken(t *testing.T) {
	f := setup(t)
	other := sdk.Resource("other")
	err := f.run(admin, func(tx *host.Tx) error {
		if err := tx.CreateResource(other); err != nil {
			return err
		}
		if err := tx.Mint(other, dec("10"), admin); err != nil {
			return err
		}
		id, err := f.s.CreateID(tx)
		if err != nil {
			return err
		}
		b, err := tx.Withdraw(other, dec("10"))
		if err != nil {
			return err
		}
		_, err = f.s.Stake(tx, sdk.NonFungibleProof{Resource: ids, ID: id}, b)
		return err
	})
	assert.ErrorIs(t, err, staking.ErrWrongToken)
}
