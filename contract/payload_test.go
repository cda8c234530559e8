package contract

import (
	"testing"

	"okinoko_gov/contract/gov"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSetParametersArgs(t *testing.T) {
	p, err := decodeSetParametersArgs([]byte("5000|7|10000|0.5|7"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(p.Fee))
	assert.Equal(t, int64(7), p.ProposalDuration)
	assert.True(t, decimal.RequireFromString("0.5").Equal(p.ApprovalThreshold))

	want := gov.DefaultParameters()
	got, err := decodeSetParametersArgs(SetParametersArgs(want))
	require.NoError(t, err)
	assert.True(t, want.Quorum.Equal(got.Quorum))
	assert.Equal(t, want.MaxSubmitDelay, got.MaxSubmitDelay)

	for _, bad := range []string{"", "5000|7|10000|0.5", "x|7|10000|0.5|7", "5000|seven|10000|0.5|7"} {
		_, err := decodeSetParametersArgs([]byte(bad))
		assert.ErrorIs(t, err, ErrParameterInvalid, bad)
	}
}

func TestDecodeHurryArgs(t *testing.T) {
	id, dur, err := decodeHurryArgs([]byte(" 4 | 1 "))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)
	assert.Equal(t, int64(1), dur)

	_, _, err = decodeHurryArgs([]byte("-1|1"))
	assert.ErrorIs(t, err, ErrParameterInvalid)
}

func TestDecodeSendTokensArgs(t *testing.T) {
	asset, amount, to, err := decodeSendTokensArgs([]byte("resource:gov_token|250|account:alice"))
	require.NoError(t, err)
	assert.Equal(t, sdk.Resource("gov_token"), asset)
	assert.True(t, decimal.NewFromInt(250).Equal(amount))
	assert.Equal(t, sdk.Account("alice"), to)

	// no receiver means the bucket goes back to the caller
	_, _, to, err = decodeSendTokensArgs([]byte("resource:gov_token|250"))
	require.NoError(t, err)
	assert.Empty(t, to)

	_, _, _, err = decodeSendTokensArgs([]byte("gov_token|250"))
	assert.ErrorIs(t, err, ErrParameterInvalid)
}

func TestDecodeSetStakingArgs(t *testing.T) {
	comp, vid, err := decodeSetStakingArgs(SetStakingArgs(sdk.Component("staking2"), sdk.Resource("voting_id2")))
	require.NoError(t, err)
	assert.Equal(t, sdk.Component("staking2"), comp)
	assert.Equal(t, sdk.Resource("voting_id2"), vid)

	_, _, err = decodeSetStakingArgs([]byte("account:bob|resource:voting_id2"))
	assert.ErrorIs(t, err, ErrParameterInvalid)
}

func TestValidateParameters(t *testing.T) {
	p := gov.DefaultParameters()
	require.NoError(t, validateParameters(&p))

	p.ApprovalThreshold = one
	assert.NoError(t, validateParameters(&p))

	p.ApprovalThreshold = decimal.Zero
	assert.ErrorIs(t, validateParameters(&p), ErrParameterInvalid)

	p = gov.DefaultParameters()
	p.Fee = decimal.NewFromInt(-1)
	assert.ErrorIs(t, validateParameters(&p), ErrParameterInvalid)

	p = gov.DefaultParameters()
	p.MaxSubmitDelay = 0
	assert.ErrorIs(t, validateParameters(&p), ErrParameterInvalid)
}
