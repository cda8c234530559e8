package contract_test

import (
	"bytes"
	"log/slog"
	"testing"

	"okinoko_gov/contract"
	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/internal/node"
	"okinoko_gov/staking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every test in here submits at +20, so the voting deadline starts out at +200 and the last
// minute begins at +140.

func ongoingProposal(g *govTest) uint64 {
	id := g.createProposal(0, "10000", recordStep("one"))
	require.Equal(g.t, gov.StatusOngoing, g.submit(id, 20))
	return id
}

func TestDoubleVote(t *testing.T) {
	g := SetupGovernanceTest(t)
	voter, vid := g.newVoter("voter1", "20000")
	id := ongoingProposal(g)

	g.vote(voter, vid, id, true, 30, true)
	err := g.vote(voter, vid, id, true, 40, false)
	assert.ErrorIs(t, err, contract.ErrDoubleVote)
	err = g.vote(voter, vid, id, false, 40, false)
	assert.ErrorIs(t, err, contract.ErrDoubleVote)

	g.read(func(tx *host.Tx) error {
		power, ok, err := g.n.Gov.GetVote(tx, id, vid)
		require.True(t, ok)
		assert.True(t, dec("20000").Equal(power))
		return err
	})
	assert.True(t, dec("20000").Equal(g.proposal(id).VotesFor))
}

func TestVoteAgainstIsStoredNegative(t *testing.T) {
	g := SetupGovernanceTest(t)
	voter, vid := g.newVoter("voter1", "7000")
	id := ongoingProposal(g)
	g.vote(voter, vid, id, false, 30, true)
	g.read(func(tx *host.Tx) error {
		power, ok, err := g.n.Gov.GetVote(tx, id, vid)
		require.True(t, ok)
		assert.True(t, dec("-7000").Equal(power))
		return err
	})
	assert.True(t, dec("7000").Equal(g.proposal(id).VotesAgainst))
}

func TestVoteRequiresVotingID(t *testing.T) {
	g := SetupGovernanceTest(t)
	_, vid := g.newVoter("voter1", "20000")
	id := ongoingProposal(g)

	// outsider does not hold voter1's id
	err := g.vote(outsider, vid, id, true, 30, false)
	assert.ErrorIs(t, err, contract.ErrUnauthorized)

	// a receipt is not a voting id
	err = g.call(proposer, 30, false, func(tx *host.Tx) error {
		return g.n.Gov.VoteOnProposal(tx, id, true, receiptProof(id))
	})
	assert.ErrorIs(t, err, contract.ErrUnauthorized)
}

func TestVoteOnBuildingProposal(t *testing.T) {
	g := SetupGovernanceTest(t)
	voter, vid := g.newVoter("voter1", "20000")
	id := g.createProposal(0, "10000", recordStep("one"))
	err := g.vote(voter, vid, id, true, 30, false)
	assert.ErrorIs(t, err, contract.ErrPhaseViolation)
}

func TestVoteAfterDeadline(t *testing.T) {
	g := SetupGovernanceTest(t)
	v1, vid1 := g.newVoter("voter1", "20000")
	v2, vid2 := g.newVoter("voter2", "5000")
	id := ongoingProposal(g)

	g.vote(v1, vid1, id, true, 30, true)
	err := g.vote(v2, vid2, id, false, 200, false)
	assert.ErrorIs(t, err, contract.ErrWindowClosed)
	// nothing of the failed call stuck, not even the last-minute check
	p := g.proposal(id)
	assert.Equal(t, gov.LastDayUnchecked, p.LastDay)
	assert.Equal(t, g.t0+200, p.Deadline)
}

func TestVoteLocksStake(t *testing.T) {
	g := SetupGovernanceTest(t)
	voter, vid := g.newVoter("voter1", "20000")
	id := ongoingProposal(g)
	g.vote(voter, vid, id, true, 30, true)

	// locked until one minute past the deadline
	err := g.call(voter, 259, false, func(tx *host.Tx) error {
		b, err := g.n.Staking.Unstake(tx, votingProof(vid), dec("1000"))
		if err != nil {
			return err
		}
		return tx.Deposit(voter, b)
	})
	assert.ErrorIs(t, err, staking.ErrLocked)

	g.call(voter, 260, true, func(tx *host.Tx) error {
		b, err := g.n.Staking.Unstake(tx, votingProof(vid), dec("1000"))
		if err != nil {
			return err
		}
		return tx.Deposit(voter, b)
	})
	assert.True(t, dec("1000").Equal(g.balance(voter, node.FeeToken)))
}

// =============================================================================
// Veto Mode Tests
// =============================================================================

func TestVetoModeBlocksLastMinuteSupport(t *testing.T) {
	g := SetupGovernanceTest(t)
	against, vidAgainst := g.newVoter("against", "20000")
	late, vidLate := g.newVoter("late", "30000")
	sniper, vidSniper := g.newVoter("sniper", "10000")
	id := ongoingProposal(g)

	g.vote(against, vidAgainst, id, false, 30, true)

	// first vote of the last minute finds the proposal failing
	g.vote(late, vidLate, id, true, 150, true)
	p := g.proposal(id)
	assert.Equal(t, gov.StatusVetoMode, p.Status)
	assert.Equal(t, gov.LastDayFailing, p.LastDay)
	assert.Equal(t, g.t0+260, p.Deadline)

	// the new last minute starts at +200
	err := g.vote(sniper, vidSniper, id, true, 210, false)
	assert.ErrorIs(t, err, contract.ErrPhaseViolation)
	g.vote(sniper, vidSniper, id, false, 210, true)

	err = g.call(outsider, 259, false, func(tx *host.Tx) error {
		_, err := g.n.Gov.FinishVoting(tx, id)
		return err
	})
	assert.ErrorIs(t, err, contract.ErrWindowClosed)

	// 30000 for against 30000 against is a tie, and a tie fails
	assert.Equal(t, gov.StatusRejected, g.finish(id, 260))
	assert.True(t, g.escrow().IsZero())
	assert.True(t, dec("10000").Equal(g.treasury()))
}

func TestVetoModeIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g := SetupGovernanceTest(t, node.WithLogger(logger))
	against, vidAgainst := g.newVoter("against", "20000")
	trigger, vidTrigger := g.newVoter("trigger", "1000")
	id := ongoingProposal(g)

	g.vote(against, vidAgainst, id, false, 30, true)
	assert.NotContains(t, buf.String(), "veto mode engaged")
	g.vote(trigger, vidTrigger, id, false, 150, true)
	assert.Contains(t, buf.String(), `"msg":"veto mode engaged"`)
}

func TestVetoModeAllowsSupportBeforeLastMinute(t *testing.T) {
	g := SetupGovernanceTest(t)
	against, vidAgainst := g.newVoter("against", "20000")
	trigger, vidTrigger := g.newVoter("trigger", "1000")
	support, vidSupport := g.newVoter("support", "50000")
	id := ongoingProposal(g)

	g.vote(against, vidAgainst, id, false, 30, true)
	g.vote(trigger, vidTrigger, id, false, 150, true)
	require.Equal(t, gov.StatusVetoMode, g.proposal(id).Status)

	// deadline moved to +260, so +190 is outside its last minute
	g.vote(support, vidSupport, id, true, 190, true)
	assert.Equal(t, gov.StatusAccepted, g.finish(id, 260))
}

func TestLateVoteTipsPassingProposalIntoVeto(t *testing.T) {
	g := SetupGovernanceTest(t)
	support, vidSupport := g.newVoter("support", "20000")
	against, vidAgainst := g.newVoter("against", "30000")
	id := ongoingProposal(g)

	g.vote(support, vidSupport, id, true, 30, true)
	g.vote(against, vidAgainst, id, false, 150, true)

	p := g.proposal(id)
	assert.Equal(t, gov.StatusVetoMode, p.Status)
	assert.Equal(t, gov.LastDayFailing, p.LastDay)
	assert.Equal(t, g.t0+260, p.Deadline)
	assert.Equal(t, gov.StatusRejected, g.finish(id, 260))
}

func TestPassingLastMinuteStaysOngoing(t *testing.T) {
	g := SetupGovernanceTest(t)
	v1, vid1 := g.newVoter("voter1", "20000")
	v2, vid2 := g.newVoter("voter2", "10000")
	id := ongoingProposal(g)

	g.vote(v1, vid1, id, true, 30, true)
	g.vote(v2, vid2, id, true, 150, true)

	p := g.proposal(id)
	assert.Equal(t, gov.StatusOngoing, p.Status)
	assert.Equal(t, gov.LastDayPassing, p.LastDay)
	assert.Equal(t, g.t0+200, p.Deadline)
	assert.Equal(t, gov.StatusAccepted, g.finish(id, 200))
}

func TestNoLastMinuteVoteSkipsVeto(t *testing.T) {
	g := SetupGovernanceTest(t)
	v1, vid1 := g.newVoter("voter1", "20000")
	id := ongoingProposal(g)
	g.vote(v1, vid1, id, true, 30, true)
	p := g.proposal(id)
	assert.Equal(t, gov.LastDayUnchecked, p.LastDay)
	assert.Equal(t, gov.StatusAccepted, g.finish(id, 200))
}

// =============================================================================
// Finalization Tests
// =============================================================================

func TestBelowQuorumIsRejected(t *testing.T) {
	g := SetupGovernanceTest(t)
	v1, vid1 := g.newVoter("voter1", "5000")
	id := ongoingProposal(g)
	g.vote(v1, vid1, id, true, 30, true)

	assert.Equal(t, gov.StatusRejected, g.finish(id, 200))
	assert.Equal(t, gov.StatusRejected, g.receipt(id).Status)
	assert.True(t, g.escrow().IsZero())
	assert.True(t, dec("10000").Equal(g.treasury()))

	err := g.call(proposer, 210, false, func(tx *host.Tx) error {
		fee, err := g.n.Gov.RetrieveFee(tx, receiptProof(id))
		if err != nil {
			return err
		}
		return tx.Deposit(proposer, fee)
	})
	assert.ErrorIs(t, err, contract.ErrPhaseViolation)

	err = g.call(outsider, 220, false, func(tx *host.Tx) error {
		_, err := g.n.Gov.FinishVoting(tx, id)
		return err
	})
	assert.ErrorIs(t, err, contract.ErrPhaseViolation)
}

func TestTieIsRejected(t *testing.T) {
	g := SetupGovernanceTest(t)
	v1, vid1 := g.newVoter("voter1", "10000")
	v2, vid2 := g.newVoter("voter2", "10000")
	id := ongoingProposal(g)
	g.vote(v1, vid1, id, true, 30, true)
	g.vote(v2, vid2, id, false, 40, true)
	assert.Equal(t, gov.StatusRejected, g.finish(id, 200))
}

func TestTalliesUseRealValue(t *testing.T) {
	g := SetupGovernanceTest(t)
	v1, vid1 := g.newVoter("voter1", "6000")
	id := ongoingProposal(g)
	g.vote(v1, vid1, id, true, 30, true)

	// 6000 units alone miss the 10000 quorum; rewards double the value of every unit
	g.call(admin, 40, true, func(tx *host.Tx) error {
		b, err := tx.Withdraw(node.FeeToken, dec("6000"))
		if err != nil {
			return err
		}
		return g.n.Staking.AddRewards(tx, b)
	})
	assert.True(t, dec("6000").Equal(g.proposal(id).VotesFor))
	assert.Equal(t, gov.StatusAccepted, g.finish(id, 200))
}
