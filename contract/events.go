package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// emitInitEvent marks the one-time setup so indexers know where the receipts live.
func emitInitEvent(tx *host.Tx, w *gov.Wiring) {
	tx.Log(fmt.Sprintf("gi|r:%s|st:%s|px:%s", w.ReceiptResource, w.Staking, w.Proxy))
}

// emitProposalCreatedEvent keeps observers updated with a short pc line for every new idea.
func emitProposalCreatedEvent(tx *host.Tx, proposalID uint64, by sdk.Address, fee decimal.Decimal) {
	tx.Log(fmt.Sprintf("pc|id:%d|by:%s|fee:%s", proposalID, by, fee))
}

// emitStepAddedEvent tells watchers the step list grew while the proposal is still being built.
func emitStepAddedEvent(tx *host.Tx, proposalID uint64, index int, step *gov.ProposalStep) {
	tx.Log(fmt.Sprintf("pa|id:%d|i:%d|c:%s|m:%s", proposalID, index, step.Component, step.Method))
}

// emitProposalStateChangedEvent is the swiss army knife log entry for any state flip.
func emitProposalStateChangedEvent(tx *host.Tx, proposalID uint64, status gov.ProposalStatus) {
	tx.Log(fmt.Sprintf("ps|id:%d|s:%s", proposalID, status))
}

// emitVoteCastEvent records direction and weight; the voting id stands in for the voter.
func emitVoteCastEvent(tx *host.Tx, proposalID, votingID uint64, forAgainst bool, power decimal.Decimal) {
	tx.Log(fmt.Sprintf("vc|id:%d|v:%d|f:%t|w:%s", proposalID, votingID, forAgainst, power))
}

// emitDeadlineEvent fires whenever the voting deadline moves (veto extension or hurry).
func emitDeadlineEvent(tx *host.Tx, proposalID uint64, deadline int64) {
	tx.Log(fmt.Sprintf("pd|id:%d|dl:%d", proposalID, deadline))
}

// emitStepExecutedEvent logs each dispatched step so runners can follow the cursor.
func emitStepExecutedEvent(tx *host.Tx, proposalID, index uint64) {
	tx.Log(fmt.Sprintf("xs|id:%d|i:%d", proposalID, index))
}

// emitStepDeferredEvent tells runners to go poke the reentrancy proxy.
func emitStepDeferredEvent(tx *host.Tx, proposalID, index uint64, proxy sdk.Address) {
	tx.Log(fmt.Sprintf("xd|id:%d|i:%d|px:%s", proposalID, index, proxy))
}

// emitFeeRetrievedEvent marks the bonded fee leaving escrow to the receipt holder.
func emitFeeRetrievedEvent(tx *host.Tx, proposalID uint64, to sdk.Address, amount decimal.Decimal) {
	tx.Log(fmt.Sprintf("fr|id:%d|to:%s|a:%s", proposalID, to, amount))
}

// emitTokensPutEvent logs tokens landing in the treasury.
func emitTokensPutEvent(tx *host.Tx, asset sdk.Asset, amount decimal.Decimal) {
	tx.Log(fmt.Sprintf("tp|a:%s|amt:%s", asset, amount))
}

// emitTokensSentEvent logs tokens leaving the treasury.
func emitTokensSentEvent(tx *host.Tx, asset sdk.Asset, amount decimal.Decimal, to sdk.Address) {
	tx.Log(fmt.Sprintf("ts|a:%s|amt:%s|to:%s", asset, amount, to))
}

// emitParametersEvent dumps the new parameter set in one line.
func emitParametersEvent(tx *host.Tx, p *gov.GovernanceParameters) {
	tx.Log(fmt.Sprintf("pp|fee:%s|dur:%d|q:%s|t:%s|sd:%d", p.Fee, p.ProposalDuration, p.Quorum, p.ApprovalThreshold, p.MaxSubmitDelay))
}

// emitStakingChangedEvent logs an oracle swap.
func emitStakingChangedEvent(tx *host.Tx, component sdk.Address, votingID sdk.Asset) {
	tx.Log(fmt.Sprintf("sc|c:%s|v:%s", component, votingID))
}
