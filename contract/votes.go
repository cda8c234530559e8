package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// isPassing applies the approval check. Strictly greater, so a tie counts as failing.
func isPassing(p *gov.Proposal, threshold decimal.Decimal) bool {
	return p.VotesFor.GreaterThan(threshold.Mul(p.TotalVotes()))
}

// engageVeto flips the proposal into veto mode and gives defenders one more minute.
func (g *Governance) engageVeto(tx *host.Tx, p *gov.Proposal) {
	p.LastDay = gov.LastDayFailing
	p.Deadline += minute
	if p.Status != gov.StatusVetoMode {
		p.Status = gov.StatusVetoMode
		g.logger.Debug("veto mode engaged", "proposal", p.ID, "deadline", p.Deadline)
		emitProposalStateChangedEvent(tx, p.ID, p.Status)
	}
	emitDeadlineEvent(tx, p.ID, p.Deadline)
}

// VoteOnProposal records one vote per voting id. The first vote inside the final minute decides
// whether the proposal is failing; a failing proposal (or one a later vote tips into failing)
// enters veto mode with one more minute on the clock, and from then on only votes against are
// taken in the last minute.
func (g *Governance) VoteOnProposal(tx *host.Tx, id uint64, forAgainst bool, voter sdk.NonFungibleProof) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		p, err := loadProposal(tx, id)
		if err != nil {
			return err
		}
		if !p.Status.IsVoting() {
			return fmt.Errorf("%w: proposal %d is %s, not open for voting", ErrPhaseViolation, id, p.Status)
		}
		params, err := loadParameters(tx)
		if err != nil {
			return err
		}

		now := tx.Now()
		inLastMinute := now >= p.Deadline-minute
		if p.Status == gov.StatusVetoMode && inLastMinute && forAgainst {
			return fmt.Errorf("%w: proposal %d is in veto mode, only votes against are accepted", ErrPhaseViolation, id)
		}
		if inLastMinute && p.LastDay == gov.LastDayUnchecked && p.Status == gov.StatusOngoing {
			if isPassing(p, params.ApprovalThreshold) {
				p.LastDay = gov.LastDayPassing
			} else {
				g.engageVeto(tx, p)
			}
		}

		votingID, err := tx.CheckProof(voter, w.VotingIDResource)
		if err != nil {
			return fmt.Errorf("%w: invalid voting id: %v", ErrUnauthorized, err)
		}
		prev, voted, err := loadVote(tx, id, votingID)
		if err != nil {
			return err
		}
		if voted {
			side := "for"
			if prev.IsNegative() {
				side = "against"
			}
			return fmt.Errorf("%w: voting id %d already voted %s proposal %d", ErrDoubleVote, votingID, side, id)
		}
		if now >= p.Deadline {
			return fmt.Errorf("%w: voting on proposal %d has ended", ErrWindowClosed, id)
		}

		o, err := oracle(tx, w)
		if err != nil {
			return err
		}
		var power decimal.Decimal
		err = tx.Invoke(w.ControllerBadge, w.Staking, func() error {
			var err error
			power, err = o.AcquireVotePower(tx, p.Deadline+minute, votingID)
			return err
		})
		if err != nil {
			return err
		}
		if power.IsNegative() {
			return fmt.Errorf("%w: negative vote power %s", ErrParameterInvalid, power)
		}

		signed := power
		if forAgainst {
			p.VotesFor = p.VotesFor.Add(power)
		} else {
			p.VotesAgainst = p.VotesAgainst.Add(power)
			signed = power.Neg()
		}
		if err := saveVote(tx, id, votingID, signed); err != nil {
			return err
		}
		emitVoteCastEvent(tx, id, votingID, forAgainst, power)

		if p.LastDay != gov.LastDayUnchecked && p.Status == gov.StatusOngoing && !isPassing(p, params.ApprovalThreshold) {
			g.engageVeto(tx, p)
		}
		return saveProposal(tx, p)
	})
}
