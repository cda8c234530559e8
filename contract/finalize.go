package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"

	"github.com/shopspring/decimal"
)

// FinishVoting closes the vote once the deadline passed. Tallies are converted from pool units
// to real value first; falling short of quorum or threshold is a Rejected outcome, not an error.
func (g *Governance) FinishVoting(tx *host.Tx, id uint64) (gov.ProposalStatus, error) {
	var status gov.ProposalStatus
	err := g.enter(tx, func(w *gov.Wiring) error {
		p, err := loadProposal(tx, id)
		if err != nil {
			return err
		}
		if !p.Status.IsVoting() {
			return fmt.Errorf("%w: proposal %d is %s, not open for voting", ErrPhaseViolation, id, p.Status)
		}
		if tx.Now() < p.Deadline {
			return fmt.Errorf("%w: voting on proposal %d has not ended yet", ErrWindowClosed, id)
		}
		params, err := loadParameters(tx)
		if err != nil {
			return err
		}
		o, err := oracle(tx, w)
		if err != nil {
			return err
		}
		var multiplier decimal.Decimal
		err = tx.Invoke("", w.Staking, func() error {
			var err error
			multiplier, err = o.RealAmount(tx, one)
			return err
		})
		if err != nil {
			return err
		}

		votesFor := p.VotesFor.Mul(multiplier)
		total := votesFor.Add(p.VotesAgainst.Mul(multiplier))
		if votesFor.GreaterThan(params.ApprovalThreshold.Mul(total)) && total.GreaterThanOrEqual(params.Quorum) {
			p.Status = gov.StatusAccepted
		} else {
			p.Status = gov.StatusRejected
			if err := g.refundToTreasury(tx, w, id); err != nil {
				return err
			}
		}
		if err := saveProposal(tx, p); err != nil {
			return err
		}
		if err := mirrorStatus(tx, p); err != nil {
			return err
		}
		emitProposalStateChangedEvent(tx, id, p.Status)
		status = p.Status
		return nil
	})
	return status, err
}

// HurryProposal lets the controller pull an ongoing proposal's deadline in to now + newDuration
// minutes. It never pushes a deadline out.
func (g *Governance) HurryProposal(tx *host.Tx, id uint64, newDuration int64) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		return g.hurryProposal(tx, w, id, newDuration)
	})
}

func (g *Governance) hurryProposal(tx *host.Tx, w *gov.Wiring, id uint64, newDuration int64) error {
	if err := requireOwner(tx, w); err != nil {
		return err
	}
	p, err := loadProposal(tx, id)
	if err != nil {
		return err
	}
	if p.Status != gov.StatusOngoing {
		return fmt.Errorf("%w: proposal %d is %s, only ongoing proposals can be hurried", ErrPhaseViolation, id, p.Status)
	}
	if newDuration <= 0 {
		return fmt.Errorf("%w: new duration must be positive", ErrParameterInvalid)
	}
	newDeadline := tx.Now() + newDuration*minute
	if newDeadline > p.Deadline {
		return fmt.Errorf("%w: new deadline is after the current one", ErrParameterInvalid)
	}
	p.Deadline = newDeadline
	if err := saveProposal(tx, p); err != nil {
		return err
	}
	emitDeadlineEvent(tx, id, p.Deadline)
	return nil
}
