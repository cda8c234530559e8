package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"
)

// ExecuteProposalStep runs up to maxSteps steps of an accepted proposal, resuming at the cursor.
// A step that targets governance itself, or is flagged for reentrancy, is handed to the proxy and
// ends the batch; the proposal then waits until the proxy reports back. Buckets returned by steps
// land in the treasury.
func (g *Governance) ExecuteProposalStep(tx *host.Tx, id uint64, maxSteps int64) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		p, err := loadProposal(tx, id)
		if err != nil {
			return err
		}
		if p.Status != gov.StatusAccepted {
			return fmt.Errorf("%w: proposal %d is %s, only accepted proposals execute", ErrPhaseViolation, id, p.Status)
		}
		if p.Reentrancy {
			return fmt.Errorf("%w: proposal %d step %d", ErrPendingReentrancy, id, p.NextIndex)
		}

		var returned []sdk.Bucket
		deferred := false
		for i := int64(0); i < maxSteps && !p.Done(); i++ {
			step := p.Steps[p.NextIndex]
			if step.Component == g.addr || step.Reentrancy {
				payload := gov.EncodeDeferral(&gov.Deferral{
					ProposalID: id,
					Call:       gov.DeferredCall{Component: step.Component, Method: step.Method, Args: step.Args},
				})
				if _, err := tx.Call(w.ControllerBadge, w.Proxy, MethodSendStep, payload); err != nil {
					return fmt.Errorf("defer step %d of proposal %d: %w", p.NextIndex, id, err)
				}
				deferred = true
				g.logger.Debug("step deferred to proxy", "proposal", id, "index", p.NextIndex, "component", step.Component)
				emitStepDeferredEvent(tx, id, p.NextIndex, w.Proxy)
				break
			}

			out, err := tx.Call(step.Badge, step.Component, step.Method, step.Args)
			if err != nil {
				return fmt.Errorf("step %d of proposal %d: %w", p.NextIndex, id, err)
			}
			if out != nil && !out.IsEmpty() {
				if !step.ReturnBucket {
					return fmt.Errorf("%w: step %d of proposal %d returned %s it did not declare", ErrParameterInvalid, p.NextIndex, id, out)
				}
				returned = append(returned, *out)
			}
			emitStepExecutedEvent(tx, id, p.NextIndex)
			p.NextIndex++
		}

		if deferred {
			p.Reentrancy = true
		} else if p.Done() {
			p.Status = gov.StatusExecuted
			if err := mirrorStatus(tx, p); err != nil {
				return err
			}
			emitProposalStateChangedEvent(tx, id, p.Status)
		}
		if err := saveProposal(tx, p); err != nil {
			return err
		}
		for _, b := range returned {
			if err := g.putTokens(tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

// FinishReentrancyStep is the proxy's callback after it ran a deferred step. Controller only.
func (g *Governance) FinishReentrancyStep(tx *host.Tx, id uint64) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		return g.finishReentrancyStep(tx, w, id)
	})
}

func (g *Governance) finishReentrancyStep(tx *host.Tx, w *gov.Wiring, id uint64) error {
	if err := requireOwner(tx, w); err != nil {
		return err
	}
	p, err := loadProposal(tx, id)
	if err != nil {
		return err
	}
	if !p.Reentrancy {
		return fmt.Errorf("%w: proposal %d has no deferred step", ErrPhaseViolation, id)
	}
	p.Reentrancy = false
	emitStepExecutedEvent(tx, id, p.NextIndex)
	p.NextIndex++
	if p.Done() {
		p.Status = gov.StatusExecuted
		if err := mirrorStatus(tx, p); err != nil {
			return err
		}
		emitProposalStateChangedEvent(tx, id, p.Status)
	}
	return saveProposal(tx, p)
}
