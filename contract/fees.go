package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"
)

// RetrieveFee pays the bonded fee back to the receipt holder once the proposal executed.
// Receipt and proposal both end in Finished, so the fee can only come out once.
func (g *Governance) RetrieveFee(tx *host.Tx, receipt sdk.NonFungibleProof) (sdk.Bucket, error) {
	var fee sdk.Bucket
	err := g.enter(tx, func(w *gov.Wiring) error {
		id, err := receiptHolder(tx, w, receipt)
		if err != nil {
			return err
		}
		claim, err := loadReceiptClaim(tx, id)
		if err != nil {
			return err
		}
		if claim.Status != gov.StatusExecuted {
			return fmt.Errorf("%w: proposal %d is %s, fees are returned after execution", ErrPhaseViolation, id, claim.Status)
		}
		p, err := loadProposal(tx, id)
		if err != nil {
			return err
		}
		if err := g.releaseFee(tx, claim.FeePaid); err != nil {
			return err
		}
		if fee, err = tx.Withdraw(w.FeeToken, claim.FeePaid); err != nil {
			return err
		}
		claim.Status = gov.StatusFinished
		p.Status = gov.StatusFinished
		if err := saveReceiptClaim(tx, claim); err != nil {
			return err
		}
		if err := saveProposal(tx, p); err != nil {
			return err
		}
		emitProposalStateChangedEvent(tx, id, p.Status)
		emitFeeRetrievedEvent(tx, id, tx.Caller(), claim.FeePaid)
		return nil
	})
	if err != nil {
		return sdk.Bucket{}, err
	}
	return fee, nil
}
