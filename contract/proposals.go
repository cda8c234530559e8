package contract

import (
	"fmt"
	"strings"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// ProposalInput is what a proposer supplies up front. A proposal always starts with one step.
type ProposalInput struct {
	Title       string
	Description string
	Attachments []gov.Attachment
	FirstStep   gov.ProposalStep
}

func validateStep(step *gov.ProposalStep) error {
	if !step.Component.IsComponent() {
		return fmt.Errorf("%w: step target %q is not a component", ErrParameterInvalid, step.Component)
	}
	if step.Badge != "" && !step.Badge.IsValid() {
		return fmt.Errorf("%w: step badge %q", ErrParameterInvalid, step.Badge)
	}
	if strings.TrimSpace(step.Method) == "" {
		return fmt.Errorf("%w: step method missing", ErrParameterInvalid)
	}
	return nil
}

// CreateProposal bonds exactly the configured fee out of payment and opens a proposal in building
// status. It returns the unused part of the payment and the proposal (and receipt) id.
func (g *Governance) CreateProposal(tx *host.Tx, in ProposalInput, payment sdk.Bucket) (sdk.Bucket, uint64, error) {
	var change sdk.Bucket
	var id uint64
	err := g.enter(tx, func(w *gov.Wiring) error {
		params, err := loadParameters(tx)
		if err != nil {
			return err
		}
		if payment.Asset != w.FeeToken {
			return fmt.Errorf("%w: fee must be paid in %s, got %s", ErrInsufficientPayment, w.FeeToken, payment.Asset)
		}
		if payment.Amount.LessThan(params.Fee) {
			return fmt.Errorf("%w: fee is %s, got %s", ErrInsufficientPayment, params.Fee, payment.Amount)
		}
		if strings.TrimSpace(in.Title) == "" {
			return fmt.Errorf("%w: title missing", ErrParameterInvalid)
		}
		if err := validateStep(&in.FirstStep); err != nil {
			return err
		}

		fee, rest, err := payment.Take(params.Fee)
		if err != nil {
			return err
		}
		if err := g.bondFee(tx, fee); err != nil {
			return err
		}

		if id, err = nextProposalID(tx); err != nil {
			return err
		}
		now := tx.Now()
		p := &gov.Proposal{
			ID:           id,
			Title:        in.Title,
			Description:  in.Description,
			Attachments:  in.Attachments,
			Steps:        []gov.ProposalStep{in.FirstStep},
			VotesFor:     decimal.Zero,
			VotesAgainst: decimal.Zero,
			Deadline:     now + params.MaxSubmitDelay*minute,
			Status:       gov.StatusBuilding,
			CreatedAt:    now,
		}
		if err := saveProposal(tx, p); err != nil {
			return err
		}
		proposer := tx.Caller()
		if err := tx.MintNonFungible(w.ReceiptResource, id, proposer); err != nil {
			return err
		}
		claim := &gov.ReceiptClaim{ProposalID: id, FeePaid: params.Fee, Status: gov.StatusBuilding}
		if err := saveReceiptClaim(tx, claim); err != nil {
			return err
		}
		emitProposalCreatedEvent(tx, id, proposer, params.Fee)
		change = rest
		return nil
	})
	if err != nil {
		return sdk.Bucket{}, 0, err
	}
	return change, id, nil
}

// receiptHolder validates the receipt proof and returns the proposal id behind it.
func receiptHolder(tx *host.Tx, w *gov.Wiring, proof sdk.NonFungibleProof) (uint64, error) {
	id, err := tx.CheckProof(proof, w.ReceiptResource)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid proposal receipt: %v", ErrUnauthorized, err)
	}
	return id, nil
}

// AddProposalStep appends a step while the proposal is still being built. Receipt holder only.
func (g *Governance) AddProposalStep(tx *host.Tx, receipt sdk.NonFungibleProof, step gov.ProposalStep) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		id, err := receiptHolder(tx, w, receipt)
		if err != nil {
			return err
		}
		claim, err := loadReceiptClaim(tx, id)
		if err != nil {
			return err
		}
		if claim.Status != gov.StatusBuilding {
			return fmt.Errorf("%w: proposal %d is %s, steps can only be added while building", ErrPhaseViolation, id, claim.Status)
		}
		if err := validateStep(&step); err != nil {
			return err
		}
		p, err := loadProposal(tx, id)
		if err != nil {
			return err
		}
		p.Steps = append(p.Steps, step)
		if err := saveProposal(tx, p); err != nil {
			return err
		}
		emitStepAddedEvent(tx, id, len(p.Steps)-1, &step)
		return nil
	})
}

// SubmitProposal starts the voting clock. A proposal submitted after its submission deadline is
// rejected on the spot and its fee goes to the treasury; that is a successful call with a
// rejected outcome, so the caller gets the resulting status back.
func (g *Governance) SubmitProposal(tx *host.Tx, receipt sdk.NonFungibleProof) (gov.ProposalStatus, error) {
	var status gov.ProposalStatus
	err := g.enter(tx, func(w *gov.Wiring) error {
		id, err := receiptHolder(tx, w, receipt)
		if err != nil {
			return err
		}
		claim, err := loadReceiptClaim(tx, id)
		if err != nil {
			return err
		}
		if claim.Status != gov.StatusBuilding {
			return fmt.Errorf("%w: proposal %d is %s, only building proposals can be submitted", ErrPhaseViolation, id, claim.Status)
		}
		p, err := loadProposal(tx, id)
		if err != nil {
			return err
		}
		params, err := loadParameters(tx)
		if err != nil {
			return err
		}

		now := tx.Now()
		if now > p.Deadline {
			if err := g.refundToTreasury(tx, w, id); err != nil {
				return err
			}
			p.Status = gov.StatusRejected
		} else {
			p.Status = gov.StatusOngoing
			p.Deadline = now + params.ProposalDuration*minute
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
