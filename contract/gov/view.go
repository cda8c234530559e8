package gov

import (
	"encoding/hex"

	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jwriter"
)

// The marshalers below follow the shape tinyjson generates. Amounts go out as strings so no
// precision is lost on the way to a JS client.

func (p *Proposal) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.Uint64(p.ID)
	w.RawString(`,"title":`)
	w.String(p.Title)
	w.RawString(`,"description":`)
	w.String(p.Description)
	w.RawString(`,"attachments":[`)
	for i, a := range p.Attachments {
		if i > 0 {
			w.RawByte(',')
		}
		w.RawString(`{"kvs_address":`)
		w.String(a.KvsAddress)
		w.RawString(`,"component":`)
		w.String(a.Component.String())
		w.RawString(`,"file_hash":`)
		w.String(a.FileHash)
		w.RawByte('}')
	}
	w.RawString(`],"steps":[`)
	for i := range p.Steps {
		if i > 0 {
			w.RawByte(',')
		}
		s := &p.Steps[i]
		w.RawString(`{"component":`)
		w.String(s.Component.String())
		w.RawString(`,"badge":`)
		w.String(s.Badge.String())
		w.RawString(`,"method":`)
		w.String(s.Method)
		w.RawString(`,"args":`)
		w.String(hex.EncodeToString(s.Args))
		w.RawString(`,"return_bucket":`)
		w.Bool(s.ReturnBucket)
		w.RawString(`,"reentrancy":`)
		w.Bool(s.Reentrancy)
		w.RawByte('}')
	}
	w.RawString(`],"votes_for":`)
	w.String(p.VotesFor.String())
	w.RawString(`,"votes_against":`)
	w.String(p.VotesAgainst.String())
	w.RawString(`,"deadline":`)
	w.Int64(p.Deadline)
	w.RawString(`,"last_day":`)
	w.String(p.LastDay.String())
	w.RawString(`,"next_index":`)
	w.Uint64(p.NextIndex)
	w.RawString(`,"status":`)
	w.String(p.Status.String())
	w.RawString(`,"reentrancy":`)
	w.Bool(p.Reentrancy)
	w.RawString(`,"created_at":`)
	w.Int64(p.CreatedAt)
	w.RawByte('}')
}

func (c *ReceiptClaim) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"proposal_id":`)
	w.Uint64(c.ProposalID)
	w.RawString(`,"fee_paid":`)
	w.String(c.FeePaid.String())
	w.RawString(`,"status":`)
	w.String(c.Status.String())
	w.RawByte('}')
}

func (p *GovernanceParameters) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"fee":`)
	w.String(p.Fee.String())
	w.RawString(`,"proposal_duration":`)
	w.Int64(p.ProposalDuration)
	w.RawString(`,"quorum":`)
	w.String(p.Quorum.String())
	w.RawString(`,"approval_threshold":`)
	w.String(p.ApprovalThreshold.String())
	w.RawString(`,"maximum_proposal_submit_delay":`)
	w.Int64(p.MaxSubmitDelay)
	w.RawByte('}')
}

// ToJSON renders any of the views above.
func ToJSON(v tinyjson.Marshaler) ([]byte, error) {
	return tinyjson.Marshal(v)
}
