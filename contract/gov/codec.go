package gov

import (
	"bytes"
	"encoding/binary"
	"errors"

	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

var errTruncated = errors.New("truncated data")

type binWriter struct {
	buf bytes.Buffer
}

func newWriter() *binWriter { return &binWriter{} }

func (w *binWriter) bytes() []byte { return w.buf.Bytes() }

func (w *binWriter) writeBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *binWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) writeInt64(v int64) {
	w.writeUint64(uint64(v))
}

func (w *binWriter) writeVarUint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

func (w *binWriter) writeString(s string) {
	w.writeVarUint(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *binWriter) writeBytes(b []byte) {
	w.writeVarUint(uint64(len(b)))
	w.buf.Write(b)
}

// writeDecimal stores the exact decimal text, which keeps arbitrary precision intact.
func (w *binWriter) writeDecimal(d decimal.Decimal) {
	w.writeString(d.String())
}

func (w *binWriter) writeAddress(a sdk.Address) {
	w.writeString(a.String())
}

func (w *binWriter) writeAsset(a sdk.Asset) {
	w.writeString(a.String())
}

type binReader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *binReader {
	return &binReader{data: data}
}

func (r *binReader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errTruncated
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *binReader) readBool() (bool, error) {
	b, err := r.readByte()
	if err != nil {
		return false, err
	}
	return b == 1, nil
}

func (r *binReader) readUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *binReader) readInt64() (int64, error) {
	v, err := r.readUint64()
	return int64(v), err
}

func (r *binReader) readVarUint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, errTruncated
	}
	r.pos += n
	return v, nil
}

func (r *binReader) readBytes() ([]byte, error) {
	l, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if uint64(len(r.data)-r.pos) < l {
		return nil, errTruncated
	}
	out := make([]byte, l)
	copy(out, r.data[r.pos:r.pos+int(l)])
	r.pos += int(l)
	return out, nil
}

func (r *binReader) readString() (string, error) {
	b, err := r.readBytes()
	return string(b), err
}

func (r *binReader) readDecimal() (decimal.Decimal, error) {
	s, err := r.readString()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

func (r *binReader) readAddress() (sdk.Address, error) {
	s, err := r.readString()
	return sdk.Address(s), err
}

func (r *binReader) readAsset() (sdk.Asset, error) {
	s, err := r.readString()
	return sdk.Asset(s), err
}

// -----------------------------------------------------------------------------
// Steps
// -----------------------------------------------------------------------------

func encodeStep(w *binWriter, s *ProposalStep) {
	w.writeAddress(s.Component)
	w.writeAsset(s.Badge)
	w.writeString(s.Method)
	w.writeBytes(s.Args)
	w.writeBool(s.ReturnBucket)
	w.writeBool(s.Reentrancy)
}

func decodeStep(r *binReader) (ProposalStep, error) {
	var s ProposalStep
	var err error
	if s.Component, err = r.readAddress(); err != nil {
		return s, err
	}
	if s.Badge, err = r.readAsset(); err != nil {
		return s, err
	}
	if s.Method, err = r.readString(); err != nil {
		return s, err
	}
	if s.Args, err = r.readBytes(); err != nil {
		return s, err
	}
	if s.ReturnBucket, err = r.readBool(); err != nil {
		return s, err
	}
	if s.Reentrancy, err = r.readBool(); err != nil {
		return s, err
	}
	return s, nil
}

// -----------------------------------------------------------------------------
// Proposals
// -----------------------------------------------------------------------------

func EncodeProposal(p *Proposal) []byte {
	w := newWriter()
	w.writeUint64(p.ID)
	w.writeString(p.Title)
	w.writeString(p.Description)
	w.writeVarUint(uint64(len(p.Attachments)))
	for _, a := range p.Attachments {
		w.writeString(a.KvsAddress)
		w.writeAddress(a.Component)
		w.writeString(a.FileHash)
	}
	w.writeVarUint(uint64(len(p.Steps)))
	for i := range p.Steps {
		encodeStep(w, &p.Steps[i])
	}
	w.writeDecimal(p.VotesFor)
	w.writeDecimal(p.VotesAgainst)
	w.writeInt64(p.Deadline)
	w.buf.WriteByte(byte(p.LastDay))
	w.writeUint64(p.NextIndex)
	w.buf.WriteByte(byte(p.Status))
	w.writeBool(p.Reentrancy)
	w.writeInt64(p.CreatedAt)
	return w.bytes()
}

func DecodeProposal(data []byte) (*Proposal, error) {
	r := newReader(data)
	p := &Proposal{}
	var err error
	if p.ID, err = r.readUint64(); err != nil {
		return nil, err
	}
	if p.Title, err = r.readString(); err != nil {
		return nil, err
	}
	if p.Description, err = r.readString(); err != nil {
		return nil, err
	}
	count, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		var a Attachment
		if a.KvsAddress, err = r.readString(); err != nil {
			return nil, err
		}
		if a.Component, err = r.readAddress(); err != nil {
			return nil, err
		}
		if a.FileHash, err = r.readString(); err != nil {
			return nil, err
		}
		p.Attachments = append(p.Attachments, a)
	}
	if count, err = r.readVarUint(); err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		s, err := decodeStep(r)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, s)
	}
	if p.VotesFor, err = r.readDecimal(); err != nil {
		return nil, err
	}
	if p.VotesAgainst, err = r.readDecimal(); err != nil {
		return nil, err
	}
	if p.Deadline, err = r.readInt64(); err != nil {
		return nil, err
	}
	b, err := r.readByte()
	if err != nil {
		return nil, err
	}
	p.LastDay = LastDayCheck(b)
	if p.NextIndex, err = r.readUint64(); err != nil {
		return nil, err
	}
	if b, err = r.readByte(); err != nil {
		return nil, err
	}
	p.Status = ProposalStatus(b)
	if p.Reentrancy, err = r.readBool(); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = r.readInt64(); err != nil {
		return nil, err
	}
	return p, nil
}

// -----------------------------------------------------------------------------
// Receipts, parameters, wiring
// -----------------------------------------------------------------------------

func EncodeReceiptClaim(c *ReceiptClaim) []byte {
	w := newWriter()
	w.writeUint64(c.ProposalID)
	w.writeDecimal(c.FeePaid)
	w.buf.WriteByte(byte(c.Status))
	return w.bytes()
}

func DecodeReceiptClaim(data []byte) (*ReceiptClaim, error) {
	r := newReader(data)
	c := &ReceiptClaim{}
	var err error
	if c.ProposalID, err = r.readUint64(); err != nil {
		return nil, err
	}
	if c.FeePaid, err = r.readDecimal(); err != nil {
		return nil, err
	}
	b, err := r.readByte()
	if err != nil {
		return nil, err
	}
	c.Status = ProposalStatus(b)
	return c, nil
}

func EncodeParameters(p *GovernanceParameters) []byte {
	w := newWriter()
	w.writeDecimal(p.Fee)
	w.writeInt64(p.ProposalDuration)
	w.writeDecimal(p.Quorum)
	w.writeDecimal(p.ApprovalThreshold)
	w.writeInt64(p.MaxSubmitDelay)
	return w.bytes()
}

func DecodeParameters(data []byte) (*GovernanceParameters, error) {
	r := newReader(data)
	p := &GovernanceParameters{}
	var err error
	if p.Fee, err = r.readDecimal(); err != nil {
		return nil, err
	}
	if p.ProposalDuration, err = r.readInt64(); err != nil {
		return nil, err
	}
	if p.Quorum, err = r.readDecimal(); err != nil {
		return nil, err
	}
	if p.ApprovalThreshold, err = r.readDecimal(); err != nil {
		return nil, err
	}
	if p.MaxSubmitDelay, err = r.readInt64(); err != nil {
		return nil, err
	}
	return p, nil
}

func EncodeWiring(c *Wiring) []byte {
	w := newWriter()
	w.writeAddress(c.Staking)
	w.writeAsset(c.VotingIDResource)
	w.writeAddress(c.Proxy)
	w.writeAsset(c.ControllerBadge)
	w.writeAsset(c.FeeToken)
	w.writeAsset(c.ReceiptResource)
	return w.bytes()
}

func DecodeWiring(data []byte) (*Wiring, error) {
	r := newReader(data)
	c := &Wiring{}
	var err error
	if c.Staking, err = r.readAddress(); err != nil {
		return nil, err
	}
	if c.VotingIDResource, err = r.readAsset(); err != nil {
		return nil, err
	}
	if c.Proxy, err = r.readAddress(); err != nil {
		return nil, err
	}
	if c.ControllerBadge, err = r.readAsset(); err != nil {
		return nil, err
	}
	if c.FeeToken, err = r.readAsset(); err != nil {
		return nil, err
	}
	if c.ReceiptResource, err = r.readAsset(); err != nil {
		return nil, err
	}
	return c, nil
}

func EncodeDeferredCall(c *DeferredCall) []byte {
	w := newWriter()
	w.writeAddress(c.Component)
	w.writeString(c.Method)
	w.writeBytes(c.Args)
	return w.bytes()
}

func DecodeDeferredCall(data []byte) (*DeferredCall, error) {
	r := newReader(data)
	c := &DeferredCall{}
	var err error
	if c.Component, err = r.readAddress(); err != nil {
		return nil, err
	}
	if c.Method, err = r.readString(); err != nil {
		return nil, err
	}
	if c.Args, err = r.readBytes(); err != nil {
		return nil, err
	}
	return c, nil
}

// Deferral is the payload governance hands the proxy: the parked call plus its proposal id.
type Deferral struct {
	ProposalID uint64
	Call       DeferredCall
}

func EncodeDeferral(d *Deferral) []byte {
	w := newWriter()
	w.writeUint64(d.ProposalID)
	w.writeBytes(EncodeDeferredCall(&d.Call))
	return w.bytes()
}

func DecodeDeferral(data []byte) (*Deferral, error) {
	r := newReader(data)
	id, err := r.readUint64()
	if err != nil {
		return nil, err
	}
	raw, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	call, err := DecodeDeferredCall(raw)
	if err != nil {
		return nil, err
	}
	return &Deferral{ProposalID: id, Call: *call}, nil
}
