package contract

const (
	// kProposalMeta contains encoded Proposal records.
	kProposalMeta byte = 0x10
	// kVoteReceipt stores the signed power a voting id committed to a proposal.
	kVoteReceipt byte = 0x20
	// kReceiptClaim holds the data half of each proposal receipt.
	kReceiptClaim byte = 0x30
	// kSingleton prefixes the one-off records below.
	kSingleton byte = 0x40
)

var (
	wiringKey      = string([]byte{kSingleton, 0x01})
	parametersKey  = string([]byte{kSingleton, 0x02})
	feeEscrowKey   = string([]byte{kSingleton, 0x03})
	proposalsCount = string([]byte{kSingleton, 0x04})
)

// packU64LEInline sprinkles a uint64 into dst in little-endian order so our keys stay compact.
func packU64LEInline(x uint64, dst []byte) {
	dst[0] = byte(x)
	dst[1] = byte(x >> 8)
	dst[2] = byte(x >> 16)
	dst[3] = byte(x >> 24)
	dst[4] = byte(x >> 32)
	dst[5] = byte(x >> 40)
	dst[6] = byte(x >> 48)
	dst[7] = byte(x >> 56)
}

// proposalKey encodes id under 0x10 prefix keeping proposal records contiguous.
func proposalKey(id uint64) string {
	var buf [9]byte
	buf[0] = kProposalMeta
	packU64LEInline(id, buf[1:])
	return string(buf[:])
}

// voteKey pairs proposal and voting id so a double vote is a single lookup.
func voteKey(proposalID, votingID uint64) string {
	var buf [17]byte
	buf[0] = kVoteReceipt
	packU64LEInline(proposalID, buf[1:])
	packU64LEInline(votingID, buf[9:])
	return string(buf[:])
}

// receiptKey shares the proposal id since receipts are minted 1:1.
func receiptKey(id uint64) string {
	var buf [9]byte
	buf[0] = kReceiptClaim
	packU64LEInline(id, buf[1:])
	return string(buf[:])
}
