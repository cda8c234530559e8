package host

import "okinoko_gov/sdk"

const (
	// kLedgerSpace prefixes every ledger key so component state can never collide with it.
	kLedgerSpace byte = 0x00
	// kBalance stores fungible balances as decimal strings keyed by owner+asset.
	kBalance byte = 0x01
	// kNonFungible maps resource+id to the holding address.
	kNonFungible byte = 0x02
	// kResource records which address created (and may mint) a resource.
	kResource byte = 0x03
	// kTxSeq holds the last generated transaction number, so ids stay unique across processes.
	kTxSeq byte = 0x04
	// kComponentSpace prefixes component scoped state, followed by the component address.
	kComponentSpace byte = 0x01
)

// packU64LE appends the encoded number to dst and returns the new slice.
func packU64LE(x uint64, dst []byte) []byte {
	return append(dst,
		byte(x),
		byte(x>>8),
		byte(x>>16),
		byte(x>>24),
		byte(x>>32),
		byte(x>>40),
		byte(x>>48),
		byte(x>>56),
	)
}

func balanceKey(owner sdk.Address, asset sdk.Asset) string {
	buf := make([]byte, 0, 3+len(owner)+len(asset))
	buf = append(buf, kLedgerSpace, kBalance)
	buf = append(buf, owner...)
	buf = append(buf, 0x00)
	buf = append(buf, asset...)
	return string(buf)
}

func nonFungibleKey(resource sdk.Asset, id uint64) string {
	buf := make([]byte, 0, 3+len(resource)+8)
	buf = append(buf, kLedgerSpace, kNonFungible)
	buf = append(buf, resource...)
	buf = append(buf, 0x00)
	buf = packU64LE(id, buf)
	return string(buf)
}

func resourceKey(resource sdk.Asset) string {
	buf := make([]byte, 0, 2+len(resource))
	buf = append(buf, kLedgerSpace, kResource)
	buf = append(buf, resource...)
	return string(buf)
}

func txSeqKey() string {
	return string([]byte{kLedgerSpace, kTxSeq})
}

// scopedKey namespaces a component key so two components never see each other's state.
func scopedKey(component sdk.Address, key string) string {
	buf := make([]byte, 0, 2+len(component)+len(key))
	buf = append(buf, kComponentSpace)
	buf = append(buf, component...)
	buf = append(buf, 0x00)
	buf = append(buf, key...)
	return string(buf)
}
