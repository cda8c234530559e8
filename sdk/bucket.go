package sdk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrBucketTooSmall = errors.New("bucket too small")

// Bucket is a loose amount of one asset moving through a transaction. The host tracks every
// bucket it hands out and refuses to commit while any of them is still floating.
type Bucket struct {
	Asset  Asset
	Amount decimal.Decimal
}

// NewBucket is a small helper for tests and call sites that already know the split.
func NewBucket(asset Asset, amount decimal.Decimal) Bucket {
	return Bucket{Asset: asset, Amount: amount}
}

// IsEmpty is true for zero amounts, which the host treats as nothing to deposit.
func (b Bucket) IsEmpty() bool {
	return b.Amount.IsZero()
}

// Take splits amount off the bucket and returns (taken, rest).
func (b Bucket) Take(amount decimal.Decimal) (Bucket, Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, b, fmt.Errorf("negative take %s", amount)
	}
	if b.Amount.LessThan(amount) {
		return Bucket{}, b, fmt.Errorf("%w: want %s, have %s %s", ErrBucketTooSmall, amount, b.Amount, b.Asset)
	}
	return Bucket{Asset: b.Asset, Amount: amount}, Bucket{Asset: b.Asset, Amount: b.Amount.Sub(amount)}, nil
}

func (b Bucket) String() string {
	return b.Amount.String() + " " + b.Asset.String()
}

// NonFungibleProof claims possession of one non-fungible (resource, id). The host checks it against
// the ledger before a component trusts it.
type NonFungibleProof struct {
	Resource Asset
	ID       uint64
}

func (p NonFungibleProof) String() string {
	return fmt.Sprintf("%s#%d", p.Resource, p.ID)
}
