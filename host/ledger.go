package host

import (
	"fmt"

	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Resources
// -----------------------------------------------------------------------------

// CreateResource registers asset with the running component (or sender) as its minter.
func (t *Tx) CreateResource(asset sdk.Asset) error {
	if !asset.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownResource, asset)
	}
	key := resourceKey(asset)
	existing, err := t.txn.Get(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrResourceExists, asset)
	}
	return t.txn.Set(key, []byte(t.Self()))
}

// ResourceOwner returns the minter of asset.
func (t *Tx) ResourceOwner(asset sdk.Asset) (sdk.Address, error) {
	raw, err := t.txn.Get(resourceKey(asset))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownResource, asset)
	}
	return sdk.Address(raw), nil
}

func (t *Tx) requireMinter(asset sdk.Asset) error {
	owner, err := t.ResourceOwner(asset)
	if err != nil {
		return err
	}
	if owner != t.Self() {
		return fmt.Errorf("%w: %s may not mint %s", ErrUnauthorized, t.Self(), asset)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Fungible balances
// -----------------------------------------------------------------------------

// Balance reads the fungible balance, zero when nothing was ever deposited.
func (t *Tx) Balance(owner sdk.Address, asset sdk.Asset) (decimal.Decimal, error) {
	raw, err := t.txn.Get(balanceKey(owner, asset))
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(raw))
}

func (t *Tx) setBalance(owner sdk.Address, asset sdk.Asset, amount decimal.Decimal) error {
	key := balanceKey(owner, asset)
	if amount.IsZero() {
		return t.txn.Delete(key)
	}
	return t.txn.Set(key, []byte(amount.String()))
}

// Mint credits freshly created tokens to the given address. Only the resource's minter may do this.
func (t *Tx) Mint(asset sdk.Asset, amount decimal.Decimal, to sdk.Address) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if err := t.requireMinter(asset); err != nil {
		return err
	}
	bal, err := t.Balance(to, asset)
	if err != nil {
		return err
	}
	return t.setBalance(to, asset, bal.Add(amount))
}

// Withdraw takes amount out of the running component's (or sender's) own balance into a bucket.
func (t *Tx) Withdraw(asset sdk.Asset, amount decimal.Decimal) (sdk.Bucket, error) {
	if amount.IsNegative() {
		return sdk.Bucket{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	self := t.Self()
	bal, err := t.Balance(self, asset)
	if err != nil {
		return sdk.Bucket{}, err
	}
	if bal.LessThan(amount) {
		return sdk.Bucket{}, fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientFunds, self, bal, asset, amount)
	}
	if err := t.setBalance(self, asset, bal.Sub(amount)); err != nil {
		return sdk.Bucket{}, err
	}
	t.floating[asset] = t.floating[asset].Add(amount)
	return sdk.NewBucket(asset, amount), nil
}

// Deposit puts a bucket into the address's balance.
func (t *Tx) Deposit(to sdk.Address, b sdk.Bucket) error {
	if b.Amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b.Amount)
	}
	if b.IsEmpty() {
		return nil
	}
	if t.floating[b.Asset].LessThan(b.Amount) {
		return fmt.Errorf("%w: bucket of %s was never withdrawn", ErrInsufficientFunds, b)
	}
	bal, err := t.Balance(to, b.Asset)
	if err != nil {
		return err
	}
	if err := t.setBalance(to, b.Asset, bal.Add(b.Amount)); err != nil {
		return err
	}
	t.floating[b.Asset] = t.floating[b.Asset].Sub(b.Amount)
	return nil
}

func (t *Tx) checkFloating() error {
	for asset, amount := range t.floating {
		if !amount.IsZero() {
			return fmt.Errorf("%w: %s %s", ErrDanglingBucket, amount, asset)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Non-fungibles
// -----------------------------------------------------------------------------

// MintNonFungible creates (resource, id) held by to. Ids never get reused.
func (t *Tx) MintNonFungible(resource sdk.Asset, id uint64, to sdk.Address) error {
	if err := t.requireMinter(resource); err != nil {
		return err
	}
	key := nonFungibleKey(resource, id)
	existing, err := t.txn.Get(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s#%d", ErrResourceExists, resource, id)
	}
	return t.txn.Set(key, []byte(to))
}

// OwnerOf returns the holder of (resource, id); ok is false when it was never minted.
func (t *Tx) OwnerOf(resource sdk.Asset, id uint64) (sdk.Address, bool, error) {
	raw, err := t.txn.Get(nonFungibleKey(resource, id))
	if err != nil || raw == nil {
		return "", false, err
	}
	return sdk.Address(raw), true, nil
}

// TransferNonFungible hands (resource, id) from the running component (or sender) to another address.
func (t *Tx) TransferNonFungible(resource sdk.Asset, id uint64, to sdk.Address) error {
	owner, ok, err := t.OwnerOf(resource, id)
	if err != nil {
		return err
	}
	if !ok || owner != t.Self() {
		return fmt.Errorf("%w: %s does not hold %s#%d", ErrUnauthorized, t.Self(), resource, id)
	}
	return t.txn.Set(nonFungibleKey(resource, id), []byte(to))
}

// CheckProof validates that the caller holds the non-fungible in the proof and that it belongs
// to the expected resource. It returns the local id on success.
func (t *Tx) CheckProof(proof sdk.NonFungibleProof, resource sdk.Asset) (uint64, error) {
	if proof.Resource != resource {
		return 0, fmt.Errorf("%w: proof of %s, want %s", ErrUnauthorized, proof.Resource, resource)
	}
	owner, ok, err := t.OwnerOf(proof.Resource, proof.ID)
	if err != nil {
		return 0, err
	}
	if !ok || owner != t.Caller() {
		return 0, fmt.Errorf("%w: %s does not hold %s", ErrUnauthorized, t.Caller(), proof)
	}
	return proof.ID, nil
}
