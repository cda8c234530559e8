package sdk

import "strings"

// Asset is a resource address. Fungible tokens, badges and non-fungible collections all live under it.
type Asset string

// String returns the raw resource string for logging or ledger keys.
// Example payload: sdk.Asset("resource:ilis").String()
func (a Asset) String() string {
	return string(a)
}

// IsValid reports whether the asset carries the resource prefix and a name.
func (a Asset) IsValid() bool {
	return strings.HasPrefix(string(a), "resource:") && len(a) > len("resource:")
}

// Resource builds a resource address from a bare name.
func Resource(name string) Asset {
	return Asset("resource:" + name)
}
