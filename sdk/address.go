package sdk

import "strings"

type AddressDomain string

const (
	AddressDomainAccount   AddressDomain = "account"
	AddressDomainComponent AddressDomain = "component"
	AddressDomainUnknown   AddressDomain = "unknown"
)

type Address string

// String returns the literal representation (like account:alice) of the address.
// Example payload: sdk.Address("account:alice").String()
func (a Address) String() string {
	return string(a)
}

// Domain checks the prefix to tell accounts and components apart.
// Example payload: sdk.Address("component:governance").Domain()
func (a Address) Domain() AddressDomain {
	switch {
	case strings.HasPrefix(a.String(), "component:"):
		return AddressDomainComponent
	case strings.HasPrefix(a.String(), "account:"):
		return AddressDomainAccount
	default:
		return AddressDomainUnknown
	}
}

// Name strips the domain prefix, handy for short log lines.
func (a Address) Name() string {
	if i := strings.IndexByte(a.String(), ':'); i >= 0 {
		return a.String()[i+1:]
	}
	return a.String()
}

// IsValid returns false if the domain detection failed or the name is empty, used as a light sanity check.
// Example payload: sdk.Address("foo").IsValid()
func (a Address) IsValid() bool {
	return a.Domain() != AddressDomainUnknown && a.Name() != ""
}

// IsComponent is a shortcut for Domain() == AddressDomainComponent.
func (a Address) IsComponent() bool {
	return a.Domain() == AddressDomainComponent
}

// Account builds an account address from a bare name.
func Account(name string) Address {
	return Address("account:" + name)
}

// Component builds a component address from a bare name.
func Component(name string) Address {
	return Address("component:" + name)
}
