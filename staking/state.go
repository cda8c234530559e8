package staking

import (
	"fmt"
	"strconv"
	"strings"

	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

const (
	configKey   = "cfg"
	poolKey     = "pool"
	idCountKey  = "ids"
	idKeyPrefix = "id|"
)

// Config names the token that gets staked, the voting id resource and the badge allowed to lock stakes.
type Config struct {
	Token      sdk.Asset
	IDResource sdk.Asset
	Controller sdk.Asset
}

// Pool tracks the total units issued and the real tokens they are backed by. Tokens deposited
// into the staking account but not yet synced are surplus and do not count.
type Pool struct {
	Units   decimal.Decimal
	Backing decimal.Decimal
}

// Rate is the real value of one pool unit.
func (p Pool) Rate() decimal.Decimal {
	if p.Units.IsZero() {
		return decimal.NewFromInt(1)
	}
	return p.Backing.Div(p.Units)
}

// Identity is the data behind one voting id.
type Identity struct {
	Units       decimal.Decimal
	VotingUntil int64
}

func idKey(id uint64) string {
	return idKeyPrefix + strconv.FormatUint(id, 10)
}

func loadConfig(st sdk.State) (*Config, error) {
	raw, err := st.Get(configKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotInitialized
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return nil, fmt.Errorf("corrupt staking config %q", raw)
	}
	return &Config{Token: sdk.Asset(parts[0]), IDResource: sdk.Asset(parts[1]), Controller: sdk.Asset(parts[2])}, nil
}

func saveConfig(st sdk.State, c *Config) error {
	return st.Set(configKey, []byte(strings.Join([]string{string(c.Token), string(c.IDResource), string(c.Controller)}, "|")))
}

func loadPool(st sdk.State) (Pool, error) {
	raw, err := st.Get(poolKey)
	if err != nil || raw == nil {
		return Pool{Units: decimal.Zero, Backing: decimal.Zero}, err
	}
	units, backing, ok := strings.Cut(string(raw), "|")
	if !ok {
		return Pool{}, fmt.Errorf("corrupt staking pool %q", raw)
	}
	var p Pool
	if p.Units, err = decimal.NewFromString(units); err != nil {
		return Pool{}, err
	}
	if p.Backing, err = decimal.NewFromString(backing); err != nil {
		return Pool{}, err
	}
	return p, nil
}

func savePool(st sdk.State, p Pool) error {
	return st.Set(poolKey, []byte(p.Units.String()+"|"+p.Backing.String()))
}

func loadIdentity(st sdk.State, id uint64) (*Identity, error) {
	raw, err := st.Get(idKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIdentity, id)
	}
	units, until, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, fmt.Errorf("corrupt voting id %d", id)
	}
	var ident Identity
	if ident.Units, err = decimal.NewFromString(units); err != nil {
		return nil, err
	}
	if ident.VotingUntil, err = strconv.ParseInt(until, 10, 64); err != nil {
		return nil, err
	}
	return &ident, nil
}

func saveIdentity(st sdk.State, id uint64, ident *Identity) error {
	return st.Set(idKey(id), []byte(ident.Units.String()+"|"+strconv.FormatInt(ident.VotingUntil, 10)))
}

func nextID(st sdk.State) (uint64, error) {
	raw, err := st.Get(idCountKey)
	if err != nil {
		return 0, err
	}
	var n uint64
	if len(raw) > 0 {
		if n, err = strconv.ParseUint(string(raw), 10, 64); err != nil {
			return 0, err
		}
	}
	return n, st.Set(idCountKey, []byte(strconv.FormatUint(n+1, 10)))
}
