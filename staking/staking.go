package staking

import (
	"fmt"
	"io"
	"log/slog"

	"okinoko_gov/host"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

const (
	MethodSyncRewards   = "sync_rewards"
	MethodSetController = "set_controller"
)

// Staking is the reference voting power oracle. Stakes are held as pool units; rewards raise the
// real value of every unit, so vote power (in units) must be converted with RealAmount before
// it can be compared to a quorum expressed in tokens.
type Staking struct {
	addr   sdk.Address
	logger *slog.Logger
}

type OptionFunc func(*Staking)

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(s *Staking) {
		s.logger = logger
	}
}

func New(addr sdk.Address, opts ...OptionFunc) *Staking {
	s := &Staking{addr: addr}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return s
}

func (s *Staking) Address() sdk.Address {
	return s.addr
}

// Init registers the voting id resource and stores the configuration.
func (s *Staking) Init(tx *host.Tx, cfg Config) error {
	leave, err := tx.Enter(s.addr)
	if err != nil {
		return err
	}
	defer leave()
	if _, err := loadConfig(tx); err == nil {
		return fmt.Errorf("%w: already initialized", ErrInvalidConfig)
	}
	if !cfg.Token.IsValid() || !cfg.IDResource.IsValid() || !cfg.Controller.IsValid() {
		return fmt.Errorf("%w: invalid resource", ErrInvalidConfig)
	}
	if err := tx.CreateResource(cfg.IDResource); err != nil {
		return err
	}
	if err := saveConfig(tx, &cfg); err != nil {
		return err
	}
	return savePool(tx, Pool{Units: decimal.Zero, Backing: decimal.Zero})
}

func (s *Staking) enter(tx *host.Tx, fn func(cfg *Config) error) error {
	leave, err := tx.Enter(s.addr)
	if err != nil {
		return err
	}
	defer leave()
	cfg, err := loadConfig(tx)
	if err != nil {
		return err
	}
	return fn(cfg)
}

// CreateID mints a fresh, empty voting id to the caller.
func (s *Staking) CreateID(tx *host.Tx) (uint64, error) {
	var id uint64
	err := s.enter(tx, func(cfg *Config) error {
		var err error
		if id, err = nextID(tx); err != nil {
			return err
		}
		if err := saveIdentity(tx, id, &Identity{Units: decimal.Zero}); err != nil {
			return err
		}
		if err := tx.MintNonFungible(cfg.IDResource, id, tx.Caller()); err != nil {
			return err
		}
		tx.Log(fmt.Sprintf("si|id:%d|to:%s", id, tx.Caller()))
		return nil
	})
	return id, err
}

// Stake adds the bucket to the pool and credits the voting id with units at the current rate.
func (s *Staking) Stake(tx *host.Tx, proof sdk.NonFungibleProof, b sdk.Bucket) (decimal.Decimal, error) {
	var units decimal.Decimal
	err := s.enter(tx, func(cfg *Config) error {
		if b.Asset != cfg.Token {
			return fmt.Errorf("%w: %s", ErrWrongToken, b.Asset)
		}
		if !b.Amount.IsPositive() {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, b.Amount)
		}
		id, err := tx.CheckProof(proof, cfg.IDResource)
		if err != nil {
			return err
		}
		ident, err := loadIdentity(tx, id)
		if err != nil {
			return err
		}
		pool, err := loadPool(tx)
		if err != nil {
			return err
		}
		units = b.Amount.Div(pool.Rate())
		if err := tx.Deposit(s.addr, b); err != nil {
			return err
		}
		pool.Units = pool.Units.Add(units)
		pool.Backing = pool.Backing.Add(b.Amount)
		ident.Units = ident.Units.Add(units)
		if err := savePool(tx, pool); err != nil {
			return err
		}
		if err := saveIdentity(tx, id, ident); err != nil {
			return err
		}
		tx.Log(fmt.Sprintf("ss|id:%d|u:%s|a:%s", id, units, b.Amount))
		return nil
	})
	return units, err
}

// Unstake burns units from the voting id and pays out their real value. It refuses while the id
// is locked by a vote whose deadline has not passed.
func (s *Staking) Unstake(tx *host.Tx, proof sdk.NonFungibleProof, units decimal.Decimal) (sdk.Bucket, error) {
	var out sdk.Bucket
	err := s.enter(tx, func(cfg *Config) error {
		if !units.IsPositive() {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, units)
		}
		id, err := tx.CheckProof(proof, cfg.IDResource)
		if err != nil {
			return err
		}
		ident, err := loadIdentity(tx, id)
		if err != nil {
			return err
		}
		if tx.Now() < ident.VotingUntil {
			return fmt.Errorf("%w: voting id %d until %d", ErrLocked, id, ident.VotingUntil)
		}
		if ident.Units.LessThan(units) {
			return fmt.Errorf("%w: voting id %d holds %s units", ErrInvalidAmount, id, ident.Units)
		}
		pool, err := loadPool(tx)
		if err != nil {
			return err
		}
		value := units.Mul(pool.Rate())
		pool.Units = pool.Units.Sub(units)
		pool.Backing = pool.Backing.Sub(value)
		ident.Units = ident.Units.Sub(units)
		if out, err = tx.Withdraw(cfg.Token, value); err != nil {
			return err
		}
		if err := savePool(tx, pool); err != nil {
			return err
		}
		if err := saveIdentity(tx, id, ident); err != nil {
			return err
		}
		tx.Log(fmt.Sprintf("su|id:%d|u:%s|a:%s", id, units, value))
		return nil
	})
	if err != nil {
		return sdk.Bucket{}, err
	}
	return out, nil
}

// AddRewards donates tokens to the pool and recognizes them right away.
func (s *Staking) AddRewards(tx *host.Tx, b sdk.Bucket) error {
	return s.enter(tx, func(cfg *Config) error {
		if b.Asset != cfg.Token {
			return fmt.Errorf("%w: %s", ErrWrongToken, b.Asset)
		}
		if err := tx.Deposit(s.addr, b); err != nil {
			return err
		}
		return s.syncRewards(tx, cfg)
	})
}

// syncRewards folds any surplus sitting in the staking account into the pool backing.
func (s *Staking) syncRewards(tx *host.Tx, cfg *Config) error {
	pool, err := loadPool(tx)
	if err != nil {
		return err
	}
	if pool.Units.IsZero() {
		// nobody to reward yet, the surplus stays unrecognized
		s.logger.Debug("rewards left unrecognized", "reason", "empty pool")
		return nil
	}
	bal, err := tx.Balance(s.addr, cfg.Token)
	if err != nil {
		return err
	}
	if !bal.GreaterThan(pool.Backing) {
		return nil
	}
	s.logger.Debug("rewards recognized", "surplus", bal.Sub(pool.Backing), "backing", bal)
	pool.Backing = bal
	if err := savePool(tx, pool); err != nil {
		return err
	}
	tx.Log(fmt.Sprintf("sr|b:%s|r:%s", pool.Backing, pool.Rate()))
	return nil
}

// AcquireVotePower returns the id's power in pool units and locks its stake until lockUntil.
// Only callers presenting the controller badge may lock stakes.
func (s *Staking) AcquireVotePower(tx *host.Tx, lockUntil int64, votingID uint64) (decimal.Decimal, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return decimal.Zero, err
	}
	ok, err := tx.Authorized(cfg.Controller)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: controller badge required to lock stakes", ErrUnauthorized)
	}
	ident, err := loadIdentity(tx, votingID)
	if err != nil {
		return decimal.Zero, err
	}
	if ident.VotingUntil < lockUntil {
		ident.VotingUntil = lockUntil
		if err := saveIdentity(tx, votingID, ident); err != nil {
			return decimal.Zero, err
		}
		s.logger.Debug("stake locked", "id", votingID, "until", lockUntil, "units", ident.Units)
	}
	return ident.Units, nil
}

// RealAmount converts pool units to real tokens at the current rate.
func (s *Staking) RealAmount(tx *host.Tx, amount decimal.Decimal) (decimal.Decimal, error) {
	pool, err := loadPool(tx)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(pool.Rate()), nil
}

// Identity is a read-only view of a voting id.
func (s *Staking) Identity(tx *host.Tx, id uint64) (*Identity, error) {
	var ident *Identity
	err := s.enter(tx, func(*Config) error {
		var err error
		ident, err = loadIdentity(tx, id)
		return err
	})
	return ident, err
}

// Call serves the dispatcher methods: sync_rewards (anyone) and set_controller (controller only,
// args are the new badge resource).
func (s *Staking) Call(tx *host.Tx, method string, args []byte) (*sdk.Bucket, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return nil, err
	}
	switch method {
	case MethodSyncRewards:
		return nil, s.syncRewards(tx, cfg)
	case MethodSetController:
		ok, err := tx.Authorized(cfg.Controller)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: controller badge required", ErrUnauthorized)
		}
		badge := sdk.Asset(args)
		if !badge.IsValid() {
			return nil, fmt.Errorf("%w: badge %q", ErrInvalidConfig, args)
		}
		cfg.Controller = badge
		if err := saveConfig(tx, cfg); err != nil {
			return nil, err
		}
		tx.Log(fmt.Sprintf("sc|c:%s", badge))
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}
