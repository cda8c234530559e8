package host

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"okinoko_gov/sdk"
	"okinoko_gov/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Component is anything the dispatcher can call by address. Args stay opaque to the host.
type Component interface {
	Address() sdk.Address
	Call(tx *Tx, method string, args []byte) (*sdk.Bucket, error)
}

// Receipt summarizes one committed transaction.
type Receipt struct {
	TxID      string
	Sender    sdk.Address
	Timestamp int64
	Logs      []string
}

// Sink receives every committed receipt, after the commit. A failing sink never undoes state.
type Sink interface {
	Record(ctx context.Context, rec Receipt) error
}

// Chain runs transactions one at a time against a backend, giving every call all-or-nothing semantics.
type Chain struct {
	mu           sync.Mutex
	backend      store.Backend
	components   map[sdk.Address]Component
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	metrics      chainMetrics
	sinks        []Sink
}

type ChainOptionFunc func(*Chain)

func WithLogger(logger *slog.Logger) ChainOptionFunc {
	return func(c *Chain) {
		c.logger = logger
	}
}

func WithPromRegistry(reg prometheus.Registerer) ChainOptionFunc {
	return func(c *Chain) {
		c.promRegistry = reg
	}
}

func WithSink(sink Sink) ChainOptionFunc {
	return func(c *Chain) {
		c.sinks = append(c.sinks, sink)
	}
}

func New(backend store.Backend, opts ...ChainOptionFunc) *Chain {
	c := &Chain{
		backend:    backend,
		components: make(map[sdk.Address]Component),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.promRegistry == nil {
		// a private registry keeps repeated chains (tests) from clashing on the default one
		c.promRegistry = prometheus.NewRegistry()
	}
	c.metrics.init(c.promRegistry)
	return c
}

// Register makes a component reachable through Tx.Call.
func (c *Chain) Register(comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[comp.Address()] = comp
}

func (c *Chain) lookup(addr sdk.Address) (Component, bool) {
	comp, ok := c.components[addr]
	return comp, ok
}

// Exec runs fn as a single transaction. Any error, panic or floating bucket discards every write.
func (c *Chain) Exec(ctx context.Context, env sdk.Env, fn func(tx *Tx) error) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	txn, err := c.backend.Begin()
	if err != nil {
		return Receipt{}, fmt.Errorf("begin transaction: %w", err)
	}
	if env.TxId == "" {
		seq, err := nextTxSeq(txn)
		if err != nil {
			txn.Discard()
			return Receipt{}, fmt.Errorf("transaction sequence: %w", err)
		}
		env.TxId = fmt.Sprintf("%d-%d", env.Unix(), seq)
	}
	tx := newTx(c, txn, env)
	if err := run(tx, fn); err != nil {
		txn.Discard()
		c.metrics.txAborted.Inc()
		c.logger.Debug("transaction aborted", "tx", env.TxId, "sender", env.Sender.Address, "error", err)
		return Receipt{TxID: env.TxId}, err
	}
	if err := tx.checkFloating(); err != nil {
		txn.Discard()
		c.metrics.txAborted.Inc()
		c.logger.Debug("transaction aborted", "tx", env.TxId, "sender", env.Sender.Address, "error", err)
		return Receipt{TxID: env.TxId}, err
	}
	if err := txn.Commit(); err != nil {
		c.metrics.txAborted.Inc()
		c.logger.Debug("commit failed", "tx", env.TxId, "sender", env.Sender.Address, "error", err)
		return Receipt{TxID: env.TxId}, fmt.Errorf("commit transaction: %w", err)
	}

	rec := Receipt{
		TxID:      env.TxId,
		Sender:    env.Sender.Address,
		Timestamp: tx.now,
		Logs:      tx.logs,
	}
	c.metrics.txCommitted.Inc()
	for _, line := range rec.Logs {
		c.metrics.events.WithLabelValues(eventKind(line)).Inc()
		c.logger.Debug("event", "tx", rec.TxID, "line", line)
	}
	for _, sink := range c.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			c.logger.Warn("failed to record transaction", "tx", rec.TxID, "error", err)
		}
	}
	return rec, nil
}

// nextTxSeq bumps the stored transaction counter inside txn, so an aborted transaction
// gives its number back.
func nextTxSeq(txn store.Txn) (uint64, error) {
	raw, err := txn.Get(txSeqKey())
	if err != nil {
		return 0, err
	}
	var seq uint64
	if len(raw) == 8 {
		seq = binary.LittleEndian.Uint64(raw)
	}
	seq++
	if err := txn.Set(txSeqKey(), packU64LE(seq, nil)); err != nil {
		return 0, err
	}
	return seq, nil
}

func run(tx *Tx, fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrAborted, r)
		}
	}()
	return fn(tx)
}

// eventKind is the short tag in front of the first pipe, e.g. "ps" for ps|id:1|s:ongoing.
func eventKind(line string) string {
	if i := strings.IndexByte(line, '|'); i > 0 {
		return line[:i]
	}
	return line
}

// frame is one entry of the call stack: which component runs, who called it and which badge came along.
type frame struct {
	component sdk.Address
	caller    sdk.Address
	badge     sdk.Asset
}

// Tx is the handle every component operation receives.
type Tx struct {
	chain    *Chain
	txn      store.Txn
	env      sdk.Env
	now      int64
	frames   []frame
	logs     []string
	floating map[sdk.Asset]decimal.Decimal
}

func newTx(c *Chain, txn store.Txn, env sdk.Env) *Tx {
	return &Tx{
		chain:    c,
		txn:      txn,
		env:      env,
		now:      env.Unix(),
		floating: make(map[sdk.Asset]decimal.Decimal),
	}
}

func (t *Tx) Env() sdk.Env        { return t.env }
func (t *Tx) Now() int64          { return t.now }
func (t *Tx) Sender() sdk.Address { return t.env.Sender.Address }
func (t *Tx) Logs() []string      { return t.logs }

// Log appends an event line to the transaction. Lines only leave the tx on commit.
func (t *Tx) Log(line string) {
	t.logs = append(t.logs, line)
}

// Self is the component currently running, or the sender when no component is.
func (t *Tx) Self() sdk.Address {
	if len(t.frames) == 0 {
		return t.env.Sender.Address
	}
	return t.frames[len(t.frames)-1].component
}

// Caller is whoever invoked the running component: another component or the sender.
func (t *Tx) Caller() sdk.Address {
	if len(t.frames) == 0 {
		return t.env.Sender.Address
	}
	return t.frames[len(t.frames)-1].caller
}

func (t *Tx) onStack(addr sdk.Address) bool {
	for _, f := range t.frames {
		if f.component == addr {
			return true
		}
	}
	return false
}

// Enter pushes component for a direct entry point call. The returned func pops it again.
func (t *Tx) Enter(component sdk.Address) (func(), error) {
	if t.onStack(component) {
		return nil, fmt.Errorf("%w: %s", ErrReentrantCall, component)
	}
	t.frames = append(t.frames, frame{component: component, caller: t.Self()})
	return t.pop, nil
}

func (t *Tx) pop() {
	t.frames = t.frames[:len(t.frames)-1]
}

// Invoke runs fn as target, presenting badge on behalf of the running component. The running
// component must hold the badge and target must not already be on the stack.
func (t *Tx) Invoke(badge sdk.Asset, target sdk.Address, fn func() error) error {
	self := t.Self()
	if badge != "" {
		bal, err := t.Balance(self, badge)
		if err != nil {
			return err
		}
		if !bal.IsPositive() {
			return fmt.Errorf("%w: %s does not hold %s", ErrUnauthorized, self, badge)
		}
	}
	if t.onStack(target) {
		return fmt.Errorf("%w: %s", ErrReentrantCall, target)
	}
	t.frames = append(t.frames, frame{component: target, caller: self, badge: badge})
	defer t.pop()
	return fn()
}

// Call is the generic authorized dispatcher: look up target and run method with the opaque args.
func (t *Tx) Call(badge sdk.Asset, target sdk.Address, method string, args []byte) (*sdk.Bucket, error) {
	comp, ok := t.chain.lookup(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, target)
	}
	var out *sdk.Bucket
	err := t.Invoke(badge, target, func() error {
		var err error
		out, err = comp.Call(t, method, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup returns the registered component, used when a caller needs a typed view of it.
func (t *Tx) Lookup(addr sdk.Address) (Component, error) {
	comp, ok := t.chain.lookup(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, addr)
	}
	return comp, nil
}

// Authorized reports whether the current call carries badge, either presented through Invoke or
// held by a calling account. Components never authorize implicitly; they must present the badge.
func (t *Tx) Authorized(badge sdk.Asset) (bool, error) {
	if len(t.frames) > 0 && t.frames[len(t.frames)-1].badge == badge {
		return true, nil
	}
	caller := t.Caller()
	if caller.IsComponent() {
		return false, nil
	}
	bal, err := t.Balance(caller, badge)
	if err != nil {
		return false, err
	}
	return bal.IsPositive(), nil
}

// Get, Set and Delete are scoped to the running component.
func (t *Tx) Get(key string) ([]byte, error) {
	return t.txn.Get(scopedKey(t.Self(), key))
}

func (t *Tx) Set(key string, value []byte) error {
	return t.txn.Set(scopedKey(t.Self(), key), value)
}

func (t *Tx) Delete(key string) error {
	return t.txn.Delete(scopedKey(t.Self(), key))
}
