package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is the persistent backend. Without a data dir it runs fully in memory, which the tests use.
type Badger struct {
	db      *badger.DB
	logger  *slog.Logger
	dataDir string
}

type BadgerOptionFunc func(*Badger)

func WithDataDir(dataDir string) BadgerOptionFunc {
	return func(b *Badger) {
		b.dataDir = dataDir
	}
}

func WithLogger(logger *slog.Logger) BadgerOptionFunc {
	return func(b *Badger) {
		b.logger = logger
	}
}

func NewBadger(opts ...BadgerOptionFunc) (*Badger, error) {
	b := &Badger{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var badgerOpts badger.Options
	if b.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if _, err := os.Stat(b.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(b.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(b.dataDir)
	}
	badgerOpts = badgerOpts.
		WithLogger(newBadgerLogger(b.logger)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	b.db = db
	return b, nil
}

func (b *Badger) Begin() (Txn, error) {
	if b.db == nil || b.db.IsClosed() {
		return nil, ErrClosed
	}
	return &badgerTxn{tx: b.db.NewTransaction(true)}, nil
}

func (b *Badger) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

type badgerTxn struct {
	tx       *badger.Txn
	finished bool
}

func (t *badgerTxn) Get(key string) ([]byte, error) {
	if t.finished {
		return nil, ErrTxnFinished
	}
	item, err := t.tx.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *badgerTxn) Set(key string, value []byte) error {
	if t.finished {
		return ErrTxnFinished
	}
	return t.tx.Set([]byte(key), append([]byte(nil), value...))
}

func (t *badgerTxn) Delete(key string) error {
	if t.finished {
		return ErrTxnFinished
	}
	return t.tx.Delete([]byte(key))
}

func (t *badgerTxn) Commit() error {
	if t.finished {
		return ErrTxnFinished
	}
	t.finished = true
	return t.tx.Commit()
}

func (t *badgerTxn) Discard() {
	if t.finished {
		return
	}
	t.finished = true
	t.tx.Discard()
}
