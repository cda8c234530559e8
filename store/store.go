package store

import (
	"errors"

	"okinoko_gov/sdk"
)

var (
	ErrTxnFinished = errors.New("transaction already finished")
	ErrClosed      = errors.New("store closed")
)

// Txn is one read-write transaction. Nothing it writes is visible to other transactions until Commit.
type Txn interface {
	sdk.State
	Commit() error
	Discard()
}

// Backend hands out transactions. Callers serialize them; backends only need to be safe for that.
type Backend interface {
	Begin() (Txn, error)
	Close() error
}
