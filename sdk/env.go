package sdk

import (
	"strconv"
	"time"
)

type Sender struct {
	Address       Address   `json:"id"`
	RequiredAuths []Address `json:"required_auths"`
}

// Env is what the host hands every transaction: who signed it, its id and the block time.
type Env struct {
	TxId      string `json:"tx.id"`
	Timestamp string `json:"block.timestamp"`
	Sender    Sender `json:"msg.sender"`
}

// Unix returns the block time in unix seconds, falling back to the wall clock when the env carries none.
func (e Env) Unix() int64 {
	if e.Timestamp != "" {
		if v, ok := ParseTimestamp(e.Timestamp); ok {
			return v
		}
	}
	return time.Now().Unix()
}

// ParseTimestamp accepts unix seconds or iso-ish strings since callers flip formats sometimes.
func ParseTimestamp(val string) (int64, bool) {
	if v, err := strconv.ParseInt(val, 10, 64); err == nil {
		return v, true
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.Unix(), true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", val, time.UTC); err == nil {
		return t.Unix(), true
	}
	return 0, false
}
