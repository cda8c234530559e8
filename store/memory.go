package store

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"sync"
)

// Memory keeps the whole state in a map. With a snapshot file set, every commit rewrites the
// file so a CLI session can pick up where the last one stopped.
type Memory struct {
	mu       sync.RWMutex
	db       map[string][]byte
	filename string
	closed   bool
}

type MemoryOptionFunc func(*Memory)

// WithSnapshotFile makes the store load from and save to a JSON file.
func WithSnapshotFile(filename string) MemoryOptionFunc {
	return func(m *Memory) {
		m.filename = filename
	}
}

func NewMemory(opts ...MemoryOptionFunc) (*Memory, error) {
	m := &Memory{db: make(map[string][]byte)}
	for _, opt := range opts {
		opt(m)
	}
	if m.filename != "" {
		if err := m.loadFromFile(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Memory) Begin() (Txn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return &memoryTxn{
		store:   m,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len counts committed keys. Tests use it to prove a discarded transaction left nothing behind.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.db)
}

// saveToFile writes db to the snapshot file, hex encoding keys and values since both are binary.
// The file is replaced through a rename so a failed write leaves the previous snapshot intact.
func (m *Memory) saveToFile(db map[string][]byte) error {
	out := make(map[string]string, len(db))
	for k, v := range db {
		out[hex.EncodeToString([]byte(k))] = hex.EncodeToString(v)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.filename); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (m *Memory) loadFromFile() error {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var in map[string]string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for k, v := range in {
		key, err := hex.DecodeString(k)
		if err != nil {
			return err
		}
		val, err := hex.DecodeString(v)
		if err != nil {
			return err
		}
		m.db[string(key)] = val
	}
	return nil
}

type memoryTxn struct {
	store    *Memory
	writes   map[string][]byte
	deletes  map[string]struct{}
	finished bool
}

func (t *memoryTxn) Get(key string) ([]byte, error) {
	if t.finished {
		return nil, ErrTxnFinished
	}
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), nil
	}
	if _, ok := t.deletes[key]; ok {
		return nil, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	v, ok := t.store.db[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (t *memoryTxn) Set(key string, value []byte) error {
	if t.finished {
		return ErrTxnFinished
	}
	delete(t.deletes, key)
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *memoryTxn) Delete(key string) error {
	if t.finished {
		return ErrTxnFinished
	}
	delete(t.writes, key)
	t.deletes[key] = struct{}{}
	return nil
}

func (t *memoryTxn) Commit() error {
	if t.finished {
		return ErrTxnFinished
	}
	t.finished = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.closed {
		return ErrClosed
	}
	if t.store.filename == "" {
		apply(t.store.db, t.writes, t.deletes)
		return nil
	}
	// the snapshot goes first; memory only changes once it is on disk
	next := maps.Clone(t.store.db)
	apply(next, t.writes, t.deletes)
	if err := t.store.saveToFile(next); err != nil {
		return err
	}
	t.store.db = next
	return nil
}

func apply(db map[string][]byte, writes map[string][]byte, deletes map[string]struct{}) {
	for k := range deletes {
		delete(db, k)
	}
	for k, v := range writes {
		db[k] = v
	}
}

func (t *memoryTxn) Discard() {
	t.finished = true
	t.writes = nil
	t.deletes = nil
}
