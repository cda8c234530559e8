package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"okinoko_gov/host"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Archive keeps every committed receipt and its event lines in SQLite, so proposal history can
// be queried without replaying state. It plugs into the chain as a host.Sink.
type Archive struct {
	db      *gorm.DB
	logger  *slog.Logger
	dataDir string
}

type OptionFunc func(*Archive)

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithDataDir stores the database on disk. Without it the archive lives in memory.
func WithDataDir(dataDir string) OptionFunc {
	return func(a *Archive) {
		a.dataDir = dataDir
	}
}

func New(opts ...OptionFunc) (*Archive, error) {
	a := &Archive{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dsn := "file::memory:"
	if a.dataDir != "" {
		if _, err := os.Stat(a.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(a.dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)",
			filepath.Join(a.dataDir, "archive.sqlite"),
		)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection, so an in-memory database is not split across connections
	sqlDB.SetMaxOpenConns(1)
	a.db = db
	for _, model := range migrateModels {
		a.logger.Debug(fmt.Sprintf("creating table: %T", model))
		if err := db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores one committed receipt with all of its event lines.
func (a *Archive) Record(ctx context.Context, rec host.Receipt) error {
	now := time.Now()
	return a.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		header := TxHeader{
			TxID:      rec.TxID,
			Sender:    string(rec.Sender),
			Timestamp: rec.Timestamp,
			Events:    len(rec.Logs),
		}
		if result := txn.Create(&header); result.Error != nil {
			return result.Error
		}
		if len(rec.Logs) == 0 {
			return nil
		}
		events := make([]Event, 0, len(rec.Logs))
		for i, line := range rec.Logs {
			kind, id := parseLine(line)
			events = append(events, Event{
				TxID:       rec.TxID,
				Seq:        i,
				Kind:       kind,
				ProposalID: id,
				Sender:     string(rec.Sender),
				Timestamp:  rec.Timestamp,
				Line:       line,
				ArchivedAt: now,
			})
		}
		if result := txn.Create(&events); result.Error != nil {
			return result.Error
		}
		return nil
	})
}

// History returns every archived event for a proposal, oldest first.
func (a *Archive) History(ctx context.Context, proposalID uint64) ([]Event, error) {
	var events []Event
	result := a.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("id ASC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// Recent returns the latest events of a kind ("" for all), newest first.
func (a *Archive) Recent(ctx context.Context, kind string, limit int) ([]Event, error) {
	var events []Event
	q := a.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if result := q.Find(&events); result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// TransactionCount is the number of archived receipts.
func (a *Archive) TransactionCount(ctx context.Context) (int64, error) {
	var n int64
	result := a.db.WithContext(ctx).Model(&TxHeader{}).Count(&n)
	return n, result.Error
}

// proposalKinds are the event kinds whose id field names a proposal. Staking events
// reuse id for voting ids and must not be indexed as proposal history.
var proposalKinds = map[string]bool{
	"pc": true, "pa": true, "ps": true, "vc": true, "pd": true,
	"xs": true, "xd": true, "fr": true, "rq": true, "rx": true,
}

// parseLine splits "ps|id:3|s:ongoing" into its kind and, for proposal events, the proposal id.
func parseLine(line string) (string, *uint64) {
	fields := strings.Split(line, "|")
	if !proposalKinds[fields[0]] {
		return fields[0], nil
	}
	for _, f := range fields[1:] {
		v, ok := strings.CutPrefix(f, "id:")
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fields[0], nil
		}
		return fields[0], &id
	}
	return fields[0], nil
}
