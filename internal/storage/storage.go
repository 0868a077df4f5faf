package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Storage keys
const (
	keyOptions      = "options"
	prefixRecord    = "record/"
	prefixRecordIdx = "record-id/"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// EngineOptions are the UCI options that survive a restart.
type EngineOptions struct {
	HashMB         int       `json:"hash_mb"`
	MoveOverheadMS int       `json:"move_overhead_ms"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AnalysisRecord is the stored summary of one finished search.
type AnalysisRecord struct {
	ID        uuid.UUID     `json:"id"`
	FEN       string        `json:"fen"`
	BestMove  string        `json:"best_move"`
	Ponder    string        `json:"ponder,omitempty"`
	Score     int           `json:"score"`
	Depth     int           `json:"depth"`
	SelDepth  int           `json:"seldepth"`
	Nodes     uint64        `json:"nodes"`
	Duration  time.Duration `json:"duration"`
	PV        []string      `json:"pv"`
	CreatedAt time.Time     `json:"created_at"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens or creates the database in dir.
func Open(dir string, log *slog.Logger) (*Storage, error) {
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(log *slog.Logger) (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log *slog.Logger) (*Storage, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "storage"))
	db, err := badger.Open(opts.WithLogger(badgerLogger{log}))
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Dir, err)
	}
	log.Debug("storage opened", slog.String("dir", opts.Dir), slog.Bool("in_memory", opts.InMemory))
	return &Storage{db: db, log: log}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	s.log.Debug("storage closed")
	return s.db.Close()
}

// SaveOptions persists engine options
func (s *Storage) SaveOptions(opts EngineOptions) error {
	opts.UpdatedAt = time.Now()
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// LoadOptions loads engine options. ok is false when none were saved.
func (s *Storage) LoadOptions() (opts EngineOptions, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &opts)
		})
	})
	return opts, ok, err
}

// recordKey orders records by creation time.
func recordKey(rec *AnalysisRecord) []byte {
	return fmt.Appendf(nil, "%s%020d/%s", prefixRecord, rec.CreatedAt.UnixNano(), rec.ID)
}

// SaveRecord stores rec, assigning an ID and timestamp when missing.
func (s *Storage) SaveRecord(rec *AnalysisRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := recordKey(rec)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(prefixRecordIdx+rec.ID.String()), key)
	})
}

// GetRecord loads the record with the given ID.
func (s *Storage) GetRecord(id uuid.UUID) (*AnalysisRecord, error) {
	rec := &AnalysisRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(prefixRecordIdx + id.String()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns up to limit records, newest first. A limit of zero
// or less returns all of them.
func (s *Storage) ListRecords(limit int) ([]AnalysisRecord, error) {
	var out []AnalysisRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixRecord)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, Reverse: true, PrefetchValues: true, PrefetchSize: 16})
		defer it.Close()
		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			var rec AnalysisRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// badgerLogger routes badger's log output through slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
