// Package localstore is the durable offline cache. The whole snapshot is one
// JSON envelope {db, timestamp} stored under a single versioned key in a
// SQLite key/value table; bumping the key name is the migration strategy
// (data under the previous key is simply ignored).
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"contas/internal/models"
	"contas/internal/util"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StoreKey is the current versioned snapshot key.
const StoreKey = "contas-db-v2"

type kvRecord struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     []byte `gorm:"not null"`
	UpdatedMs int64  `gorm:"column:updated_ms;not null"`
}

func (kvRecord) TableName() string { return "local_kv" }

// envelope is the wire form of one stored snapshot.
type envelope struct {
	DB        models.Snapshot `json:"db"`
	Timestamp int64           `json:"timestamp"`
}

// Store persists snapshots to a local SQLite file. When a passphrase is set
// the envelope is sealed with AES-256-GCM before it touches disk.
type Store struct {
	db         *gorm.DB
	passphrase string
	log        *slog.Logger

	mu       sync.Mutex
	lastSeen int64 // updated_ms of the newest write this process knows about
}

// Open opens (or creates) the cache database at path. An empty passphrase
// disables encryption at rest.
func Open(path, passphrase string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// WAL so a second process sharing the cache can read while we write
		_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
		_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return &Store{
		db:         db,
		passphrase: passphrase,
		log:        slog.Default().With("component", "localstore"),
	}, nil
}

// Load reads the stored snapshot. ok is false when no snapshot exists yet or
// the stored data cannot be decoded; corrupt data is discarded rather than
// surfaced, the caller falls back to seed defaults.
func (s *Store) Load() (models.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (models.Snapshot, bool, error) {
	var rec kvRecord
	err := s.db.First(&rec, "key = ?", StoreKey).Error
	if err == gorm.ErrRecordNotFound {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	raw := rec.Value
	if s.passphrase != "" {
		raw, err = util.DecryptAES(s.passphrase, raw)
		if err != nil {
			s.log.Warn("cache undecryptable, falling back to defaults", "err", err)
			return models.Snapshot{}, false, nil
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Warn("cache corrupt, falling back to defaults", "err", err)
		return models.Snapshot{}, false, nil
	}

	if rec.UpdatedMs > s.lastSeen {
		s.lastSeen = rec.UpdatedMs
	}
	return env.DB, true, nil
}

// Save replaces the stored snapshot.
func (s *Store) Save(snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	raw, err := json.Marshal(envelope{DB: snap, Timestamp: now})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if s.passphrase != "" {
		raw, err = util.EncryptAES(s.passphrase, raw)
		if err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
	}

	rec := kvRecord{Key: StoreKey, Value: raw, UpdatedMs: now}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.lastSeen = now
	return nil
}

// Watch polls the store and invokes fn with the new snapshot whenever
// another process sharing the cache file writes it. This is the cross-tab
// consistency channel: the foreign write wins wholesale, no merge. Blocks
// until ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration, fn func(models.Snapshot)) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if snap, ok := s.poll(); ok {
				fn(snap)
			}
		}
	}
}

// poll returns (snapshot, true) when a foreign write is newer than anything
// this process has seen.
func (s *Store) poll() (models.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ms int64
	err := s.db.Model(&kvRecord{}).
		Where("key = ?", StoreKey).
		Pluck("updated_ms", &ms).Error
	if err != nil || ms <= s.lastSeen {
		return models.Snapshot{}, false
	}

	snap, ok, err := s.loadLocked()
	if err != nil || !ok {
		return models.Snapshot{}, false
	}
	return snap, true
}
