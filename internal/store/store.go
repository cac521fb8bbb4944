package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/pillwise/pillwise/internal/config"
	apperrors "github.com/pillwise/pillwise/internal/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Snapshot keys. Each key holds one JSON value in BadgerDB.
const (
	KeyPatients          = "patients"
	KeyCaretakers        = "caretakers"
	KeyRegisteredUsers   = "registered_users"
	KeyActiveSession     = "active_session"
	KeyVoiceEnabled      = "voice_enabled"
	KeyAppLanguage       = "app_language"
	KeyHasCompletedIntro = "has_completed_intro"
)

// Store provides unified access to SQLite and BadgerDB
type Store struct {
	db     *gorm.DB
	badger *badger.DB
	config *config.StorageConfig
}

// New creates a new Store instance
func New(cfg *config.Config) (*Store, error) {
	// Initialize SQLite
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "pillwise.db")
	}

	// Open SQLite with optimizations
	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Configure connection pool
	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Auto-migrate schemas
	if err := db.AutoMigrate(
		&Conversation{},
		&Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	// Initialize BadgerDB
	badgerPath := cfg.Storage.BadgerPath
	if badgerPath == "" {
		badgerPath = filepath.Join(cfg.Storage.DataDir, "badger")
	}

	// Open BadgerDB with optimizations
	badgerOpts := badger.DefaultOptions(badgerPath).
		WithLogger(nil). // Disable verbose logging
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20). // 16MB value log files
		WithMemTableSize(16 << 20)      // 16MB memtable

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{
		db:     db,
		badger: badgerDB,
		config: &cfg.Storage,
	}, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	return s.badger.Close()
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Badger returns the BadgerDB instance
func (s *Store) Badger() *badger.DB {
	return s.badger
}

// ==================== KV Methods (BadgerDB) ====================

// SetKV stores a key-value pair
func (s *Store) SetKV(key string, value []byte) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
}

// GetKV retrieves a value by key
func (s *Store) GetKV(key string) ([]byte, error) {
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("kv:" + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	return val, err
}

// DeleteKV removes a key. Deleting an absent key is not an error.
func (s *Store) DeleteKV(key string) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte("kv:" + key))
	})
}

// HasKV reports whether a key exists.
func (s *Store) HasKV(key string) (bool, error) {
	err := s.badger.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("kv:" + key))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ==================== Snapshot Methods ====================

// GetJSON loads the value at key into out. A missing key leaves out
// untouched and returns (false, nil), so callers can fall back to seed
// data. A corrupt value is treated the same way: the snapshot heals on
// the next write.
func (s *Store) GetJSON(key string, out interface{}) (bool, error) {
	data, err := s.GetKV(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrStoreRead.Code, "failed to read "+key)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON marshals v and stores it at key.
func (s *Store) SetJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreWrite.Code, "failed to encode "+key)
	}
	if err := s.SetKV(key, data); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreWrite.Code, "failed to write "+key)
	}
	return nil
}

// GetBool reads a boolean setting, returning fallback when unset.
func (s *Store) GetBool(key string, fallback bool) bool {
	var v bool
	ok, err := s.GetJSON(key, &v)
	if err != nil || !ok {
		return fallback
	}
	return v
}

// GetString reads a string setting, returning fallback when unset.
func (s *Store) GetString(key string, fallback string) string {
	var v string
	ok, err := s.GetJSON(key, &v)
	if err != nil || !ok {
		return fallback
	}
	return v
}

// ==================== Conversation Methods ====================

// CreateConversation creates a new conversation
func (s *Store) CreateConversation(conv *Conversation) error {
	return s.db.Create(conv).Error
}

// GetConversation retrieves a conversation by ID
func (s *Store) GetConversation(id string) (*Conversation, error) {
	var conv Conversation
	if err := s.db.First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations lists a user's conversations, newest first
func (s *Store) ListConversations(userID string, limit, offset int) ([]Conversation, error) {
	var convs []Conversation
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	return convs, err
}

// ==================== Message Methods ====================

// CreateMessage appends a message and bumps the conversation counters
func (s *Store) CreateMessage(msg *Message) error {
	if err := s.db.Create(msg).Error; err != nil {
		return err
	}
	return s.db.Model(&Conversation{}).
		Where("id = ?", msg.ConversationID).
		Updates(map[string]interface{}{
			"message_count": gorm.Expr("message_count + 1"),
			"updated_at":    time.Now(),
		}).Error
}

// GetMessages retrieves messages for a conversation
func (s *Store) GetMessages(conversationID string, limit, offset int) ([]Message, error) {
	var msgs []Message
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	return msgs, err
}

// GetMessageCount returns the number of messages in a conversation
func (s *Store) GetMessageCount(conversationID string) (int64, error) {
	var count int64
	err := s.db.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error
	return count, err
}
