package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/avasquez/eventdesk/internal/model"
)

// Cache key prefixes, one entry per identity. The layout is stable and
// shared with nothing else; ClearNotifications depends on removing exactly
// these two keys.
const (
	notificationsKeyPrefix = "notifications_"
	unreadCountKeyPrefix   = "unread_count_"
)

// SQLiteStore implements NotificationStore on a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// LoadNotifications returns the cached record list for userID, newest first.
// A missing key or a value that does not parse as JSON yields an empty list.
func (s *SQLiteStore) LoadNotifications(
	ctx context.Context,
	userID string,
) ([]model.Notification, error) {
	raw, err := s.getValue(ctx, notificationsKeyPrefix+userID)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []model.Notification{}, nil
	}

	var list []model.Notification
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		// Corrupt cache entries are treated as empty state.
		return []model.Notification{}, nil
	}
	if list == nil {
		list = []model.Notification{}
	}

	return list, nil
}

// SaveNotifications overwrites the full cached list for userID.
func (s *SQLiteStore) SaveNotifications(
	ctx context.Context,
	userID string,
	list []model.Notification,
) error {
	if list == nil {
		list = []model.Notification{}
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling notifications for user %s: %w", userID, err)
	}

	return s.setValue(ctx, notificationsKeyPrefix+userID, string(data))
}

// LoadUnreadCount returns the cached unread counter for userID.
// Missing or unparsable values count as 0.
func (s *SQLiteStore) LoadUnreadCount(
	ctx context.Context,
	userID string,
) (int, error) {
	raw, err := s.getValue(ctx, unreadCountKeyPrefix+userID)
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0, nil
	}
	return count, nil
}

// SaveUnreadCount overwrites the unread counter for userID.
func (s *SQLiteStore) SaveUnreadCount(
	ctx context.Context,
	userID string,
	count int,
) error {
	return s.setValue(ctx, unreadCountKeyPrefix+userID, strconv.Itoa(count))
}

// ClearNotifications removes both cache keys for userID.
func (s *SQLiteStore) ClearNotifications(
	ctx context.Context,
	userID string,
) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE key IN (?, ?)",
		notificationsKeyPrefix+userID, unreadCountKeyPrefix+userID,
	)
	if err != nil {
		return fmt.Errorf("clearing notifications for user %s: %w", userID, err)
	}
	return nil
}

// getValue reads a single cache entry, returning "" when absent.
func (s *SQLiteStore) getValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		"SELECT value FROM cache_entries WHERE key = ?", key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading cache entry %q: %w", key, err)
	}
	return value, nil
}

// setValue writes a single cache entry, replacing any existing value.
func (s *SQLiteStore) setValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (key, value, updated_at)
		VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry %q: %w", key, err)
	}
	return nil
}
