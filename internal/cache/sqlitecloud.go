package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	sqlitecloud "github.com/sqlitecloud/sqlitecloud-go"

	"github.com/tubestats/tubestats/internal/models"
)

// SQLiteCloud persists snapshots in the channel_snapshot table, one row per channel.
type SQLiteCloud struct {
	// the driver connection is not safe for concurrent use
	mu  sync.Mutex
	db  *sqlitecloud.SQCloud
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteCloud connects to the database and creates the table if needed.
func NewSQLiteCloud(dbPath string, ttl time.Duration, log zerolog.Logger) (*SQLiteCloud, error) {
	log.Info().Str("db", maskConnectionString(dbPath)).Msg("connecting to SQLite Cloud database")

	db, err := sqlitecloud.Connect(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite Cloud: %w", err)
	}

	s := &SQLiteCloud{db: db, ttl: ttl, now: time.Now}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// maskConnectionString hides the API key in logs
func maskConnectionString(connStr string) string {
	if i := strings.Index(connStr, "apikey="); i >= 0 {
		return connStr[:i] + "apikey=***"
	}
	return connStr
}

func (s *SQLiteCloud) createTables() error {
	const ddl = `CREATE TABLE IF NOT EXISTS channel_snapshot (
		channel_id TEXT PRIMARY KEY,
		channel_title TEXT NOT NULL,
		video_count INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`
	if err := s.db.Execute(ddl); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *SQLiteCloud) Get(ctx context.Context, channelID string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	result, err := s.db.SelectArray(
		`SELECT snapshot FROM channel_snapshot WHERE channel_id = ?`,
		[]interface{}{channelID},
	)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if result.GetNumberOfRows() == 0 {
		return nil, nil
	}

	payload, err := result.GetStringValue(0, 0)
	if err != nil {
		return nil, err
	}
	snap, fresh, err := snapshotFromRow(payload, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, s.Invalidate(ctx, channelID)
	}
	return snap, nil
}

// snapshotFromRow decodes a stored snapshot column and reports whether it is still
// within ttl.
func snapshotFromRow(payload string, ttl time.Duration, now time.Time) (*models.Snapshot, bool, error) {
	snap, err := decode([]byte(payload))
	if err != nil {
		return nil, false, err
	}
	if expired(snap.FetchedAt, ttl, now) {
		return nil, false, nil
	}
	return snap, true, nil
}

// snapshotRow returns the upsert arguments for snap, in column order.
func snapshotRow(channelID string, snap *models.Snapshot) ([]interface{}, error) {
	payload, err := encode(snap)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		channelID,
		snap.Channel.Title,
		len(snap.Videos),
		string(payload),
		snap.FetchedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *SQLiteCloud) Put(ctx context.Context, channelID string, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := snapshotRow(channelID, snap)
	if err != nil {
		return err
	}

	const upsert = `INSERT INTO channel_snapshot (channel_id, channel_title, video_count, snapshot, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			channel_title = excluded.channel_title,
			video_count = excluded.video_count,
			snapshot = excluded.snapshot,
			fetched_at = excluded.fetched_at`

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExecuteArray(upsert, row)
}

func (s *SQLiteCloud) Invalidate(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExecuteArray(`DELETE FROM channel_snapshot WHERE channel_id = ?`, []interface{}{channelID})
}

func (s *SQLiteCloud) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
