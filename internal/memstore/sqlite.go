// SQLite-backed Store: a write-through memory cache in front of a
// persistent table, grounded on the teacher's storage.SQLiteStorage
// (prepared statements, cache-first reads, schema versioning).
package memstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

const episodeSchema = `
CREATE TABLE IF NOT EXISTS schema_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS episodes (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	user_id TEXT,
	query_text TEXT NOT NULL,
	answer_text TEXT,
	strategy_used TEXT,
	quality REAL NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	status TEXT,
	metadata TEXT,
	timestamp INTEGER NOT NULL,
	consolidated INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_episodes_session ON episodes(session_id, timestamp);
`

// SQLiteStore persists episodes to a SQLite file with an in-memory cache
// for fast reads, exactly the teacher's "cache-first, write-through" idea.
type SQLiteStore struct {
	db    *sql.DB
	cache *InMemoryStore

	stmtInsert *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed episode store.
func NewSQLiteStore(dbPath string, busyTimeoutMS int) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errs.New("memstore.sqlite.open", errs.InvalidInput, "database path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap("memstore.sqlite.open", errs.Internal, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Wrap("memstore.sqlite.open", errs.BackendUnavailable, err)
	}
	if _, err := db.Exec(episodeSchema); err != nil {
		db.Close()
		return nil, errs.Wrap("memstore.sqlite.schema", errs.Internal, err)
	}

	stmt, err := db.Prepare(`INSERT INTO episodes
		(id, session_id, user_id, query_text, answer_text, strategy_used, quality, latency_ms, status, metadata, timestamp, consolidated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			answer_text=excluded.answer_text, quality=excluded.quality, status=excluded.status,
			metadata=excluded.metadata, consolidated=excluded.consolidated`)
	if err != nil {
		db.Close()
		return nil, errs.Wrap("memstore.sqlite.prepare", errs.Internal, err)
	}

	s := &SQLiteStore{db: db, cache: NewInMemoryStore(), stmtInsert: stmt}
	if err := s.warmCache(); err != nil {
		// Non-fatal: cache just starts cold.
		_ = err
	}
	return s, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.stmtInsert != nil {
		s.stmtInsert.Close()
	}
	return s.db.Close()
}

func (s *SQLiteStore) warmCache() error {
	rows, err := s.db.Query(`SELECT id, session_id, user_id, query_text, answer_text, strategy_used,
		quality, latency_ms, status, metadata, timestamp FROM episodes ORDER BY timestamp DESC LIMIT 1000`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return err
		}
		_ = s.cache.Append(context.Background(), ep)
	}
	return rows.Err()
}

func scanEpisode(rows *sql.Rows) (*types.Episode, error) {
	var ep types.Episode
	var metadataJSON sql.NullString
	var ts int64
	if err := rows.Scan(&ep.ID, &ep.SessionID, &ep.UserID, &ep.QueryText, &ep.AnswerText,
		&ep.StrategyUsed, &ep.Quality, &ep.LatencyMS, &ep.Status, &metadataJSON, &ts); err != nil {
		return nil, err
	}
	ep.Timestamp = time.UnixMilli(ts)
	if metadataJSON.Valid && metadataJSON.String != "" {
		_ = json.Unmarshal([]byte(metadataJSON.String), &ep.Metadata)
	}
	return &ep, nil
}

func (s *SQLiteStore) Append(ctx context.Context, episode *types.Episode) error {
	if err := s.cache.Append(ctx, episode); err != nil {
		return err
	}

	metadataJSON, err := json.Marshal(episode.Metadata)
	if err != nil {
		return errs.Wrap("memstore.sqlite.append", errs.Internal, err)
	}

	_, err = s.stmtInsert.ExecContext(ctx, episode.ID, episode.SessionID, episode.UserID,
		episode.QueryText, episode.AnswerText, episode.StrategyUsed, episode.Quality,
		episode.LatencyMS, episode.Status, string(metadataJSON), episode.Timestamp.UnixMilli(), 0)
	if err != nil {
		return errs.Wrap("memstore.sqlite.append", errs.BackendUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, sessionID string, n int) ([]*types.Episode, error) {
	return s.cache.Recent(ctx, sessionID, n)
}

func (s *SQLiteStore) Search(ctx context.Context, queryText string, filters SearchFilters) ([]*types.Episode, error) {
	return s.cache.Search(ctx, queryText, filters)
}

func (s *SQLiteStore) Consolidate(ctx context.Context) (ConsolidationResult, error) {
	result, err := s.cache.Consolidate(ctx)
	if err != nil {
		return result, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE episodes SET consolidated = 1 WHERE quality >= ?`, consolidationQualityThreshold); err != nil {
		return result, errs.Wrap("memstore.sqlite.consolidate", errs.BackendUnavailable, err)
	}
	cutoff := time.Now().Add(-consolidationAge).UnixMilli()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM episodes WHERE quality < ? AND timestamp < ?`, consolidationQualityThreshold, cutoff); err != nil {
		return result, errs.Wrap("memstore.sqlite.consolidate", errs.BackendUnavailable, err)
	}
	return result, nil
}
