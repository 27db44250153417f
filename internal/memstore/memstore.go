// Package memstore persists Episodes (the record of one processed query)
// and provides recency, keyword, and semantic retrieval over them, plus
// periodic consolidation. Backends are pluggable: an in-memory store for
// tests and small deployments, a SQLite-backed store with a write-through
// memory cache for single-node persistence.
package memstore

import (
	"context"

	"unified-thinking/internal/types"
)

// SearchFilters narrows a Search call.
type SearchFilters struct {
	SessionID    string
	UserID       string
	StrategyUsed string
	MinQuality   float64
	Limit        int
}

// ConsolidationResult summarizes one Consolidate pass.
type ConsolidationResult struct {
	Promoted int
	Expired  int
}

// Store is the memory store contract the orchestrator depends on.
type Store interface {
	// Append records a new episode. Episode.ID is assigned if empty.
	Append(ctx context.Context, episode *types.Episode) error
	// Recent returns the n most recent episodes for a session, newest first.
	Recent(ctx context.Context, sessionID string, n int) ([]*types.Episode, error)
	// Search returns episodes matching queryText (keyword overlap) and the
	// given filters, ranked by relevance then recency.
	Search(ctx context.Context, queryText string, filters SearchFilters) ([]*types.Episode, error)
	// Consolidate promotes high-quality episodes into longer-term retention
	// and expires low-quality stale ones. Idempotent: a second call with no
	// new episodes in between promotes/expires nothing further.
	Consolidate(ctx context.Context) (ConsolidationResult, error)
}
