// Optional Neo4j-backed index over consolidated (promoted) episodes, so an
// operator can query relationships between high-quality episodes (shared
// session, shared strategy) that a flat key-value store can't express.
// Wraps knowledge.Neo4jClient, which is already query/param generic.
package memstore

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/types"
)

// IndexedStore wraps a Store and mirrors episodes that meet the
// consolidation quality bar into a ConsolidationIndex as they're appended,
// rather than waiting for a Consolidate pass, so the graph stays current
// even between consolidation runs.
type IndexedStore struct {
	Store
	index *ConsolidationIndex
}

// NewIndexedStore wraps base with index.
func NewIndexedStore(base Store, index *ConsolidationIndex) *IndexedStore {
	return &IndexedStore{Store: base, index: index}
}

func (s *IndexedStore) Append(ctx context.Context, episode *types.Episode) error {
	if err := s.Store.Append(ctx, episode); err != nil {
		return err
	}
	if episode.Quality >= consolidationQualityThreshold {
		_ = s.index.IndexEpisode(ctx, episode)
	}
	return nil
}

// ConsolidationIndex mirrors promoted episodes into a Neo4j graph keyed by
// session, so related episodes can be traversed later.
type ConsolidationIndex struct {
	client   *knowledge.Neo4jClient
	database string
}

// NewConsolidationIndex connects to Neo4j using cfg. Callers should treat a
// non-nil error as "run without the index" rather than fatal, since this is
// an optional enrichment over the base Store.
func NewConsolidationIndex(cfg knowledge.Neo4jConfig) (*ConsolidationIndex, error) {
	client, err := knowledge.NewNeo4jClient(cfg)
	if err != nil {
		return nil, errs.Wrap("memstore.consolidation_index.connect", errs.BackendUnavailable, err)
	}
	return &ConsolidationIndex{client: client, database: cfg.Database}, nil
}

// Close releases the underlying driver.
func (ci *ConsolidationIndex) Close(ctx context.Context) error {
	return ci.client.Close(ctx)
}

// IndexEpisode upserts a promoted episode as a node and links it to its
// session node, so Neo4j can answer "which promoted episodes shared a
// session with this one" without the caller joining anything itself.
func (ci *ConsolidationIndex) IndexEpisode(ctx context.Context, ep *types.Episode) error {
	_, err := ci.client.ExecuteWrite(ctx, ci.database, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (s:Session {id: $session_id})
			MERGE (e:Episode {id: $id})
			SET e.strategy_used = $strategy_used, e.quality = $quality, e.timestamp = $timestamp
			MERGE (e)-[:IN_SESSION]->(s)
		`, map[string]any{
			"id":            ep.ID,
			"session_id":    ep.SessionID,
			"strategy_used": ep.StrategyUsed,
			"quality":       ep.Quality,
			"timestamp":     ep.Timestamp.UnixMilli(),
		})
		return nil, err
	})
	return err
}

// RelatedToSession returns episode IDs previously indexed under the same
// session, excluding the episode itself.
func (ci *ConsolidationIndex) RelatedToSession(ctx context.Context, sessionID, excludeID string) ([]string, error) {
	result, err := ci.client.ExecuteRead(ctx, ci.database, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Episode)-[:IN_SESSION]->(:Session {id: $session_id})
			WHERE e.id <> $exclude_id
			RETURN e.id AS id
		`, map[string]any{"session_id": sessionID, "exclude_id": excludeID})
		if err != nil {
			return nil, err
		}
		var ids []string
		for res.Next(ctx) {
			if id, ok := res.Record().Get("id"); ok {
				ids = append(ids, id.(string))
			}
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, errs.Wrap("memstore.consolidation_index.related", errs.BackendUnavailable, err)
	}
	return result.([]string), nil
}
