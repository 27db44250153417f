// Semantic search over episodes, layered on top of any Store via
// knowledge.VectorStore (chromem-go), which is already domain-agnostic:
// it indexes arbitrary id/content/metadata triples, so episodes slot in
// without modifying the vector store itself.
package memstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"unified-thinking/internal/embeddings"
	"unified-thinking/internal/errs"
	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/types"
)

const episodeCollection = "episodes"

// SemanticStore wraps a Store and adds embedding-backed similarity search
// over appended episodes, so SearchSimilar can find relevant prior
// episodes even when they share no keywords with the query. It keeps its
// own id->episode index since Store exposes no get-by-id method.
type SemanticStore struct {
	Store
	vectors *knowledge.VectorStore

	mu   sync.RWMutex
	byID map[string]*types.Episode
}

// NewSemanticStore wraps base with a vector index. persistPath empty means
// in-memory only.
func NewSemanticStore(base Store, embedder embeddings.Embedder, persistPath string) (*SemanticStore, error) {
	vs, err := knowledge.NewVectorStore(knowledge.VectorStoreConfig{
		PersistPath: persistPath,
		Embedder:    embedder,
	})
	if err != nil {
		return nil, errs.Wrap("memstore.semantic.init", errs.Internal, err)
	}
	return &SemanticStore{Store: base, vectors: vs, byID: make(map[string]*types.Episode)}, nil
}

// Append delegates to the wrapped Store then indexes the episode's text
// for semantic retrieval. A vector-indexing failure does not fail the
// append: the episode is already durably recorded by the base store.
func (s *SemanticStore) Append(ctx context.Context, episode *types.Episode) error {
	if err := s.Store.Append(ctx, episode); err != nil {
		return err
	}
	metadata := map[string]string{
		"session_id": episode.SessionID,
		"quality":    strconv.FormatFloat(episode.Quality, 'f', -1, 64),
	}
	content := episode.QueryText
	if episode.AnswerText != "" {
		content = fmt.Sprintf("%s\n%s", episode.QueryText, episode.AnswerText)
	}
	_ = s.vectors.AddDocument(ctx, episodeCollection, episode.ID, content, metadata)

	cp := *episode
	s.mu.Lock()
	s.byID[cp.ID] = &cp
	s.mu.Unlock()
	return nil
}

// SearchSimilar returns up to limit episodes whose content is semantically
// closest to queryText, independent of keyword overlap.
func (s *SemanticStore) SearchSimilar(ctx context.Context, queryText string, limit int) ([]*types.Episode, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := s.vectors.SearchSimilar(ctx, episodeCollection, queryText, limit)
	if err != nil {
		return nil, errs.Wrap("memstore.semantic.search", errs.Internal, err)
	}

	out := make([]*types.Episode, 0, len(results))
	for _, r := range results {
		ep, err := s.lookup(ctx, r.ID)
		if err != nil {
			continue
		}
		out = append(out, ep)
	}
	return out, nil
}

// lookup retrieves a single episode by ID from the local index populated
// on Append.
func (s *SemanticStore) lookup(ctx context.Context, id string) (*types.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.byID[id]
	if !ok {
		return nil, errs.New("memstore.semantic.lookup", errs.NotFound, "episode not found").WithID(id)
	}
	cp := *ep
	return &cp, nil
}
