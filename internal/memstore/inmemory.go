package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// MaxIndexedWordsPerEpisode bounds the keyword index's per-episode cost,
// mirroring the teacher's MaxUniqueWordsPerThought guard.
const MaxIndexedWordsPerEpisode = 200

// consolidationQualityThreshold and consolidationAge gate Consolidate:
// episodes at or above the threshold are "promoted" (kept indefinitely,
// flagged consolidated); episodes below it older than the age are expired
// (dropped from the store) rather than growing it unbounded.
const (
	consolidationQualityThreshold = 0.75
	consolidationAge              = 24 * time.Hour
)

// InMemoryStore is a thread-safe, in-process Store implementation. All
// retrieval methods return deep copies so callers cannot mutate internal
// state, mirroring the teacher's MemoryStorage deep-copy discipline.
type InMemoryStore struct {
	mu sync.RWMutex

	episodes     map[string]*types.Episode
	bySession    map[string][]string // session id -> episode ids, append order
	wordIndex    map[string][]string // word -> episode ids
	consolidated map[string]bool
	clock        func() time.Time
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		episodes:     make(map[string]*types.Episode),
		bySession:    make(map[string][]string),
		wordIndex:    make(map[string][]string),
		consolidated: make(map[string]bool),
		clock:        time.Now,
	}
}

func (s *InMemoryStore) Append(ctx context.Context, episode *types.Episode) error {
	if strings.TrimSpace(episode.QueryText) == "" {
		return errs.New("memstore.append", errs.InvalidInput, "episode.query_text is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if episode.ID == "" {
		episode.ID = uuid.NewString()
	}
	if episode.Timestamp.IsZero() {
		episode.Timestamp = s.clock()
	}

	cp := *episode
	s.episodes[cp.ID] = &cp
	s.bySession[cp.SessionID] = append(s.bySession[cp.SessionID], cp.ID)
	s.indexWords(&cp)
	return nil
}

func (s *InMemoryStore) indexWords(ep *types.Episode) {
	seen := make(map[string]bool)
	for _, word := range tokenize(ep.QueryText + " " + ep.AnswerText) {
		if seen[word] || len(seen) >= MaxIndexedWordsPerEpisode {
			continue
		}
		seen[word] = true
		s.wordIndex[word] = append(s.wordIndex[word], ep.ID)
	}
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

func (s *InMemoryStore) Recent(ctx context.Context, sessionID string, n int) ([]*types.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySession[sessionID]
	out := make([]*types.Episode, 0, minInt(n, len(ids)))
	for i := len(ids) - 1; i >= 0 && len(out) < n; i-- {
		if ep, ok := s.episodes[ids[i]]; ok {
			cp := *ep
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Search(ctx context.Context, queryText string, filters SearchFilters) ([]*types.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidateIDs := map[string]int{}
	for _, word := range tokenize(queryText) {
		for _, id := range s.wordIndex[word] {
			candidateIDs[id]++
		}
	}

	type scored struct {
		ep    *types.Episode
		score int
	}
	var matches []scored
	for id, hits := range candidateIDs {
		ep, ok := s.episodes[id]
		if !ok || !passesFilters(ep, filters) {
			continue
		}
		cp := *ep
		matches = append(matches, scored{ep: &cp, score: hits})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].ep.Timestamp.After(matches[j].ep.Timestamp)
	})

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	out := make([]*types.Episode, 0, minInt(limit, len(matches)))
	for _, m := range matches {
		if len(out) >= limit {
			break
		}
		out = append(out, m.ep)
	}
	return out, nil
}

func passesFilters(ep *types.Episode, f SearchFilters) bool {
	if f.SessionID != "" && ep.SessionID != f.SessionID {
		return false
	}
	if f.UserID != "" && ep.UserID != f.UserID {
		return false
	}
	if f.StrategyUsed != "" && ep.StrategyUsed != f.StrategyUsed {
		return false
	}
	if ep.Quality < f.MinQuality {
		return false
	}
	return true
}

func (s *InMemoryStore) Consolidate(ctx context.Context) (ConsolidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result ConsolidationResult
	now := s.clock()
	var expireIDs []string

	for id, ep := range s.episodes {
		if s.consolidated[id] {
			continue
		}
		age := now.Sub(ep.Timestamp)
		switch {
		case ep.Quality >= consolidationQualityThreshold:
			s.consolidated[id] = true
			result.Promoted++
		case age >= consolidationAge:
			expireIDs = append(expireIDs, id)
		}
	}

	for _, id := range expireIDs {
		ep := s.episodes[id]
		delete(s.episodes, id)
		delete(s.consolidated, id)
		s.bySession[ep.SessionID] = removeID(s.bySession[ep.SessionID], id)
		result.Expired++
	}

	return result, nil
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
