package memstore

import (
	"context"
	"log"
	"os"

	"unified-thinking/internal/config"
	"unified-thinking/internal/embeddings"
	"unified-thinking/internal/errs"
	"unified-thinking/internal/knowledge"
)

// NewStore builds a Store from MemoryConfig, falling back to an in-memory
// store on SQLite initialization failure, mirroring the teacher's
// storage.NewStorage fallback behavior.
func NewStore(cfg config.MemoryConfig) (Store, error) {
	var base Store
	switch cfg.Backend {
	case "", "memory":
		log.Println("memstore: initializing in-memory episode store")
		base = NewInMemoryStore()

	case "sqlite":
		log.Printf("memstore: initializing SQLite episode store at %s", cfg.SQLitePath)
		sqliteStore, err := NewSQLiteStore(cfg.SQLitePath, cfg.SQLiteTimeoutMS)
		if err != nil {
			log.Printf("memstore: SQLite initialization failed (%v), falling back to in-memory", err)
			base = NewInMemoryStore()
		} else {
			base = sqliteStore
		}

	default:
		return nil, errs.New("memstore.factory", errs.InvalidInput, "unknown memory backend: "+cfg.Backend)
	}

	if !cfg.SemanticSearchEnabled {
		return withConsolidationIndex(base), nil
	}

	embedder := newEmbedder()
	semantic, err := NewSemanticStore(base, embedder, cfg.VectorPersistDir)
	if err != nil {
		log.Printf("memstore: semantic index initialization failed (%v), serving without it", err)
		return withConsolidationIndex(base), nil
	}
	return withConsolidationIndex(semantic), nil
}

// withConsolidationIndex layers a Neo4j consolidation index on top of store
// when NEO4J_URI is set. Connection failure degrades to the bare store.
func withConsolidationIndex(store Store) Store {
	if os.Getenv("NEO4J_URI") == "" {
		return store
	}
	index, err := NewConsolidationIndex(knowledge.DefaultConfig())
	if err != nil {
		log.Printf("memstore: consolidation index unavailable (%v), serving without it", err)
		return store
	}
	return NewIndexedStore(store, index)
}

// newEmbedder picks Voyage AI when an API key is configured, otherwise a
// deterministic mock embedder so semantic search still functions (with
// lower-quality ranking) in development without external credentials.
func newEmbedder() embeddings.Embedder {
	if apiKey := os.Getenv("VOYAGE_API_KEY"); apiKey != "" {
		return embeddings.NewVoyageEmbedder(apiKey, "voyage-3-lite")
	}
	return embeddings.NewMockEmbedder(256)
}

// Close releases resources held by a Store that owns them (a SQLiteStore and
// an IndexedStore's Neo4j index, possibly wrapped by SemanticStore or
// IndexedStore).
func Close(s Store) error {
	switch v := s.(type) {
	case *SQLiteStore:
		return v.Close()
	case *SemanticStore:
		return Close(v.Store)
	case *IndexedStore:
		_ = v.index.Close(context.Background())
		return Close(v.Store)
	default:
		return nil
	}
}
