package store

import (
	"context"
	"fmt"

	"github.com/kart-io/verdict-x/pkg/component/milvus"
)

// Varchar field lengths for the knowledge collection.
const (
	maxIDLen       = 64
	maxCategoryLen = 64
	maxSourceLen   = 255
	maxContentLen  = 65535
)

// MilvusStore implements VectorStore on Milvus.
type MilvusStore struct {
	client *milvus.Client
}

var _ VectorStore = (*MilvusStore)(nil)

// NewMilvusStore creates a Milvus-backed store.
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// EnsureCollection creates the knowledge collection if missing.
func (s *MilvusStore) EnsureCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		VarCharFields: map[string]int{
			"entry_id": maxIDLen,
			"category": maxCategoryLen,
			"source":   maxSourceLen,
			"content":  maxContentLen,
		},
	}
	return s.client.EnsureCollection(ctx, schema)
}

// Insert stores entries with their embeddings.
func (s *MilvusStore) Insert(ctx context.Context, collection string, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	embeddings := make([][]float32, len(entries))
	metadata := map[string][]string{
		"entry_id": make([]string, len(entries)),
		"category": make([]string, len(entries)),
		"source":   make([]string, len(entries)),
		"content":  make([]string, len(entries)),
	}
	for i, entry := range entries {
		embeddings[i] = entry.Embedding
		metadata["entry_id"][i] = entry.EntryID
		metadata["category"][i] = entry.Category
		metadata["source"][i] = entry.Source
		metadata["content"][i] = entry.Content
	}

	if _, err := s.client.Insert(ctx, collection, embeddings, metadata); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// Search returns the topK most similar entries.
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	outputFields := []string{"entry_id", "category", "source", "content"}
	hits, err := s.client.Search(ctx, collection, embedding, topK, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	results := make([]*SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = &SearchResult{
			EntryID:  hit.Metadata["entry_id"],
			Category: hit.Metadata["category"],
			Source:   hit.Metadata["source"],
			Content:  hit.Metadata["content"],
			Score:    hit.Score,
		}
	}
	return results, nil
}

// Count returns the number of stored entries.
func (s *MilvusStore) Count(ctx context.Context, collection string) (int64, error) {
	return s.client.RowCount(ctx, collection)
}

// Close releases the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
