// Package store defines the knowledge base vector store.
package store

import (
	"context"
)

// Entry is one knowledge base passage with its embedding.
type Entry struct {
	// EntryID is the caller-assigned identifier (e.g. "q001").
	EntryID string
	// Category is the knowledge category label.
	Category string
	// Source names where the entry came from.
	Source string
	// Content is the retrievable passage text.
	Content string
	// Embedding is the passage embedding.
	Embedding []float32
}

// SearchResult is one similarity search hit.
type SearchResult struct {
	EntryID  string
	Category string
	Source   string
	Content  string
	Score    float32
}

// CollectionConfig describes the knowledge collection.
type CollectionConfig struct {
	Name        string
	Description string
	Dimension   int
}

// VectorStore is the persistence contract for knowledge entries.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, config *CollectionConfig) error

	// Insert stores entries with their embeddings.
	Insert(ctx context.Context, collection string, entries []*Entry) error

	// Search returns the topK most similar entries.
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context, collection string) (int64, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
