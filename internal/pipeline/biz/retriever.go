package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/verdict-x/internal/pipeline/store"
	"github.com/kart-io/verdict-x/pkg/llm"
)

// Retriever fetches supporting passages for a query.
type Retriever interface {
	// Retrieve returns up to topK passage texts, most relevant first. It may
	// return fewer, including none.
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// VectorRetriever embeds the query and searches the knowledge collection.
type VectorRetriever struct {
	store      store.VectorStore
	embedder   llm.EmbeddingProvider
	collection string
}

var _ Retriever = (*VectorRetriever)(nil)

// NewVectorRetriever creates a retriever over the given store and embedder.
func NewVectorRetriever(vectorStore store.VectorStore, embedder llm.EmbeddingProvider, collection string) *VectorRetriever {
	return &VectorRetriever{
		store:      vectorStore,
		embedder:   embedder,
		collection: collection,
	}
}

// Retrieve embeds the query and returns the contents of the topK nearest
// knowledge entries, preserving similarity order.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	embedding, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, r.collection, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]string, len(hits))
	for i, hit := range hits {
		docs[i] = hit.Content
	}

	logger.Infow("retrieved context", "query_len", len(query), "hits", len(docs))
	return docs, nil
}
