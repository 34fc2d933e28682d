package biz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/verdict-x/internal/pipeline/biz"
	"github.com/kart-io/verdict-x/internal/pipeline/store"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (s *stubEmbedder) Name() string { return "stub" }

func TestVectorRetrieverReturnsContentsInOrder(t *testing.T) {
	ms := &memoryStore{entries: []*store.Entry{
		{EntryID: "q001", Content: "first"},
		{EntryID: "q002", Content: "second"},
		{EntryID: "q003", Content: "third"},
	}}
	retriever := biz.NewVectorRetriever(ms, &stubEmbedder{}, "knowledge_base")

	docs, err := retriever.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, docs)
}

func TestVectorRetrieverEmbedFailure(t *testing.T) {
	retriever := biz.NewVectorRetriever(&memoryStore{}, &stubEmbedder{err: errors.New("embed api down")}, "knowledge_base")

	_, err := retriever.Retrieve(context.Background(), "query", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed query")
}
