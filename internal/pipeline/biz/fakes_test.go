package biz_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/verdict-x/internal/pipeline/model"
	"github.com/kart-io/verdict-x/internal/pipeline/store"
	"github.com/kart-io/verdict-x/pkg/llm"
)

// fakeChatProvider replays canned replies in order. When failOn is non-zero,
// the call with that 1-based index errors instead.
type fakeChatProvider struct {
	replies []string
	failOn  int
	calls   int
}

func (f *fakeChatProvider) Chat(_ context.Context, _ []llm.Message) (string, error) {
	return f.next()
}

func (f *fakeChatProvider) Generate(_ context.Context, _ string, _ string) (string, error) {
	return f.next()
}

func (f *fakeChatProvider) Name() string { return "fake" }

func (f *fakeChatProvider) next() (string, error) {
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		return "", errors.New("provider unavailable")
	}
	if len(f.replies) == 0 {
		return "", errors.New("no canned reply")
	}
	idx := f.calls - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return f.replies[idx], nil
}

// fakeClassifier returns a fixed classification.
type fakeClassifier struct {
	classification *model.Classification
	err            error
	calls          int
}

func (f *fakeClassifier) Classify(context.Context, string) (*model.Classification, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.classification, nil
}

// fakeRetriever counts invocations and returns fixed documents.
type fakeRetriever struct {
	docs  []string
	err   error
	calls int
}

func (f *fakeRetriever) Retrieve(context.Context, string, int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// fakeGenerator returns a fixed answer.
type fakeGenerator struct {
	answer *model.GeneratedAnswer
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(context.Context, string, *model.Classification, []string) (*model.GeneratedAnswer, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

// fakeChecker returns a fixed quality result.
type fakeChecker struct {
	result *model.QualityCheckResult
	err    error
	calls  int
}

func (f *fakeChecker) CheckQuality(context.Context, string, string, []string) (*model.QualityCheckResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// memoryStore is an in-memory VectorStore for orchestrator tests.
type memoryStore struct {
	entries []*store.Entry
}

func (m *memoryStore) EnsureCollection(context.Context, *store.CollectionConfig) error { return nil }

func (m *memoryStore) Insert(_ context.Context, _ string, entries []*store.Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memoryStore) Search(_ context.Context, _ string, _ []float32, topK int) ([]*store.SearchResult, error) {
	n := topK
	if n > len(m.entries) {
		n = len(m.entries)
	}
	results := make([]*store.SearchResult, n)
	for i := 0; i < n; i++ {
		results[i] = &store.SearchResult{
			EntryID: m.entries[i].EntryID,
			Content: m.entries[i].Content,
			Score:   float32(i),
		}
	}
	return results, nil
}

func (m *memoryStore) Count(context.Context, string) (int64, error) {
	return int64(len(m.entries)), nil
}

func (m *memoryStore) Close(context.Context) error { return nil }

func classificationFixture() *model.Classification {
	return &model.Classification{
		Category:     "general_inquiry",
		Confidence:   0.75,
		Reasoning:    "simple question",
		NeedsContext: true,
	}
}

func passingChecks(score float64) *model.QualityCheckResult {
	checks := make([]model.QualityCheck, 5)
	for i := range checks {
		checks[i] = model.QualityCheck{
			CheckName: fmt.Sprintf("check_%d", i),
			Passed:    true,
			Score:     score / 100,
		}
	}
	return &model.QualityCheckResult{
		Checks:       checks,
		OverallScore: score,
		PassedAll:    true,
	}
}
