package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/verdict-x/internal/pipeline/model"
	"github.com/kart-io/verdict-x/pkg/infra/pool"
	"github.com/kart-io/verdict-x/pkg/llm"
	"github.com/kart-io/verdict-x/pkg/utils/json"
)

// seedBatchSize is the number of entries embedded and inserted per task.
const seedBatchSize = 16

// LoadKnowledgeFile reads knowledge entries from a JSONL file, one entry per
// line. Blank lines are skipped; a malformed line fails the whole load.
func LoadKnowledgeFile(path string) ([]model.KnowledgeEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge file: %w", err)
	}
	defer f.Close()

	var entries []model.KnowledgeEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry model.KnowledgeEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("parse knowledge file line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	return entries, nil
}

// Seeder embeds knowledge entries and loads them into the vector store.
type Seeder struct {
	store      VectorStore
	embedder   llm.EmbeddingProvider
	collection string
	workers    int
}

// NewSeeder creates a seeder.
func NewSeeder(store VectorStore, embedder llm.EmbeddingProvider, collection string, workers int) *Seeder {
	return &Seeder{
		store:      store,
		embedder:   embedder,
		collection: collection,
		workers:    workers,
	}
}

// Seed embeds and inserts the entries, batched across a worker pool. It is a
// no-op when the collection already holds data, so restarts do not duplicate
// the knowledge base.
func (s *Seeder) Seed(ctx context.Context, entries []model.KnowledgeEntry) error {
	if len(entries) == 0 {
		return nil
	}

	count, err := s.store.Count(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection count: %w", err)
	}
	if count > 0 {
		logger.Infow("knowledge collection already seeded", "collection", s.collection, "rows", count)
		return nil
	}

	workers, err := pool.New(s.workers)
	if err != nil {
		return fmt.Errorf("create seed pool: %w", err)
	}
	defer workers.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(entries); start += seedBatchSize {
		end := start + seedBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			if err := s.seedBatch(ctx, batch); err != nil {
				setErr(err)
			}
		}); err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	logger.Infow("knowledge base seeded", "collection", s.collection, "entries", len(entries))
	return nil
}

func (s *Seeder) seedBatch(ctx context.Context, batch []model.KnowledgeEntry) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content()
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed knowledge batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(embeddings))
	}

	storeEntries := make([]*Entry, len(batch))
	for i := range batch {
		storeEntries[i] = &Entry{
			EntryID:   batch[i].ID,
			Category:  batch[i].Category,
			Source:    batch[i].Source,
			Content:   texts[i],
			Embedding: embeddings[i],
		}
	}
	return s.store.Insert(ctx, s.collection, storeEntries)
}
