// Package milvus wraps the Milvus SDK client behind the small surface the
// pipeline's vector store needs.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/verdict-x/pkg/options/milvus"
)

// vectorField is the schema field holding embeddings.
const vectorField = "embedding"

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New connects to Milvus using the given options.
func New(opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{client: c, opts: opts}, nil
}

// Close closes the client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// CollectionSchema describes a vector collection with varchar metadata.
type CollectionSchema struct {
	Name        string
	Description string
	Dimension   int
	// VarCharFields maps metadata field names to their max length.
	VarCharFields map[string]int
}

// EnsureCollection creates the collection, its vector index, and loads it
// into memory. It is a no-op when the collection already exists.
func (c *Client) EnsureCollection(ctx context.Context, schema *CollectionSchema) error {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	collSchema := entity.NewSchema().
		WithName(schema.Name).
		WithDescription(schema.Description).
		WithAutoID(true)

	collSchema.WithField(
		entity.NewField().
			WithName("id").
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true).
			WithIsAutoID(true),
	)
	collSchema.WithField(
		entity.NewField().
			WithName(vectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(schema.Dimension)),
	)
	for name, maxLen := range schema.VarCharFields {
		collSchema.WithField(
			entity.NewField().
				WithName(name).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(int64(maxLen)),
		)
	}

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.Name, collSchema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(entity.L2, 128)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.Name, vectorField, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}

	return nil
}

// Insert inserts embeddings with aligned varchar metadata columns and flushes
// so the rows are immediately searchable.
func (c *Client) Insert(ctx context.Context, collection string, embeddings [][]float32, metadata map[string][]string) ([]int64, error) {
	if len(embeddings) == 0 {
		return nil, nil
	}

	columns := make([]column.Column, 0, len(metadata)+1)
	columns = append(columns, column.NewColumnFloatVector(vectorField, len(embeddings[0]), embeddings))
	for name, values := range metadata {
		if len(values) != len(embeddings) {
			return nil, fmt.Errorf("metadata field %s has %d values for %d embeddings", name, len(values), len(embeddings))
		}
		columns = append(columns, column.NewColumnVarChar(name, values))
	}

	result, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection, columns...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert data: %w", err)
	}

	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for flush: %w", err)
	}

	ids := result.IDs.(*column.ColumnInt64).Data()
	return ids, nil
}

// SearchResult is one hit from a similarity search.
type SearchResult struct {
	ID       int64
	Score    float32
	Metadata map[string]string
}

// Search runs an ANN search and returns the topK nearest rows with the
// requested output fields.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, topK int, outputFields []string) ([]SearchResult, error) {
	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		collection,
		topK,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField(vectorField).
		WithSearchParam("nprobe", "16").
		WithOutputFields(outputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	hits := make([]SearchResult, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		hit := SearchResult{
			Score:    results[0].Scores[i],
			Metadata: make(map[string]string),
		}
		if idCol, ok := results[0].IDs.(*column.ColumnInt64); ok {
			hit.ID = idCol.Data()[i]
		}
		for _, field := range results[0].Fields {
			if col, ok := field.(*column.ColumnVarChar); ok {
				hit.Metadata[col.Name()] = col.Data()[i]
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// RowCount returns the number of entities in the collection.
func (c *Client) RowCount(ctx context.Context, collection string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collection))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}
	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}
