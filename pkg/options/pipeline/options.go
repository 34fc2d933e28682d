// Package pipeline provides configuration options for the query pipeline.
package pipeline

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/verdict-x/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains pipeline-specific configuration.
type Options struct {
	// QualityThreshold is the minimum quality score the judge accepts.
	QualityThreshold float64 `json:"quality-threshold" mapstructure:"quality-threshold"`

	// TopK is the number of documents to retrieve per query.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// Collection is the name of the Milvus collection holding knowledge entries.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// KnowledgePath is an optional JSONL file of knowledge entries seeded at startup.
	KnowledgePath string `json:"knowledge-path" mapstructure:"knowledge-path"`

	// RequestTimeout bounds a full pipeline run for one request.
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`

	// SeedWorkers is the worker pool size used for knowledge seeding.
	SeedWorkers int `json:"seed-workers" mapstructure:"seed-workers"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		QualityThreshold: 70,
		TopK:             3,
		Collection:       "knowledge_base",
		EmbeddingDim:     1536, // text-embedding-3-small dimension
		RequestTimeout:   90 * time.Second,
		SeedWorkers:      4,
	}
}

// AddFlags adds flags for pipeline options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Float64Var(&o.QualityThreshold, options.Join(prefixes...)+"pipeline.quality-threshold", o.QualityThreshold, "Minimum quality score accepted by the judge.")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"pipeline.top-k", o.TopK, "Number of documents retrieved per query.")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"pipeline.collection", o.Collection, "Milvus collection holding knowledge entries.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"pipeline.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.StringVar(&o.KnowledgePath, options.Join(prefixes...)+"pipeline.knowledge-path", o.KnowledgePath, "JSONL file of knowledge entries seeded at startup.")
	fs.DurationVar(&o.RequestTimeout, options.Join(prefixes...)+"pipeline.request-timeout", o.RequestTimeout, "Timeout for a full pipeline run.")
	fs.IntVar(&o.SeedWorkers, options.Join(prefixes...)+"pipeline.seed-workers", o.SeedWorkers, "Worker pool size for knowledge seeding.")
}

// Validate validates the pipeline options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.QualityThreshold < 0 || o.QualityThreshold > 100 {
		errs = append(errs, fmt.Errorf("quality-threshold must be in [0, 100]"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("collection is required"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request-timeout must be positive"))
	}
	if o.SeedWorkers <= 0 {
		errs = append(errs, fmt.Errorf("seed-workers must be positive"))
	}
	return errs
}
