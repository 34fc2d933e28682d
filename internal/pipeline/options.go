// Package pipelinesvc provides the query pipeline server implementation.
package pipelinesvc

import (
	"errors"

	"github.com/spf13/pflag"

	httpopts "github.com/kart-io/verdict-x/pkg/options/http"
	llmopts "github.com/kart-io/verdict-x/pkg/options/llm"
	logopts "github.com/kart-io/verdict-x/pkg/options/logger"
	milvusopts "github.com/kart-io/verdict-x/pkg/options/milvus"
	pipelineopts "github.com/kart-io/verdict-x/pkg/options/pipeline"
	ratelimitopts "github.com/kart-io/verdict-x/pkg/options/ratelimit"
	redisopts "github.com/kart-io/verdict-x/pkg/options/redis"
)

// Options contains all pipeline service options.
type Options struct {
	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// HTTP contains HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Milvus contains the vector database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Chat configures the generation-side LLM provider.
	Chat *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// Embedding configures the embedding-side LLM provider.
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Pipeline contains pipeline tunables.
	Pipeline *pipelineopts.Options `json:"pipeline" mapstructure:"pipeline"`

	// RateLimit configures the sliding-window limiter.
	RateLimit *ratelimitopts.Options `json:"ratelimit" mapstructure:"ratelimit"`

	// Redis configures the shared limiter backend. Only used when the rate
	// limit backend is "redis".
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Log:       logopts.NewOptions(),
		HTTP:      httpopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Chat:      llmopts.NewChatOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Pipeline:  pipelineopts.NewOptions(),
		RateLimit: ratelimitopts.NewOptions(),
		Redis:     redisopts.NewOptions(),
	}
}

// Flags returns the flagset holding all registered flags.
func (o *Options) Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("pipeline", pflag.ContinueOnError)

	o.Log.AddFlags(fs)
	o.HTTP.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Chat.AddFlags(fs, "chat")
	o.Embedding.AddFlags(fs, "embedding")
	o.Pipeline.AddFlags(fs)
	o.RateLimit.AddFlags(fs)
	o.Redis.AddFlags(fs)

	return fs
}

// Complete fills in derived defaults after config loading.
func (o *Options) Complete() error {
	// Ollama serves both concerns locally, so an embedding provider left at
	// its zero value follows the chat provider.
	if o.Embedding.Provider == "" {
		o.Embedding.Provider = o.Chat.Provider
		o.Embedding.BaseURL = o.Chat.BaseURL
		o.Embedding.APIKey = o.Chat.APIKey
	}
	return nil
}

// Validate checks the final option values.
func (o *Options) Validate() error {
	var errs []error

	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Pipeline.Validate()...)
	errs = append(errs, o.RateLimit.Validate()...)

	if o.RateLimit.Enabled && o.RateLimit.Backend == ratelimitopts.BackendRedis {
		errs = append(errs, o.Redis.Validate()...)
	}

	return errors.Join(errs...)
}
