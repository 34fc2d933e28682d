// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/verdict-x/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions configures a single LLM provider endpoint. The pipeline
// carries two instances: one for chat completion and one for embeddings, so
// each can point at a different vendor or model.
type ProviderOptions struct {
	// Provider is the vendor name (openai, ollama).
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the API base address.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey authenticates against hosted providers.
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model is the model name to request.
	Model string `json:"model" mapstructure:"model"`

	// Timeout bounds a single provider request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the transport-level retry budget.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Temperature is the sampling temperature for chat requests.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
}

// NewChatOptions creates defaults for the chat provider.
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:    "openai",
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Timeout:     60 * time.Second,
		MaxRetries:  3,
		Temperature: 0.2,
	}
}

// NewEmbeddingOptions creates defaults for the embedding provider.
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "openai",
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// ToConfigMap converts the options into the generic config map consumed by
// the provider factories.
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"api_key":     o.APIKey,
		"model":       o.Model,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
		"temperature": o.Temperature,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
// Prefixes distinguish the chat and embedding instances (e.g. "chat", "embedding").
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Provider, options.Join(prefixes...)+"provider", o.Provider, "LLM provider (openai, ollama).")
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.Model, options.Join(prefixes...)+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"max-retries", o.MaxRetries, "LLM maximum number of retries.")
	fs.Float64Var(&o.Temperature, options.Join(prefixes...)+"temperature", o.Temperature, "LLM sampling temperature.")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("base-url is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if o.Provider == "openai" && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for openai provider"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be in [0, 2]"))
	}
	return errs
}
