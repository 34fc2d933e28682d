package llm_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/verdict-x/pkg/llm"
)

type stubProvider struct{ name string }

func (s *stubProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (s *stubProvider) EmbedSingle(context.Context, string) ([]float32, error) {
	return []float32{0}, nil
}

func (s *stubProvider) Chat(context.Context, []llm.Message) (string, error) { return "", nil }

func (s *stubProvider) Generate(context.Context, string, string) (string, error) { return "", nil }

func (s *stubProvider) Name() string { return s.name }

func TestNewProviderResolvesRegisteredFactory(t *testing.T) {
	llm.RegisterProvider("stub-resolve", func(map[string]any) (llm.Provider, error) {
		return &stubProvider{name: "stub-resolve"}, nil
	})

	p, err := llm.NewProvider("stub-resolve", nil)
	require.NoError(t, err)
	assert.Equal(t, "stub-resolve", p.Name())
}

func TestNewProviderUnknownNameListsRegistered(t *testing.T) {
	llm.RegisterProvider("stub-listed", func(map[string]any) (llm.Provider, error) {
		return &stubProvider{name: "stub-listed"}, nil
	})

	_, err := llm.NewProvider("no-such-vendor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "no-such-vendor"`)
	assert.Contains(t, err.Error(), "stub-listed")
}

func TestListProvidersSorted(t *testing.T) {
	llm.RegisterProvider("stub-zz", func(map[string]any) (llm.Provider, error) {
		return &stubProvider{name: "stub-zz"}, nil
	})
	llm.RegisterProvider("stub-aa", func(map[string]any) (llm.Provider, error) {
		return &stubProvider{name: "stub-aa"}, nil
	})

	names := llm.ListProviders()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "stub-aa")
	assert.Contains(t, names, "stub-zz")
}
