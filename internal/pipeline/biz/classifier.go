// Package biz implements the query pipeline stages and their orchestration.
package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/verdict-x/internal/pipeline/model"
	"github.com/kart-io/verdict-x/internal/pkg/textutil"
	"github.com/kart-io/verdict-x/pkg/llm"
	"github.com/kart-io/verdict-x/pkg/utils/json"
)

// replySnippetLen bounds how much of a raw model reply parse errors carry.
const replySnippetLen = 200

// Classifier determines the intent category of a query.
type Classifier interface {
	Classify(ctx context.Context, query string) (*model.Classification, error)
}

// LLMClassifier classifies queries with a chat model returning structured
// JSON.
type LLMClassifier struct {
	chatProvider llm.ChatProvider
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier creates a classifier backed by the given chat provider.
func NewLLMClassifier(chatProvider llm.ChatProvider) *LLMClassifier {
	return &LLMClassifier{chatProvider: chatProvider}
}

const classifySystemPrompt = `You are a query classification system.

Categories: %s

Analyze the query and return:
- category: one of the defined categories
- confidence: float between 0.0 and 1.0
- reasoning: brief explanation (1-2 sentences)
- needs_context: boolean - does this query require knowledge retrieval?

Return valid JSON only.`

// Classify runs the classification prompt and parses the model's JSON reply.
func (c *LLMClassifier) Classify(ctx context.Context, query string) (*model.Classification, error) {
	systemPrompt := fmt.Sprintf(classifySystemPrompt, strings.Join(model.Categories, ", "))

	reply, err := c.chatProvider.Generate(ctx, "Query: "+query, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}

	var classification model.Classification
	if err := json.Unmarshal([]byte(textutil.ExtractJSON(reply)), &classification); err != nil {
		return nil, fmt.Errorf("malformed classification response %q: %w", textutil.Truncate(reply, replySnippetLen), err)
	}

	if !isKnownCategory(classification.Category) {
		classification.Category = "other"
	}
	classification.Confidence = clamp01(classification.Confidence)

	return &classification, nil
}

func isKnownCategory(category string) bool {
	for _, c := range model.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
