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

// Generator produces an answer for a classified query.
type Generator interface {
	Generate(ctx context.Context, query string, classification *model.Classification, docs []string) (*model.GeneratedAnswer, error)
}

// LLMGenerator generates answers with a chat model returning structured JSON.
type LLMGenerator struct {
	chatProvider llm.ChatProvider
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates a generator backed by the given chat provider.
func NewLLMGenerator(chatProvider llm.ChatProvider) *LLMGenerator {
	return &LLMGenerator{chatProvider: chatProvider}
}

const generateSystemPrompt = `You are a helpful assistant.

Guidelines:
- Be clear, concise, and professional
- Use the provided context when available
- If context doesn't fully answer the question, acknowledge limitations
- Maintain a friendly tone

Category: %s
Confidence: %.2f

Return valid JSON with:
- answer: your response
- sources_used: list of source IDs used (if any)
- confidence: float 0.0-1.0 indicating your certainty`

// Generate builds the prompt from the classification and retrieved passages
// and parses the model's JSON reply. A reply missing confidence defaults to
// 0.8.
func (g *LLMGenerator) Generate(ctx context.Context, query string, classification *model.Classification, docs []string) (*model.GeneratedAnswer, error) {
	systemPrompt := fmt.Sprintf(generateSystemPrompt, classification.Category, classification.Confidence)
	userPrompt := buildGeneratePrompt(query, docs)

	reply, err := g.chatProvider.Generate(ctx, userPrompt, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	answer := model.GeneratedAnswer{Confidence: -1}
	if err := json.Unmarshal([]byte(textutil.ExtractJSON(reply)), &answer); err != nil {
		return nil, fmt.Errorf("malformed generation response %q: %w", textutil.Truncate(reply, replySnippetLen), err)
	}
	if answer.Answer == "" {
		return nil, fmt.Errorf("generation response missing answer")
	}
	if answer.Confidence < 0 {
		answer.Confidence = 0.8
	}
	answer.Confidence = clamp01(answer.Confidence)

	return &answer, nil
}

func buildGeneratePrompt(query string, docs []string) string {
	if len(docs) == 0 {
		return fmt.Sprintf("User Query: %s\n\nProvide a helpful response based on your general knowledge.", query)
	}

	var b strings.Builder
	b.WriteString("Context from knowledge base:\n\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "[Doc %d]\n%s\n\n", i+1, doc)
	}
	fmt.Fprintf(&b, "User Query: %s\n\nBased on the context above, provide a helpful response.", query)
	return b.String()
}
