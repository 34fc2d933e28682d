package biz_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/verdict-x/internal/pipeline/biz"
)

func TestClassifyParsesFencedJSON(t *testing.T) {
	chat := &fakeChatProvider{replies: []string{
		"```json\n{\"category\": \"technical_support\", \"confidence\": 0.92, \"reasoning\": \"mentions an error code\", \"needs_context\": true}\n```",
	}}
	classifier := biz.NewLLMClassifier(chat)

	classification, err := classifier.Classify(context.Background(), "I get error 500 when logging in")
	require.NoError(t, err)
	assert.Equal(t, "technical_support", classification.Category)
	assert.Equal(t, 0.92, classification.Confidence)
	assert.True(t, classification.NeedsContext)
}

func TestClassifyNormalizesUnknownCategory(t *testing.T) {
	chat := &fakeChatProvider{replies: []string{
		`{"category": "weather_report", "confidence": 1.4, "reasoning": "n/a", "needs_context": false}`,
	}}
	classifier := biz.NewLLMClassifier(chat)

	classification, err := classifier.Classify(context.Background(), "will it rain")
	require.NoError(t, err)
	assert.Equal(t, "other", classification.Category)
	assert.Equal(t, 1.0, classification.Confidence)
}

func TestClassifyMalformedResponse(t *testing.T) {
	chat := &fakeChatProvider{replies: []string{"I cannot classify that."}}
	classifier := biz.NewLLMClassifier(chat)

	_, err := classifier.Classify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed classification response")
}

func TestClassifyMalformedResponseTruncatesReply(t *testing.T) {
	chat := &fakeChatProvider{replies: []string{strings.Repeat("x", 500)}}
	classifier := biz.NewLLMClassifier(chat)

	_, err := classifier.Classify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), strings.Repeat("x", 200)+"...")
	assert.NotContains(t, err.Error(), strings.Repeat("x", 201))
}

func TestGenerateDefaultsConfidence(t *testing.T) {
	chat := &fakeChatProvider{replies: []string{
		`{"answer": "We are open 9-5.", "sources_used": ["q001"]}`,
	}}
	generator := biz.NewLLMGenerator(chat)

	answer, err := generator.Generate(context.Background(), "hours?", classificationFixture(), []string{"doc"})
	require.NoError(t, err)
	assert.Equal(t, "We are open 9-5.", answer.Answer)
	assert.Equal(t, 0.8, answer.Confidence)
	assert.Equal(t, []string{"q001"}, answer.SourcesUsed)
}

func TestGenerateRejectsEmptyAnswer(t *testing.T) {
	chat := &fakeChatProvider{replies: []string{`{"sources_used": []}`}}
	generator := biz.NewLLMGenerator(chat)

	_, err := generator.Generate(context.Background(), "hours?", classificationFixture(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing answer")
}
