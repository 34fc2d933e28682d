package biz

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/kart-io/verdict-x/internal/pipeline/model"
	"github.com/kart-io/verdict-x/internal/pkg/textutil"
	"github.com/kart-io/verdict-x/pkg/llm"
	"github.com/kart-io/verdict-x/pkg/utils/errors"
	"github.com/kart-io/verdict-x/pkg/utils/json"
)

// QualityChecker evaluates a generated answer against the criterion set.
type QualityChecker interface {
	CheckQuality(ctx context.Context, query, answer string, docs []string) (*model.QualityCheckResult, error)
}

// Criterion is one quality dimension the checker evaluates.
type Criterion struct {
	Name        string
	Description string
}

// DefaultCriteria is the fixed criterion set, in evaluation order.
var DefaultCriteria = []Criterion{
	{Name: "relevance", Description: "Does the answer directly address the user's query?"},
	{Name: "completeness", Description: "Is the answer complete and thorough?"},
	{Name: "accuracy", Description: "Is the information factually correct based on context?"},
	{Name: "clarity", Description: "Is the answer clear and easy to understand?"},
	{Name: "professionalism", Description: "Is the tone professional and appropriate?"},
}

// Aggregate combines per-criterion checks into an overall score on [0, 100]
// (mean of scores scaled, rounded to 2 decimals) and an all-passed flag. An
// empty sequence is a configuration error, never a silent zero.
func Aggregate(checks []model.QualityCheck) (float64, bool, error) {
	if len(checks) == 0 {
		return 0, false, errors.ErrEmptyCriteria
	}

	sum := 0.0
	passedAll := true
	for _, check := range checks {
		sum += check.Score
		passedAll = passedAll && check.Passed
	}

	overall := math.Round(sum/float64(len(checks))*100*100) / 100
	return overall, passedAll, nil
}

// LLMQualityChecker runs each criterion as a separate evaluation prompt.
type LLMQualityChecker struct {
	chatProvider llm.ChatProvider
	criteria     []Criterion
}

var _ QualityChecker = (*LLMQualityChecker)(nil)

// NewLLMQualityChecker creates a checker over the given criteria; nil means
// DefaultCriteria.
func NewLLMQualityChecker(chatProvider llm.ChatProvider, criteria []Criterion) *LLMQualityChecker {
	if criteria == nil {
		criteria = DefaultCriteria
	}
	return &LLMQualityChecker{
		chatProvider: chatProvider,
		criteria:     criteria,
	}
}

const checkSystemPrompt = `You are a quality evaluator.

Evaluate the answer based on: %s

Return JSON:
- passed: boolean
- explanation: brief explanation (1-2 sentences)
- score: float 0.0-1.0`

// CheckQuality evaluates every criterion in definition order and aggregates
// the results. A failed criterion evaluation fails the whole check.
func (q *LLMQualityChecker) CheckQuality(ctx context.Context, query, answer string, docs []string) (*model.QualityCheckResult, error) {
	checks := make([]model.QualityCheck, 0, len(q.criteria))
	for _, criterion := range q.criteria {
		check, err := q.runCheck(ctx, query, answer, docs, criterion)
		if err != nil {
			return nil, fmt.Errorf("criterion %s: %w", criterion.Name, err)
		}
		checks = append(checks, *check)
	}

	overall, passedAll, err := Aggregate(checks)
	if err != nil {
		return nil, err
	}

	return &model.QualityCheckResult{
		Checks:       checks,
		OverallScore: overall,
		PassedAll:    passedAll,
	}, nil
}

func (q *LLMQualityChecker) runCheck(ctx context.Context, query, answer string, docs []string, criterion Criterion) (*model.QualityCheck, error) {
	systemPrompt := fmt.Sprintf(checkSystemPrompt, criterion.Description)

	// Only the two most relevant passages go into the evaluation prompt.
	contextDocs := docs
	if len(contextDocs) > 2 {
		contextDocs = contextDocs[:2]
	}
	userPrompt := fmt.Sprintf("Query: %s\n\nAnswer: %s\n\nContext Used:\n%s\n\nEvaluate the answer quality.",
		query, answer, strings.Join(contextDocs, "\n"))

	reply, err := q.chatProvider.Generate(ctx, userPrompt, systemPrompt)
	if err != nil {
		return nil, err
	}

	var check model.QualityCheck
	if err := json.Unmarshal([]byte(textutil.ExtractJSON(reply)), &check); err != nil {
		return nil, fmt.Errorf("malformed evaluation response %q: %w", textutil.Truncate(reply, replySnippetLen), err)
	}
	check.CheckName = criterion.Name
	check.Score = clamp01(check.Score)

	return &check, nil
}
