package biz

import (
	"math"

	"github.com/kart-io/verdict-x/internal/pipeline/model"
)

// Judge renders the final verdict on a generated answer from its quality
// result and the upstream classification confidence.
type Judge struct {
	threshold float64
	rules     []judgeRule
}

// judgeRule pairs a predicate with its outcome. Rules are evaluated in order
// and the first match wins; together they form a priority chain, not a set of
// independent conditions.
type judgeRule struct {
	matches   func(score float64, passedAll bool, confidence float64) bool
	decision  string
	reasoning string
}

// NewJudge creates a judge with the given quality threshold.
//
// Boundary behavior worth knowing: the threshold is inclusive on the accept
// side (rule 2) and exclusive on the manual-review side (rule 3), so a score
// exactly at the threshold with low classification confidence falls past
// rule 3 to rule 4 or 5.
func NewJudge(threshold float64) *Judge {
	j := &Judge{threshold: threshold}
	j.rules = []judgeRule{
		{
			matches: func(score float64, _ bool, confidence float64) bool {
				return score >= 90 && confidence >= 0.8
			},
			decision:  model.DecisionAccept,
			reasoning: "High quality score and high classification confidence",
		},
		{
			matches: func(score float64, _ bool, confidence float64) bool {
				return score >= j.threshold && confidence >= 0.6
			},
			decision:  model.DecisionAccept,
			reasoning: "Quality score meets threshold with reasonable confidence",
		},
		{
			matches: func(score float64, _ bool, _ float64) bool {
				return score >= 50 && score < j.threshold
			},
			decision:  model.DecisionManualReview,
			reasoning: "Quality score borderline, requires human review",
		},
		{
			matches: func(_ float64, passedAll bool, _ float64) bool {
				return !passedAll
			},
			decision:  model.DecisionManualReview,
			reasoning: "Some quality checks failed",
		},
	}
	return j
}

// Judge applies the rule chain to the quality result. The returned confidence
// is a fixed weighted blend (70% normalized score, 30% classification
// confidence) and does not influence which rule fires.
func (j *Judge) Judge(quality *model.QualityCheckResult, classificationConfidence float64) *model.JudgeDecision {
	score := quality.OverallScore

	decision := model.DecisionReject
	reasoning := "Quality score below threshold or low confidence"
	for _, rule := range j.rules {
		if rule.matches(score, quality.PassedAll, classificationConfidence) {
			decision = rule.decision
			reasoning = rule.reasoning
			break
		}
	}

	return &model.JudgeDecision{
		Decision:     decision,
		Confidence:   decisionConfidence(score, classificationConfidence),
		Reasoning:    reasoning,
		QualityScore: score,
	}
}

func decisionConfidence(score, classificationConfidence float64) float64 {
	blended := score/100*0.7 + classificationConfidence*0.3
	return math.Round(blended*100) / 100
}
