// Package model defines the data types flowing through the query pipeline.
package model

// Query length bounds, measured after sanitization.
const (
	MinQueryLength = 1
	MaxQueryLength = 1000
)

// Categories is the closed set of classification labels.
var Categories = []string{
	"general_inquiry",
	"technical_support",
	"billing_question",
	"product_info",
	"complaint",
	"other",
}

// Decision verdicts rendered by the judge.
const (
	DecisionAccept       = "accept"
	DecisionReject       = "reject"
	DecisionManualReview = "manual_review"
)

// Classification is the intent-classification stage output.
type Classification struct {
	// Category is one of Categories.
	Category string `json:"category"`

	// Confidence is the classifier's certainty in [0, 1].
	Confidence float64 `json:"confidence"`

	// Reasoning is a brief free-text explanation.
	Reasoning string `json:"reasoning"`

	// NeedsContext indicates whether retrieval should run before generation.
	NeedsContext bool `json:"needs_context"`
}

// GeneratedAnswer is the generation stage output.
type GeneratedAnswer struct {
	// Answer is the generated response text.
	Answer string `json:"answer"`

	// SourcesUsed lists identifiers of retrieved documents the answer drew on.
	SourcesUsed []string `json:"sources_used"`

	// Confidence is the generator's certainty in [0, 1].
	Confidence float64 `json:"confidence"`
}

// QualityCheck is one criterion's evaluation of a generated answer.
type QualityCheck struct {
	// CheckName is the criterion name.
	CheckName string `json:"check_name"`

	// Passed is the criterion's boolean verdict.
	Passed bool `json:"passed"`

	// Explanation is a brief free-text justification.
	Explanation string `json:"explanation"`

	// Score is the criterion score in [0, 1].
	Score float64 `json:"score"`
}

// QualityCheckResult aggregates the fixed criterion set.
type QualityCheckResult struct {
	// Checks holds one entry per criterion, in criterion definition order.
	Checks []QualityCheck `json:"checks"`

	// OverallScore is the mean of per-check scores scaled to [0, 100],
	// rounded to 2 decimals.
	OverallScore float64 `json:"overall_score"`

	// PassedAll is true iff every check passed.
	PassedAll bool `json:"passed_all"`
}

// JudgeDecision is the final verdict on a generated answer.
type JudgeDecision struct {
	// Decision is one of accept, reject, manual_review.
	Decision string `json:"decision"`

	// Confidence is a weighted blend of quality score and classification
	// confidence, rounded to 2 decimals. Descriptive only; it never selects
	// the verdict.
	Confidence float64 `json:"confidence"`

	// Reasoning names the rule that fired.
	Reasoning string `json:"reasoning"`

	// QualityScore echoes the overall score the decision was based on.
	QualityScore float64 `json:"quality_score"`
}

// PipelineResult is the terminal record for one processed query.
type PipelineResult struct {
	Query            string             `json:"query"`
	Classification   Classification     `json:"classification"`
	RetrievedDocs    []string           `json:"retrieved_docs"`
	Answer           string             `json:"answer"`
	QualityChecks    QualityCheckResult `json:"quality_checks"`
	JudgeDecision    JudgeDecision      `json:"judge_decision"`
	ProcessingTimeMS float64            `json:"processing_time_ms"`

	// Metadata carries generation-stage confidence and sources used.
	Metadata map[string]any `json:"metadata"`
}

// KnowledgeEntry is one Q&A pair in the knowledge base.
type KnowledgeEntry struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Query    string `json:"query"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

// Content renders the entry as retrievable passage text.
func (e *KnowledgeEntry) Content() string {
	return "Q: " + e.Query + "\nA: " + e.Answer
}
