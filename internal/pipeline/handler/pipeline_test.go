package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/verdict-x/internal/pipeline/biz"
	"github.com/kart-io/verdict-x/internal/pipeline/handler"
	"github.com/kart-io/verdict-x/internal/pipeline/model"
	"github.com/kart-io/verdict-x/pkg/utils/validator"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validator.RegisterRules(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeService struct {
	result         *model.PipelineResult
	classification *model.Classification
	docs           []string
	stats          map[string]any
	err            error

	lastQuery string
	delay     time.Duration
}

func (f *fakeService) Process(ctx context.Context, query string) (*model.PipelineResult, error) {
	f.lastQuery = query
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeService) ClassifyOnly(_ context.Context, query string) (*model.Classification, error) {
	f.lastQuery = query
	return f.classification, f.err
}

func (f *fakeService) RetrieveOnly(_ context.Context, query string) ([]string, error) {
	f.lastQuery = query
	return f.docs, f.err
}

func (f *fakeService) Stats(context.Context) (map[string]any, error) {
	return f.stats, f.err
}

var _ biz.Service = (*fakeService)(nil)

func newRouter(svc biz.Service, timeout time.Duration) *gin.Engine {
	h := handler.NewPipelineHandler(svc, timeout)
	engine := gin.New()
	engine.POST("/v1/pipeline/process", h.Process)
	engine.POST("/v1/pipeline/classify", h.Classify)
	engine.POST("/v1/pipeline/retrieve", h.Retrieve)
	engine.GET("/v1/pipeline/stats", h.Stats)
	engine.GET("/healthz", h.Healthz)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func sampleResult() *model.PipelineResult {
	return &model.PipelineResult{
		Query: "What are your business hours?",
		Classification: model.Classification{
			Category:     "general_inquiry",
			Confidence:   0.75,
			NeedsContext: true,
		},
		RetrievedDocs: []string{"Q: hours\nA: 9-5"},
		Answer:        "We are open 9-5.",
		JudgeDecision: model.JudgeDecision{
			Decision:     model.DecisionAccept,
			Confidence:   0.82,
			QualityScore: 85,
		},
		ProcessingTimeMS: 12.5,
		Metadata: map[string]any{
			"sources_used":         []string{"Q: hours\nA: 9-5"},
			"generator_confidence": 0.9,
		},
	}
}

func TestProcessHappyPath(t *testing.T) {
	svc := &fakeService{result: sampleResult()}
	engine := newRouter(svc, time.Second)

	w := postJSON(t, engine, "/v1/pipeline/process", `{"query": "What are your business hours?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 0, env.Code)

	var result model.PipelineResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, model.DecisionAccept, result.JudgeDecision.Decision)
	assert.Equal(t, "What are your business hours?", svc.lastQuery)
}

func TestProcessSanitizesQuery(t *testing.T) {
	svc := &fakeService{result: sampleResult()}
	engine := newRouter(svc, time.Second)

	w := postJSON(t, engine, "/v1/pipeline/process", `{"query": "What   are\nyour <b>hours</b>?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "What are your hours?", svc.lastQuery)
}

func TestProcessCarriesCallerMetadata(t *testing.T) {
	svc := &fakeService{result: sampleResult()}
	engine := newRouter(svc, time.Second)

	w := postJSON(t, engine, "/v1/pipeline/process",
		`{"query": "hours?", "metadata": {"channel": "web", "sources_used": "spoofed"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)

	var result model.PipelineResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "web", result.Metadata["channel"])

	// Pipeline-owned keys are not overwritable by callers.
	assert.NotEqual(t, "spoofed", result.Metadata["sources_used"])
}

func TestProcessRejectsInvalidQueries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing query", `{}`},
		{"blank query", `{"query": "   "}`},
		{"script injection", `{"query": "<script>alert(1)</script>hi"}`},
		{"markup only", `{"query": "<b></b>"}`},
		{"over length bound", `{"query": "` + string(bytes.Repeat([]byte("a"), 1001)) + `"}`},
		{"malformed json", `{"query": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{result: sampleResult()}
			engine := newRouter(svc, time.Second)

			w := postJSON(t, engine, "/v1/pipeline/process", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, svc.lastQuery, "service must not be called for invalid input")
		})
	}
}

func TestProcessMapsStageErrors(t *testing.T) {
	stageErr := &biz.StageError{Stage: biz.StageGeneration, Err: errors.New("llm down")}
	svc := &fakeService{err: stageErr}
	engine := newRouter(svc, time.Second)

	w := postJSON(t, engine, "/v1/pipeline/process", `{"query": "hours?"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	env := decodeEnvelope(t, w)
	assert.Contains(t, env.Message, "generation")
}

func TestProcessTimesOut(t *testing.T) {
	svc := &fakeService{result: sampleResult(), delay: 200 * time.Millisecond}
	engine := newRouter(svc, 20*time.Millisecond)

	w := postJSON(t, engine, "/v1/pipeline/process", `{"query": "hours?"}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestClassifyReturnsClassification(t *testing.T) {
	svc := &fakeService{classification: &model.Classification{
		Category:     "billing_question",
		Confidence:   0.9,
		NeedsContext: true,
	}}
	engine := newRouter(svc, time.Second)

	w := postJSON(t, engine, "/v1/pipeline/classify", `{"query": "why was I charged twice?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)

	var classification model.Classification
	require.NoError(t, json.Unmarshal(env.Data, &classification))
	assert.Equal(t, "billing_question", classification.Category)
}

func TestRetrieveReturnsDocs(t *testing.T) {
	svc := &fakeService{docs: []string{"doc one", "doc two"}}
	engine := newRouter(svc, time.Second)

	w := postJSON(t, engine, "/v1/pipeline/retrieve", `{"query": "reset password"}`)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)

	var resp handler.RetrieveResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "reset password", resp.Query)
	assert.Equal(t, []string{"doc one", "doc two"}, resp.RetrievedDocs)
}

func TestRetrieveNeverReturnsNullDocs(t *testing.T) {
	svc := &fakeService{docs: nil}
	engine := newRouter(svc, time.Second)

	w := postJSON(t, engine, "/v1/pipeline/retrieve", `{"query": "anything"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"retrieved_docs":[]`)
}

func TestStatsAndHealthz(t *testing.T) {
	svc := &fakeService{stats: map[string]any{"knowledge_rows": 42}}
	engine := newRouter(svc, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/pipeline/stats", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "knowledge_rows")

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
