// Package handler provides HTTP handlers for the query pipeline.
package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/verdict-x/internal/pipeline/biz"
	"github.com/kart-io/verdict-x/internal/pipeline/model"
	"github.com/kart-io/verdict-x/internal/pkg/textutil"
	"github.com/kart-io/verdict-x/pkg/utils/errors"
	"github.com/kart-io/verdict-x/pkg/utils/response"
)

// PipelineHandler handles pipeline HTTP requests.
type PipelineHandler struct {
	service        biz.Service
	requestTimeout time.Duration
}

// NewPipelineHandler creates a handler over the given service. requestTimeout
// bounds the /process call end to end.
func NewPipelineHandler(service biz.Service, requestTimeout time.Duration) *PipelineHandler {
	return &PipelineHandler{
		service:        service,
		requestTimeout: requestTimeout,
	}
}

// ProcessRequest is the body for process, classify and retrieve calls.
type ProcessRequest struct {
	Query string `json:"query" binding:"required,notblank,safestring"`

	// Metadata is carried through to the result untouched.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// cleanQuery sanitizes the raw query and enforces the length bounds. The
// bounds apply to the sanitized text, so a query of nothing but markup is
// rejected as empty.
func cleanQuery(raw string) (string, error) {
	query := textutil.Sanitize(raw)
	if n := len([]rune(query)); n < model.MinQueryLength || n > model.MaxQueryLength {
		return "", errors.ErrQueryInvalid
	}
	return query, nil
}

// Process runs the full pipeline for a query.
func (h *PipelineHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrQueryInvalid.WithCause(err))
		return
	}

	query, err := cleanQuery(req.Query)
	if err != nil {
		response.Fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.service.Process(ctx, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			logger.Warnw("pipeline request timed out", "timeout", h.requestTimeout.String())
			response.Fail(c, errors.ErrPipelineTimeout)
			return
		}
		response.Fail(c, stageErrno(err))
		return
	}

	// Caller metadata rides along without being interpreted; pipeline keys win
	// on collision.
	for k, v := range req.Metadata {
		if _, taken := result.Metadata[k]; !taken {
			result.Metadata[k] = v
		}
	}

	response.OK(c, result)
}

// Classify runs only the classification stage.
func (h *PipelineHandler) Classify(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrQueryInvalid.WithCause(err))
		return
	}

	query, err := cleanQuery(req.Query)
	if err != nil {
		response.Fail(c, err)
		return
	}

	classification, err := h.service.ClassifyOnly(c.Request.Context(), query)
	if err != nil {
		response.Fail(c, stageErrno(err))
		return
	}

	response.OK(c, classification)
}

// RetrieveResponse is the body returned by the retrieve endpoint.
type RetrieveResponse struct {
	Query         string   `json:"query"`
	RetrievedDocs []string `json:"retrieved_docs"`
}

// Retrieve runs only the retrieval stage.
func (h *PipelineHandler) Retrieve(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrQueryInvalid.WithCause(err))
		return
	}

	query, err := cleanQuery(req.Query)
	if err != nil {
		response.Fail(c, err)
		return
	}

	docs, err := h.service.RetrieveOnly(c.Request.Context(), query)
	if err != nil {
		response.Fail(c, stageErrno(err))
		return
	}
	if docs == nil {
		docs = []string{}
	}

	response.OK(c, RetrieveResponse{Query: query, RetrievedDocs: docs})
}

// Stats reports pipeline counters and knowledge base size.
func (h *PipelineHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, stats)
}

// Healthz is the liveness probe.
func (h *PipelineHandler) Healthz(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// stageErrno maps a stage failure to its registered code so callers can tell
// which collaborator broke. Anything else becomes an internal error.
func stageErrno(err error) error {
	var stageErr *biz.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Errno().WithCause(stageErr.Err)
	}
	return err
}
