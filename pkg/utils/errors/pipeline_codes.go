package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Pipeline service errors (service code 21).
//
// Each processing stage gets its own code so callers can tell
// "classification broke" from "generation broke" without parsing messages.
var (
	// ErrQueryInvalid rejects queries that are empty or over the length bound
	// after sanitization.
	ErrQueryInvalid = Register(New(MakeCode(ServicePipeline, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Query text must be 1-1000 characters"))

	// ErrClassificationFailed covers classifier collaborator failures.
	ErrClassificationFailed = Register(New(MakeCode(ServicePipeline, CategoryNetwork, 1), http.StatusBadGateway, codes.Unavailable, "Query classification failed"))

	// ErrRetrievalFailed covers retriever collaborator failures.
	ErrRetrievalFailed = Register(New(MakeCode(ServicePipeline, CategoryNetwork, 2), http.StatusBadGateway, codes.Unavailable, "Context retrieval failed"))

	// ErrGenerationFailed covers generator collaborator failures.
	ErrGenerationFailed = Register(New(MakeCode(ServicePipeline, CategoryNetwork, 3), http.StatusBadGateway, codes.Unavailable, "Answer generation failed"))

	// ErrQualityCheckFailed covers quality-check collaborator failures.
	ErrQualityCheckFailed = Register(New(MakeCode(ServicePipeline, CategoryNetwork, 4), http.StatusBadGateway, codes.Unavailable, "Quality check failed"))

	// ErrEmptyCriteria is returned when the aggregator receives no checks.
	ErrEmptyCriteria = Register(New(MakeCode(ServicePipeline, CategoryConfig, 1), http.StatusInternalServerError, codes.FailedPrecondition, "Quality criterion set is empty"))

	// ErrPipelineTimeout signals that a request exceeded its processing deadline.
	ErrPipelineTimeout = Register(New(MakeCode(ServicePipeline, CategoryTimeout, 1), http.StatusGatewayTimeout, codes.DeadlineExceeded, "Pipeline processing timed out"))

	// ErrStatsUnavailable signals that knowledge-base statistics could not be read.
	ErrStatsUnavailable = Register(New(MakeCode(ServicePipeline, CategoryInternal, 1), http.StatusInternalServerError, codes.Internal, "Statistics unavailable"))
)
