package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Common errors shared by all services (service code 00).
var (
	// OK is the success sentinel.
	OK = Register(New(MakeCode(ServiceCommon, CategorySuccess, 0), http.StatusOK, codes.OK, "success"))

	// ErrInvalidParam is a generic request validation failure.
	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Invalid request parameters"))

	// ErrNotFound is a generic missing-resource failure.
	ErrNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), http.StatusNotFound, codes.NotFound, "Resource not found"))

	// ErrRateLimitExceeded signals sliding-window admission denial. Callers
	// must be able to distinguish it from downstream processing failures.
	ErrRateLimitExceeded = Register(New(MakeCode(ServiceCommon, CategoryRateLimit, 1), http.StatusTooManyRequests, codes.ResourceExhausted, "Rate limit exceeded"))

	// ErrInternal is the catch-all internal failure.
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), http.StatusInternalServerError, codes.Internal, "Internal server error"))

	// ErrTimeout signals request deadline expiry.
	ErrTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), http.StatusGatewayTimeout, codes.DeadlineExceeded, "Request timed out"))

	// ErrInvalidConfig signals an invalid runtime configuration.
	ErrInvalidConfig = Register(New(MakeCode(ServiceCommon, CategoryConfig, 1), http.StatusInternalServerError, codes.FailedPrecondition, "Invalid configuration"))
)
