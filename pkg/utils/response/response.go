// Package response provides the standard HTTP response envelope used by
// every handler: a stable business code, a message, and an optional payload.
package response

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/verdict-x/pkg/utils/errors"
)

// Response is the uniform JSON envelope.
type Response struct {
	// Code is the business error code; 0 means success.
	Code int `json:"code"`

	// Message describes the outcome.
	Message string `json:"message"`

	// Data carries the payload on success.
	Data interface{} `json:"data,omitempty"`

	// RequestID echoes the request correlation ID when present.
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is the server time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// requestIDKey matches the context key set by the request-ID middleware.
const requestIDKey = "request_id"

// OK writes a success envelope with the given payload.
func OK(c *gin.Context, data interface{}) {
	c.JSON(errors.OK.HTTPStatus(), &Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: c.GetString(requestIDKey),
		Timestamp: time.Now().UnixMilli(),
	})
}

// Fail writes a failure envelope. Any error is normalized to an Errno so the
// HTTP status and business code stay consistent; rate-limit rejections keep
// their distinct 429 status.
func Fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	c.AbortWithStatusJSON(e.HTTPStatus(), &Response{
		Code:      e.Code,
		Message:   e.Message,
		RequestID: c.GetString(requestIDKey),
		Timestamp: time.Now().UnixMilli(),
	})
}
