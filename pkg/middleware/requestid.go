package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// HeaderXRequestID is the request correlation header.
const HeaderXRequestID = "X-Request-ID"

// ContextKeyRequestID is the gin context key holding the request ID.
const ContextKeyRequestID = "request_id"

// RequestID returns a middleware that assigns each request a ULID unless the
// caller already supplied one. The ID is echoed in the response header and
// stored on the gin context for handlers and the response envelope.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = ulid.Make().String()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Writer.Header().Set(HeaderXRequestID, requestID)
		c.Next()
	}
}

// GetRequestID returns the request ID stored on the context, if any.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
