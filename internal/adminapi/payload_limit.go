package adminapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// payloadLimitContextKey is the gin.Context key PayloadLimit stores its
// configured ceiling under, for PayloadLimitErrorHandler to read back when
// reporting a rejection.
const payloadLimitContextKey = "adminapi.maxPayloadBytes"

// PayloadLimitErrorResponse is the body returned when an acquire/extend
// request exceeds AdminMaxPayloadSize.
type PayloadLimitErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	MaxBytes   int64  `json:"maxBytes"`
	StatusCode int    `json:"statusCode"`
}

// PayloadLimit caps the size of a lock request body (acquire/extend/release
// JSON) at maxBytes, rejecting oversized requests before they ever reach a
// handler. Content-Length lets it reject early; http.MaxBytesReader catches
// chunked bodies that lie about their size.
func PayloadLimit(maxBytes int64, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			logOversizedLockRequest(logger, c, c.Request.ContentLength, maxBytes)
			respondPayloadTooLarge(c, maxBytes)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Set(payloadLimitContextKey, maxBytes)

		c.Next()
	}
}

// PayloadLimitErrorHandler turns an http.MaxBytesError recorded in c.Errors
// (for example by gin's BindJSON) into a 413 response once a streamed body
// exceeds the limit PayloadLimit configured. It must be registered before
// PayloadLimit in the chain so its check after c.Next() runs last. The
// handlers in this package bind with ShouldBindJSON, which returns the error
// without recording it in c.Errors: release and extend answer such a body
// with their own 400, and acquire ignores the bind error.
func PayloadLimitErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			var maxBytesErr *http.MaxBytesError
			if !errors.As(ginErr.Err, &maxBytesErr) {
				continue
			}

			maxBytes, _ := c.Get(payloadLimitContextKey)
			maxBytesVal, _ := maxBytes.(int64)

			logOversizedLockRequest(logger, c, maxBytesErr.Limit, maxBytesVal)

			c.Errors = c.Errors[:0]
			respondPayloadTooLarge(c, maxBytesVal)
			return
		}
	}
}

func logOversizedLockRequest(logger zerolog.Logger, c *gin.Context, attemptedSize, maxBytes int64) {
	logger.Warn().
		Str("clientIP", c.ClientIP()).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("lockName", c.Param("name")).
		Int64("attemptedSize", attemptedSize).
		Int64("maxBytes", maxBytes).
		Msg("oversized lock request rejected")
}

func respondPayloadTooLarge(c *gin.Context, maxBytes int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, PayloadLimitErrorResponse{
		Error:      "payloadTooLarge",
		Message:    "lock request body exceeds the maximum allowed size",
		MaxBytes:   maxBytes,
		StatusCode: http.StatusRequestEntityTooLarge,
	})
}
