// Package logging configures logrus output for the command line tool and provides the Gin
// middleware used by the fixture server for request logging and panic recovery.
package logging

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/util"
)

const (
	skipGinLogKey     = "__gin_skip_request_logging__"
	envelopeCodeKey   = "__gin_envelope_code__"
	slowRequestCutoff = 2 * time.Second
)

// SetEnvelopeCode records the envelope code a handler answered with so the request log line
// can report business failures that travel with HTTP 200.
func SetEnvelopeCode(c *gin.Context, code int) {
	if c == nil {
		return
	}
	c.Set(envelopeCodeKey, code)
}

// GinLogrusLogger logs one line per request through logrus. Every request is tagged with a
// request ID, taken from the X-Request-Id header when the caller sent one, and the ID is echoed
// on the response.
//
// Output format: [2026-01-02 15:04:05] [a1b2c3d4] [info ] request completed method=POST path=/api/table status=200 code=200
func GinLogrusLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := util.MaskSensitiveQuery(c.Request.URL.RawQuery); raw != "" {
			path = path + "?" + raw
		}

		requestID := ShortRequestID(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		SetGinRequestID(c, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header(HeaderRequestID, requestID)

		c.Next()

		if shouldSkipGinRequestLogging(c) {
			return
		}

		latency := time.Since(start).Truncate(time.Millisecond)
		statusCode := c.Writer.Status()
		fields := log.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       path,
			"status":     statusCode,
			"latency":    latency,
			"client":     c.ClientIP(),
		}
		code, hasCode := c.Get(envelopeCodeKey)
		if hasCode {
			fields["code"] = code
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields["error"] = errorMessage
		}

		entry := log.WithFields(fields)
		switch {
		case statusCode >= http.StatusInternalServerError:
			entry.Error("request failed")
		case statusCode >= http.StatusBadRequest:
			entry.Warn("request rejected")
		case hasCode && code != http.StatusOK:
			entry.Warn("request answered with business failure")
		case latency > slowRequestCutoff:
			entry.Warn("slow request")
		default:
			entry.Info("request completed")
		}
	}
}

// GinLogrusRecovery recovers from handler panics, logs the stack and answers with the 500
// envelope so clients still see the usual response shape.
func GinLogrusRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
			// Let net/http handle ErrAbortHandler so the connection is aborted without noisy stack logs.
			panic(http.ErrAbortHandler)
		}

		log.WithFields(log.Fields{
			"panic": recovered,
			"stack": string(debug.Stack()),
			"path":  c.Request.URL.Path,
		}).Error("recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "internal server error",
			"data":    nil,
			"success": false,
		})
	})
}

// SkipGinRequestLogging marks the provided Gin context so that GinLogrusLogger
// will skip emitting a log line for the associated request.
func SkipGinRequestLogging(c *gin.Context) {
	if c == nil {
		return
	}
	c.Set(skipGinLogKey, true)
}

func shouldSkipGinRequestLogging(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, exists := c.Get(skipGinLogKey)
	if !exists {
		return false
	}
	flag, ok := val.(bool)
	return ok && flag
}
