package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-delivery-relay/adapters/gologger"
)

const requestIDKey = "request_id"

// RequestID reuses an inbound X-Request-ID or mints one, echoes it back and
// tags the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(gologger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	if value, ok := c.Get(requestIDKey); ok {
		if requestID, ok := value.(string); ok {
			return requestID
		}
	}
	return ""
}

func Recovery(logger glog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = glog.Nop()
	}
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				requestID := GetRequestID(c)
				logger.WithContext(c.Request.Context()).Error("panic recovered",
					"error", fmt.Sprint(recovered),
					"request_id", requestID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": requestID,
				})
			}
		}()
		c.Next()
	}
}

// AccessLog logs every request once it completes and feeds the optional
// observer. Unmatched routes are reported as "unmatched".
func AccessLog(logger glog.Logger, observer HTTPObserver) gin.HandlerFunc {
	if logger == nil {
		logger = glog.Nop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if observer != nil {
			observer.ObserveHTTP(c.Request.Method, route, status, latency)
		}

		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", GetRequestID(c),
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}

		scoped := logger.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			scoped.Error("request completed", attrs...)
		case status >= http.StatusBadRequest:
			scoped.Warn("request completed", attrs...)
		default:
			scoped.Info("request completed", attrs...)
		}
	}
}
