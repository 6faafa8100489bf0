package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/server/handler"
	"github.com/johnassefatheeth/pm-f-d/pkg/auth"
	"github.com/johnassefatheeth/pm-f-d/pkg/metrics"
	"github.com/johnassefatheeth/pm-f-d/pkg/trace"
)

// TraceMiddleware reuses the caller's X-Trace-ID or mints one, and echoes it.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(trace.HeaderName()); id != "" {
			ctx = trace.WithContext(ctx, id)
		}
		ctx, id := trace.Ensure(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(trace.HeaderName(), id)
		c.Next()
	}
}

// 请求日志中间件
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("trace_id", trace.FromContext(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// MetricsMiddleware records request latency labelled by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing token."})
			return
		}

		userID, err := auth.ParseJWT(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token."})
			return
		}

		// store user_id in context so handlers can use it
		c.Set(handler.UserIDKey, userID)
		c.Next()
	}
}
