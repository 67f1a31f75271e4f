package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uv/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return BodyLimitWithOverrides(maxBytes, nil)
}

// BodyLimitWithOverrides limits request bodies to maxBytes except for paths
// under one of the override prefixes, which get their own limit. The longest
// matching prefix wins.
func BodyLimitWithOverrides(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := limitForPath(c.Request.URL.Path, maxBytes, overrides)

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func limitForPath(path string, fallback int64, overrides map[string]int64) int64 {
	limit := fallback
	matched := -1
	for prefix, l := range overrides {
		if strings.HasPrefix(path, prefix) && len(prefix) > matched {
			limit = l
			matched = len(prefix)
		}
	}
	return limit
}
