package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"philosophers-service/internal/auth"
	"philosophers-service/internal/domain"

	"github.com/gin-gonic/gin"
)

const viewerKey = "viewer"

// Auth resolves the viewer from a bearer token, or from the token query parameter
// for clients that cannot set headers (browsers opening a WebSocket).
func Auth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				jsonError(c, http.StatusUnauthorized, "Invalid authorization header format")
				c.Abort()
				return
			}
			token = parts[1]
		}
		if token == "" {
			jsonError(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		viewer, err := tokens.Parse(token)
		if err != nil {
			jsonError(c, http.StatusUnauthorized, "Failed to validate token")
			c.Abort()
			return
		}

		c.Set(viewerKey, viewer)
		c.Next()
	}
}

// RequestTimeout bounds the request context of every handler.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func viewerFrom(c *gin.Context) domain.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(domain.Viewer); ok {
			return viewer
		}
	}
	return domain.Viewer{}
}
