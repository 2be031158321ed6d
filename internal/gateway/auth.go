package gateway

import (
	"crypto/subtle"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agentrelay/agentrelay/internal/options"
)

// resolveToken returns the configured token, falling back to the
// AGENTRELAY_GATEWAY_TOKEN environment variable.
func resolveToken(o *options.GatewayOptions) string {
	if o.AuthToken != "" {
		return o.AuthToken
	}
	return os.Getenv("AGENTRELAY_GATEWAY_TOKEN")
}

// BearerAuth enforces Bearer token authentication on every route except
// the health/version endpoints and loopback callers, using a
// constant-time comparison against the configured token.
func BearerAuth(o *options.GatewayOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !o.AuthEnabled {
			c.Next()
			return
		}

		token := resolveToken(o)
		if token == "" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == "/health" || path == "/healthz" || path == "/version" {
			c.Next()
			return
		}

		if isLocalRequest(c.Request) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if authHeader == "" || !strings.HasPrefix(authHeader, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"message": "missing or malformed Authorization header, expected 'Bearer <token>'",
					"type":    "authentication_error",
				},
			})
			return
		}

		provided := authHeader[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"message": "invalid bearer token",
					"type":    "authentication_error",
				},
			})
			return
		}

		c.Next()
	}
}

func isLocalRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
