// Package middleware provides HTTP middleware components for the NIM proxy
// server. This file contains the request logging middleware that captures
// request bodies for debugging when enabled through configuration.
package middleware

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxLoggedBodyBytes caps how much of a request body ends up in the log.
const maxLoggedBodyBytes = 4096

// RequestLoggingMiddleware creates a Gin middleware that logs inbound request
// bodies through logrus. The enabled func is consulted per request so the
// flag can be flipped by a config reload without rebuilding the router; when
// it reports false the middleware has minimal overhead.
func RequestLoggingMiddleware(enabled func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled() {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.Next()
				return
			}
			// Restore the body for the actual request processing.
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			body = bodyBytes
		}

		if len(body) > maxLoggedBodyBytes {
			body = body[:maxLoggedBodyBytes]
		}
		if len(body) > 0 {
			log.Debugf("request %s %s body: %s", c.Request.Method, c.Request.URL.Path, body)
		} else {
			log.Debugf("request %s %s", c.Request.Method, c.Request.URL.Path)
		}

		c.Next()
	}
}
