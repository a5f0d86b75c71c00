package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EndpointCallLogger logs each HTTP request as an ENDPOINT_CALL security
// event. The caller's email is looked up after the handler ran, so an
// account edit during the request is reflected.
func EndpointCallLogger(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		accountID := GetAccountID(c)

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    RedactedPath(c),
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
		}
		event := util.SecurityEvent{
			EventType: util.EventEndpointCall,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, RedactedPath(c), status),
			Details:   details,
		}
		if accountID != 0 {
			details["account_id"] = accountID
			event.AccountID = fmt.Sprintf("%d", accountID)
			event.Email = util.GetAccountEmail(db, accountID)
		}
		util.LogSecurityEvent(event)
	}
}

// secretParams are route params that carry credentials.
var secretParams = map[string]bool{"token": true}

const redacted = "[REDACTED]"

// RedactedPath is the request path with credential params replaced.
func RedactedPath(c *gin.Context) string {
	path := c.Request.URL.Path
	for _, p := range c.Params {
		if secretParams[p.Key] && p.Value != "" {
			path = strings.Replace(path, p.Value, redacted, 1)
		}
	}
	return path
}
