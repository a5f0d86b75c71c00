package middleware

import (
	"time"

	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the service.Identity of the caller.
const IdentityKey = "identity"

// CORSMiddleware allows the given origins to call the API with credentials,
// so the session cookie travels with cross-origin requests.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Requested-With", SessionHeader},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}

// GetIdentity returns the identity stored by ValidateSession.
func GetIdentity(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return service.Identity{}, false
	}
	ident, ok := v.(service.Identity)
	return ident, ok
}

// GetAccountID returns the caller's account id, or 0 for anonymous requests.
func GetAccountID(c *gin.Context) uint {
	ident, ok := GetIdentity(c)
	if !ok {
		return 0
	}
	return ident.Account.ID
}
