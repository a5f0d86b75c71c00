package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ariebrainware/spu-dispensary/apperror"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookie = "session"
	SessionHeader = "session-token"
	LoginPath     = "/login"
)

// Sessions resolves and ends session tokens.
type Sessions interface {
	ResolveSession(ctx context.Context, token string) (service.Identity, error)
	EndSession(ctx context.Context, ident service.Identity) error
}

// Denial picks the response RequireRole gives a caller with the wrong role.
type Denial int

const (
	// DenyRedirect sends the caller to the login page.
	DenyRedirect Denial = iota
	// DenyLogout ends the session first, then redirects to login.
	DenyLogout
	// DenyForbidden answers 403.
	DenyForbidden
)

// SessionToken reads the session token from the cookie, falling back to the header.
func SessionToken(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

// SetSessionCookie stores token in an HttpOnly cookie living for ttl.
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

// ValidateSession requires a live session and stores the caller's identity
// under IdentityKey. Anonymous callers are redirected to the login page.
func ValidateSession(sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := sessions.ResolveSession(c.Request.Context(), SessionToken(c))
		if err != nil {
			if apperror.Is(err, apperror.KindAuth) {
				util.LogUnauthorizedAccess("", c.ClientIP(), RedactedPath(c), "no valid session")
				redirectToLogin(c)
				return
			}
			log.Error().Err(err).Str("path", RedactedPath(c)).Msg("session lookup failed")
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not verify your session"})
			c.Abort()
			return
		}
		c.Set(IdentityKey, ident)
		c.Next()
	}
}

// RequireRole lets through callers whose role equals role. It must run after
// ValidateSession. secure is the Secure attribute used when DenyLogout
// clears the cookie.
func RequireRole(sessions Sessions, role model.Role, deny Denial, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := GetIdentity(c)
		if !ok {
			redirectToLogin(c)
			return
		}
		if ident.Account.Role == role {
			c.Next()
			return
		}

		util.LogUnauthorizedAccess(fmt.Sprintf("%d", ident.Account.ID), c.ClientIP(), RedactedPath(c),
			fmt.Sprintf("role %s is not %s", ident.Account.Role, role))

		switch deny {
		case DenyForbidden:
			util.CallForbidden(c, util.APIErrorParams{
				Msg:     service.MsgRestricted,
				Flashes: util.Flashes(util.FlashError, service.MsgRestricted),
			})
			c.Abort()
		case DenyLogout:
			if err := sessions.EndSession(c.Request.Context(), ident); err != nil {
				log.Error().Err(err).Uint("account_id", ident.Account.ID).Msg("could not end session of refused caller")
			}
			ClearSessionCookie(c, secure)
			util.CallRedirect(c, LoginPath, util.APISuccessParams{})
			c.Abort()
		default:
			util.CallRedirect(c, LoginPath, util.APISuccessParams{})
			c.Abort()
		}
	}
}

// WithIdentity adapts a handler that takes the caller's identity explicitly.
func WithIdentity(fn func(c *gin.Context, ident service.Identity)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := GetIdentity(c)
		if !ok {
			redirectToLogin(c)
			return
		}
		fn(c, ident)
	}
}

func redirectToLogin(c *gin.Context) {
	util.CallErrorRedirect(c, LoginPath, util.APIErrorParams{
		Msg:     service.MsgLoginRequired,
		Flashes: util.Flashes(util.FlashError, service.MsgLoginRequired),
	})
	c.Abort()
}
