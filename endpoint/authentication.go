package endpoint

import (
	"fmt"

	"github.com/ariebrainware/spu-dispensary/config"
	"github.com/ariebrainware/spu-dispensary/middleware"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type LoginRequest struct {
	SchoolID string `form:"school_id" json:"school_id"`
	Password string `form:"password" json:"password"`
}

// clientInfo is what the security log records about the caller.
type clientInfo struct {
	IP    string
	Agent string
}

func clientOf(c *gin.Context) clientInfo {
	return clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
}

// LoginPage describes the login form.
func (h *Handler) LoginPage(c *gin.Context) {
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login",
		Data: gin.H{"fields": []string{"school_id", "password"}},
	})
}

// Login checks the credentials and starts a persistent session. Doctors land
// on the admin dashboard, patients on the home page.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindOrRespond(c, &req) {
		return
	}
	ci := clientOf(c)

	acc, err := h.svc.LogIn(c.Request.Context(), req.SchoolID, req.Password)
	if err != nil {
		util.LogLoginFailure(req.SchoolID, ci.IP, ci.Agent, firstMessage(err))
		respondError(c, err)
		return
	}

	sess, ok := h.startSessionOrRespond(c, acc)
	if !ok {
		return
	}
	util.LogLoginSuccess(acc.ID, acc.Email, ci.IP, ci.Agent)
	if config.GetRedisClient() != nil {
		if err := middleware.ResetRateLimit(c.Request.Context(), ci.IP, c.Request.URL.Path); err != nil {
			log.Warn().Err(err).Str("ip", ci.IP).Msg("could not reset login rate limit")
		}
	}

	target := pathHome
	if acc.IsDoctor() {
		target = pathAdmin
	}
	util.CallRedirect(c, target, util.APISuccessParams{
		Msg:     "Login successful",
		Data:    gin.H{"session_token": sess.Token, "role": acc.Role},
		Flashes: successFlash(fmt.Sprintf("Welcome back %s!", acc.Username)),
	})
}

// SignupPage describes the signup form and the roles it accepts.
func (h *Handler) SignupPage(c *gin.Context) {
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Sign up",
		Data: gin.H{
			"fields": []string{"email", "username", "school_id", "password", "role"},
			"roles":  []model.Role{model.RolePatient, model.RoleDoctor},
		},
	})
}

// Signup registers a new account and signs it in.
func (h *Handler) Signup(c *gin.Context) {
	var req service.SignUpInput
	if !bindOrRespond(c, &req) {
		return
	}
	ci := clientOf(c)

	acc, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	sess, ok := h.startSessionOrRespond(c, acc)
	if !ok {
		return
	}
	util.LogSignup(acc.ID, acc.Email, ci.IP, ci.Agent)

	util.CallRedirect(c, pathLogin, util.APISuccessParams{
		Msg:  "Account created",
		Data: gin.H{"session_token": sess.Token, "account": acc},
	})
}

// Logout ends the caller's session.
func (h *Handler) Logout(c *gin.Context, ident service.Identity) {
	if err := h.svc.EndSession(c.Request.Context(), ident); err != nil {
		log.Error().Err(err).Uint("account_id", ident.Account.ID).Msg("could not revoke session on logout")
	}
	middleware.ClearSessionCookie(c, h.secureCookie)
	ci := clientOf(c)
	util.LogLogout(ident.Account.ID, ident.Account.Email, ci.IP, ci.Agent)
	util.CallRedirect(c, pathLogin, util.APISuccessParams{Msg: "Logged out"})
}

func (h *Handler) startSessionOrRespond(c *gin.Context, acc model.Account) (service.Session, bool) {
	sess, err := h.svc.StartSession(c.Request.Context(), acc)
	if err != nil {
		respondError(c, err)
		return service.Session{}, false
	}
	middleware.SetSessionCookie(c, sess.Token, h.svc.SessionTTL(), h.secureCookie)
	return sess, true
}
