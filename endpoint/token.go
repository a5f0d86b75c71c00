package endpoint

import (
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
)

type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

type ResetPasswordRequest struct {
	Password string `form:"password" json:"password"`
}

// ForgotPasswordPage describes the reset request form.
func (h *Handler) ForgotPasswordPage(c *gin.Context) {
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Forgot password",
		Data: gin.H{"fields": []string{"email"}},
	})
}

// ForgotPassword emails a reset link valid for one hour.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindOrRespond(c, &req) {
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	util.LogPasswordResetRequested(req.Email, c.ClientIP())
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:     service.MsgResetSent,
		Flashes: successFlash(service.MsgResetSent),
	})
}

// ResetPasswordPage checks the token before the client shows the form.
func (h *Handler) ResetPasswordPage(c *gin.Context) {
	acc, err := h.svc.AccountForResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Reset password",
		Data: gin.H{"email": acc.Email},
	})
}

// ResetPassword sets the new password of the token's account.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindOrRespond(c, &req) {
		return
	}
	acc, err := h.svc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	util.LogPasswordChanged(acc.ID, acc.Email, c.ClientIP())
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:     service.MsgPasswordReset,
		Flashes: successFlash(service.MsgPasswordReset),
	})
}
