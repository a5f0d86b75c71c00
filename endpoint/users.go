package endpoint

import (
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
)

type UpdateAccountRequest struct {
	SchoolID string `form:"school_id" json:"school_id"`
	Email    string `form:"email" json:"email"`
}

// AccountPage returns the caller's account.
func (h *Handler) AccountPage(c *gin.Context, ident service.Identity) {
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Account",
		Data: gin.H{"account": ident.Account},
	})
}

// UpdateAccount edits the caller's email and school id.
func (h *Handler) UpdateAccount(c *gin.Context, ident service.Identity) {
	var req UpdateAccountRequest
	if !bindOrRespond(c, &req) {
		return
	}

	res, acc, err := h.svc.UpdateAccount(c.Request.Context(), ident, req.SchoolID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	params := util.APISuccessParams{Msg: "Account", Data: gin.H{"account": acc}}
	switch res {
	case service.AccountUpdated:
		params.Msg = service.MsgAccountUpdated
		params.Flashes = successFlash(service.MsgAccountUpdated)
	case service.AccountEmailTaken:
		params.Msg = service.MsgEmailMaybeUpdated
		params.Flashes = util.Flashes(util.FlashWarning, service.MsgEmailMaybeUpdated)
	}
	util.CallSuccessOK(c, params)
}
