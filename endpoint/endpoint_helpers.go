package endpoint

import (
	"strconv"

	"github.com/ariebrainware/spu-dispensary/apperror"
	"github.com/ariebrainware/spu-dispensary/middleware"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	pathHome           = "/"
	pathLogin          = "/login"
	pathProfile        = "/profile"
	pathAdmin          = "/admin"
	pathForgotPassword = "/forgot_password"

	msgInvalidForm = "The submitted form could not be read"
	msgNotFound    = "Page not found"
)

// bindOrRespond binds form, multipart or JSON input into dst.
func bindOrRespond(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBind(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg:     msgInvalidForm,
			Err:     err,
			Flashes: util.Flashes(util.FlashError, msgInvalidForm),
		})
		return false
	}
	return true
}

// idParam reads a positive numeric path parameter. Anything else answers 404.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg:     service.MsgAppointmentNotFound,
			Flashes: util.Flashes(util.FlashError, service.MsgAppointmentNotFound),
		})
		return 0, false
	}
	return uint(id), true
}

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, err error) {
	msgs := apperror.MessagesOf(err)
	msg := firstMessage(err)
	params := util.APIErrorParams{Msg: msg, Err: err, Flashes: util.Flashes(util.FlashError, msgs...)}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		util.CallUserError(c, params)
	case apperror.KindAuth:
		util.CallUserNotAuthorized(c, params)
	case apperror.KindNotFound:
		util.CallErrorNotFound(c, params)
	case apperror.KindToken:
		params.Err = nil
		util.CallErrorRedirect(c, pathForgotPassword, params)
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", middleware.RedactedPath(c)).
			Msg(msg)
		util.CallServerError(c, params)
	}
}

func firstMessage(err error) string {
	if msgs := apperror.MessagesOf(err); len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func successFlash(msg string) []util.Flash {
	return util.Flashes(util.FlashSuccess, msg)
}
