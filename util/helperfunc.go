package util

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Flash categories.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
	FlashWarning = "warning"
)

// Flash is a one-shot user message shown by the client after the response.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Flashes builds flashes of one category from messages, in order.
func Flashes(category string, messages ...string) []Flash {
	out := make([]Flash, 0, len(messages))
	for _, m := range messages {
		out = append(out, Flash{Category: category, Message: m})
	}
	return out
}

type APIResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data"`
	Flashes []Flash     `json:"flashes"`
}

type APIErrorParams struct {
	Msg     string
	Err     error
	Flashes []Flash
}

type APISuccessParams struct {
	Msg     string
	Data    interface{}
	Flashes []Flash
}

func errorResponse(params APIErrorParams) APIResponse {
	errText := ""
	if params.Err != nil {
		errText = params.Err.Error()
	}
	return APIResponse{
		Success: false,
		Error:   errText,
		Msg:     params.Msg,
		Data:    map[string]interface{}{},
		Flashes: nonNil(params.Flashes),
	}
}

func nonNil(f []Flash) []Flash {
	if f == nil {
		return []Flash{}
	}
	return f
}

// CallErrorNotFound is for return API response not found
func CallErrorNotFound(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusNotFound, errorResponse(params))
}

// CallUserError is for return error from user side
func CallUserError(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusBadRequest, errorResponse(params))
}

// CallServerError is for return API response server error. Err is never
// exposed; pass the cause to the logger instead.
func CallServerError(c *gin.Context, params APIErrorParams) {
	params.Err = nil
	c.JSON(http.StatusInternalServerError, errorResponse(params))
}

// CallUserNotAuthorized is for return API response with status code 401
func CallUserNotAuthorized(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusUnauthorized, errorResponse(params))
}

// CallForbidden is for return API response with status code 403 for a role the route does not allow
func CallForbidden(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusForbidden, errorResponse(params))
}

// CallTooManyRequests is for return API response with status code 429
func CallTooManyRequests(c *gin.Context, params APIErrorParams) {
	c.JSON(http.StatusTooManyRequests, errorResponse(params))
}

// CallSuccessOK is for return API response with status code 200, you need to specify msg, and data as function parameter
func CallSuccessOK(c *gin.Context, params APISuccessParams) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Msg:     params.Msg,
		Data:    params.Data,
		Flashes: nonNil(params.Flashes),
	})
}

// CallRedirect answers 303 See Other with a Location header. The target is
// repeated as data.redirect next to any map data supplied.
func CallRedirect(c *gin.Context, location string, params APISuccessParams) {
	c.Header("Location", location)
	c.JSON(http.StatusSeeOther, APIResponse{
		Success: true,
		Msg:     params.Msg,
		Data:    redirectData(location, params.Data),
		Flashes: nonNil(params.Flashes),
	})
}

// CallErrorRedirect is CallRedirect for outcomes that failed, e.g. a missing session.
func CallErrorRedirect(c *gin.Context, location string, params APIErrorParams) {
	resp := errorResponse(params)
	resp.Data = redirectData(location, nil)
	c.Header("Location", location)
	c.JSON(http.StatusSeeOther, resp)
}

func redirectData(location string, data interface{}) map[string]interface{} {
	out := map[string]interface{}{"redirect": location}
	switch d := data.(type) {
	case gin.H:
		for k, v := range d {
			out[k] = v
		}
	case map[string]interface{}:
		for k, v := range d {
			out[k] = v
		}
	}
	out["redirect"] = location
	return out
}

// NormalizeName normalizes a name by trimming leading/trailing whitespace
// and collapsing multiple internal spaces into single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
