package endpoint

import (
	"fmt"

	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
)

// Dashboard is the public landing page.
func (h *Handler) Dashboard(c *gin.Context) {
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("Welcome to %s!", h.appName),
		Data: gin.H{"login": pathLogin, "signup": "/signup"},
	})
}
