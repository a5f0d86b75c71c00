package endpoint

import (
	"github.com/ariebrainware/spu-dispensary/middleware"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the HTTP-level settings of SetupRouter.
type RouterConfig struct {
	AppName      string
	CORSOrigins  []string
	RateLimit    middleware.RateLimitConfig
	SecureCookie bool
}

// Handler serves the dispensary routes on top of a service.Service.
type Handler struct {
	svc          *service.Service
	appName      string
	secureCookie bool
}

func NewHandler(svc *service.Service, cfg RouterConfig) *Handler {
	return &Handler{svc: svc, appName: cfg.AppName, secureCookie: cfg.SecureCookie}
}

// SetupRouter registers every route on a new gin engine.
func SetupRouter(svc *service.Service, cfg RouterConfig) *gin.Engine {
	h := NewHandler(svc, cfg)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.EndpointCallLogger(svc.DB()))

	limited := middleware.RateLimiter(cfg.RateLimit)
	session := middleware.ValidateSession(svc)
	patient := middleware.RequireRole(svc, model.RolePatient, middleware.DenyRedirect, cfg.SecureCookie)
	doctor := middleware.RequireRole(svc, model.RoleDoctor, middleware.DenyLogout, cfg.SecureCookie)
	approver := middleware.RequireRole(svc, model.RoleDoctor, middleware.DenyForbidden, cfg.SecureCookie)
	with := middleware.WithIdentity

	r.GET("/login", h.LoginPage)
	r.POST("/login", limited, h.Login)
	r.GET("/signup", h.SignupPage)
	r.POST("/signup", limited, h.Signup)
	r.GET("/logout", session, with(h.Logout))
	r.GET("/dashboard", h.Dashboard)

	r.GET("/", session, patient, with(h.Home))
	r.GET("/profile", session, patient, with(h.ProfilePage))
	r.POST("/profile", session, patient, with(h.CreateProfile))
	r.GET("/book_appointment", session, patient, with(h.BookAppointmentPage))
	r.POST("/book_appointment", session, patient, with(h.BookAppointment))
	r.GET("/delete/:id", h.DeleteAppointment)

	r.GET("/admin", session, doctor, with(h.Admin))
	r.GET("/takeup/:id", session, approver, with(h.Takeup))

	r.GET("/account", session, with(h.AccountPage))
	r.POST("/account", session, with(h.UpdateAccount))

	r.GET("/forgot_password", h.ForgotPasswordPage)
	r.POST("/forgot_password", limited, h.ForgotPassword)
	r.GET("/reset_password/:token", h.ResetPasswordPage)
	r.POST("/reset_password/:token", h.ResetPassword)

	r.NoRoute(notFound)
	r.NoMethod(notFound)
	return r
}

func notFound(c *gin.Context) {
	util.CallErrorNotFound(c, util.APIErrorParams{
		Msg:     msgNotFound,
		Flashes: util.Flashes(util.FlashError, msgNotFound),
	})
}
