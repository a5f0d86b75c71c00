// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/spu-dispensary/config"
	"github.com/ariebrainware/spu-dispensary/endpoint"
	"github.com/ariebrainware/spu-dispensary/mailer"
	"github.com/ariebrainware/spu-dispensary/middleware"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()
	util.InitLogger(cfg.AppName, cfg.AppEnv)

	if cfg.SecretKey == "" && !cfg.IsTest() {
		log.Fatal().Msg("SECRET_KEY is required")
	}

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	if err := model.Migrate(db, cfg.SecurityLogPersist); err != nil {
		log.Fatal().Err(err).Msg("error migrating database")
	}
	if cfg.SecurityLogPersist {
		util.SetSecurityLoggerDB(db)
	}

	if _, err := config.ConnectRedis(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, sessions cannot be revoked")
	}
	if cfg.GeoIPDBPath != "" {
		if err := util.InitGeoIP(cfg.GeoIPDBPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip lookups disabled")
		}
		defer util.CloseGeoIP()
	}
	util.InitAccountEmailCache(1000)

	svc := service.New(service.Options{
		DB:         db,
		Mail:       mailSender(cfg),
		Compose:    mailer.Composer{From: cfg.MailSender},
		Secret:     cfg.SecretKey,
		BaseURL:    cfg.BaseURL,
		SessionTTL: cfg.SessionTTL,
	})

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)
	router := endpoint.SetupRouter(svc, endpoint.RouterConfig{
		AppName:      cfg.AppName,
		CORSOrigins:  cfg.CORSOrigins,
		RateLimit:    middleware.RateLimitConfig{Limit: cfg.RateLimit, Window: cfg.RateWindow},
		SecureCookie: cfg.AppEnv == "production",
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("error starting server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func mailSender(cfg *config.Config) mailer.Sender {
	if cfg.MailSuppressSend || cfg.IsTest() {
		return mailer.LogSender{}
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.MailServer,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
	})
}
