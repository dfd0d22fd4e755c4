package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	apihttp "power-assets/internal/api/http"
	"power-assets/internal/app"
	"power-assets/internal/auth"
	"power-assets/internal/config"
	"power-assets/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assets, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup error")
	}
	defer func() {
		if err := assets.Close(); err != nil {
			logger.WithError(err).Warn("shutdown close error")
		}
	}()

	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}
	verifier := auth.NewPasswordVerifier(cfg.AdminPassword)
	handler, err := apihttp.NewHandler(apihttp.Deps{
		Devices:        assets.Devices,
		Connections:    assets.Connections,
		Rules:          assets.Rules,
		Status:         assets.Status,
		Importer:       assets.Importer,
		Chains:         assets.Chains,
		Exports:        assets.Exports,
		Verifier:       verifier,
		Audit:          assets.Audit,
		Logger:         logger,
		TokenSecret:    secret,
		TokenTTL:       cfg.TokenTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		logger.WithError(err).Fatal("api handler error")
	}
	gate := auth.NewMiddleware(verifier, secret, auth.NewDefaultPolicy(apihttp.ExemptPaths, nil))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apihttp.NewRouter(handler, gate, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "driver": cfg.DatabaseDriver}).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http server error")
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http shutdown error")
		}
	}
}
