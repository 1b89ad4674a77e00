package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/gateway"
	"github.com/mmdatafocus/dispatch_forms/middlewares"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := config.GetLogger()

	cfg, err := config.LoadGatewayConfig()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "config"}).Fatal(err.Error())
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	var opts []gateway.RouterOption
	if cfg.RateLimitEnabled {
		if err := config.ConnectRedisWithRetry(sigCtx, cfg.RedisAddress, 0); err != nil {
			logger.WithFields(logrus.Fields{"field": "redis"}).Fatal(err.Error())
		}
		defer config.CloseRedis()
		rateLimiter := middlewares.NewRateLimiter(config.GetRedisDB(), cfg.RateLimitMax, cfg.RateLimitWindow)
		opts = append(opts, gateway.WithRateLimiter(rateLimiter.RateLimitMiddleware))
	}

	r := gateway.NewRouter(cfg, logger, opts...)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"info":   "Gateway started",
		"prefix": cfg.Prefix,
	}).Info("listening on :", cfg.Port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// In-flight forwards are bounded by the upstream timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
