package gateway

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/middlewares"
	"github.com/sirupsen/logrus"
)

type RouterOption func(*routerOptions)

type routerOptions struct {
	limiter gin.HandlerFunc
}

// WithRateLimiter installs limiter in front of the proxy routes.
func WithRateLimiter(limiter gin.HandlerFunc) RouterOption {
	return func(o *routerOptions) { o.limiter = limiter }
}

// NewRouter wires the proxy routes for cfg.
func NewRouter(cfg config.GatewayConfig, logger *logrus.Logger, opts ...RouterOption) *gin.Engine {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())

	// Any origin may call the gateway; it carries no credentials.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", middlewares.CorrelationHeader)
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		config.LogError(logger, "gateway", "recovery", c.Request.URL.Path, nil, fmt.Errorf("panic: %v", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal gateway error"})
	}))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	fwd := NewForwarder(cfg.LedgerEndpoint, cfg.Timeout)
	api := r.Group(cfg.Prefix)
	if o.limiter != nil {
		api.Use(o.limiter)
	}
	lookup := LookupHandler(fwd, cfg.Prefix)
	submit := SubmitHandler(fwd)
	api.GET("", lookup)
	api.GET("/*path", lookup)
	api.POST("", submit)
	api.POST("/*path", submit)

	r.NoRoute(customNotFoundHandler)
	return r
}
