package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/dispatch_forms/utils"
)

const defaultPort = "8080"

var validate = validator.New()

// GatewayConfig drives the same-origin proxy in front of the ledger endpoint.
type GatewayConfig struct {
	Port           string        `validate:"required,numeric"`
	Prefix         string        `validate:"required,startswith=/,ne=/"`
	LedgerEndpoint string        `validate:"required,url"`
	Timeout        time.Duration `validate:"gt=0"`

	RateLimitEnabled bool
	RateLimitMax     int64         `validate:"gt=0"`
	RateLimitWindow  time.Duration `validate:"gt=0"`
	RedisAddress     string
}

func LoadGatewayConfig() (GatewayConfig, error) {
	port := stringFromEnv("PORT", defaultPort)
	prefix := "/" + strings.Trim(stringFromEnv("GATEWAY_PREFIX", "/api"), "/")

	cfg := GatewayConfig{
		Port:             port,
		Prefix:           prefix,
		LedgerEndpoint:   stringFromEnv("LEDGER_ENDPOINT", ""),
		Timeout:          time.Duration(intFromEnv("LEDGER_TIMEOUT_SECONDS", 30)) * time.Second,
		RateLimitEnabled: RateLimitEnabled(),
		RateLimitMax:     int64(intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600)),
		RateLimitWindow:  time.Duration(intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		RedisAddress:     stringFromEnv("REDIS_ADDRESS", ""),
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("gateway config: %s", utils.DescribeValidationErrors(err))
	}
	if cfg.RateLimitEnabled && cfg.RedisAddress == "" {
		return cfg, fmt.Errorf("gateway config: REDIS_ADDRESS is required when RATE_LIMIT_ENABLED=true")
	}
	return cfg, nil
}
