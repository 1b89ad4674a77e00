package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmdatafocus/dispatch_forms/utils"
)

// Draft store backends.
const (
	DraftStoreFile   = "file"
	DraftStoreMemory = "memory"
	DraftStoreRedis  = "redis"
	DraftStoreSQL    = "sql"
)

// DraftStoreConfig selects and addresses the durable draft store on a device.
type DraftStoreConfig struct {
	Backend   string `validate:"oneof=file memory redis sql"`
	Dir       string `validate:"required_if=Backend file"`
	Namespace string `validate:"required,max=64"`

	RedisAddress string `validate:"required_if=Backend redis"`

	DBDriver string `validate:"omitempty,oneof=mysql postgres"`
	DBDSN    string `validate:"required_if=Backend sql"`
}

// ClientConfig is the configuration of the on-device form client.
type ClientConfig struct {
	GatewayURL     string `validate:"required,url"`
	DraftStore     DraftStoreConfig
	RemotePrefetch bool
	ProbeInterval  time.Duration `validate:"gt=0"`
}

func LoadClientConfig() (ClientConfig, error) {
	cfg := ClientConfig{
		GatewayURL: stringFromEnv("GATEWAY_URL", "http://localhost:"+defaultPort),
		DraftStore: DraftStoreConfig{
			Backend:      stringFromEnv("DRAFT_STORE", DraftStoreFile),
			Dir:          stringFromEnv("DRAFT_STORE_DIR", defaultDraftDir()),
			Namespace:    stringFromEnv("DRAFT_NAMESPACE", "default"),
			RedisAddress: stringFromEnv("REDIS_ADDRESS", ""),
			DBDriver:     stringFromEnv("DRAFT_DB_DRIVER", "mysql"),
			DBDSN:        stringFromEnv("DRAFT_DB_DSN", ""),
		},
		RemotePrefetch: RemotePrefetchEnabled(),
		ProbeInterval:  time.Duration(intFromEnv("CONNECTIVITY_PROBE_SECONDS", 15)) * time.Second,
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("client config: %s", utils.DescribeValidationErrors(err))
	}
	return cfg, nil
}

func defaultDraftDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dispatch-forms", "drafts")
	}
	return filepath.Join(os.TempDir(), "dispatch-forms", "drafts")
}
