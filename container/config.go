package container

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigHTTPServer struct for HTTP ConfigTransport configuration
type ConfigHTTPServer struct {
	Port int `yaml:"port" validate:"required,min=1,max=65535"`
}

// ConfigTransport is a configuration for Admin ConfigTransport: HTTP, gRPC or anything
type ConfigTransport struct {
	HTTP ConfigHTTPServer `yaml:"http"`
}

type ConfigGoSqlDb struct {
	Debug bool   `yaml:"debug"`
	DSN   string `yaml:"dsn"` // Data Source Name
}

type ConfigDatabaseResource struct {
	Disable bool   `yaml:"disable"`
	Driver  string `yaml:"driver"` // postgres only for now

	// per driver configuration
	Postgres ConfigGoSqlDb `yaml:"postgres"`
}

// ConfigDatabaseResources redefine config
type ConfigDatabaseResources map[string]ConfigDatabaseResource

type ConfigServiceUpgrade struct {
	DBLabel string `yaml:"dbLabel" validate:"required"`

	// LockWaitSeconds bounds advisory-lock acquisition, 0 waits indefinitely.
	LockWaitSeconds int `yaml:"lockWaitSeconds" validate:"min=0"`
}

type ConfigCache struct {
	// Mode selects the cache backend: inmemory (default) or redis.
	Mode          string   `yaml:"mode" validate:"omitempty,oneof=inmemory redis"`
	RedisAddress  []string `yaml:"redisAddress"`
	RedisPassword string   `yaml:"redisPassword"`
	ExpirySeconds int      `yaml:"expirySeconds" validate:"min=0"`
}

type ConfigServiceAuth struct {
	DBLabel   string      `yaml:"dbLabel" validate:"required"`
	JWTSecret string      `yaml:"jwtSecret" validate:"required,min=16"`
	Cache     ConfigCache `yaml:"cache"`
}

type ConfigWebhook struct {
	URL  string `yaml:"url" validate:"required,url"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type ConfigServiceNotification struct {
	// Webhooks maps notification type (or "general") to a destination.
	// Empty map disables notifications.
	Webhooks    map[string]ConfigWebhook `yaml:"webhooks"`
	MaxBuffer   int                      `yaml:"maxBuffer" validate:"min=0"`
	MaxParallel int                      `yaml:"maxParallel" validate:"min=0"`
}

type ConfigServices struct {
	Upgrade      ConfigServiceUpgrade      `yaml:"upgrade"`
	Auth         ConfigServiceAuth         `yaml:"auth"`
	Notification ConfigServiceNotification `yaml:"notification"`
}

type ConfigTracer struct {
	Disable     bool   `yaml:"disable"`
	JaegerURL   string `yaml:"jaegerUrl"`
	SampleRatio string `yaml:"sampleRatio"`
}

// Config contains application config
type Config struct {
	Transport         ConfigTransport         `yaml:"transport"`
	DatabaseResources ConfigDatabaseResources `yaml:"databaseResources" validate:"required"`
	Services          ConfigServices          `yaml:"services"`
	Tracer            ConfigTracer            `yaml:"tracer"`
}

// LoadConfig read the YAML config file into Config.
func LoadConfig(configFile string) (cfg Config, err error) {
	fileContent, err := os.ReadFile(configFile)
	if err != nil {
		err = fmt.Errorf("error read file config %s: %w", configFile, err)
		return
	}

	dec := yaml.NewDecoder(bytes.NewReader(fileContent))
	dec.KnownFields(false)
	err = dec.Decode(&cfg)
	return
}
