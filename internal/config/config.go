// Package config assembles the typed configuration of pmctl and projectd
// from the layered yaml files in pkg/config plus environment overrides.
package config

import (
	"fmt"
	"time"

	"github.com/johnassefatheeth/pm-f-d/pkg/config"
)

// Client is the pmctl configuration.
type Client struct {
	API     config.APIConfig     `yaml:"api"`
	Breaker config.BreakerConfig `yaml:"breaker"`
	JWT     config.JWTConfig     `yaml:"jwt"`
	Log     config.LogConfig     `yaml:"log"`
	OTel    config.OTelConfig    `yaml:"otel"`
}

// Server is the projectd configuration.
type Server struct {
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`
	Log    config.LogConfig    `yaml:"log"`
	OTel   config.OTelConfig   `yaml:"otel"`
}

// LoadClient reads <dir>/base.yaml and <dir>/<env>.yaml, applies env
// overrides and fills defaults.
func LoadClient(env, dir string) (*Client, error) {
	var cfg Client
	if err := config.Decode(env, dir, &cfg); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}

	config.OverrideAPIFromEnv(&cfg.API)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideLogFromEnv(&cfg.Log)
	config.OverrideOTelFromEnv(&cfg.OTel)

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080/api"
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "pmctl"
	}
	return &cfg, nil
}

func LoadServer(env, dir string) (*Server, error) {
	var cfg Server
	if err := config.Decode(env, dir, &cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}

	// 环境变量覆盖（生产环境使用）
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideLogFromEnv(&cfg.Log)
	config.OverrideOTelFromEnv(&cfg.OTel)

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "projectd"
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("load server config: jwt.secret is required")
	}
	return &cfg, nil
}
