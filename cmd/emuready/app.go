package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Sternrassler/emuready-client/pkg/cache"
	"github.com/Sternrassler/emuready-client/pkg/client"
	"github.com/Sternrassler/emuready-client/pkg/config"
	"github.com/Sternrassler/emuready-client/pkg/emuready"
	"github.com/Sternrassler/emuready-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// envToken names the variable holding an optional bearer token.
const envToken = config.EnvPrefix + "TOKEN"

// app is the process wiring shared by the subcommands.
type app struct {
	cfg   *config.Config
	svc   *emuready.Service
	cache *cache.Manager // nil when the cache is disabled or unreachable
	redis *redis.Client
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})

	clientCfg := client.DefaultConfig(cfg.UserAgent)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.Timeout = cfg.Timeout
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.Token = tokenFromEnv

	rpc, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	a := &app{cfg: cfg}
	opts := emuready.Options{
		CacheTTL:           cfg.CacheTTL,
		MaxPerformanceRank: cfg.MaxPerformanceRank,
	}

	if cfg.CacheEnabled {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		mgr := cache.NewManager(a.redis)
		if err := mgr.Ping(cmd.Context()); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, continuing without cache")
			_ = a.redis.Close()
			a.redis = nil
		} else {
			a.cache = mgr
			opts.Cache = mgr
		}
	}

	a.svc, err = emuready.New(rpc, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the Redis connection, if any.
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// loadConfig loads the layered config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("pretty") {
		cfg.LogPretty = logPretty
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func tokenFromEnv(context.Context) (string, error) {
	return os.Getenv(envToken), nil
}
