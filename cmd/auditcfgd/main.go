// auditcfg/cmd/auditcfgd/main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"rgehrsitz/auditcfg/pkg/catalog"
	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/dashboard"
	"rgehrsitz/auditcfg/pkg/logging"
	"rgehrsitz/auditcfg/pkg/store"
	"rgehrsitz/auditcfg/pkg/validator"
)

// Config represents the daemon configuration
type Config struct {
	PolicyFile              string
	LogLevel                string
	LogDestination          string
	RedisEnabled            bool
	RedisAddress            string
	RedisPassword           string
	RedisDB                 int
	RedisKey                string
	RedisChannel            string
	CatalogEnabled          bool
	CatalogDSN              string
	DashboardEnabled        bool
	DashboardPort           int
	DashboardUpdateInterval int
}

// Dependencies represents the collaborators the daemon publishes to
type Dependencies struct {
	Registry  *config.Registry
	Store     store.Store
	Catalog   SnapshotSink
	Dashboard *dashboard.Dashboard
}

// SnapshotSink persists a published snapshot
type SnapshotSink interface {
	Migrate(ctx context.Context) error
	Sync(ctx context.Context, snap *config.Snapshot) error
}

// StoreFactory is an interface for creating a store
type StoreFactory interface {
	NewStore(ctx context.Context, addr, password string, db int) (store.Store, error)
}

// CatalogFactory is an interface for creating a catalog
type CatalogFactory interface {
	NewCatalog(ctx context.Context, dsn string) (SnapshotSink, error)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, os.Args, &RealStoreFactory{}, &RealCatalogFactory{}); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

func run(ctx context.Context, args []string, storeFactory StoreFactory, catalogFactory CatalogFactory) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := logging.ConfigureLogger(cfg.LogLevel, cfg.LogDestination); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	deps, err := setupDependencies(ctx, cfg, storeFactory, catalogFactory)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}

	// The first load has nothing to fall back to.
	if err := reload(ctx, deps, cfg); err != nil {
		return fmt.Errorf("failed to load audit policy: %w", err)
	}

	if deps.Dashboard != nil {
		go func() {
			if err := deps.Dashboard.Start(ctx); err != nil {
				log.Error().Err(err).Msg("Dashboard stopped")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return runMainLoop(ctx, deps, cfg, sigChan)
}

func parseConfig(args []string) (*Config, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	configFile := flags.String("config", "", "Path to configuration file")
	policyFile := flags.String("policy", "", "Path to audit policy file")
	if err := flags.Parse(args[1:]); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("policy_file", "pgaudit.conf")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "console")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key", "pgaudit:snapshot")
	v.SetDefault("redis.channel", "pgaudit_updates")
	v.SetDefault("catalog.enabled", false)
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.port", 9090)
	v.SetDefault("dashboard.update_interval", 5)

	if *configFile == "" {
		v.SetConfigName("auditcfg")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.auditcfg")
		v.AddConfigPath("/etc/auditcfg")
	} else {
		v.SetConfigFile(*configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || *configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Info().Msg("No configuration file found, using defaults")
	}

	cfg := &Config{
		PolicyFile:              v.GetString("policy_file"),
		LogLevel:                v.GetString("logging.level"),
		LogDestination:          v.GetString("logging.output"),
		RedisEnabled:            v.GetBool("redis.enabled"),
		RedisAddress:            v.GetString("redis.address"),
		RedisPassword:           v.GetString("redis.password"),
		RedisDB:                 v.GetInt("redis.database"),
		RedisKey:                v.GetString("redis.key"),
		RedisChannel:            v.GetString("redis.channel"),
		CatalogEnabled:          v.GetBool("catalog.enabled"),
		CatalogDSN:              v.GetString("catalog.dsn"),
		DashboardEnabled:        v.GetBool("dashboard.enabled"),
		DashboardPort:           v.GetInt("dashboard.port"),
		DashboardUpdateInterval: v.GetInt("dashboard.update_interval"),
	}
	if *policyFile != "" {
		cfg.PolicyFile = *policyFile
	}
	return cfg, nil
}

func setupDependencies(ctx context.Context, cfg *Config, storeFactory StoreFactory, catalogFactory CatalogFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Registry: config.NewRegistry(logging.Logger, validator.ValidateSnapshot),
	}

	if cfg.RedisEnabled {
		s, err := storeFactory.NewStore(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		deps.Store = s
	}

	if cfg.CatalogEnabled {
		c, err := catalogFactory.NewCatalog(ctx, cfg.CatalogDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize catalog: %w", err)
		}
		if err := c.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate catalog: %w", err)
		}
		deps.Catalog = c
	}

	if cfg.DashboardEnabled {
		interval := time.Duration(cfg.DashboardUpdateInterval) * time.Second
		deps.Dashboard = dashboard.NewDashboard(deps.Registry, cfg.DashboardPort, interval)
	}

	return deps, nil
}

// reload compiles the policy file and, once it is published, hands it to the
// store and catalog. Distribution failures are logged; the local publish stands.
func reload(ctx context.Context, deps *Dependencies, cfg *Config) error {
	snap, err := deps.Registry.LoadFile(cfg.PolicyFile)
	if err != nil {
		return err
	}

	if deps.Store != nil {
		if err := deps.Store.PublishSnapshot(ctx, cfg.RedisKey, cfg.RedisChannel, snap); err != nil {
			logging.LogError(logging.Logger, err)
		}
	}
	if deps.Catalog != nil {
		if err := deps.Catalog.Sync(ctx, snap); err != nil {
			logging.LogError(logging.Logger, err)
		}
	}
	return nil
}

func runMainLoop(ctx context.Context, deps *Dependencies, cfg *Config, signals <-chan os.Signal) error {
	log.Info().Str("policy", cfg.PolicyFile).Msg("Audit configuration daemon started")

	for {
		select {
		case sig := <-signals:
			if sig != syscall.SIGHUP {
				log.Info().Msg("Shutting down audit configuration daemon")
				return nil
			}
			log.Info().Str("policy", cfg.PolicyFile).Msg("Reloading audit policy")
			if err := reload(ctx, deps, cfg); err != nil {
				logging.LogError(logging.Logger, err)
				log.Warn().Uint64("version", deps.Registry.Version()).Msg("Reload rejected, keeping previous audit policy")
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// RealStoreFactory implements StoreFactory
type RealStoreFactory struct{}

func (f *RealStoreFactory) NewStore(ctx context.Context, addr, password string, db int) (store.Store, error) {
	return store.NewRedisStore(ctx, addr, password, db)
}

// RealCatalogFactory implements CatalogFactory
type RealCatalogFactory struct{}

func (f *RealCatalogFactory) NewCatalog(ctx context.Context, dsn string) (SnapshotSink, error) {
	return catalog.Open(ctx, dsn)
}
