// Package cli provides the initialization shared by the despesas commands.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"despesas/internal/amqp"
	"despesas/internal/cache"
	"despesas/internal/config"
	"despesas/internal/log"
	"despesas/internal/metrics"
	"despesas/internal/services"
	"despesas/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = log.ComponentCLI
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads environment files for local development. With no paths
// it reads ./.env and a missing file is not an error; explicit paths must
// exist.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return godotenv.Load(paths...)
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Ledger bundles the ledger service with the resources it owns.
type Ledger struct {
	Service  *services.LedgerService
	DB       *storage.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Recorder

	closers []func() error
}

// StorageConfig maps the database settings onto storage.Config.
func StorageConfig(cfg *config.Config) storage.Config {
	sc := storage.Config{Driver: storage.Driver(cfg.DBDriver)}
	if sc.Driver == storage.DriverPostgres {
		sc.DSN = cfg.DatabaseURL
	} else {
		sc.Path = cfg.SQLiteDBPath
	}
	return sc
}

// OpenLedger opens the store, builds the aggregate cache and metrics, and
// connects the change publisher when AMQP is configured. A broker that
// cannot be reached disables notifications instead of failing.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Ledger, error) {
	db, err := storage.Open(ctx, StorageConfig(cfg))
	if err != nil {
		return nil, err
	}
	l := &Ledger{DB: db, Registry: prometheus.NewRegistry()}
	l.closers = append(l.closers, db.Close)
	l.Metrics = metrics.New(l.Registry)

	opts := services.Options{Metrics: l.Metrics, Logger: logger}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err)
		} else {
			opts.Notifier = client
			l.closers = append(l.closers, client.Close)
		}
	}

	aggregates := cache.NewAggregates(cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL), l.Metrics)
	l.Service = services.NewLedgerService(db, aggregates, opts)
	return l, nil
}

// Close releases everything OpenLedger acquired, most recent first.
func (l *Ledger) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
