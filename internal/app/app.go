package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"power-assets/internal/audit"
	"power-assets/internal/config"
	"power-assets/internal/export"
	importapp "power-assets/internal/importer/application"
	inventoryapp "power-assets/internal/inventory/application"
	"power-assets/internal/inventory/infrastructure/sqlstore"
	lifecycleapp "power-assets/internal/lifecycle/application"
	"power-assets/internal/observability/metrics"
	powerchainapp "power-assets/internal/powerchain/application"
	"power-assets/internal/powerchain/infrastructure/rediscache"
)

// App holds the wired services of one process.
type App struct {
	Config *config.Config
	Logger logrus.FieldLogger

	Store       *sqlstore.Store
	Audit       *audit.Repository
	Devices     *inventoryapp.DeviceService
	Connections *inventoryapp.ConnectionService
	Rules       *lifecycleapp.RuleService
	Status      *lifecycleapp.StatusService
	Importer    *importapp.Service
	Chains      *powerchainapp.Service
	Exports     *export.Service

	cache *rediscache.Cache
}

// New opens the store, applies the schema and seeds, and wires every
// service. A configured but unreachable Redis disables the chain cache.
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := ensureSQLiteDir(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(ctx, strings.ToLower(cfg.DatabaseDriver), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Store: store}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger
	if err := a.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("app: migrate: %w", err)
	}
	metrics.Init(a.Store.DB(), logger)
	a.Audit = audit.NewRepository(a.Store.DB())

	chainOpts := []powerchainapp.Option{powerchainapp.WithLogger(logger)}
	if cfg.RedisURL != "" {
		cache, err := rediscache.Dial(ctx, cfg.RedisURL, cfg.ChainCacheTTL)
		if err != nil {
			logger.WithError(err).Warn("chain cache disabled")
		} else {
			a.cache = cache
			chainOpts = append(chainOpts, powerchainapp.WithCache(cache))
		}
	}

	var err error
	if a.Chains, err = powerchainapp.NewService(a.Store.Devices(), a.Store.Connections(), chainOpts...); err != nil {
		return err
	}
	invalidate := a.Chains.InvalidationHook()

	if a.Devices, err = inventoryapp.NewDeviceService(a.Store, inventoryapp.WithDeviceChangeHook(invalidate)); err != nil {
		return err
	}
	if a.Connections, err = inventoryapp.NewConnectionService(a.Store, invalidate); err != nil {
		return err
	}
	if a.Rules, err = lifecycleapp.NewRuleService(a.Store, logger); err != nil {
		return err
	}
	if a.Status, err = lifecycleapp.NewStatusService(a.Store, a.Rules); err != nil {
		return err
	}
	if a.Importer, err = importapp.NewService(a.Store,
		importapp.WithLogger(logger),
		importapp.WithMaxRows(cfg.ImportMaxRows),
		importapp.WithChangeHook(invalidate),
	); err != nil {
		return err
	}
	if a.Exports, err = export.NewService(a.Store, a.Status, export.PDFOptions{FontFile: cfg.ExportFontFile}); err != nil {
		return err
	}

	seeds, err := config.LoadRuleSeeds(cfg.LifecycleRulesFile)
	if err != nil {
		return err
	}
	if len(seeds) > 0 {
		created, err := a.Rules.Seed(ctx, RuleInputs(seeds))
		if err != nil {
			return fmt.Errorf("app: seed rules: %w", err)
		}
		logger.WithFields(logrus.Fields{"file": cfg.LifecycleRulesFile, "created": created}).Info("lifecycle rules seeded")
	}
	return nil
}

// Close releases the cache client and the store.
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// RuleInputs converts seed file entries into rule inputs.
func RuleInputs(seeds []config.RuleSeed) []lifecycleapp.RuleInput {
	out := make([]lifecycleapp.RuleInput, 0, len(seeds))
	for _, seed := range seeds {
		out = append(out, lifecycleapp.RuleInput{
			DeviceType:     seed.DeviceType,
			LifecycleYears: seed.LifecycleYears,
			WarningMonths:  seed.WarningMonths,
			Description:    seed.Description,
			IsActive:       seed.Active,
		})
	}
	return out
}

// ensureSQLiteDir creates the parent directory of a file-backed SQLite DSN.
func ensureSQLiteDir(driver, dsn string) error {
	if d, err := sqlstore.DialectForDriver(strings.ToLower(driver)); err != nil || d != sqlstore.DialectSQLite {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("app: create database dir: %w", err)
	}
	return nil
}
