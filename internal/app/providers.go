package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/adapter/datasource"
	adapterrepo "github.com/eslsoft/lvgames/internal/adapter/repository"
	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/infrastructure/config"
	"github.com/eslsoft/lvgames/internal/infrastructure/database"
	"github.com/eslsoft/lvgames/internal/infrastructure/jobs"
	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/internal/usecase/backup"
	"github.com/eslsoft/lvgames/internal/usecase/matching"
	"github.com/eslsoft/lvgames/internal/usecase/session"
	"github.com/eslsoft/lvgames/pkg/filterexpr"
)

// ResultsDB is the SQL handle of the result log; DB is nil for the memory driver.
type ResultsDB struct {
	Driver string
	DSN    string
	DB     *sqlx.DB
}

// ProvideResultsDB opens the result log database when its driver is SQL.
func ProvideResultsDB(cfg *config.Config) (*ResultsDB, func(), error) {
	rdb := &ResultsDB{Driver: cfg.ResultsDriver(), DSN: cfg.ResultsDSN()}
	if rdb.Driver == "memory" {
		return rdb, func() {}, nil
	}
	db, cleanup, err := database.OpenSQL(context.Background(), rdb.Driver, rdb.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open results database: %w", err)
	}
	rdb.DB = db
	return rdb, cleanup, nil
}

// ProvideResults returns the result log on rdb.
func ProvideResults(rdb *ResultsDB) (repository.ResultRepository, error) {
	if rdb.DB == nil {
		return adapterrepo.NewMemoryResultRepository(), nil
	}
	return adapterrepo.NewSQLResultRepository(context.Background(), rdb.DB)
}

// ProvideStore opens the KV store selected by storage.driver. A sqlite store
// on the results DSN shares the results handle.
func ProvideStore(cfg *config.Config, logger *logrus.Logger, rdb *ResultsDB) (repository.KVStore, func(), error) {
	ctx := context.Background()
	switch cfg.Storage.Driver {
	case "memory":
		return adapterrepo.NewMemoryStore(), func() {}, nil
	case "sqlite3":
		if rdb.DB != nil && rdb.Driver == "sqlite3" && rdb.DSN == cfg.Storage.DSN {
			store, err := adapterrepo.NewSQLStore(ctx, rdb.DB)
			return store, func() {}, err
		}
		db, cleanup, err := database.OpenSQL(ctx, "sqlite3", cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, err := adapterrepo.NewSQLStore(ctx, db)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return store, cleanup, nil
	case "postgres":
		pool, cleanup, err := database.NewPool(ctx, cfg.Storage.DSN, cfg.Storage.LogSQL, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := adapterrepo.NewPGStore(ctx, pool)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return store, cleanup, nil
	case "redis":
		r := cfg.Storage.Redis
		client, cleanup, err := database.NewRedisClient(ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			return nil, nil, err
		}
		return adapterrepo.NewRedisStore(client, r.Namespace), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// ProvideSource layers the configured item sources over the embedded dataset.
func ProvideSource(cfg *config.Config, logger *logrus.Logger) (repository.ItemSource, error) {
	var sources []repository.ItemSource
	data := cfg.Data
	if data.BaseURL != "" {
		src, err := datasource.NewHTTPSource(data.BaseURL, data.Path, data.ItemsPath, data.Timeout, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if data.Excel != "" {
		sources = append(sources, datasource.NewExcelSource(data.Excel, data.Sheet))
	}
	if data.File != "" {
		sources = append(sources, datasource.NewFileSource(data.File, data.ItemsPath))
	}
	sources = append(sources, datasource.NewEmbeddedSource(data.Embedded))
	return datasource.NewLayered(logger, sources...), nil
}

// GameOptions converts a game declaration into scheduler options.
func GameOptions(game config.GameConfig) (matching.Options, error) {
	opts := matching.DefaultOptions(game.Name)
	mode, err := entity.ParseGameMode(game.Mode)
	if err != nil {
		return matching.Options{}, fmt.Errorf("game %s: %w", game.Name, err)
	}
	opts.Defaults.Mode = mode
	opts.Defaults.Prioritize = game.PrioritizeOrDefault()
	if game.Lang != "" {
		opts.Defaults.Lang = entity.ParseLanguage(game.Lang)
	}
	if game.LockedSize > 0 {
		opts.Defaults.LockedSize = game.LockedSize
	}
	if game.BoardSize > 0 {
		opts.Defaults.BoardSize = game.BoardSize
	}
	if game.LookaheadTurns > 0 {
		opts.LookaheadTurns = game.LookaheadTurns
	}
	if game.MaxPriorityChain > 0 {
		opts.MaxPriorityChain = game.MaxPriorityChain
	}
	if game.RecentSets > 0 {
		opts.RecentSetsLimit = game.RecentSets
	}
	return opts, nil
}

// ProvideSessions builds one engine and session per configured game.
func ProvideSessions(cfg *config.Config, logger *logrus.Logger, store repository.KVStore, results repository.ResultRepository, source repository.ItemSource) (*session.Manager, error) {
	manager := session.NewManager()
	for _, game := range cfg.Games {
		opts, err := GameOptions(game)
		if err != nil {
			return nil, err
		}
		filter, err := filterexpr.CompileDeckFilter(game.Filter)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", game.Name, err)
		}
		engine := matching.NewEngine(store, logger, opts)
		manager.Register(session.New(engine, source, logger,
			session.WithFilter(filter),
			session.WithResults(results),
		))
	}
	return manager, nil
}

// ProvideBackup returns the backup service over every configured game.
func ProvideBackup(cfg *config.Config, store repository.KVStore, results repository.ResultRepository) (*backup.Service, error) {
	return backup.NewService(store, cfg.GameNames(), backup.WithResults(results))
}

// ProvideRetention schedules pruning of the result log.
func ProvideRetention(cfg *config.Config, results repository.ResultRepository, logger *logrus.Logger) *jobs.Retention {
	return jobs.NewRetention(results, cfg.Results.Retention, cfg.Results.PruneInterval, logger)
}
