package deps

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwise1/comment_service/config"
	"github.com/bwise1/comment_service/internal/db"
	"github.com/bwise1/comment_service/internal/model"
	"github.com/bwise1/comment_service/internal/store"
	"go.uber.org/zap"
)

type Dependencies struct {
	Logger   *zap.Logger
	Comments store.Store[model.Comment]

	closers []func(context.Context) error
}

func New(cfg *config.Config) (*Dependencies, error) {
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	deps := &Dependencies{Logger: logger}

	switch strings.ToLower(cfg.StoreDriver) {
	case config.DriverMemory, "":
		deps.Comments = store.NewMemoryStore(logger)

	case config.DriverMongo:
		mongoDB, err := db.NewMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		deps.OnClose(mongoDB.Close)

		mongoStore := store.NewMongoStore(mongoDB.Database(), logger)
		if err := mongoStore.EnsureIndexes(context.Background()); err != nil {
			logger.Warn("unable to create comment indexes", zap.Error(err))
		}
		deps.Comments = mongoStore

	case config.DriverPostgres:
		database, err := db.New(cfg.Dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		deps.OnClose(func(context.Context) error {
			database.Close()
			return nil
		})

		pgStore := store.NewPostgresStore(database.Pool(), logger)
		if err := pgStore.InitSchema(context.Background()); err != nil {
			database.Close()
			return nil, err
		}
		deps.Comments = pgStore

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))
	return deps, nil
}

// NewLogger returns a development logger for level "debug" and a production
// logger at the given level otherwise.
func NewLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// OnClose registers fn to run on Close. Closers run in reverse order.
func (d *Dependencies) OnClose(fn func(context.Context) error) {
	d.closers = append(d.closers, fn)
}

// Close releases store connections and flushes the logger.
func (d *Dependencies) Close(ctx context.Context) error {
	var firstErr error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = d.Logger.Sync()
	return firstErr
}
