package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/summary-pipeline/internal/store"
)

// initSink builds the configured persistence sink, wrapped in the async
// queue so persistence stays off the cascade's critical path.
func initSink(ctx context.Context) (store.Sink, error) {
	inner, err := initRawSink(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := inner.(store.NoopSink); ok {
		return inner, nil
	}
	return store.NewAsync(inner, cfg.Store.QueueSize), nil
}

func initRawSink(ctx context.Context) (store.Sink, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "summary-pipeline.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "none", "":
		return store.NoopSink{}, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
