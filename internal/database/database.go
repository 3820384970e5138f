package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/config"
)

const pingTimeout = 5 * time.Second

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// Connections holds the writer pool and the reader pool. They are the same
// *bun.DB when no separate replica DSN is configured.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

type driver struct {
	dialect func() schema.Dialect
	open    func(dsn string) (*sql.DB, error)
	// singleConn pins the pool to one connection; sqlite serializes writers itself
	// and a second connection only adds "database is locked" errors.
	singleConn bool
}

var drivers = map[string]driver{
	"postgres": {
		dialect: func() schema.Dialect { return pgdialect.New() },
		open: func(dsn string) (*sql.DB, error) {
			return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
		},
	},
	"mysql": {
		dialect: func() schema.Dialect { return mysqldialect.New() },
		open:    func(dsn string) (*sql.DB, error) { return sql.Open("mysql", dsn) },
	},
	"sqlite": {
		dialect:    func() schema.Dialect { return sqlitedialect.New() },
		open:       func(dsn string) (*sql.DB, error) { return sql.Open("sqlite3", dsn) },
		singleConn: true,
	},
}

// New opens the writer and, when its DSN differs, a reader pool. Both are pinged on start.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	dbCfg := cfg.Database
	drv, ok := drivers[dbCfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", dbCfg.Driver)
	}

	writer, err := drv.connect("writer", dbCfg.WriterDSN, dbCfg, logger)
	if err != nil {
		return nil, err
	}
	conns := &Connections{Writer: writer, Reader: writer}
	if dbCfg.ReaderDSN != "" && dbCfg.ReaderDSN != dbCfg.WriterDSN {
		if conns.Reader, err = drv.connect("reader", dbCfg.ReaderDSN, dbCfg, logger); err != nil {
			return nil, errors.Join(err, writer.Close())
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for role, db := range conns.pools() {
				if err := ping(ctx, db); err != nil {
					return fmt.Errorf("ping %s: %w", role, err)
				}
			}
			logger.Info("database connected",
				zap.String("driver", dbCfg.Driver),
				zap.Bool("replica", conns.Reader != conns.Writer),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			var errs error
			for role, db := range conns.pools() {
				if err := db.Close(); err != nil {
					errs = errors.Join(errs, fmt.Errorf("close %s: %w", role, err))
				}
			}
			return errs
		},
	})
	return conns, nil
}

func (d driver) connect(role, dsn string, cfg config.Database, logger *zap.Logger) (*bun.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open %s: empty DSN", role)
	}
	sqldb, err := d.open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", role, err)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if d.singleConn {
		sqldb.SetMaxOpenConns(1)
	}
	if cfg.MaxConnLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	db := bun.NewDB(sqldb, d.dialect())
	db.AddQueryHook(newQueryLogger(logger, role, cfg.SlowQuery))
	return db, nil
}

func (c *Connections) pools() map[string]*bun.DB {
	if c.Reader == c.Writer {
		return map[string]*bun.DB{"writer": c.Writer}
	}
	return map[string]*bun.DB{"writer": c.Writer, "reader": c.Reader}
}

func ping(ctx context.Context, db *bun.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

// RunInTx executes fn inside a serializable transaction on the writer pool.
// The transaction is rolled back when fn returns an error.
func (c *Connections) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	return c.Writer.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
