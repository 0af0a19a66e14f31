package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"liquidation-export/internal/clients"
	"liquidation-export/internal/config"
	"liquidation-export/internal/report"
	"liquidation-export/internal/repository"
	"liquidation-export/pkg/database/postgres"

	"go.uber.org/zap"
)

// app holds the shared dependencies of every command.
type app struct {
	cfg config.AppConfig
	log *zap.Logger

	db    *sql.DB
	redis *clients.RedisClient
	s3    *clients.S3Client

	store *repository.RecordStore
	pdf   *report.PDFRenderer
	xlsx  *report.WorkbookRenderer
}

func newApp(ctx context.Context, cfg config.AppConfig, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.Redis.Enabled {
		rc, err := clients.NewRedisClient(clients.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			DialTimeout: time.Duration(cfg.Redis.DialTimeout) * time.Second,
			Timeout:     time.Duration(cfg.Redis.Timeout) * time.Second,
			Prefix:      cfg.Redis.Prefix,
		})
		if err != nil {
			log.Warn("redis unavailable, continuing without it", zap.Error(err))
		} else {
			a.redis = rc
		}
	}

	source, err := a.source(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var cache repository.SnapshotCache
	if a.redis != nil {
		cache = a.redis
	}

	store, err := repository.NewLoader(source, cache, cfg.SnapshotTTL(), log).LoadStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	a.pdf = report.NewPDFRenderer(log,
		report.WithLogo(report.NewLogo(cfg.Report.LogoPath), cfg.Report.LogoRequired),
	)
	a.xlsx = report.NewWorkbookRenderer(log)

	return a, nil
}

func (a *app) source(ctx context.Context) (repository.Source, error) {
	switch a.cfg.Data.Source {
	case config.SourcePostgres:
		pg := a.cfg.Postgres
		db, err := postgres.NewPostgresConnection(ctx, postgres.ConnectionInfo{
			Host:     pg.Host,
			Port:     pg.Port,
			Username: pg.User,
			DBName:   pg.DBName,
			SSLMode:  pg.SSLMode,
			Password: pg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres init: %w", err)
		}
		a.db = db
		return repository.NewDebtRecordRepository(db, a.log), nil
	case config.SourceXLSX:
		return repository.NewXLSXSource(a.cfg.Data.File, a.cfg.Data.Sheet, a.log), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", a.cfg.Data.Source)
	}
}

// uploader connects to S3 when it is configured. A failure is logged and
// exports fall back to local storage.
func (a *app) uploader(ctx context.Context) {
	s3cfg := clients.S3Config{
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
		Bucket:          a.cfg.S3.Bucket,
		UseSSL:          a.cfg.S3.UseSSL,
		Region:          a.cfg.S3.Region,
		Prefix:          a.cfg.S3.Prefix,
	}
	if !s3cfg.Enabled() {
		return
	}

	client, err := clients.NewS3Client(ctx, s3cfg)
	if err != nil {
		a.log.Warn("s3 unavailable, exports stay local", zap.Error(err))
		return
	}
	a.s3 = client
}

func (a *app) Close() {
	if a.db != nil {
		if err := postgres.Close(a.db); err != nil {
			a.log.Warn("close postgres", zap.Error(err))
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
	_ = a.log.Sync()
}
