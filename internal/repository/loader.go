package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"liquidation-export/internal/domain"
	"liquidation-export/pkg/cache/redis"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const snapshotKeyPrefix = "records_snapshot:"

type Source interface {
	Name() string
	// Fingerprint identifies the current content of the source; an empty
	// fingerprint disables snapshot caching.
	Fingerprint(ctx context.Context) (string, error)
	Load(ctx context.Context) ([]domain.DebtRecord, error)
}

type SnapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Loader struct {
	source Source
	cache  SnapshotCache
	ttl    time.Duration
	log    *zap.Logger
}

// NewLoader wires a source with an optional snapshot cache (nil disables it).
func NewLoader(source Source, cache SnapshotCache, ttl time.Duration, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{source: source, cache: cache, ttl: ttl, log: log}
}

// LoadStore builds the record store once. Cache failures are logged and
// never fail the load.
func (l *Loader) LoadStore(ctx context.Context) (*RecordStore, error) {
	started := time.Now()

	fingerprint, err := l.source.Fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", l.source.Name(), err)
	}

	key := ""
	if l.cache != nil && fingerprint != "" {
		key = snapshotKeyPrefix + fingerprint
		if records, ok := l.fromCache(ctx, key); ok {
			l.log.Info("record store loaded from snapshot",
				zap.String("source", l.source.Name()),
				zap.Int("records", len(records)),
				zap.Duration("took", time.Since(started)))
			return NewRecordStore(records), nil
		}
	}

	records, err := l.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.source.Name(), err)
	}

	if key != "" {
		l.toCache(ctx, key, records)
	}

	store := NewRecordStore(records)
	l.log.Info("record store loaded",
		zap.String("source", l.source.Name()),
		zap.Int("records", store.Len()),
		zap.Int("identifiers", len(store.identifiers)),
		zap.Duration("took", time.Since(started)))

	return store, nil
}

func (l *Loader) fromCache(ctx context.Context, key string) ([]domain.DebtRecord, bool) {
	data, err := l.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			l.log.Warn("snapshot read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if data == "" {
		return nil, false
	}

	var records []domain.DebtRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		l.log.Warn("discarding unreadable snapshot", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return records, true
}

func (l *Loader) toCache(ctx context.Context, key string, records []domain.DebtRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		l.log.Warn("snapshot encode failed", zap.Error(err))
		return
	}
	if err := l.cache.Set(ctx, key, string(data), l.ttl); err != nil {
		l.log.Warn("snapshot store failed", zap.String("key", key), zap.Error(err))
	}
}
