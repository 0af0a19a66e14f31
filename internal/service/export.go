package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"liquidation-export/pkg/cache/redis"

	"github.com/goccy/go-json"
)

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
)

var ErrExportNotFound = errors.New("export not found")

type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	Stage    string    `json:"stage,omitempty"`
	FileURL  *string   `json:"file_url"`
	FileName string    `json:"file_name,omitempty"`
	Error    string    `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

// StatusWriter is the part of the redis client the export jobs write to.
type StatusWriter interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...any) error
}

type StatusReader interface {
	Get(ctx context.Context, key string) (string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

func saveExportStatus(ctx context.Context, w StatusWriter, st *ExportStatus) error {
	if w == nil {
		return nil
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := w.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}

	return w.SAdd(ctx, exportSetKey, st.Key)
}

type ExportService struct {
	redis StatusReader
	now   func() time.Time
}

func NewExportService(redis StatusReader) *ExportService {
	return &ExportService{
		redis: redis,
		now:   time.Now,
	}
}

func (s *ExportService) GetExports(ctx context.Context, userID int64) ([]map[string]any, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if errors.Is(err, redis.ErrCacheMiss) {
			// expired; the set member outlives the status
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get export %s: %w", key, err)
		}

		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}

		if status.UserID == userID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	exports := make([]map[string]any, 0, len(statuses))
	for _, status := range statuses {
		exports = append(exports, s.toMap(status))
	}

	return exports, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, userID int64) (map[string]any, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if errors.Is(err, redis.ErrCacheMiss) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}

	if status.UserID != userID {
		return nil, ErrExportNotFound
	}

	return s.toMap(status), nil
}

func (s *ExportService) toMap(status ExportStatus) map[string]any {
	m := map[string]any{
		"key":        status.Key,
		"type":       status.Type,
		"user_id":    status.UserID,
		"progress":   status.Progress,
		"stage":      status.Stage,
		"file_url":   status.FileURL,
		"file_name":  status.FileName,
		"filters":    status.Filters,
		"created_at": humanizeEsAgo(status.Created, s.now()),
	}
	if status.Error != "" {
		m["error"] = status.Error
	}
	return m
}

func humanizeEsAgo(t, now time.Time) string {
	if t.After(now) {
		return "justo ahora"
	}

	minutes := int(now.Sub(t).Minutes())
	if minutes < 1 {
		return "justo ahora"
	}
	if minutes < 60 {
		return fmt.Sprintf("hace %d %s", minutes, esPlural(minutes, "minuto", "minutos"))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("hace %d %s", hours, esPlural(hours, "hora", "horas"))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("hace %d %s", days, esPlural(days, "día", "días"))
	}
	return t.Format("02/01/2006 15:04")
}

func esPlural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
