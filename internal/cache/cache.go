package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Lutefd/log-pipeline/internal/model"
)

var ErrNotFound = errors.New("key not found")

// SnapshotCache shares consumer stats snapshots with processes that cannot
// reach the consumer directly.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (model.StatsSnapshot, error)
	Set(ctx context.Context, key string, snapshot model.StatsSnapshot, expiration time.Duration) error
	Close() error
}

// SnapshotKey is the key a consumer group publishes its stats under.
func SnapshotKey(groupID string) string {
	return "log-pipeline:stats:" + groupID
}
