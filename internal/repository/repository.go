package repository

import (
	"context"
	"time"

	"github.com/Lutefd/log-pipeline/internal/model"
)

type AlertRepository interface {
	SaveAlert(ctx context.Context, alert model.Alert) error
	ListRecent(ctx context.Context, limit int) ([]model.Alert, error)
	CreatePartition(ctx context.Context, month time.Time) error
	Close() error
}
