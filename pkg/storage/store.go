package storage

import (
	"context"

	"github.com/opscart/k8s-resource-gather/pkg/models"
)

// Store defines the interface for the optional run-history storage.
// Without --save nothing in the tool touches a Store; a default run
// leaves no persistent state behind.
type Store interface {
	SaveRun(ctx context.Context, run *models.Run) error
	SaveReportStat(ctx context.Context, stat *models.ReportStat) error
	ListRuns(ctx context.Context, clusterID string, limit int) ([]*models.Run, error)

	Ping(ctx context.Context) error
	Close() error
}
