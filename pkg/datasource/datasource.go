package datasource

import (
	"context"

	"github.com/opscart/k8s-resource-gather/pkg/models"
)

// Source supplies instant per-container usage for the usage report.
type Source interface {
	// ContainerUsage returns one record per running container in the
	// namespace, formatted at container granularity (m / Mi).
	ContainerUsage(ctx context.Context, namespace string) ([]models.UsageRecord, error)

	// IsAvailable probes the backend with a cheap query.
	IsAvailable(ctx context.Context) bool

	Name() string
}
