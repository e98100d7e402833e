package collector

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/opscart/k8s-resource-gather/pkg/models"
	"github.com/opscart/k8s-resource-gather/pkg/quantity"
)

// MetricsServerSource reads instant container usage from the
// metrics-server API. It is the fallback when Prometheus is not
// reachable.
type MetricsServerSource struct {
	client *metricsv.Clientset
}

func NewMetricsServerSource(client *metricsv.Clientset) *MetricsServerSource {
	return &MetricsServerSource{client: client}
}

func (s *MetricsServerSource) ContainerUsage(ctx context.Context, namespace string) ([]models.UsageRecord, error) {
	podMetrics, err := s.client.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get pod metrics: %w", err)
	}

	var records []models.UsageRecord
	for _, pm := range podMetrics.Items {
		for _, container := range pm.Containers {
			records = append(records, models.UsageRecord{
				Namespace:     namespace,
				PodName:       pm.Name,
				ContainerName: container.Name,
				CPUUsage:      quantity.Parse(resourceString(container.Usage, corev1.ResourceCPU), quantity.CPU).Millicores(),
				MemoryUsage:   quantity.Parse(resourceString(container.Usage, corev1.ResourceMemory), quantity.Memory).Mebibytes(),
			})
		}
	}
	return records, nil
}

func (s *MetricsServerSource) IsAvailable(ctx context.Context) bool {
	_, err := s.client.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{Limit: 1})
	return err == nil
}

func (s *MetricsServerSource) Name() string {
	return "metrics-server"
}
