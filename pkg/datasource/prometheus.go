package datasource

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/opscart/k8s-resource-gather/pkg/models"
	"github.com/opscart/k8s-resource-gather/pkg/quantity"
)

type PrometheusSource struct {
	client v1.API
	url    string
}

func NewPrometheusSource(url string) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: url,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &PrometheusSource{
		client: v1.NewAPI(client),
		url:    url,
	}, nil
}

// ContainerUsage queries instant CPU and working-set memory per
// container in the namespace and joins the two vectors by pod and
// container name. A container present in only one vector still
// produces a record with the other field empty.
func (p *PrometheusSource) ContainerUsage(ctx context.Context, namespace string) ([]models.UsageRecord, error) {
	cpuQuery := fmt.Sprintf(
		`sum by (pod, container) (rate(container_cpu_usage_seconds_total{namespace=%q,container!="",container!="POD"}[5m]))`,
		namespace)
	cpu, err := p.queryVector(ctx, cpuQuery)
	if err != nil {
		return nil, fmt.Errorf("CPU query failed: %w", err)
	}

	memQuery := fmt.Sprintf(
		`sum by (pod, container) (container_memory_working_set_bytes{namespace=%q,container!="",container!="POD"})`,
		namespace)
	mem, err := p.queryVector(ctx, memQuery)
	if err != nil {
		return nil, fmt.Errorf("memory query failed: %w", err)
	}

	type key struct{ pod, container string }
	byContainer := make(map[key]*models.UsageRecord)

	record := func(k key) *models.UsageRecord {
		if rec, ok := byContainer[k]; ok {
			return rec
		}
		rec := &models.UsageRecord{
			Namespace:     namespace,
			PodName:       k.pod,
			ContainerName: k.container,
		}
		byContainer[k] = rec
		return rec
	}

	for _, sample := range cpu {
		k := key{string(sample.Metric["pod"]), string(sample.Metric["container"])}
		record(k).CPUUsage = quantity.FromMillicores(float64(sample.Value) * 1000).Millicores()
	}
	for _, sample := range mem {
		k := key{string(sample.Metric["pod"]), string(sample.Metric["container"])}
		record(k).MemoryUsage = quantity.FromMebibytes(float64(sample.Value) / (1024 * 1024)).Mebibytes()
	}

	records := make([]models.UsageRecord, 0, len(byContainer))
	for _, rec := range byContainer {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].PodName != records[j].PodName {
			return records[i].PodName < records[j].PodName
		}
		return records[i].ContainerName < records[j].ContainerName
	})
	return records, nil
}

func (p *PrometheusSource) queryVector(ctx context.Context, query string) (model.Vector, error) {
	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		fmt.Printf("[WARN] Prometheus: %v\n", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type for query: %s", query)
	}
	return vector, nil
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
