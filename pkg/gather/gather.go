// Package gather drives one collection run: it enumerates the
// entities each selected report needs, invokes the collectors, and
// streams the resulting rows into the report tables. Entities may be
// collected concurrently, but each entity's rows form one block
// written in input order.
package gather

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/opscart/k8s-resource-gather/pkg/collector"
	"github.com/opscart/k8s-resource-gather/pkg/datasource"
	"github.com/opscart/k8s-resource-gather/pkg/describe"
	"github.com/opscart/k8s-resource-gather/pkg/kube"
	"github.com/opscart/k8s-resource-gather/pkg/models"
	"github.com/opscart/k8s-resource-gather/pkg/reporter"
	"github.com/opscart/k8s-resource-gather/pkg/storage"
)

// Options selects which reports a run produces.
type Options struct {
	Workloads    bool
	QuotasLimits bool
	Nodes        bool
	Volumes      bool
	Usage        bool

	ClusterID string
	Workers   int
}

// Any reports whether at least one report type is selected.
func (o Options) Any() bool {
	return o.Workloads || o.QuotasLimits || o.Nodes || o.Volumes || o.Usage
}

// Gatherer wires the collectors to the report writer for one run.
type Gatherer struct {
	client    *kube.Client
	describer describe.Describer
	reporter  *reporter.Reporter
	usage     datasource.Source
	store     storage.Store
}

func New(client *kube.Client, describer describe.Describer, rep *reporter.Reporter, usage datasource.Source, store storage.Store) *Gatherer {
	return &Gatherer{
		client:    client,
		describer: describer,
		reporter:  rep,
		usage:     usage,
		store:     store,
	}
}

// Run produces every selected report. Individual entity failures are
// logged and degrade their rows; Run only fails when a report file
// itself cannot be written.
func (g *Gatherer) Run(ctx context.Context, opts Options) error {
	run := &models.Run{
		ClusterID: opts.ClusterID,
		StartedAt: time.Now(),
		OutputDir: g.reporter.Dir,
	}
	if g.store != nil {
		if err := g.store.SaveRun(ctx, run); err != nil {
			fmt.Printf("[WARN] Failed to save run: %v\n", err)
		}
	}

	var namespaces []string
	if opts.Workloads || opts.QuotasLimits || opts.Usage {
		namespaces = g.listNamespaces(ctx)
	}

	var stats []models.ReportStat
	record := func(report string, rows int) {
		stats = append(stats, models.ReportStat{RunID: run.ID, Report: report, RowCount: rows})
	}

	if opts.Workloads {
		rows, err := g.gatherWorkloads(ctx, namespaces)
		if err != nil {
			return err
		}
		record(reporter.WorkloadFile, rows)
	}

	if opts.QuotasLimits {
		rows, err := g.gatherQuotasLimits(ctx, namespaces)
		if err != nil {
			return err
		}
		record(reporter.QuotasFile, rows)
	}

	if opts.Nodes {
		rows, err := g.gatherNodes(ctx, opts.Workers)
		if err != nil {
			return err
		}
		record(reporter.NodesFile, rows)
	}

	if opts.Volumes {
		rows, err := g.gatherVolumes(ctx, opts.Workers)
		if err != nil {
			return err
		}
		record(reporter.VolumesFile, rows)
	}

	if opts.Usage {
		rows, err := g.gatherUsage(ctx, namespaces)
		if err != nil {
			return err
		}
		record(reporter.UsageFile, rows)
	}

	if g.store != nil {
		for i := range stats {
			if err := g.store.SaveReportStat(ctx, &stats[i]); err != nil {
				fmt.Printf("[WARN] Failed to save report stat: %v\n", err)
			}
		}
		run.FinishedAt = time.Now()
		if err := g.store.SaveRun(ctx, run); err != nil {
			fmt.Printf("[WARN] Failed to finalize run: %v\n", err)
		}
	}

	return nil
}

func (g *Gatherer) listNamespaces(ctx context.Context) []string {
	list, err := g.client.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list namespaces: %v\n", err)
		return nil
	}

	namespaces := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		namespaces = append(namespaces, ns.Name)
	}
	return namespaces
}

func (g *Gatherer) gatherWorkloads(ctx context.Context, namespaces []string) (int, error) {
	fmt.Printf("[INFO] Gathering workload resource requests and limits. Output will be saved to '%s'\n",
		filepath.Join(g.reporter.Dir, reporter.WorkloadFile))

	table, err := g.reporter.NewTable(reporter.WorkloadFile, reporter.WorkloadHeader)
	if err != nil {
		return 0, err
	}
	defer table.Close()

	wc := collector.NewWorkloadCollector(g.client.Clientset, g.client.Dynamic)
	for _, ns := range namespaces {
		for _, rec := range wc.Collect(ctx, ns) {
			if err := table.Row(reporter.WorkloadRow(rec)); err != nil {
				return table.RowCount, err
			}
		}
	}

	fmt.Println("[INFO] Workload data collection complete")
	return table.RowCount, table.Close()
}

func (g *Gatherer) gatherQuotasLimits(ctx context.Context, namespaces []string) (int, error) {
	fmt.Printf("[INFO] Gathering resource quota and limit range details. Output will be saved to '%s'\n",
		filepath.Join(g.reporter.Dir, reporter.QuotasFile))

	table, err := g.reporter.NewTable(reporter.QuotasFile, nil)
	if err != nil {
		return 0, err
	}
	defer table.Close()

	qc := collector.NewQuotaCollector(g.client.Clientset)

	if err := table.Comment("Resource Quotas"); err != nil {
		return 0, err
	}
	if err := table.Header(reporter.QuotaHeader); err != nil {
		return 0, err
	}
	for _, ns := range namespaces {
		for _, rec := range qc.Quotas(ctx, ns) {
			if err := table.Row(reporter.QuotaRow(rec)); err != nil {
				return table.RowCount, err
			}
		}
	}

	if err := table.Comment("Limit Ranges"); err != nil {
		return table.RowCount, err
	}
	if err := table.Header(reporter.LimitRangeHeader); err != nil {
		return table.RowCount, err
	}
	for _, ns := range namespaces {
		for _, rec := range qc.LimitRanges(ctx, ns) {
			if err := table.Row(reporter.LimitRangeRow(rec)); err != nil {
				return table.RowCount, err
			}
		}
	}

	fmt.Println("[INFO] Quotas and limit ranges data collection complete")
	return table.RowCount, table.Close()
}

func (g *Gatherer) gatherNodes(ctx context.Context, workers int) (int, error) {
	fmt.Printf("[INFO] Gathering node resource requests, limits, and pod counts. Output will be saved to '%s'\n",
		filepath.Join(g.reporter.Dir, reporter.NodesFile))

	list, err := g.client.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list nodes: %v\n", err)
		list = &corev1.NodeList{}
	}

	table, err := g.reporter.NewTable(reporter.NodesFile, nil)
	if err != nil {
		return 0, err
	}
	defer table.Close()

	nc := collector.NewNodeCollector(g.client.Clientset, g.describer)

	// Collect concurrently, write strictly in node order so blocks
	// never interleave.
	reports := make([]*models.NodeReport, len(list.Items))
	forEachIndex(workers, len(list.Items), func(i int) {
		rep, err := nc.Collect(ctx, list.Items[i].Name)
		if err != nil {
			fmt.Printf("[WARN] Skipping node %s: %v\n", list.Items[i].Name, err)
			return
		}
		reports[i] = rep
	})

	for _, rep := range reports {
		if rep == nil {
			continue
		}
		if err := reporter.WriteNodeBlock(table, rep); err != nil {
			return table.RowCount, err
		}
	}

	fmt.Println("[INFO] Node data collection complete")
	return table.RowCount, table.Close()
}

func (g *Gatherer) gatherVolumes(ctx context.Context, workers int) (int, error) {
	fmt.Printf("[INFO] Gathering persistent volume relations. Output will be saved to '%s'\n",
		filepath.Join(g.reporter.Dir, reporter.VolumesFile))

	list, err := g.client.Clientset.CoreV1().PersistentVolumes().List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list persistent volumes: %v\n", err)
		list = &corev1.PersistentVolumeList{}
	}

	table, err := g.reporter.NewTable(reporter.VolumesFile, reporter.VolumeHeader)
	if err != nil {
		return 0, err
	}
	defer table.Close()

	vc := collector.NewVolumeCollector(g.client.Clientset, g.client.Dynamic)

	blocks := make([][]models.VolumeRecord, len(list.Items))
	forEachIndex(workers, len(list.Items), func(i int) {
		blocks[i] = vc.Collect(ctx, &list.Items[i])
	})

	for _, block := range blocks {
		for _, rec := range block {
			if err := table.Row(reporter.VolumeRow(rec)); err != nil {
				return table.RowCount, err
			}
		}
	}

	fmt.Println("[INFO] Volume data collection complete")
	return table.RowCount, table.Close()
}

func (g *Gatherer) gatherUsage(ctx context.Context, namespaces []string) (int, error) {
	if g.usage == nil {
		fmt.Println("[WARN] No usage source reachable, skipping usage report")
		return 0, nil
	}

	fmt.Printf("[INFO] Gathering instant container usage from %s. Output will be saved to '%s'\n",
		g.usage.Name(), filepath.Join(g.reporter.Dir, reporter.UsageFile))

	table, err := g.reporter.NewTable(reporter.UsageFile, reporter.UsageHeader)
	if err != nil {
		return 0, err
	}
	defer table.Close()

	for _, ns := range namespaces {
		records, err := g.usage.ContainerUsage(ctx, ns)
		if err != nil {
			fmt.Printf("[WARN] Usage unavailable for namespace %s: %v\n", ns, err)
			continue
		}
		for _, rec := range records {
			if err := table.Row(reporter.UsageRow(rec)); err != nil {
				return table.RowCount, err
			}
		}
	}

	fmt.Println("[INFO] Usage data collection complete")
	return table.RowCount, table.Close()
}

// forEachIndex runs fn for every index with at most workers in flight.
func forEachIndex(workers, n int, fn func(int)) {
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}
