package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opscart/k8s-resource-gather/pkg/collector"
	"github.com/opscart/k8s-resource-gather/pkg/config"
	"github.com/opscart/k8s-resource-gather/pkg/datasource"
	"github.com/opscart/k8s-resource-gather/pkg/describe"
	"github.com/opscart/k8s-resource-gather/pkg/gather"
	"github.com/opscart/k8s-resource-gather/pkg/kube"
	"github.com/opscart/k8s-resource-gather/pkg/reporter"
	"github.com/opscart/k8s-resource-gather/pkg/storage"
)

var (
	// Report selection flags
	gatherWorkloads bool
	gatherQuotas    bool
	gatherNodes     bool
	gatherVolumes   bool
	gatherUsage     bool

	// Run flags
	debug       bool
	kubeconfig  string
	outputDir   string
	workers     int
	saveResults bool
	clusterID   string

	// History command vars
	historyLimit int

	cfg *config.Config
)

func main() {
	cfg = config.NewConfig()

	var rootCmd = &cobra.Command{
		Use:   "resource-gather",
		Short: "Cluster resource accounting reports",
		Long:  `Snapshot workload requests/limits, quotas, limit ranges, node allocation, and persistent volume relations from a cluster into CSV report tables.`,
		Run:   runGather,
	}

	rootCmd.Flags().BoolVar(&gatherWorkloads, "workloads", false, "Gather deployment, deploymentconfig, and statefulset resource requests and limits")
	rootCmd.Flags().BoolVar(&gatherQuotas, "quotas-limits", false, "Gather resource quota and limit range details for each namespace")
	rootCmd.Flags().BoolVar(&gatherNodes, "nodes", false, "Gather CPU/memory requests/limits, pod count, and capacity for each node")
	rootCmd.Flags().BoolVar(&gatherVolumes, "volumes", false, "Gather persistent volume to claim to workload relations")
	rootCmd.Flags().BoolVar(&gatherUsage, "usage", false, "Gather instant per-container CPU/memory usage")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Echo every generated row to stdout during execution")
	rootCmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig (defaults to KUBECONFIG or ~/.kube/config)")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the timestamped run directory (default from OUTPUT_DIR)")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent entity fetches for node and volume reports (default from GATHER_WORKERS)")
	rootCmd.Flags().BoolVar(&saveResults, "save", false, "Save run summary to database")
	rootCmd.Flags().StringVar(&clusterID, "cluster-id", "default", "Cluster identifier")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View past runs",
		Run:   runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	historyCmd.Flags().StringVar(&clusterID, "cluster-id", "default", "Cluster identifier")

	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGather(cmd *cobra.Command, args []string) {
	opts := gather.Options{
		Workloads:    gatherWorkloads,
		QuotasLimits: gatherQuotas,
		Nodes:        gatherNodes,
		Volumes:      gatherVolumes,
		Usage:        gatherUsage,
		ClusterID:    clusterID,
		Workers:      cfg.Workers,
	}

	// No report requested is a usage error; nothing is created.
	if !opts.Any() {
		cmd.Usage()
		os.Exit(1)
	}

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if workers > 0 {
		cfg.Workers = workers
		opts.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client, err := kube.New(kubeconfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing cluster client: %v\n", err)
		os.Exit(1)
	}

	version, err := client.Clientset.Discovery().ServerVersion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to cluster: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[INFO] Connected to cluster (version: %s)\n", version.GitVersion)

	// The describe tool is only exercised by the nodes report, but a
	// missing tool must fail before any collection starts.
	var describer describe.Describer
	if opts.Nodes {
		d, err := describe.NewExecDescriber(cfg.DescribeTool)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		describer = d
	}

	var store storage.Store
	if saveResults {
		store, err = storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	var usageSource datasource.Source
	if opts.Usage {
		usageSource = pickUsageSource(ctx, client)
	}

	rep, err := reporter.New(cfg.OutputDir, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[INFO] Writing reports to %s\n", rep.Dir)

	g := gather.New(client, describer, rep, usageSource, store)
	if err := g.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("[INFO] Collection finished")
}

func runHistory(cmd *cobra.Command, args []string) {
	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), clusterID, historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Printf("No runs found for cluster: %s\n", clusterID)
		return
	}

	fmt.Printf("Recent runs for cluster '%s':\n\n", clusterID)
	for i, run := range runs {
		fmt.Printf("%d. %s\n", i+1, run.ID)
		fmt.Printf("   Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		if !run.FinishedAt.IsZero() {
			fmt.Printf("   Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("   Output: %s\n", run.OutputDir)
		fmt.Println()
	}
}

func pickUsageSource(ctx context.Context, client *kube.Client) datasource.Source {
	if cfg.PrometheusURL != "" {
		prom, err := datasource.NewPrometheusSource(cfg.PrometheusURL)
		if err != nil {
			fmt.Printf("[WARN] Prometheus initialization failed: %v\n", err)
		} else if prom.IsAvailable(ctx) {
			fmt.Printf("[INFO] Using Prometheus at %s\n", cfg.PrometheusURL)
			return prom
		} else {
			fmt.Println("[WARN] Prometheus not reachable, falling back to metrics-server")
		}
	}

	ms := collector.NewMetricsServerSource(client.Metrics)
	if ms.IsAvailable(ctx) {
		fmt.Println("[INFO] Using metrics-server for usage")
		return ms
	}

	fmt.Println("[WARN] Neither Prometheus nor metrics-server reachable")
	return nil
}
