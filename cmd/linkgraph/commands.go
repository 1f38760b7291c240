package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agenthands/linkgraph/internal/app"
	"github.com/agenthands/linkgraph/internal/config"
	"github.com/agenthands/linkgraph/internal/core"
	"github.com/agenthands/linkgraph/internal/platform/logger"
	"github.com/agenthands/linkgraph/internal/server"
)

var (
	configPath string
	workers    int
	outDir     string
	topMissing int
	crawlFirst bool

	rootCmd = &cobra.Command{
		Use:           "linkgraph",
		Short:         "Crawl a MediaWiki site and build its redirect-aware link graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	crawlCmd = &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl and write the graph artifacts",
		RunE:  runCrawl,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph over HTTP and crawl on POST /crawl",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default $CONFIG_PATH or config/config.toml)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", -1, "concurrent API calls, overrides concurrency.workers")

	crawlCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for exported JSON, overrides export.dir")
	crawlCmd.Flags().IntVar(&topMissing, "top", 10, "number of most referenced missing pages to print")

	serveCmd.Flags().BoolVar(&crawlFirst, "crawl", false, "run a crawl before accepting requests")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if cmd.Flags().Changed("out") {
		cfg.Export.Dir = outDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.Pipeline.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd, res, topMissing)
	return nil
}

func printSummary(cmd *cobra.Command, res *core.Result, top int) {
	out := cmd.OutOrStdout()
	m := res.Enriched.Metadata
	fmt.Fprintf(out, "run %s\n", res.RunID)
	fmt.Fprintf(out, "  pages crawled:      %d\n", res.Crawl.Pages)
	fmt.Fprintf(out, "  nodes:              %d (%d existing, %d missing)\n", m.TotalNodes, m.ExistingNodes, m.MissingNodes)
	fmt.Fprintf(out, "  edges:              %d\n", m.TotalEdges)
	fmt.Fprintf(out, "  redirects resolved: %d\n", m.RedirectsResolved)
	fmt.Fprintf(out, "  uncrawled pages:    %d\n", len(res.Missing.Uncrawled))
	fmt.Fprintf(out, "  unknown existence:  %d\n", len(res.Missing.Unknown))
	if top <= 0 {
		return
	}
	entries := res.TopMissing(top)
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(out, "  most referenced missing pages:\n")
	for _, e := range entries {
		fmt.Fprintf(out, "    %3dx  %s\n", e.References, e.Title)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.NewServer(nil, log)
	a, err := app.New(ctx, cfg, log, srv)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	srv.Runner = a.Pipeline
	srv.BaseContext = ctx
	if a.Store != nil {
		srv.Pages = a.Store
	}

	if crawlFirst {
		if _, err := a.Pipeline.Run(ctx); err != nil {
			log.Error("initial crawl failed", "error", err)
		}
	}
	return server.ListenAndServe(ctx, srv.SetupRouter(), ":"+cfg.Server.Port, log)
}
