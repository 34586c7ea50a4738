package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/LJTian/StartupScanner/internal/aggregator"
	"github.com/LJTian/StartupScanner/internal/collector"
	"github.com/LJTian/StartupScanner/internal/config"
	"github.com/LJTian/StartupScanner/internal/scheduler"
	"github.com/LJTian/StartupScanner/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagStore  bool
	flagLimit  int
	flagOut    string
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
var rootCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the startup signal pipeline once",
	Long: "collect runs one aggregation pass over the company directory, configured feeds and news search, " +
		"then prints the resulting dataset as JSON.",
	SilenceUsage: true,
	RunE:         runCollect,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to pipeline YAML (defaults to $SCANNER_CONFIG or built-in defaults)")
	rootCmd.Flags().BoolVar(&flagStore, "store", false, "read sources/keywords from the database and persist results")
	rootCmd.Flags().IntVar(&flagLimit, "limit", -1, "max directory entries to enrich (default from config)")
	rootCmd.Flags().StringVar(&flagOut, "out", "", "write JSON to this file instead of stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	path := flagConfig
	if path == "" {
		path = cfg.PipelineFile
	}

	pipeline, err := config.LoadPipeline(path)
	if err != nil {
		return err
	}
	if flagLimit >= 0 {
		pipeline.EnrichLimit = flagLimit
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var loader collector.PageLoader = collector.NewCollyLoader()
	if cfg.DetailRenderer == config.RendererBrowser {
		b := collector.NewBrowserLoader()
		defer b.Close()
		loader = b
	}
	orchestrator := aggregator.New(*pipeline, loader)

	ds, err := collectOnce(ctx, cfg, pipeline, orchestrator)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", flagOut, err)
		}
		defer f.Close()
		w = f
	}
	return writeDataset(w, ds)
}

func collectOnce(ctx context.Context, cfg *config.Config, p *config.Pipeline, o *aggregator.Orchestrator) (*aggregator.Dataset, error) {
	if !flagStore {
		return o.Run(ctx, p.Sources, p.Keywords)
	}

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	// 确保默认信号源与关键词存在（与 cmd/api 保持一致）
	for _, src := range p.Sources {
		if err := store.EnsureSource(src); err != nil {
			return nil, fmt.Errorf("ensure source %s: %w", src.Name, err)
		}
	}
	for _, kw := range p.Keywords {
		if err := store.EnsureKeyword(kw); err != nil {
			return nil, fmt.Errorf("ensure keyword %s: %w", kw.Term, err)
		}
	}

	s, err := scheduler.New(cfg.CronSpec, o, store)
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	return s.RunOnce(ctx)
}

func writeDataset(w io.Writer, ds *aggregator.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	log.Printf("collect done: run=%s startups=%d blog=%d fundraising=%d hiring=%d",
		ds.RunID, len(ds.Entries), len(ds.BlogPosts), len(ds.FundraisingNews), len(ds.HiringNews))
	return nil
}
