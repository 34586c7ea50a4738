package main

import (
	"log"

	"github.com/LJTian/StartupScanner/internal/aggregator"
	"github.com/LJTian/StartupScanner/internal/api"
	"github.com/LJTian/StartupScanner/internal/collector"
	"github.com/LJTian/StartupScanner/internal/config"
	"github.com/LJTian/StartupScanner/internal/scheduler"
	"github.com/LJTian/StartupScanner/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	pipeline, err := config.LoadPipeline(cfg.PipelineFile)
	if err != nil {
		log.Fatalf("load pipeline config failed: %v", err)
	}

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 首次启动时写入默认信号源与关键词，已存在的不覆盖
	for _, src := range pipeline.Sources {
		if err := store.EnsureSource(src); err != nil {
			log.Fatalf("ensure source %s failed: %v", src.Name, err)
		}
	}
	for _, kw := range pipeline.Keywords {
		if err := store.EnsureKeyword(kw); err != nil {
			log.Fatalf("ensure keyword %s failed: %v", kw.Term, err)
		}
	}

	loader, closeLoader := newLoader(cfg.DetailRenderer)
	defer closeLoader()

	orchestrator := aggregator.New(*pipeline, loader)
	s, err := scheduler.New(cfg.CronSpec, orchestrator, store)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	// API
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(store, s)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

// newLoader 按配置选择详情页加载方式
func newLoader(renderer string) (collector.PageLoader, func()) {
	if renderer == config.RendererBrowser {
		b := collector.NewBrowserLoader()
		log.Println("detail pages rendered with headless chrome")
		return b, b.Close
	}
	return collector.NewCollyLoader(), func() {}
}
