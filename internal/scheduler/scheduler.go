package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LJTian/StartupScanner/internal/aggregator"
	"github.com/LJTian/StartupScanner/internal/config"
	"github.com/robfig/cron/v3"
)

// ErrBusy 上一轮采集还没结束
var ErrBusy = errors.New("scheduler: a run is already in progress")

type Runner interface {
	Run(ctx context.Context, sources []config.Source, keywords []config.Keyword) (*aggregator.Dataset, error)
}

// Store 调度器需要的持久化能力
type Store interface {
	EnabledSources(ctx context.Context) ([]config.Source, error)
	EnabledKeywords(ctx context.Context) ([]config.Keyword, error)
	SaveStartups(ctx context.Context, entries []aggregator.EnrichedEntry) error
	SaveDigest(ctx context.Context, ds *aggregator.Dataset) error
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	store   Store
	running sync.Mutex
	startup *time.Timer

	// StartupDelay 启动后首轮采集的延迟，<= 0 表示不自动跑首轮
	StartupDelay time.Duration
}

func New(spec string, runner Runner, store Store) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:         c,
		runner:       runner,
		store:        store,
		StartupDelay: 15 * time.Second,
	}

	_, err := c.AddFunc(spec, s.runScheduled)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免和服务启动争抢资源
	if s.StartupDelay > 0 {
		s.startup = time.AfterFunc(s.StartupDelay, s.runScheduled)
	}
}

// Stop 停止调度并等待正在执行的任务结束，尚未触发的首轮采集一并取消
func (s *Scheduler) Stop() {
	if s.startup != nil {
		s.startup.Stop()
	}
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		log.Printf("collect job error: %v", err)
	}
}

// RunOnce 单次执行入口：读取启用的信号源与关键词，跑一轮采集并保存结果。
// 同一时间只允许一轮，重入直接返回 ErrBusy。
func (s *Scheduler) RunOnce(ctx context.Context) (*aggregator.Dataset, error) {
	if !s.running.TryLock() {
		return nil, ErrBusy
	}
	defer s.running.Unlock()

	log.Println("start collect job...")

	sources, err := s.store.EnabledSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load sources: %w", err)
	}
	keywords, err := s.store.EnabledKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load keywords: %w", err)
	}

	ds, err := s.runner.Run(ctx, sources, keywords)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveStartups(ctx, ds.Entries); err != nil {
		log.Printf("save startups error: %v", err)
	}
	if err := s.store.SaveDigest(ctx, ds); err != nil {
		log.Printf("save digest error: %v", err)
	}

	log.Printf("collect job done, run=%s startups=%d blog=%d fundraising=%d hiring=%d",
		ds.RunID, len(ds.Entries), len(ds.BlogPosts), len(ds.FundraisingNews), len(ds.HiringNews))
	return ds, nil
}
