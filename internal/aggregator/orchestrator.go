package aggregator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
	"github.com/LJTian/StartupScanner/internal/collector"
	"github.com/LJTian/StartupScanner/internal/config"
	"github.com/LJTian/StartupScanner/internal/metrics"
	"github.com/LJTian/StartupScanner/internal/processor"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultEnrichLimit = 30
	defaultEntryDelay  = 300 * time.Millisecond
	defaultRetention   = 7 * 24 * time.Hour
)

// EntrySource 公司目录来源
type EntrySource interface {
	Fetch(ctx context.Context, filter collector.DirectoryFilter) ([]collector.DirectoryEntry, error)
}

// EnrichedEntry 目录条目加上详情页补全的信息，每次运行重新生成
type EnrichedEntry struct {
	collector.DirectoryEntry
	Founders      []collector.FounderDetail `json:"founders"`
	FundingSignal string                    `json:"fundingSignal"`
	OrgSocialLink string                    `json:"orgSocialLink"`
	Category      string                    `json:"category"`
}

// TaskOutcome 一个并发任务的结果，Err 为空表示成功
type TaskOutcome struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
	Err   string `json:"error,omitempty"`
}

// Dataset 一次运行的完整输出
type Dataset struct {
	RunID           string                 `json:"runId"`
	GeneratedAt     time.Time              `json:"generatedAt"`
	Entries         []EnrichedEntry        `json:"startups"`
	BlogPosts       []collector.SignalItem `json:"blogPosts"`
	FundraisingNews []collector.SignalItem `json:"fundraisingNews"`
	HiringNews      []collector.SignalItem `json:"hiringNews"`
	Outcomes        []TaskOutcome          `json:"outcomes"`
}

// FetcherFactory 为一个配置好的信号源和本轮关键词构造 fetcher
type FetcherFactory func(src config.Source, keywords []string) collector.Fetcher

// Orchestrator 一次采集运行：目录抓取与详情补全串行限速，其余信号源并发且互不影响。
type Orchestrator struct {
	Directory     EntrySource
	Extractor     collector.DetailExtractor
	Blogs         collector.Fetcher
	FeedFactory   FetcherFactory
	SearchFactory FetcherFactory

	Filter      collector.DirectoryFilter
	EnrichLimit int // <= 0 表示不限制
	EntryDelay  time.Duration
	Retention   time.Duration
	Now         func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) retention() time.Duration {
	if o.Retention > 0 {
		return o.Retention
	}
	return defaultRetention
}

// Run 目录失败会让整次运行失败；其它任务失败只记日志，贡献 0 条。
func (o *Orchestrator) Run(ctx context.Context, sources []config.Source, keywords []config.Keyword) (*Dataset, error) {
	start := time.Now()

	entries, err := o.enrichDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregator: directory: %w", err)
	}

	tasks := o.buildTasks(config.EnabledSources(sources), config.EnabledTerms(keywords))
	slots, outcomes := runTasks(ctx, tasks)

	now := o.now()
	merged := processor.Merge(slots, now, o.retention())
	buckets := processor.Bucket(merged)

	metrics.RecordRun(len(entries), time.Since(start))
	log.Printf("aggregator: %d startups, %d items (%d blog, %d fundraising, %d hiring)",
		len(entries), len(merged), len(buckets.Blog), len(buckets.Fundraising), len(buckets.Hiring))

	return &Dataset{
		RunID:           uuid.NewString(),
		GeneratedAt:     now,
		Entries:         entries,
		BlogPosts:       buckets.Blog,
		FundraisingNews: buckets.Fundraising,
		HiringNews:      buckets.Hiring,
		Outcomes:        outcomes,
	}, nil
}

// enrichDirectory 按批次从新到旧取前 EnrichLimit 个，逐个补全，中间留出间隔
func (o *Orchestrator) enrichDirectory(ctx context.Context) ([]EnrichedEntry, error) {
	out := make([]EnrichedEntry, 0)
	if o.Directory == nil {
		return out, nil
	}

	raw, err := o.Directory.Fetch(ctx, o.Filter)
	if err != nil {
		return nil, err
	}
	log.Printf("aggregator: %d directory entries after filters", len(raw))

	collector.SortByBatch(raw)
	if o.EnrichLimit > 0 && len(raw) > o.EnrichLimit {
		raw = raw[:o.EnrichLimit]
	}

	pacer := collector.NewPacer(o.EntryDelay)
	for _, e := range raw {
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		detail := collector.DetailResult{Founders: []collector.FounderDetail{}}
		if o.Extractor != nil {
			detail = o.Extractor.Extract(ctx, e.Slug)
		}
		founders := detail.Founders
		if founders == nil {
			founders = []collector.FounderDetail{}
		}

		out = append(out, EnrichedEntry{
			DirectoryEntry: e,
			Founders:       founders,
			FundingSignal:  detail.FundingSignal,
			OrgSocialLink:  detail.OrgSocialLink,
			Category:       classify.Taxonomy(append([]string{e.SubIndustry, e.Industry}, e.Tags...)...),
		})
	}
	return out, nil
}

func (o *Orchestrator) buildTasks(sources []config.Source, terms []string) []collector.Fetcher {
	var tasks []collector.Fetcher
	if o.Blogs != nil {
		tasks = append(tasks, o.Blogs)
	}
	for _, src := range sources {
		switch src.Kind {
		case config.KindRSS:
			if o.FeedFactory != nil {
				tasks = append(tasks, o.FeedFactory(src, terms))
			}
		case config.KindNewsSearch:
			if o.SearchFactory != nil {
				tasks = append(tasks, o.SearchFactory(src, terms))
			}
		}
	}
	return tasks
}

// runTasks 所有任务并发执行并全部等完。每个 goroutine 只写自己的槽位，
// 且从不返回错误，一个任务失败不会取消其它任务。
func runTasks(ctx context.Context, tasks []collector.Fetcher) ([][]collector.SignalItem, []TaskOutcome) {
	slots := make([][]collector.SignalItem, len(tasks))
	outcomes := make([]TaskOutcome, len(tasks))

	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			items, err := safeFetch(ctx, task)
			if err != nil {
				items = nil
			}
			outcomes[i] = TaskOutcome{Name: task.Name(), Items: len(items)}
			metrics.RecordTask(task.Name(), len(items), err)
			if err != nil {
				log.Printf("aggregator: task %s failed: %v", task.Name(), err)
				outcomes[i].Err = err.Error()
				return nil
			}
			slots[i] = items
			return nil
		})
	}
	_ = g.Wait()

	return slots, outcomes
}

func safeFetch(ctx context.Context, f collector.Fetcher) (items []collector.SignalItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return f.Fetch(ctx)
}
