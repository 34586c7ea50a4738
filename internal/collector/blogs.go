package collector

import (
	"context"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
	"golang.org/x/sync/errgroup"
)

const blogRetention = 7 * 24 * time.Hour

// BlogFeed 一个精选博客订阅源
type BlogFeed struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// BlogFetcher 精选博客：固定订阅源 + 内置关键词白名单。
// 它总是单独运行，没有调用方传入的时间窗口，所以自己做 7 天过滤和倒序排序。
type BlogFetcher struct {
	feeds     []BlogFeed
	allowlist []string
	client    *http.Client
	retention time.Duration
	now       func() time.Time
}

type BlogOption func(*BlogFetcher)

func WithBlogHTTPClient(c *http.Client) BlogOption {
	return func(b *BlogFetcher) { b.client = c }
}

func WithBlogClock(now func() time.Time) BlogOption {
	return func(b *BlogFetcher) { b.now = now }
}

func WithBlogRetention(d time.Duration) BlogOption {
	return func(b *BlogFetcher) {
		if d > 0 {
			b.retention = d
		}
	}
}

func NewBlogFetcher(feeds []BlogFeed, allowlist []string, opts ...BlogOption) *BlogFetcher {
	b := &BlogFetcher{
		feeds:     append([]BlogFeed(nil), feeds...),
		allowlist: append([]string(nil), allowlist...),
		client:    &http.Client{Timeout: feedClientTimeout},
		retention: blogRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BlogFetcher) Name() string {
	return "curated_blogs"
}

func (b *BlogFetcher) Fetch(ctx context.Context) ([]SignalItem, error) {
	log.Printf("fetch %d curated blog feeds...", len(b.feeds))

	// 每个订阅源写自己的槽位，Wait 之后再统一合并
	slots := make([][]SignalItem, len(b.feeds))
	var g errgroup.Group

	for i, feed := range b.feeds {
		g.Go(func() error {
			f := NewFeedFetcher(feed.URL, feed.Name, nil,
				WithHTTPClient(b.client),
				WithRelevance(func(text string) bool {
					return classify.MatchesKeywords(text, b.allowlist)
				}),
				WithCategory(classify.BlogPost),
				WithClock(b.now),
			)
			items, err := f.Fetch(ctx)
			if err != nil {
				log.Printf("blogs: %s: %v", feed.Name, err)
				return nil
			}
			slots[i] = items
			return nil
		})
	}
	_ = g.Wait()

	now := b.now()
	var out []SignalItem
	for _, items := range slots {
		for _, it := range items {
			if !InWindow(it.PublishedAt, now, b.retention) {
				continue
			}
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}
