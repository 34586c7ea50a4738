package collector

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
	"github.com/mmcdole/gofeed"
)

const (
	feedClientTimeout = 10 * time.Second
	feedMaxBodyBytes  = 5 << 20 // 5MB
)

// FeedFetcher 拉取并解析一个 RSS / Atom 订阅源，按相关性谓词过滤。
// 这里不做时间窗口过滤，由调用方决定（编排层统一按保留窗口裁剪）。
type FeedFetcher struct {
	url      string
	name     string
	client   *http.Client
	relevant func(text string) bool
	category func(text string) classify.Category
	now      func() time.Time
}

type FeedOption func(*FeedFetcher)

// WithHTTPClient 替换默认的 10s 超时客户端
func WithHTTPClient(c *http.Client) FeedOption {
	return func(f *FeedFetcher) { f.client = c }
}

// WithRelevance 替换默认的关键词相关性判断
func WithRelevance(fn func(text string) bool) FeedOption {
	return func(f *FeedFetcher) { f.relevant = fn }
}

// WithCategory 固定分类，不再走文本分类
func WithCategory(c classify.Category) FeedOption {
	return func(f *FeedFetcher) {
		f.category = func(string) classify.Category { return c }
	}
}

// WithClock 条目缺少日期时用它兜底
func WithClock(now func() time.Time) FeedOption {
	return func(f *FeedFetcher) { f.now = now }
}

func NewFeedFetcher(url, name string, keywords []string, opts ...FeedOption) *FeedFetcher {
	kws := append([]string(nil), keywords...)
	f := &FeedFetcher{
		url:    url,
		name:   name,
		client: &http.Client{Timeout: feedClientTimeout},
		relevant: func(text string) bool {
			return classify.MatchesKeywords(text, kws)
		},
		category: classify.Signal,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FeedFetcher) Name() string {
	return f.name
}

func (f *FeedFetcher) Fetch(ctx context.Context) ([]SignalItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: f.url, StatusCode: resp.StatusCode}
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, feedMaxBodyBytes))
	if err != nil {
		return nil, &ParseError{URL: f.url, Err: err}
	}

	return f.convert(feed.Items), nil
}

func (f *FeedFetcher) convert(entries []*gofeed.Item) []SignalItem {
	items := make([]SignalItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, it := range entries {
		title := strings.TrimSpace(it.Title)
		link := entryLink(it)

		// RSS 的 description 与 Atom 的 summary 都落在 Description，content 兜底
		body := it.Description
		if strings.TrimSpace(body) == "" {
			body = it.Content
		}
		plain := StripMarkup(body)

		text := title + " " + plain
		if !f.relevant(text) {
			continue
		}
		// 没有链接的条目无从去重，全部保留
		if link != "" {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
		}

		items = append(items, SignalItem{
			Title:       title,
			URL:         link,
			Source:      f.name,
			Summary:     truncateRunes(plain, summaryMaxRunes, ""),
			PublishedAt: f.entryTime(it),
			Category:    f.category(text),
		})
	}
	return items
}

func entryLink(it *gofeed.Item) string {
	if link := strings.TrimSpace(it.Link); link != "" {
		return link
	}
	for _, l := range it.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func (f *FeedFetcher) entryTime(it *gofeed.Item) time.Time {
	if it.PublishedParsed != nil {
		return *it.PublishedParsed
	}
	if it.UpdatedParsed != nil {
		return *it.UpdatedParsed
	}
	return f.now()
}
