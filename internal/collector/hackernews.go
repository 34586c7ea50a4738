package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
)

const (
	hnSearchURL        = "https://hn.algolia.com/api/v1/search_by_date"
	hnItemURL          = "https://news.ycombinator.com/item?id="
	hnSourceName       = "Hacker News"
	hnHitsPerPage      = 20
	hnSearchWindow     = 7 * 24 * time.Hour
	hnMaxResponseBytes = 1 << 20 // 1MB
	hnClientTimeout    = 10 * time.Second
)

// DefaultSearchQueries 同一意图的几种问法，分别查询后按 URL 合并
var DefaultSearchQueries = []string{"AI startup", "fundraising AI", "seed round AI", "Series A AI"}

// SearchConfig 新闻搜索接口参数，零值字段使用默认值
type SearchConfig struct {
	Endpoint    string
	Queries     []string
	HitsPerPage int
	QueryDelay  time.Duration
	Client      *http.Client
	Now         func() time.Time
}

// SearchFetcher 通过 HN Algolia 按时间倒序搜索最近 7 天的 story
type SearchFetcher struct {
	cfg      SearchConfig
	keywords []string
}

type hnHit struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	StoryURL  string `json:"story_url"`
	ObjectID  string `json:"objectID"`
	CreatedAt string `json:"created_at"`
}

type hnSearchResp struct {
	Hits []hnHit `json:"hits"`
}

func NewSearchFetcher(cfg SearchConfig, keywords []string) *SearchFetcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = hnSearchURL
	}
	if len(cfg.Queries) == 0 {
		cfg.Queries = DefaultSearchQueries
	}
	if cfg.HitsPerPage <= 0 {
		cfg.HitsPerPage = hnHitsPerPage
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: hnClientTimeout}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SearchFetcher{cfg: cfg, keywords: append([]string(nil), keywords...)}
}

func (h *SearchFetcher) Name() string {
	return "hackernews_search"
}

// Fetch 单个 query 失败只记录日志并跳过，不影响其它 query
func (h *SearchFetcher) Fetch(ctx context.Context) ([]SignalItem, error) {
	log.Println("search Hacker News stories...")

	pacer := NewPacer(h.cfg.QueryDelay)
	seen := make(map[string]struct{})
	var items []SignalItem

	for _, q := range h.cfg.Queries {
		if err := pacer.Wait(ctx); err != nil {
			return items, nil
		}

		hits, err := h.search(ctx, q)
		if err != nil {
			log.Printf("hackernews: search %q: %v", q, err)
			continue
		}

		for _, hit := range hits {
			title := strings.TrimSpace(hit.Title)
			if !classify.MatchesKeywords(title, h.keywords) {
				continue
			}
			link := hitURL(hit)
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}

			items = append(items, SignalItem{
				Title:       title,
				URL:         link,
				Source:      hnSourceName,
				Summary:     title,
				PublishedAt: h.hitTime(hit),
				Category:    classify.Signal(title),
			})
		}
	}

	if len(items) == 0 {
		log.Println("hackernews: no items matched")
	}
	return items, nil
}

func (h *SearchFetcher) search(ctx context.Context, query string) ([]hnHit, error) {
	since := h.cfg.Now().Add(-hnSearchWindow).Unix()
	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("numericFilters", fmt.Sprintf("created_at_i>%d", since))
	params.Set("hitsPerPage", strconv.Itoa(h.cfg.HitsPerPage))
	target := h.cfg.Endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.cfg.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	var data hnSearchResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, hnMaxResponseBytes)).Decode(&data); err != nil {
		return nil, &ParseError{URL: target, Err: err}
	}
	return data.Hits, nil
}

func hitURL(hit hnHit) string {
	if hit.URL != "" {
		return hit.URL
	}
	if hit.StoryURL != "" {
		return hit.StoryURL
	}
	return hnItemURL + hit.ObjectID
}

func (h *SearchFetcher) hitTime(hit hnHit) time.Time {
	if t, err := time.Parse(time.RFC3339, hit.CreatedAt); err == nil {
		return t
	}
	return h.cfg.Now()
}
