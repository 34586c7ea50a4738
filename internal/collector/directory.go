package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"
)

const (
	directoryMaxResponseBytes = 10 << 20 // 10MB
	directoryClientTimeout    = 20 * time.Second
	directoryHitsPerPage      = 100
	directoryCompanyBaseURL   = "https://www.ycombinator.com/companies/"
	aiFacet                   = "tags:Artificial Intelligence"
)

// DirectoryEntry 公司目录中的一条记录，Slug 是不可变的身份键
type DirectoryEntry struct {
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Website         string   `json:"website"`
	DirectoryURL    string   `json:"directoryUrl"`
	BatchLabel      string   `json:"batch"`
	OneLiner        string   `json:"oneLiner"`
	LongDescription string   `json:"longDescription"`
	Industry        string   `json:"industry"`
	SubIndustry     string   `json:"subIndustry"`
	Tags            []string `json:"tags"`
	TeamSize        int      `json:"teamSize"`
	IsHiring        bool     `json:"isHiring"`
	Stage           string   `json:"stage"`
	Status          string   `json:"status"`
}

// DirectoryFilter 单次查询的过滤参数
type DirectoryFilter struct {
	AIOnly     bool
	HiringOnly bool
	PageSize   int
}

// DirectoryConfig 目录搜索索引（Algolia）的访问参数
type DirectoryConfig struct {
	Endpoint       string
	AppID          string
	APIKey         string
	CompanyBaseURL string
	PageDelay      time.Duration
	Client         *http.Client
}

type directoryQuery struct {
	Query        string     `json:"query"`
	FacetFilters [][]string `json:"facetFilters"`
	HitsPerPage  int        `json:"hitsPerPage"`
	Page         int        `json:"page"`
}

type directoryHit struct {
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Website         string   `json:"website"`
	Batch           string   `json:"batch"`
	OneLiner        string   `json:"one_liner"`
	LongDescription string   `json:"long_description"`
	Industry        string   `json:"industry"`
	SubIndustry     string   `json:"subindustry"`
	Tags            []string `json:"tags"`
	TeamSize        int      `json:"team_size"`
	IsHiring        bool     `json:"isHiring"`
	Stage           string   `json:"stage"`
	Status          string   `json:"status"`
}

type directoryResp struct {
	Hits    []directoryHit `json:"hits"`
	NbPages int            `json:"nbPages"`
	NbHits  int            `json:"nbHits"`
}

var (
	eligibleStages   = map[string]bool{"Early": true, "Seed": true, "Series A": true}
	excludedStatuses = map[string]bool{"Acquired": true, "Inactive": true}
)

// DirectoryFetcher 分页拉取公司目录。与其它 fetcher 不同，任何一页失败都会让整次拉取失败：
// 目录数据是本轮的基础，残缺的目录不可用。
type DirectoryFetcher struct {
	cfg DirectoryConfig
}

func NewDirectoryFetcher(cfg DirectoryConfig) *DirectoryFetcher {
	if cfg.CompanyBaseURL == "" {
		cfg.CompanyBaseURL = directoryCompanyBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: directoryClientTimeout}
	}
	return &DirectoryFetcher{cfg: cfg}
}

func (d *DirectoryFetcher) Fetch(ctx context.Context, filter DirectoryFilter) ([]DirectoryEntry, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = directoryHitsPerPage
	}
	facets := [][]string{}
	if filter.AIOnly {
		facets = append(facets, []string{aiFacet})
	}

	pacer := NewPacer(d.cfg.PageDelay)
	var entries []DirectoryEntry
	totalPages := 1

	for page := 0; page < totalPages; page++ {
		if err := pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("directory: page %d: %w", page, err)
		}

		resp, err := d.query(ctx, directoryQuery{
			Query:        "",
			FacetFilters: facets,
			HitsPerPage:  filter.PageSize,
			Page:         page,
		})
		if err != nil {
			return nil, fmt.Errorf("directory: page %d: %w", page, err)
		}
		if page == 0 {
			totalPages = resp.NbPages
			log.Printf("directory: %d hits across %d pages", resp.NbHits, resp.NbPages)
		}

		for _, hit := range resp.Hits {
			if !eligible(hit, filter) {
				continue
			}
			entries = append(entries, d.toEntry(hit))
		}
	}

	return entries, nil
}

func eligible(hit directoryHit, filter DirectoryFilter) bool {
	if !eligibleStages[hit.Stage] {
		return false
	}
	if excludedStatuses[hit.Status] {
		return false
	}
	if filter.HiringOnly && !hit.IsHiring {
		return false
	}
	return true
}

func (d *DirectoryFetcher) toEntry(hit directoryHit) DirectoryEntry {
	industry := hit.SubIndustry
	if industry == "" {
		industry = hit.Industry
	}
	if industry == "" {
		industry = "AI"
	}
	tags := hit.Tags
	if tags == nil {
		tags = []string{}
	}
	return DirectoryEntry{
		Name:            hit.Name,
		Slug:            hit.Slug,
		Website:         hit.Website,
		DirectoryURL:    d.cfg.CompanyBaseURL + hit.Slug,
		BatchLabel:      hit.Batch,
		OneLiner:        hit.OneLiner,
		LongDescription: hit.LongDescription,
		Industry:        industry,
		SubIndustry:     hit.SubIndustry,
		Tags:            tags,
		TeamSize:        hit.TeamSize,
		IsHiring:        hit.IsHiring,
		Stage:           hit.Stage,
		Status:          hit.Status,
	}
}

func (d *DirectoryFetcher) query(ctx context.Context, q directoryQuery) (*directoryResp, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: d.cfg.Endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Algolia-API-Key", d.cfg.APIKey)
	req.Header.Set("X-Algolia-Application-Id", d.cfg.AppID)

	resp, err := d.cfg.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: d.cfg.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: d.cfg.Endpoint, StatusCode: resp.StatusCode}
	}

	var data directoryResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, directoryMaxResponseBytes)).Decode(&data); err != nil {
		return nil, &ParseError{URL: d.cfg.Endpoint, Err: err}
	}
	return &data, nil
}

var batchPattern = regexp.MustCompile(`(Winter|Spring|Summer|Fall)\s+(\d+)`)

var seasonOrder = map[string]int{"Winter": 0, "Spring": 1, "Summer": 2, "Fall": 3}

// batchRank 把 "Summer 2024" 之类的批次换算成可排序的整数，无法识别时为 0
func batchRank(label string) int {
	m := batchPattern.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	return year*10 + seasonOrder[m[1]]
}

// SortByBatch 按批次从新到旧稳定排序，识别不了的批次排在最后
func SortByBatch(entries []DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return batchRank(entries[i].BatchLabel) > batchRank(entries[j].BatchLabel)
	})
}
