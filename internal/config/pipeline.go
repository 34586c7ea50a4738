package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/LJTian/StartupScanner/internal/collector"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// 信号源类型
const (
	KindRSS        = "rss"
	KindNewsSearch = "news-search"
	KindDirectory  = "directory"
)

// Source 一个外部信号源，由配置方维护，采集流程只读
type Source struct {
	Kind    string `yaml:"kind" json:"kind"`
	Name    string `yaml:"name" json:"name"`
	URL     string `yaml:"url" json:"url"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// Keyword 全局关键词，RSS 与新闻搜索都用它做相关性过滤
type Keyword struct {
	Term    string `yaml:"term" json:"term"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

type DirectorySettings struct {
	Endpoint       string        `yaml:"endpoint"`
	AppID          string        `yaml:"app_id"`
	APIKey         string        `yaml:"api_key"`
	CompanyBaseURL string        `yaml:"company_base_url"`
	PageDelay      time.Duration `yaml:"page_delay"`
	AIOnly         bool          `yaml:"ai_only"`
	HiringOnly     bool          `yaml:"hiring_only"`
}

type SearchSettings struct {
	Endpoint    string        `yaml:"endpoint"`
	Queries     []string      `yaml:"queries"`
	HitsPerPage int           `yaml:"hits_per_page"`
	QueryDelay  time.Duration `yaml:"query_delay"`
}

type BlogSettings struct {
	Feeds     []collector.BlogFeed `yaml:"feeds"`
	Allowlist []string             `yaml:"allowlist"`
}

// Pipeline 一次采集运行的全部静态参数
type Pipeline struct {
	Directory   DirectorySettings `yaml:"directory"`
	Search      SearchSettings    `yaml:"search"`
	Blogs       BlogSettings      `yaml:"blogs"`
	Sources     []Source          `yaml:"sources"`
	Keywords    []Keyword         `yaml:"keywords"`
	FeedTimeout time.Duration     `yaml:"feed_timeout"`
	Retention   time.Duration     `yaml:"retention"`
	EnrichLimit int               `yaml:"enrich_limit"`
	EntryDelay  time.Duration     `yaml:"entry_delay"`
}

func loadDefaults() (*Pipeline, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &p, nil
}

// LoadPipeline 读取内置默认配置，path 非空时用该文件覆盖（文件里出现的字段替换默认值）
func LoadPipeline(path string) (*Pipeline, error) {
	p, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validate(p *Pipeline) error {
	validKinds := map[string]bool{KindRSS: true, KindNewsSearch: true, KindDirectory: true}
	for i, s := range p.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if !validKinds[s.Kind] {
			return fmt.Errorf("source %q: unknown kind %q (valid: rss, news-search, directory)", s.Name, s.Kind)
		}
		if s.Kind == KindRSS {
			if err := checkURL(s.URL); err != nil {
				return fmt.Errorf("source %q: %w", s.Name, err)
			}
		}
	}
	for _, f := range p.Blogs.Feeds {
		if err := checkURL(f.URL); err != nil {
			return fmt.Errorf("blog feed %q: %w", f.Name, err)
		}
	}
	if p.EnrichLimit < 0 {
		return fmt.Errorf("enrich_limit must not be negative, got %d", p.EnrichLimit)
	}
	return nil
}

func checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

func EnabledSources(sources []Source) []Source {
	var out []Source
	for _, s := range sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// EnabledTerms 启用且非空的关键词
func EnabledTerms(keywords []Keyword) []string {
	var out []string
	for _, k := range keywords {
		term := strings.TrimSpace(k.Term)
		if k.Enabled && term != "" {
			out = append(out, term)
		}
	}
	return out
}
