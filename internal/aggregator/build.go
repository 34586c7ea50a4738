package aggregator

import (
	"net/http"

	"github.com/LJTian/StartupScanner/internal/collector"
	"github.com/LJTian/StartupScanner/internal/config"
)

// New 按流水线配置装配真实的目录、详情、博客与信号源实现
func New(p config.Pipeline, loader collector.PageLoader) *Orchestrator {
	var client *http.Client
	if p.FeedTimeout > 0 {
		client = &http.Client{Timeout: p.FeedTimeout}
	}

	enrichLimit := p.EnrichLimit
	if enrichLimit == 0 {
		enrichLimit = defaultEnrichLimit
	}
	entryDelay := p.EntryDelay
	if entryDelay == 0 {
		entryDelay = defaultEntryDelay
	}

	var blogOpts []collector.BlogOption
	if client != nil {
		blogOpts = append(blogOpts, collector.WithBlogHTTPClient(client))
	}
	blogOpts = append(blogOpts, collector.WithBlogRetention(p.Retention))

	return &Orchestrator{
		Directory: collector.NewDirectoryFetcher(collector.DirectoryConfig{
			Endpoint:       p.Directory.Endpoint,
			AppID:          p.Directory.AppID,
			APIKey:         p.Directory.APIKey,
			CompanyBaseURL: p.Directory.CompanyBaseURL,
			PageDelay:      p.Directory.PageDelay,
		}),
		Extractor: collector.NewPageExtractor(loader, p.Directory.CompanyBaseURL),
		Blogs:     collector.NewBlogFetcher(p.Blogs.Feeds, p.Blogs.Allowlist, blogOpts...),
		FeedFactory: func(src config.Source, keywords []string) collector.Fetcher {
			var opts []collector.FeedOption
			if client != nil {
				opts = append(opts, collector.WithHTTPClient(client))
			}
			return collector.NewFeedFetcher(src.URL, src.Name, keywords, opts...)
		},
		SearchFactory: func(src config.Source, keywords []string) collector.Fetcher {
			endpoint := src.URL
			if endpoint == "" {
				endpoint = p.Search.Endpoint
			}
			return collector.NewSearchFetcher(collector.SearchConfig{
				Endpoint:    endpoint,
				Queries:     p.Search.Queries,
				HitsPerPage: p.Search.HitsPerPage,
				QueryDelay:  p.Search.QueryDelay,
			}, keywords)
		},
		Filter: collector.DirectoryFilter{
			AIOnly:     p.Directory.AIOnly,
			HiringOnly: p.Directory.HiringOnly,
		},
		EnrichLimit: enrichLimit,
		EntryDelay:  entryDelay,
		Retention:   p.Retention,
		Now:         config.Now,
	}
}
