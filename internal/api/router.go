package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/LJTian/StartupScanner/internal/aggregator"
	"github.com/LJTian/StartupScanner/internal/collector"
	"github.com/LJTian/StartupScanner/internal/scheduler"
	"github.com/LJTian/StartupScanner/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 抓取接口每组最多返回的条数
const (
	maxBlogPosts   = 30
	maxFundraising = 15
	maxHiring      = 15
	maxStartups    = 15
)

type DigestReader interface {
	LatestDigest(ctx context.Context) (*aggregator.Dataset, error)
}

type Trigger interface {
	RunOnce(ctx context.Context) (*aggregator.Dataset, error)
}

type Server struct {
	digests DigestReader
	trigger Trigger
}

func NewServer(digests DigestReader, trigger Trigger) *Server {
	return &Server{digests: digests, trigger: trigger}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/digest/latest", s.latestDigest)
		v1.POST("/scrape", s.scrape)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) latestDigest(c *gin.Context) {
	ds, err := s.digests.LatestDigest(c.Request.Context())
	if errors.Is(err, storage.ErrNoDigest) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "no digest yet",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    ds,
	})
}

type itemSummary struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

type founderSummary struct {
	Name       string `json:"name"`
	SocialLink string `json:"socialLink"`
}

type startupSummary struct {
	Name          string           `json:"name"`
	Stage         string           `json:"stage"`
	TeamSize      int              `json:"teamSize"`
	OneLiner      string           `json:"oneLiner"`
	Website       string           `json:"website"`
	Industry      string           `json:"industry"`
	OrgSocialLink string           `json:"orgSocialLink"`
	Founders      []founderSummary `json:"founders"`
}

// scrape 立即跑一轮采集，返回各组计数和截断后的列表
func (s *Server) scrape(c *gin.Context) {
	ds, err := s.trigger.RunOnce(c.Request.Context())
	if errors.Is(err, scheduler.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"runId":     ds.RunID,
		"scrapedAt": ds.GeneratedAt,
		"stats": gin.H{
			"blogPosts":   len(ds.BlogPosts),
			"fundraising": len(ds.FundraisingNews),
			"hiring":      len(ds.HiringNews),
			"startups":    len(ds.Entries),
		},
		"data": gin.H{
			"blogPosts":   summarizeItems(ds.BlogPosts, maxBlogPosts),
			"fundraising": summarizeItems(ds.FundraisingNews, maxFundraising),
			"hiring":      summarizeItems(ds.HiringNews, maxHiring),
			"startups":    summarizeStartups(ds.Entries, maxStartups),
		},
		"outcomes": ds.Outcomes,
	})
}

func summarizeItems(items []collector.SignalItem, limit int) []itemSummary {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]itemSummary, 0, len(items))
	for _, it := range items {
		out = append(out, itemSummary{Source: it.Source, Title: it.Title, Summary: it.Summary, URL: it.URL})
	}
	return out
}

func summarizeStartups(entries []aggregator.EnrichedEntry, limit int) []startupSummary {
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]startupSummary, 0, len(entries))
	for _, e := range entries {
		founders := make([]founderSummary, 0, len(e.Founders))
		for _, f := range e.Founders {
			founders = append(founders, founderSummary{Name: f.Name, SocialLink: f.SocialLink})
		}
		out = append(out, startupSummary{
			Name:          e.Name,
			Stage:         e.Stage,
			TeamSize:      e.TeamSize,
			OneLiner:      e.OneLiner,
			Website:       e.Website,
			Industry:      e.Industry,
			OrgSocialLink: e.OrgSocialLink,
			Founders:      founders,
		})
	}
	return out
}
