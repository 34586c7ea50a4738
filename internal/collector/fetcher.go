package collector

import (
	"context"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
)

// SignalItem 各信号源采集后的统一结构；同一个 fetcher 的一批结果内非空 URL 不重复
type SignalItem struct {
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Source      string            `json:"sourceName"`
	Summary     string            `json:"summary"`
	PublishedAt time.Time         `json:"publishedAt"`
	Category    classify.Category `json:"category"`
}

// Fetcher 抽象每一个信号源：订阅源、新闻搜索、精选博客都实现它，编排层统一并发调度
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]SignalItem, error)
}

const (
	userAgent       = "Mozilla/5.0 (compatible; StartupScanner/1.0)"
	browserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	summaryMaxRunes = 300
)

// InWindow 判断 t 是否落在 (now-retention, now] 里，未来时间不算
func InWindow(t, now time.Time, retention time.Duration) bool {
	return t.After(now.Add(-retention)) && !t.After(now)
}
