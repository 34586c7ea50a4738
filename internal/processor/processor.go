package processor

import (
	"sort"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
	"github.com/LJTian/StartupScanner/internal/collector"
)

// Buckets 按分类拆分后的三组信号，每条信号最多落在一组里
type Buckets struct {
	Blog        []collector.SignalItem `json:"blogPosts"`
	Fundraising []collector.SignalItem `json:"fundraisingNews"`
	Hiring      []collector.SignalItem `json:"hiringNews"`
}

// InWindow 判断 t 是否落在 (now-retention, now] 里
func InWindow(t, now time.Time, retention time.Duration) bool {
	return collector.InWindow(t, now, retention)
}

// Merge 按槽位顺序拼接各任务结果，裁剪到保留窗口，再按发布时间倒序稳定排序。
// 不做跨源去重：不同来源报道同一链接时都保留。
func Merge(batches [][]collector.SignalItem, now time.Time, retention time.Duration) []collector.SignalItem {
	out := make([]collector.SignalItem, 0)
	for _, batch := range batches {
		for _, it := range batch {
			if !InWindow(it.PublishedAt, now, retention) {
				continue
			}
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// Bucket 按分类分组，保持输入顺序。trend 与 blogPost 都归入博客组，news 与 socialPost 不进任何组。
func Bucket(items []collector.SignalItem) Buckets {
	b := Buckets{
		Blog:        []collector.SignalItem{},
		Fundraising: []collector.SignalItem{},
		Hiring:      []collector.SignalItem{},
	}
	for _, it := range items {
		switch it.Category {
		case classify.BlogPost, classify.Trend:
			b.Blog = append(b.Blog, it)
		case classify.Fundraising:
			b.Fundraising = append(b.Fundraising, it)
		case classify.Hiring:
			b.Hiring = append(b.Hiring, it)
		}
	}
	return b
}
