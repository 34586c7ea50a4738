package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// FetchTasksTotal 每个信号源任务的结束次数
	// Labels: task, status (success, failure)
	FetchTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_fetch_tasks_total",
			Help: "Total number of finished fetch tasks by task name and status",
		},
		[]string{"task", "status"},
	)

	// ItemsCollectedTotal 每个任务交给合并步骤的条目数（窗口裁剪之前）
	ItemsCollectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_items_collected_total",
			Help: "Total number of signal items returned by fetch tasks",
		},
		[]string{"task"},
	)

	DirectoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanner_directory_entries",
			Help: "Number of directory entries enriched in the last run",
		},
	)

	RunDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scanner_run_duration_seconds",
			Help:    "Duration of a full aggregation run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

// RecordTask 记录一个任务的结果；err 非空时计为失败
func RecordTask(task string, items int, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	FetchTasksTotal.WithLabelValues(task, status).Inc()
	ItemsCollectedTotal.WithLabelValues(task).Add(float64(items))
}

func RecordRun(entries int, elapsed time.Duration) {
	DirectoryEntries.Set(float64(entries))
	RunDurationSeconds.Observe(elapsed.Seconds())
}
