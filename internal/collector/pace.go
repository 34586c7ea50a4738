package collector

import (
	"time"

	"golang.org/x/time/rate"
)

// NewPacer 连续请求之间的礼貌间隔：首个请求立即放行，之后每 d 放行一个。
// d <= 0 时不限速（测试里用）。
func NewPacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}
