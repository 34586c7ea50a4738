package collector

import (
	"errors"
	"fmt"
)

// ErrNoMatch 启发式规则没有找到任何内容。它不是失败，只在包内用于区分“没找到”和“出错”
var ErrNoMatch = errors.New("collector: no match")

// FetchError 网络错误或非 2xx 响应
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError 响应体无法解析（feed XML、JSON、HTML）
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
