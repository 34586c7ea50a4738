package collector

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly/v2"
)

const (
	pageRequestTimeout = 15 * time.Second
	browserPageTimeout = 20 * time.Second
)

// PageLoader 把一个详情页加载成可查询的文档
type PageLoader interface {
	Load(ctx context.Context, url string) (*goquery.Document, error)
}

// CollyLoader 用 colly 直接抓取 HTML，不执行脚本
type CollyLoader struct {
	Timeout time.Duration
}

func NewCollyLoader() *CollyLoader {
	return &CollyLoader{Timeout: pageRequestTimeout}
}

func (l *CollyLoader) Load(ctx context.Context, url string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	reqCtx := ctx
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	// 每次新建 collector，colly 默认不允许重复访问同一 URL
	c := colly.NewCollector(colly.UserAgent(browserAgent))
	// colly v2.1 的请求不带 context，这里在 transport 上挂上去，取消或超时时立即中断
	c.WithTransport(contextTransport{ctx: reqCtx, base: http.DefaultTransport})

	var (
		doc      *goquery.Document
		parseErr error
		status   int
	)
	c.OnResponse(func(r *colly.Response) {
		doc, parseErr = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		if status >= 300 {
			return nil, &FetchError{URL: url, StatusCode: status}
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	if parseErr != nil {
		return nil, &ParseError{URL: url, Err: parseErr}
	}
	if doc == nil {
		return nil, &ParseError{URL: url, Err: errors.New("empty response")}
	}
	return doc, nil
}

type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// BrowserLoader 用 headless Chrome 渲染页面后再取 HTML，适合需要执行脚本的详情页。
// 整个进程复用一个浏览器实例，用完调用 Close。
type BrowserLoader struct {
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	timeout       time.Duration
}

func NewBrowserLoader() *BrowserLoader {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(browserAgent))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	// 先在长生命周期的 context 上启动浏览器，否则首个请求的超时会连带关闭浏览器
	if err := chromedp.Run(browserCtx); err != nil {
		log.Printf("start headless chrome failed: %v", err)
	}
	return &BrowserLoader{
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		timeout:       browserPageTimeout,
	}
}

func (b *BrowserLoader) Load(ctx context.Context, url string) (*goquery.Document, error) {
	// 每个请求独立超时，同时跟随调用方的取消
	tctx, cancel := context.WithTimeout(b.browserCtx, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	return doc, nil
}

func (b *BrowserLoader) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}
