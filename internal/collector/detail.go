package collector

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	bioWindowRunes = 500
	bioMaxRunes    = 150
)

// FounderDetail 从详情页提取出的创始人信息，Bio 和 SocialLink 可以为空
type FounderDetail struct {
	Name       string `json:"name"`
	Bio        string `json:"bio"`
	SocialLink string `json:"socialLink"`
}

// DetailResult 详情页提取结果。什么都没找到时是字段全空的合法值，不是错误。
type DetailResult struct {
	Founders      []FounderDetail `json:"founders"`
	FundingSignal string          `json:"fundingSignal"`
	OrgSocialLink string          `json:"orgSocialLink"`
}

// Empty 是否什么都没找到
func (r DetailResult) Empty() bool {
	return len(r.Founders) == 0 && r.FundingSignal == "" && r.OrgSocialLink == ""
}

func emptyDetail() DetailResult {
	return DetailResult{Founders: []FounderDetail{}}
}

// DetailExtractor 按 slug 补全公司详情。实现不返回错误，任何失败都得到空结果。
type DetailExtractor interface {
	Extract(ctx context.Context, slug string) DetailResult
}

var (
	founderPattern   = regexp.MustCompile(`Founded in\s+\d*\s*by (.+?),\s+\w+ has`)
	nameSplitPattern = regexp.MustCompile(`,\s+and\s+|\s+and\s+|,\s+`)
	sectionPattern   = regexp.MustCompile(`Active Founders([\s\S]*?)(?:Company Launches|Jobs at|News|$)`)
	rolePrefix       = regexp.MustCompile(`(?i)^(?:Co-)?Founder(?:\s*[&,]\s*\w+)*\s*`)
	fundingPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)raised\s+\$[\d.,]+[MmBbKk]?`),
		regexp.MustCompile(`(?i)\$[\d.,]+[MmBb]\s+(?:seed|series|round|funding|raised)`),
	}
)

// PageExtractor 基于公司详情页文字布局的启发式提取：
// meta 描述里的 "Founded in ... by ..." 给出创始人名单，正文 "Active Founders" 段落给出简介。
type PageExtractor struct {
	Loader  PageLoader
	BaseURL string
}

func NewPageExtractor(loader PageLoader, baseURL string) *PageExtractor {
	if loader == nil {
		loader = NewCollyLoader()
	}
	if baseURL == "" {
		baseURL = directoryCompanyBaseURL
	}
	return &PageExtractor{Loader: loader, BaseURL: baseURL}
}

func (p *PageExtractor) Extract(ctx context.Context, slug string) DetailResult {
	url := p.BaseURL + slug
	doc, err := p.Loader.Load(ctx, url)
	if err != nil {
		log.Printf("detail: %s: %v", slug, err)
		return emptyDetail()
	}
	return extractDetail(doc)
}

func extractDetail(doc *goquery.Document) DetailResult {
	res := emptyDetail()
	res.OrgSocialLink = orgLink(doc)

	meta := metaDescription(doc)
	body := doc.Find("body").Text()

	if signal, err := fundingSignal(meta + " " + body); err == nil {
		res.FundingSignal = signal
	}

	names, err := founderNames(meta)
	if err != nil {
		return res
	}

	links := founderLinks(doc, names)
	section, sectionErr := foundersSection(body)
	for _, name := range names {
		fd := FounderDetail{Name: name, SocialLink: links[name]}
		if sectionErr == nil {
			fd.Bio = founderBio(section, name, names)
		}
		res.Founders = append(res.Founders, fd)
	}
	return res
}

func metaDescription(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && v != "" {
		return v
	}
	v, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	return v
}

func founderNames(meta string) ([]string, error) {
	m := founderPattern.FindStringSubmatch(meta)
	if m == nil {
		return nil, ErrNoMatch
	}
	var names []string
	for _, n := range nameSplitPattern.Split(m[1], -1) {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoMatch
	}
	return names, nil
}

func foundersSection(body string) (string, error) {
	m := sectionPattern.FindStringSubmatch(body)
	if m == nil {
		return "", ErrNoMatch
	}
	return m[1], nil
}

// founderBio 取名字后面的一段文字，去掉职位前缀，并在下一个创始人名字处截断
func founderBio(section, name string, names []string) string {
	idx := strings.Index(section, name)
	if idx < 0 {
		return ""
	}
	window := truncateRunes(section[idx+len(name):], bioWindowRunes, "")
	bio := rolePrefix.ReplaceAllString(strings.TrimSpace(window), "")
	for _, other := range names {
		if other == name {
			continue
		}
		if oi := strings.Index(bio, other); oi > 0 {
			bio = bio[:oi]
		}
	}
	return truncateRunes(collapseSpace(bio), bioMaxRunes, ellipsis)
}

// founderLinks 每个创始人取第一个所在卡片文字包含其名字的个人主页链接
func founderLinks(doc *goquery.Document, names []string) map[string]string {
	links := make(map[string]string, len(names))
	doc.Find(`a[href*='linkedin.com/in/']`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		card := strings.TrimSpace(a.Closest("div, section, li").Text())
		for _, name := range names {
			if _, ok := links[name]; ok {
				continue
			}
			if strings.Contains(card, name) {
				links[name] = href
			}
		}
	})
	return links
}

func orgLink(doc *goquery.Document) string {
	href, _ := doc.Find(`a[href*='linkedin.com/company']`).First().Attr("href")
	return href
}

func fundingSignal(text string) (string, error) {
	for _, pat := range fundingPatterns {
		if m := pat.FindString(text); m != "" {
			return m, nil
		}
	}
	return "", ErrNoMatch
}
