package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const ellipsis = "…"

// StripMarkup 去掉 HTML 标签，只保留文本并压缩空白
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes 按 rune 截断到 limit 以内（含 marker），marker 为空时直接截断
func truncateRunes(s string, limit int, marker string) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	keep := limit - len([]rune(marker))
	if keep < 0 {
		keep = 0
	}
	return string(rs[:keep]) + marker
}
