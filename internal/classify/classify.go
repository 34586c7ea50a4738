package classify

import (
	"regexp"
	"strings"
)

// Category 条目内容分类，取值与下游 digest 组装方约定一致
type Category string

const (
	Fundraising Category = "fundraising"
	Hiring      Category = "hiring"
	Trend       Category = "trend"
	News        Category = "news"
	BlogPost    Category = "blogPost"
	SocialPost  Category = "socialPost"
)

// FallbackLabel Taxonomy 无任何命中时的兜底行业标签
const FallbackLabel = "Other AI"

// SignalRule 一条有序的文本匹配规则，命中即返回对应分类
type SignalRule struct {
	Pattern  *regexp.Regexp
	Category Category
}

// SignalRules 自上而下依次匹配：融资 > 招聘 > 趋势。
// 同一段文字同时包含多类词汇时以靠前的规则为准，下游各桶的数量依赖这个顺序，不要调整。
var SignalRules = []SignalRule{
	{
		Pattern:  regexp.MustCompile(`(?i)fundrais|series [a-d]|seed round|raises? \$|funding|valuation|investment round|pre-seed`),
		Category: Fundraising,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)hiring|product manager|PM role|job opening|recruit|talent`),
		Category: Hiring,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)AI trend|artificial intelligence|machine learning|LLM|generative AI|foundation model`),
		Category: Trend,
	},
}

// Signal 按 SignalRules 顺序给一段文本分类，均未命中时返回 News
func Signal(text string) Category {
	for _, r := range SignalRules {
		if r.Pattern.MatchString(text) {
			return r.Category
		}
	}
	return News
}

// TaxonomyRule 行业子串 -> 展示用行业标签
type TaxonomyRule struct {
	Key   string
	Label string
}

// TaxonomyRules 顺序即优先级
var TaxonomyRules = []TaxonomyRule{
	{"Developer Tools", "Developer Tools & Infra"},
	{"Infrastructure", "Developer Tools & Infra"},
	{"Fintech", "Fintech"},
	{"Consumer Finance", "Fintech"},
	{"Healthcare", "Health Tech"},
	{"Health Tech", "Health Tech"},
	{"Supply Chain and Logistics", "Supply Chain & Logistics"},
	{"Logistics", "Supply Chain & Logistics"},
	{"SaaS", "SaaS & Enterprise"},
	{"Enterprise Software", "SaaS & Enterprise"},
	{"Enterprise", "SaaS & Enterprise"},
	{"Sales", "SaaS & Enterprise"},
	{"Real Estate and Construction", "Construction & Real Estate"},
	{"Construction", "Construction & Real Estate"},
	{"Education", "Education"},
	{"Marketing", "Marketing & Growth"},
	{"Advertising", "Marketing & Growth"},
	{"Gaming", "Consumer & Gaming"},
	{"Consumer", "Consumer & Gaming"},
}

// Taxonomy 依次检查每个字段，字段内按表顺序找第一个被包含的 key。
// 先字段后表项：第一个能命中的字段决定结果，而不是全局最优匹配。
func Taxonomy(fields ...string) string {
	for _, field := range fields {
		if field == "" {
			continue
		}
		for _, r := range TaxonomyRules {
			if strings.Contains(field, r.Key) {
				return r.Label
			}
		}
	}
	return FallbackLabel
}

// MatchesKeywords 不区分大小写的子串匹配，任一关键词命中即可；空白关键词忽略
func MatchesKeywords(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
