package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmePage = `<!doctype html>
<html>
<head>
<meta name="description" content="Founded in 2021 by Alice Lee and Bob Kim, Acme has 10 employees based in San Francisco.">
</head>
<body>
<p>Acme raised $4.5M to build agent tooling.</p>
<a href="https://www.linkedin.com/company/acme">Acme</a>
<section>
<h2>Active Founders</h2>
<div>
<h3>Alice Lee</h3>
<p>Co-Founder &amp; CEO</p>
<p>Previously ML at BigCo.</p>
<a href="https://www.linkedin.com/in/alice"></a>
</div>
<div>
<h3>Bob Kim</h3>
<p>Founder</p>
<p>Built infra at X.</p>
<a href="https://www.linkedin.com/in/bob"></a>
</div>
</section>
<h2>Company Launches</h2>
</body>
</html>`

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestPageExtractorFullPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/companies/acme" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, acmePage)
	}))
	defer srv.Close()

	ex := NewPageExtractor(NewCollyLoader(), srv.URL+"/companies/")
	got := ex.Extract(context.Background(), "acme")

	want := []FounderDetail{
		{Name: "Alice Lee", Bio: "Previously ML at BigCo.", SocialLink: "https://www.linkedin.com/in/alice"},
		{Name: "Bob Kim", Bio: "Built infra at X.", SocialLink: "https://www.linkedin.com/in/bob"},
	}
	if diff := cmp.Diff(want, got.Founders); diff != "" {
		t.Fatalf("founders mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "raised $4.5M", got.FundingSignal)
	assert.Equal(t, "https://www.linkedin.com/company/acme", got.OrgSocialLink)
	assert.False(t, got.Empty())
}

func TestPageExtractorUnreachableOrMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	for _, base := range []string{"http://127.0.0.1:1/companies/", srv.URL + "/companies/"} {
		got := NewPageExtractor(NewCollyLoader(), base).Extract(context.Background(), "acme")
		assert.True(t, got.Empty(), base)
		assert.NotNil(t, got.Founders, base)
		assert.Empty(t, got.Founders, base)
	}
}

type stubLoader struct {
	doc *goquery.Document
	err error
}

func (s stubLoader) Load(context.Context, string) (*goquery.Document, error) {
	return s.doc, s.err
}

func TestExtractFounderNamesFromMeta(t *testing.T) {
	names, err := founderNames("Founded in 2021 by Alice Lee and Bob Kim, Acme has 10 employees")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"Alice Lee", "Bob Kim"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	names, err = founderNames("Founded in  by Ann, Ben, and Cat, Trio has 3 employees")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann", "Ben", "Cat"}, names)

	_, err = founderNames("A company that makes things")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestExtractWithoutFounderPatternKeepsOtherSignals(t *testing.T) {
	doc := docFrom(t, `<html><head><meta property="og:description" content="Acme builds robots"></head>
<body><p>We closed a $12M Series A last year.</p><a href="https://linkedin.com/company/acme">in</a></body></html>`)

	got := NewPageExtractor(stubLoader{doc: doc}, "https://example.com/").Extract(context.Background(), "acme")
	assert.Empty(t, got.Founders)
	assert.Equal(t, "$12M Series", got.FundingSignal)
	assert.Equal(t, "https://linkedin.com/company/acme", got.OrgSocialLink)
}

func TestExtractWithoutFoundersSectionLeavesBiosEmpty(t *testing.T) {
	doc := docFrom(t, `<html><head><meta name="description" content="Founded in 2020 by Dana Wu, Solo has 1 employee"></head>
<body><p>Nothing here</p></body></html>`)

	got := extractDetail(doc)
	require.Len(t, got.Founders, 1)
	assert.Equal(t, FounderDetail{Name: "Dana Wu"}, got.Founders[0])
	assert.Equal(t, "", got.FundingSignal)
}

func TestFounderBioCutsAtOtherFounderAndTruncates(t *testing.T) {
	names := []string{"Alice Lee", "Bob Kim"}

	bio := founderBio(" Alice Lee  Founder  does   things Bob Kim Founder other", "Alice Lee", names)
	assert.Equal(t, "does things", bio)

	long := "Alice Lee Founder " + strings.Repeat("x", 300)
	bio = founderBio(long, "Alice Lee", names)
	assert.Len(t, []rune(bio), bioMaxRunes)
	assert.True(t, strings.HasSuffix(bio, ellipsis))

	assert.Equal(t, "", founderBio("no names here", "Alice Lee", names))
}

func TestFundingSignalOrder(t *testing.T) {
	got, err := fundingSignal("They raised $3M after a $10M series round")
	require.NoError(t, err)
	assert.Equal(t, "raised $3M", got)

	_, err = fundingSignal("no money talk")
	assert.ErrorIs(t, err, ErrNoMatch)
}
