package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchFetcherMergesQueriesAndSkipsFailures(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	since := now.Add(-7 * 24 * time.Hour).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "story", q.Get("tags"))
		assert.Equal(t, "20", q.Get("hitsPerPage"))
		assert.Equal(t, "created_at_i>"+strconv.FormatInt(since, 10), q.Get("numericFilters"))

		switch q.Get("query") {
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "first":
			fmt.Fprint(w, `{"hits":[
				{"title":"Acme raises $5M seed round for AI agents","url":"https://acme.dev/news","objectID":"1","created_at":"2026-10-13T08:00:00Z"},
				{"title":"Unrelated cooking story","url":"https://food.example","objectID":"2","created_at":"2026-10-13T08:00:00Z"}
			]}`)
		case "second":
			fmt.Fprint(w, `{"hits":[
				{"title":"Acme raises $5M seed round for AI agents","url":"https://acme.dev/news","objectID":"3","created_at":"2026-10-13T09:00:00Z"},
				{"title":"Ask HN: AI startup hiring","url":"","story_url":"","objectID":"42","created_at":"bad date"}
			]}`)
		}
	}))
	defer srv.Close()

	f := NewSearchFetcher(SearchConfig{
		Endpoint: srv.URL,
		Queries:  []string{"first", "broken", "second"},
		Now:      func() time.Time { return now },
	}, []string{"AI"})

	items, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "https://acme.dev/news", items[0].URL)
	assert.Equal(t, classify.Fundraising, items[0].Category)
	assert.Equal(t, "Hacker News", items[0].Source)
	assert.Equal(t, items[0].Title, items[0].Summary)

	assert.Equal(t, "https://news.ycombinator.com/item?id=42", items[1].URL)
	assert.Equal(t, classify.Hiring, items[1].Category)
	assert.Equal(t, now, items[1].PublishedAt)
}

func TestHitURLFallsBackToStoryURL(t *testing.T) {
	got := hitURL(hnHit{StoryURL: "https://story.example", ObjectID: "9"})
	if got != "https://story.example" {
		t.Fatalf("hitURL = %q, want story_url", got)
	}
}
