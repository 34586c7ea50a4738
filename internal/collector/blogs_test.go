package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LJTian/StartupScanner/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogFetcherWindowSortAndFailures(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	a := serveXML(t, rssFeed(
		rssItem("Scaling LLM inference", "https://a.example/1", "notes", now.Add(-3*24*time.Hour)),
		rssItem("Ancient LLM post", "https://a.example/2", "notes", now.Add(-30*24*time.Hour)),
		rssItem("My garden", "https://a.example/3", "roses", now.Add(-time.Hour)),
	))
	b := serveXML(t, rssFeed(
		rssItem("Agents in production", "https://b.example/1", "about AI agent loops", now.Add(-time.Hour)),
	))
	down := httptest.NewServer(http.NotFoundHandler())
	defer down.Close()

	f := NewBlogFetcher(
		[]BlogFeed{{Name: "A", URL: a.URL}, {Name: "Down", URL: down.URL}, {Name: "B", URL: b.URL}},
		[]string{"LLM", "AI agent"},
		WithBlogClock(func() time.Time { return now }),
	)

	items, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://b.example/1", items[0].URL)
	assert.Equal(t, "https://a.example/1", items[1].URL)
	for _, it := range items {
		assert.Equal(t, classify.BlogPost, it.Category)
	}
	assert.Equal(t, "B", items[0].Source)
}

func TestBlogFetcherDropsFutureAndCutoffItems(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	srv := serveXML(t, rssFeed(
		rssItem("AI future", "https://a.example/future", "notes", now.Add(48*time.Hour)),
		rssItem("AI edge", "https://a.example/edge", "notes", now.Add(-7*24*time.Hour)),
		rssItem("AI inside", "https://a.example/inside", "notes", now.Add(-7*24*time.Hour+time.Second)),
		rssItem("AI now", "https://a.example/now", "notes", now),
	))

	f := NewBlogFetcher(
		[]BlogFeed{{Name: "A", URL: srv.URL}},
		[]string{"AI"},
		WithBlogClock(func() time.Time { return now }),
	)

	items, err := f.Fetch(context.Background())
	require.NoError(t, err)
	var urls []string
	for _, it := range items {
		urls = append(urls, it.URL)
	}
	assert.Equal(t, []string{"https://a.example/now", "https://a.example/inside"}, urls)
}
