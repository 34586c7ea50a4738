package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LJTian/StartupScanner/internal/aggregator"
	"github.com/LJTian/StartupScanner/internal/collector"
	"github.com/LJTian/StartupScanner/internal/scheduler"
	"github.com/LJTian/StartupScanner/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDigests struct {
	ds  *aggregator.Dataset
	err error
}

func (f fakeDigests) LatestDigest(context.Context) (*aggregator.Dataset, error) {
	return f.ds, f.err
}

type fakeTrigger struct {
	ds  *aggregator.Dataset
	err error
}

func (f fakeTrigger) RunOnce(context.Context) (*aggregator.Dataset, error) {
	return f.ds, f.err
}

func newRouter(d DigestReader, t Trigger, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	NewServer(d, t).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := do(newRouter(fakeDigests{}, fakeTrigger{}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLatestDigest(t *testing.T) {
	ds := &aggregator.Dataset{RunID: "run-7"}
	w := do(newRouter(fakeDigests{ds: ds}, fakeTrigger{}), http.MethodGet, "/api/v1/digest/latest")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Code string             `json:"code"`
		Data aggregator.Dataset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Code)
	assert.Equal(t, "run-7", body.Data.RunID)

	w = do(newRouter(fakeDigests{err: storage.ErrNoDigest}, fakeTrigger{}), http.MethodGet, "/api/v1/digest/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(newRouter(fakeDigests{err: errors.New("db")}, fakeTrigger{}), http.MethodGet, "/api/v1/digest/latest")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestScrapeTruncatesBuckets(t *testing.T) {
	ds := &aggregator.Dataset{RunID: "run-1"}
	for i := 0; i < 40; i++ {
		ds.BlogPosts = append(ds.BlogPosts, collector.SignalItem{URL: fmt.Sprintf("https://blog/%d", i)})
		ds.HiringNews = append(ds.HiringNews, collector.SignalItem{URL: fmt.Sprintf("https://hire/%d", i)})
	}
	for i := 0; i < 20; i++ {
		ds.Entries = append(ds.Entries, aggregator.EnrichedEntry{
			DirectoryEntry: collector.DirectoryEntry{Name: fmt.Sprintf("co-%d", i)},
			Founders:       []collector.FounderDetail{{Name: "A", SocialLink: "https://linkedin.com/in/a"}},
		})
	}

	w := do(newRouter(fakeDigests{}, fakeTrigger{ds: ds}), http.MethodPost, "/api/v1/scrape")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool           `json:"success"`
		Stats   map[string]int `json:"stats"`
		Data    struct {
			BlogPosts   []itemSummary    `json:"blogPosts"`
			Fundraising []itemSummary    `json:"fundraising"`
			Hiring      []itemSummary    `json:"hiring"`
			Startups    []startupSummary `json:"startups"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 40, body.Stats["blogPosts"])
	assert.Equal(t, 20, body.Stats["startups"])
	assert.Len(t, body.Data.BlogPosts, 30)
	assert.Len(t, body.Data.Hiring, 15)
	assert.Empty(t, body.Data.Fundraising)
	require.Len(t, body.Data.Startups, 15)
	assert.Equal(t, "https://linkedin.com/in/a", body.Data.Startups[0].Founders[0].SocialLink)
}

func TestScrapeErrors(t *testing.T) {
	w := do(newRouter(fakeDigests{}, fakeTrigger{err: scheduler.ErrBusy}), http.MethodPost, "/api/v1/scrape")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(newRouter(fakeDigests{}, fakeTrigger{err: errors.New("directory: 500")}), http.MethodPost, "/api/v1/scrape")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "directory: 500")
}

func TestBasicAuth(t *testing.T) {
	r := newRouter(fakeDigests{ds: &aggregator.Dataset{}}, fakeTrigger{}, BasicAuth("user", "pass"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health").Code)

	w := do(r, http.MethodGet, "/api/v1/digest/latest")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/digest/latest", nil)
	req.SetBasicAuth("user", "pass")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := do(newRouter(fakeDigests{}, fakeTrigger{}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}
