package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lwgate/internal/carousel"
	"github.com/roach88/lwgate/internal/config"
	"github.com/roach88/lwgate/internal/metrics"
	"github.com/roach88/lwgate/internal/testutil"
)

// Known-good pair: DeriveCode("100-200").
const (
	testMachineID = "100-200"
	testCode      = "013148-070273-74377"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Catalog.Source = filepath.Join("testdata", "macros.json")
	cfg.Links = []config.LinkConfig{
		{ID: "docs", Label: "使用文档", Href: "/docs/index.html"},
	}
	cfg.Carousel.Slides = []carousel.Slide{
		{Title: "Excel 自动化", Image: "img/1.png"},
		{Title: "Word 模板", Image: "img/2.png"},
	}
	return cfg
}

type testEnv struct {
	server  *Server
	metrics *metrics.Metrics
	http    *httptest.Server
	client  *http.Client
}

func newTestEnv(t *testing.T, stores SessionStores, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	if stores == nil {
		stores = NewMemorySessions()
	}

	m := metrics.NewRegistry(false)
	srv, err := New(cfg, stores,
		WithLogger(quietLogger),
		WithMetrics(m),
		WithSessionIDs(testutil.NewSequentialIDs("")),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	t.Cleanup(client.CloseIdleConnections)

	return &testEnv{server: srv, metrics: m, http: ts, client: client}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) get(t *testing.T, path string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.http.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return e.do(t, req)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.http.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}
