package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/config"
	"github.com/dd0wney/cluso-storymap/pkg/health"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/metrics"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chapterGraph = `{
	"nodes": [
		{"id": "Elinor", "type": "character"},
		{"id": "Marianne", "type": "character"},
		{"id": "Barton Cottage", "type": "location"}
	],
	"links": [
		{"source": "Elinor", "target": "Marianne", "relation": "sister_of"},
		{"source": {"id": "Marianne"}, "target": "Barton Cottage", "relation": "lives_in"},
		{"source": "Marianne", "target": "Willoughby", "relation": "admires"}
	]
}`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Workers = 2
	cfg.Server.MaxNodes = 50
	cfg.Server.FrameInterval = time.Millisecond
	cfg.Server.CORSOrigins = []string{"https://reader.example"}
	cfg.Layout.MaxTicks = 12
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	srv, err := NewServer(cfg, logging.NewNopLogger(), metrics.NewRegistry())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func layoutBody(graph string, width, height float64, seed *int64) string {
	body := map[string]any{
		"graph":  json.RawMessage(graph),
		"width":  width,
		"height": height,
	}
	if seed != nil {
		body["seed"] = *seed
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func assertInBounds(t *testing.T, doc visualization.Document, cfg visualization.LayoutConfig) {
	t.Helper()
	for _, n := range doc.Nodes {
		assert.GreaterOrEqual(t, n.X, cfg.MarginX, n.ID)
		assert.LessOrEqual(t, n.X, doc.Viewport.Width-cfg.MarginX, n.ID)
		assert.GreaterOrEqual(t, n.Y, cfg.MarginY, n.ID)
		assert.LessOrEqual(t, n.Y, doc.Viewport.Height-cfg.MarginY, n.ID)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[HealthResponse](t, resp)
	assert.NotEqual(t, string(health.StatusUnhealthy), body.Status)
	assert.Equal(t, Version, body.Version)
	assert.Equal(t, 2, body.Workers)
	assert.Zero(t, body.Streams)
	assert.Contains(t, body.Checks, "shutdown")
	assert.Contains(t, body.Checks, "workers")
	assert.Contains(t, body.Checks, "memory")
	assert.Equal(t, health.StatusHealthy, body.Checks["workers"].Status)

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestReadinessFollowsClose(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	handler := srv.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	srv.Close()

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var report health.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, health.StatusUnhealthy, report.Checks["shutdown"].Status)
	assert.Equal(t, health.StatusUnhealthy, report.Checks["workers"].Status)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/health", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLayout(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/layout", layoutBody(chapterGraph, 800, 600, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := decodeBody[visualization.Document](t, resp)
	assert.True(t, doc.Done)
	assert.Equal(t, 12, doc.Tick)
	assert.Equal(t, visualization.Viewport{Width: 800, Height: 600}, doc.Viewport)
	require.Len(t, doc.Nodes, 3)
	// the Willoughby link has no node to draw
	assert.Len(t, doc.Links, 2)
	assert.Equal(t, "character", doc.Nodes[0].Type)
	assertInBounds(t, doc, srv.layoutCfg)
}

func TestLayoutSeedIsReproducible(t *testing.T) {
	_, ts := newTestServer(t, nil)
	seed := int64(7)

	first := decodeBody[visualization.Document](t, postJSON(t, ts.URL+"/layout", layoutBody(chapterGraph, 800, 600, &seed)))
	second := decodeBody[visualization.Document](t, postJSON(t, ts.URL+"/layout", layoutBody(chapterGraph, 800, 600, &seed)))

	assert.Equal(t, first.Nodes, second.Nodes)
}

func TestLayoutEmptyGraph(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/layout", layoutBody(`{"nodes": [], "links": []}`, 800, 600, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := decodeBody[visualization.Document](t, resp)
	assert.Empty(t, doc.Nodes)
	assert.Empty(t, doc.Links)
	assert.Zero(t, doc.Tick)
	assert.True(t, doc.Done)
}

func TestLayoutZeroViewport(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/layout", layoutBody(chapterGraph, 0, 0, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := decodeBody[visualization.Document](t, resp)
	assert.Empty(t, doc.Nodes)
	assert.True(t, doc.Done)
}

func TestLayoutRejectsInvalidRequests(t *testing.T) {
	tooMany := make([]map[string]string, 51)
	for i := range tooMany {
		tooMany[i] = map[string]string{"id": strings.Repeat("n", i+1)}
	}
	tooManyJSON, _ := json.Marshal(map[string]any{"nodes": tooMany})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"graph":`, http.StatusBadRequest},
		{"empty node id", layoutBody(`{"nodes":[{"id":""}]}`, 800, 600, nil), http.StatusBadRequest},
		{"numeric link endpoint", layoutBody(`{"nodes":[{"id":"a"}],"links":[{"source":5,"target":"a"}]}`, 800, 600, nil), http.StatusBadRequest},
		{"negative width", layoutBody(chapterGraph, -1, 600, nil), http.StatusBadRequest},
		{"huge height", layoutBody(chapterGraph, 800, 1e6, nil), http.StatusBadRequest},
		{"too many nodes", layoutBody(string(tooManyJSON), 800, 600, nil), http.StatusBadRequest},
	}

	_, ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/layout", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)

			errResp := decodeBody[ErrorResponse](t, resp)
			assert.Equal(t, tt.want, errResp.Code)
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestLayoutMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/layout")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLayoutBodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := bytes.Repeat([]byte(" "), maxLayoutBody+1)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/layout", bytes.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestBatchLayout(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	seed := int64(3)

	body := `{"requests": [` +
		layoutBody(chapterGraph, 800, 600, &seed) + `,` +
		layoutBody(`{"nodes":[{"id":"solo"}]}`, 400, 300, nil) + `,` +
		layoutBody(`{"nodes":[]}`, 400, 300, nil) +
		`]}`

	resp := postJSON(t, ts.URL+"/layouts/batch", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	batch := decodeBody[BatchLayoutResponse](t, resp)
	require.Equal(t, 3, batch.Count)
	assert.Zero(t, batch.Failed)
	require.Len(t, batch.Results, 3)

	for i, want := range []int{3, 1, 0} {
		res := batch.Results[i]
		assert.Equal(t, i, res.Index)
		require.NotNil(t, res.Layout, "result %d", i)
		assert.Len(t, res.Layout.Nodes, want, "result %d", i)
		assertInBounds(t, *res.Layout, srv.layoutCfg)
	}
}

func TestBatchLayoutValidation(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/layouts/batch", `{"requests": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := `{"requests": [` +
		layoutBody(chapterGraph, 800, 600, nil) + `,` +
		layoutBody(chapterGraph, -5, 600, nil) +
		`]}`
	resp = postJSON(t, ts.URL+"/layouts/batch", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decodeBody[ErrorResponse](t, resp)
	assert.Contains(t, errResp.Message, "requests[1]")
}

func TestGraphQLLayout(t *testing.T) {
	_, ts := newTestServer(t, nil)

	query := map[string]any{
		"query": `{ layout(graph: {nodes: [{id: "Elinor", type: "character"}, {id: "Marianne"}], links: [{source: "Elinor", target: "Marianne"}]}, width: 800, height: 600, seed: 1) { tick done nodes { id x y } links { source target } } }`,
	}
	data, _ := json.Marshal(query)
	resp := postJSON(t, ts.URL+"/graphql", string(data))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data struct {
			Layout struct {
				Tick  int  `json:"tick"`
				Done  bool `json:"done"`
				Nodes []struct {
					ID string  `json:"id"`
					X  float64 `json:"x"`
				} `json:"nodes"`
				Links []struct {
					Source string `json:"source"`
				} `json:"links"`
			} `json:"layout"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Empty(t, out.Errors)
	assert.Equal(t, 12, out.Data.Layout.Tick)
	assert.True(t, out.Data.Layout.Done)
	assert.Len(t, out.Data.Layout.Nodes, 2)
	assert.Len(t, out.Data.Layout.Links, 1)
}

func TestGraphQLLayoutValidates(t *testing.T) {
	_, ts := newTestServer(t, nil)

	data, _ := json.Marshal(map[string]any{
		"query": `{ layout(graph: {nodes: [{id: "a"}]}, width: -10, height: 600) { tick } }`,
	})
	resp := postJSON(t, ts.URL+"/graphql", string(data))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "invalid request")
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	postJSON(t, ts.URL+"/layout", layoutBody(chapterGraph, 800, 600, nil))
	resp, err := http.Get(ts.URL + "/nowhere")
	require.NoError(t, err)
	resp.Body.Close()

	scrape := func() string {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			return ""
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}

	// request metrics are recorded after the response is flushed
	var text string
	require.Eventually(t, func() bool {
		text = scrape()
		return strings.Contains(text, `path="other"`)
	}, 2*time.Second, 10*time.Millisecond)

	assert.Contains(t, text, `storymap_http_requests_total{method="POST",path="/layout",status="200"} 1`)
	assert.NotContains(t, text, "/nowhere")
	assert.Contains(t, text, `storymap_layouts_total{status="ok",surface="http"} 1`)
	assert.Contains(t, text, `storymap_simulations_total{outcome="completed"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/layout", nil)
	req.Header.Set("Origin", "https://reader.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://reader.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouteLabel(t *testing.T) {
	for path, want := range map[string]string{
		"/layout":        "/layout",
		"/layouts/batch": "/layouts/batch",
		"/layout/":       "other",
		"/etc/passwd":    "other",
	} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		assert.Equal(t, want, routeLabel(r), path)
	}
}

func TestCheckOrigin(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for origin, want := range map[string]bool{
		"":                       true,
		"https://reader.example": true,
		"http://storymap.local":  true,
		"https://evil.example":   false,
	} {
		r := httptest.NewRequest(http.MethodGet, "http://storymap.local/layout/stream", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		assert.Equal(t, want, srv.checkOrigin(r), origin)
	}
}

func TestServerCloseIsIdempotent(t *testing.T) {
	srv, err := NewServer(testConfig(), nil, nil)
	require.NoError(t, err)
	srv.Close()
	srv.Close()

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/layout/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
