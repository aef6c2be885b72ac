package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/msgcoach/internal/api"
	"github.com/diogo/msgcoach/internal/config"
	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/metrics"
	"github.com/diogo/msgcoach/internal/models"
	"github.com/diogo/msgcoach/internal/rewrite"
	"github.com/diogo/msgcoach/internal/session"
)

const templated = "**Rewritten Message:**\nWant to grab coffee this week?\n\n" +
	"**Original Tone:**\nshy\n\n" +
	"**Reason for Change:**\nIt makes a clear plan."

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type testEnv struct {
	ts      *httptest.Server
	gen     *api.MockClient
	session *session.Session
}

func newTestEnv(t *testing.T, cfg config.ServerConfig, responses ...api.MockResponse) *testEnv {
	t.Helper()
	gen := api.NewMockClient(responses...)
	sess := session.New(rewrite.NewInvoker(gen, rewrite.WithSleep(noSleep)))
	ts := httptest.NewServer(New(sess, cfg, WithAPIKeyConfigured(true)).Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, gen: gen, session: sess}
}

func defaultEnv(t *testing.T, responses ...api.MockResponse) *testEnv {
	return newTestEnv(t, config.DefaultServerConfig(), responses...)
}

func (e *testEnv) post(t *testing.T, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	resp, err := http.Post(e.ts.URL+"/api/rewrite", "application/json", &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestIndex(t *testing.T) {
	e := defaultEnv(t)

	resp := e.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Message Coach") {
		t.Error("index page should carry the title")
	}

	if resp := e.get(t, "/nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path: got %d, want 404", resp.StatusCode)
	}
}

func TestRewrite_FullFlow(t *testing.T) {
	e := defaultEnv(t, api.MockResponse{Text: templated})

	resp := e.post(t, map[string]any{
		"text": "hey wanna hang out sometime maybe if ur free lol",
		"tone": "friendly",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	got := decode[rewriteResponse](t, resp)
	if got.Rewritten != templated {
		t.Errorf("rewritten: %q", got.Rewritten)
	}
	if got.Sections == nil || got.Sections.RewrittenMessage != "Want to grab coffee this week?" {
		t.Errorf("sections: %+v", got.Sections)
	}
	if !strings.Contains(got.HTML, "<blockquote>") {
		t.Errorf("html should quote the rewrite: %q", got.HTML)
	}
	if got.Tone != models.ToneFriendly || got.Model != "gemini-2.5-flash" {
		t.Errorf("tone/model: %s/%s", got.Tone, got.Model)
	}
	if got.Attempts != 1 || got.Masked || len(got.Notices) != 0 || got.ID == "" {
		t.Errorf("unexpected response: %+v", got)
	}

	if e.session.History().Len() != 1 {
		t.Errorf("history len: %d", e.session.History().Len())
	}
	if e.session.Settings().Tone != models.ToneFriendly {
		t.Error("request settings should become current")
	}
}

func TestRewrite_PrivacyMasking(t *testing.T) {
	e := defaultEnv(t, api.MockResponse{Text: "ok"})

	got := decode[rewriteResponse](t, e.post(t, map[string]any{"text": "text me at 555-123-4567"}))

	if !got.Masked {
		t.Error("masked should be true")
	}
	if len(got.Notices) != 1 || got.Notices[0] != session.NoticeMasked {
		t.Errorf("notices: %v", got.Notices)
	}
	if strings.Contains(e.gen.LastPrompt(), "555-123-4567") {
		t.Error("phone number reached the model")
	}

	got = decode[rewriteResponse](t, e.post(t, map[string]any{"text": "text me at 555-123-4567", "privacy": false}))
	if got.Masked || !strings.Contains(e.gen.LastPrompt(), "555-123-4567") {
		t.Error("privacy false should send the text verbatim")
	}
}

func TestRewrite_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantError  string
	}{
		{"blank text", map[string]any{"text": "  \n"}, http.StatusBadRequest, "please enter a message"},
		{"missing text", map[string]any{}, http.StatusBadRequest, "please enter a message"},
		{"invalid json", "{not json", http.StatusBadRequest, "invalid JSON body"},
		{"unknown tone", map[string]any{"text": "hi", "tone": "grumpy"}, http.StatusBadRequest, "unknown tone"},
		{"unknown model", map[string]any{"text": "hi", "model": "gpt"}, http.StatusBadRequest, "unknown model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := defaultEnv(t)
			resp := e.post(t, tt.body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			got := decode[errorResponse](t, resp)
			if !strings.Contains(got.Error, tt.wantError) {
				t.Errorf("error: got %q, want it to contain %q", got.Error, tt.wantError)
			}
			if e.gen.Calls() != 0 {
				t.Error("no generation call expected")
			}
		})
	}
}

func TestRewrite_BlankIsWarningWithHint(t *testing.T) {
	e := defaultEnv(t)
	got := decode[errorResponse](t, e.post(t, map[string]any{"text": ""}))

	if !got.Warning {
		t.Error("blank input should be flagged as a warning")
	}
	if got.Hint != apierrors.Hint(apierrors.NewEmptyInputError()) {
		t.Errorf("hint: %q", got.Hint)
	}
}

func TestRewrite_BodyTooLarge(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.MaxBodyBytes = 32
	e := newTestEnv(t, cfg)

	resp := e.post(t, map[string]any{"text": strings.Repeat("a", 100)})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", resp.StatusCode)
	}
}

func TestRewrite_UpstreamFailure(t *testing.T) {
	e := defaultEnv(t, api.MockResponse{Err: apierrors.NewUsageLimitError("quota")})

	resp := e.post(t, map[string]any{"text": "hello"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", resp.StatusCode)
	}

	got := decode[errorResponse](t, resp)
	if got.Hint != apierrors.DefaultHint {
		t.Errorf("hint: %q", got.Hint)
	}
	if !strings.Contains(got.Error, "rewrite failed") {
		t.Errorf("error: %q", got.Error)
	}
	if e.gen.Calls() != 3 {
		t.Errorf("calls: got %d, want 3", e.gen.Calls())
	}
	if e.session.History().Len() != 0 {
		t.Error("failure should not add history")
	}
}

// stalledGenerator never answers; each call ends only when its context does
type stalledGenerator struct {
	calls atomic.Int32
}

func (g *stalledGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.calls.Add(1)
	<-ctx.Done()
	return "", ctx.Err()
}

func stalledServer(t *testing.T, policy rewrite.Policy, timeoutSeconds int) (*httptest.Server, *stalledGenerator) {
	t.Helper()
	gen := &stalledGenerator{}
	sess := session.New(rewrite.NewInvoker(gen, rewrite.WithPolicy(policy)))
	cfg := config.DefaultServerConfig()
	cfg.RequestTimeoutSeconds = timeoutSeconds
	ts := httptest.NewServer(New(sess, cfg).Handler())
	t.Cleanup(ts.Close)
	return ts, gen
}

func TestRewrite_StalledModelGetsEveryAttempt(t *testing.T) {
	policy := rewrite.Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, AttemptTimeout: 250 * time.Millisecond}
	require.Less(t, policy.Budget(), time.Second)
	ts, gen := stalledServer(t, policy, 1)

	resp, err := http.Post(ts.URL+"/api/rewrite", "application/json", strings.NewReader(`{"text":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode, "the chain should fail on its own, not hit the request timeout")
	assert.EqualValues(t, 3, gen.calls.Load())
}

func TestRewrite_RequestTimeoutShorterThanChain(t *testing.T) {
	policy := rewrite.Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, AttemptTimeout: 800 * time.Millisecond}
	ts, gen := stalledServer(t, policy, 1)

	resp, err := http.Post(ts.URL+"/api/rewrite", "application/json", strings.NewReader(`{"text":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Less(t, gen.calls.Load(), int32(3))
}

func TestDefaultRequestTimeoutFitsRetryChain(t *testing.T) {
	timeout := time.Duration(config.DefaultServerConfig().RequestTimeoutSeconds) * time.Second
	assert.Greater(t, timeout, rewrite.DefaultPolicy.Budget())
	assert.GreaterOrEqual(t, time.Duration(config.MinRequestTimeoutSeconds)*time.Second, rewrite.DefaultPolicy.Budget())
}

func TestRewrite_MethodNotAllowed(t *testing.T) {
	e := defaultEnv(t)
	if resp := e.get(t, "/api/rewrite"); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestHistory_ListClearExport(t *testing.T) {
	e := defaultEnv(t)
	e.post(t, map[string]any{"text": "first"})
	e.post(t, map[string]any{"text": "second"})

	h := decode[historyResponse](t, e.get(t, "/api/history"))
	if h.Count != 2 || h.Entries[0].Original != "second" {
		t.Errorf("history should be newest first: %+v", h)
	}

	resp := e.get(t, "/api/history/export?format=json")
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "msgcoach-history.json") {
		t.Errorf("content disposition: %q", cd)
	}

	resp = e.get(t, "/api/history/export")
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "# Message Coach History") {
		t.Errorf("default export should be markdown: %q", body)
	}

	if resp := e.get(t, "/api/history/export?format=pdf"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format: got %d, want 400", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, e.ts.URL+"/api/history", nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer del.Body.Close()
	if got := decode[map[string]int](t, del); got["cleared"] != 2 {
		t.Errorf("cleared: %v", got)
	}
	if e.session.History().Len() != 0 {
		t.Error("history should be empty")
	}
}

func TestHistory_SearchAndResolve(t *testing.T) {
	e := defaultEnv(t)
	e.post(t, map[string]any{"text": "coffee on friday?"})
	e.post(t, map[string]any{"text": "movie night"})

	sr := decode[searchResponse](t, e.get(t, "/api/history?q=COFFEE"))
	if sr.Count != 1 || sr.Matches[0].Entry.Original != "coffee on friday?" || sr.Matches[0].Field != "original" {
		t.Errorf("search: %+v", sr)
	}

	none := decode[searchResponse](t, e.get(t, "/api/history?q=zebra"))
	if none.Count != 0 || none.Matches == nil {
		t.Errorf("empty search should return an empty list: %+v", none)
	}

	last := decode[models.HistoryEntry](t, e.get(t, "/api/history/@last"))
	if last.Original != "movie night" {
		t.Errorf("@last: %+v", last)
	}
	second := decode[models.HistoryEntry](t, e.get(t, "/api/history/2"))
	if second.Original != "coffee on friday?" {
		t.Errorf("index 2: %+v", second)
	}
	byID := decode[models.HistoryEntry](t, e.get(t, "/api/history/"+last.ID))
	if byID.ID != last.ID {
		t.Errorf("by id: %+v", byID)
	}

	resp := e.get(t, "/api/history/9")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("out of range: got %d, want 404", resp.StatusCode)
	}
	if er := decode[errorResponse](t, resp); !strings.Contains(er.Hint, "@last") {
		t.Errorf("404 should list the supported references: %+v", er)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	e := defaultEnv(t)

	ms := decode[[]modelInfo](t, e.get(t, "/api/models"))
	if len(ms) != 2 || ms[0].ID != "gemini-2.5-flash" || !ms[0].Current || ms[1].Current {
		t.Errorf("models: %+v", ms)
	}

	tones := decode[map[string]any](t, e.get(t, "/api/tones"))
	if list, ok := tones["tones"].([]any); !ok || len(list) != len(models.AllTones()) {
		t.Errorf("tones: %v", tones)
	}
	if tones["current"] != "Confident" {
		t.Errorf("current tone: %v", tones["current"])
	}

	presets := decode[[]models.Preset](t, e.get(t, "/api/presets"))
	if len(presets) != 3 || presets[0].Name != "Casual Meetup" {
		t.Errorf("presets: %+v", presets)
	}

	st := decode[settingsResponse](t, e.get(t, "/api/settings"))
	if !st.Privacy || st.SystemPrompt != models.DefaultSystemPrompt {
		t.Errorf("settings: %+v", st)
	}

	health := decode[healthResponse](t, e.get(t, "/api/health"))
	if health.Status != "ok" || !health.APIKey {
		t.Errorf("health: %+v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := defaultEnv(t)
	counter := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/api/health", "200")
	before := testutil.ToFloat64(counter)

	e.get(t, "/api/health")

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("requests_total delta: got %v, want 1", got)
	}

	body, _ := io.ReadAll(e.get(t, "/metrics").Body)
	if !strings.Contains(string(body), "msgcoach_requests_total") {
		t.Error("metrics output should include msgcoach_requests_total")
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	sess := session.New(rewrite.NewInvoker(api.NewMockClient()))
	srv := New(sess, config.DefaultServerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	sess := session.New(rewrite.NewInvoker(api.NewMockClient()))
	srv := New(sess, config.ServerConfig{Addr: "256.0.0.1:bad"})

	err := srv.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to listen") {
		t.Errorf("expected listen error, got %v", err)
	}
}
