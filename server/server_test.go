package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/teahouse/agents"
	"github.com/mrsingh-rishi/teahouse/candidates"
	"github.com/mrsingh-rishi/teahouse/config"
	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/llm"
	"github.com/mrsingh-rishi/teahouse/metrics"
	"github.com/mrsingh-rishi/teahouse/mocks"
	"github.com/mrsingh-rishi/teahouse/social"
)

type harness struct {
	srv       *Server
	gen       *mocks.MockGenerator
	messenger *mocks.MockMessenger
	metrics   *metrics.Metrics
}

func newHarness(t *testing.T, upstream http.HandlerFunc) *harness {
	t.Helper()
	return newHarnessWithConfig(t, config.Default(), upstream)
}

func newHarnessWithConfig(t *testing.T, cfg *config.Config, upstream http.HandlerFunc) *harness {
	t.Helper()
	if upstream == nil {
		upstream = func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }
	}
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	ctrl := gomock.NewController(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	h := &harness{
		gen:       mocks.NewMockGenerator(ctrl),
		messenger: mocks.NewMockMessenger(ctrl),
		metrics:   metrics.NewMetrics(reg),
	}

	srv, err := New(Options{
		Config:     cfg,
		Candidates: candidates.NewClient(candidates.WithBaseURL(api.URL), candidates.WithLogger(logger)),
		Generator:  h.gen,
		Feed:       social.NewFeed(nil),
		Referrals:  social.NewReferrals(h.messenger),
		Agents:     agents.NewSystemManager(h.gen, 0, logger),
		Dialer:     live.NewGeminiDialer(logger),
		Metrics:    h.metrics,
		Gatherer:   reg,
		Logger:     logger,
	})
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC) }
	h.srv = srv
	return h
}

func (h *harness) do(t *testing.T, method, target, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func upstreamJSON(routes map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if code, ok := v.(int); ok {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealthIsCounted(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["teahouseAvailable"])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.HTTPRequests.WithLabelValues("GET", "/health", "200")))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodGet, "/health", "")

	resp := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "diwan_http_requests_total")
}

func TestCustomMetricsPathIsServed(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Path = "/internal/metrics"
	h := newHarnessWithConfig(t, cfg, nil)
	h.do(t, http.MethodGet, "/health", "")

	resp := h.do(t, http.MethodGet, "/internal/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "diwan_http_requests_total")
}

func TestRootRedirectsToNegotiatedLocale(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr;q=0.9, en;q=0.8")
	resp, err := h.srv.App().Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/en", resp.Header.Get("Location"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestPageShell(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodGet, "/ku/tea-house", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "ku", body["locale"])
	assert.Equal(t, "rtl", body["dir"])
	assert.Equal(t, "/tea-house", body["path"])
	assert.Equal(t, false, body["teahouseAvailable"])
}

func TestUnknownAPIRouteIsNotFound(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListCandidatesForwardsFilters(t *testing.T) {
	var query string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidates.Page{
			Data:  []candidates.Candidate{{ID: "c1", Name: "Ali"}},
			Total: 45, Page: 2, Limit: 20,
		})
	})

	resp := h.do(t, http.MethodGet, "/api/candidates?governorate=basra&page=2&limit=20", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data       []candidates.Candidate `json:"data"`
		TotalPages int                    `json:"totalPages"`
	}
	decode(t, resp, &body)
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.TotalPages)
	assert.Contains(t, query, "governorate=basra")
	assert.Contains(t, query, "page=2")
}

func TestCandidateErrors(t *testing.T) {
	h := newHarness(t, upstreamJSON(map[string]any{
		"/api/candidates/broken": http.StatusInternalServerError,
	}))

	resp := h.do(t, http.MethodGet, "/api/candidates/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/api/candidates/broken", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.UpstreamErrors.WithLabelValues("candidates")))
}

func TestSearchRequiresQuery(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(t, http.MethodGet, "/api/candidates/search", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsFallback(t *testing.T) {
	h := newHarness(t, upstreamJSON(map[string]any{"/api/stats": http.StatusServiceUnavailable}))

	resp := h.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats candidates.Stats
	decode(t, resp, &stats)
	assert.Zero(t, stats.TotalCandidates)
	assert.NotEmpty(t, stats.LastUpdated)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StatsFallbacks))
}

func TestReferenceLists(t *testing.T) {
	h := newHarness(t, upstreamJSON(map[string]any{
		"/api/provinces": []string{"Baghdad", "Basra"},
		"/api/parties":   []candidates.Party{{ID: "p1", Name: "Unity"}},
	}))

	var provinces []string
	decode(t, h.do(t, http.MethodGet, "/api/provinces", ""), &provinces)
	assert.Equal(t, []string{"Baghdad", "Basra"}, provinces)

	var parties []candidates.Party
	decode(t, h.do(t, http.MethodGet, "/api/parties", ""), &parties)
	require.Len(t, parties, 1)
	assert.Equal(t, "Unity", parties[0].Name)

	resp := h.do(t, http.MethodGet, "/api/governorates", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAndListPosts(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodPost, "/api/feed", `{"author":{"name":"Zainab"},"content":"  Chai at the Mutanabbi street cafe  "}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created social.Post
	decode(t, resp, &created)
	assert.Equal(t, "Chai at the Mutanabbi street cafe", created.Content)

	var posts []struct {
		social.Post
		Posted string `json:"posted"`
	}
	decode(t, h.do(t, http.MethodGet, "/api/feed", ""), &posts)
	require.Len(t, posts, 3)
	assert.Equal(t, created.ID, posts[0].ID)
	assert.NotEmpty(t, posts[1].Posted)

	resp = h.do(t, http.MethodPost, "/api/feed", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToggleLike(t *testing.T) {
	h := newHarness(t, nil)

	var res social.LikeResult
	decode(t, h.do(t, http.MethodPost, "/api/feed/post-1/like", `{"userId":"u1"}`), &res)
	assert.True(t, res.Liked)
	assert.Equal(t, 1201, res.Likes)

	resp := h.do(t, http.MethodPost, "/api/feed/post-9/like", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/feed/post-1/like", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGeneratePost(t *testing.T) {
	h := newHarness(t, nil)
	gomock.InOrder(
		h.gen.EXPECT().GenerateSocialPost(gomock.Any()).Return("Tea and patience fix everything.", nil),
		h.gen.EXPECT().GenerateSocialPost(gomock.Any()).Return(llm.FailureMessage, errors.New("quota")),
	)

	var body map[string]string
	decode(t, h.do(t, http.MethodPost, "/api/feed/generate", ""), &body)
	assert.Equal(t, "Tea and patience fix everything.", body["content"])

	resp := h.do(t, http.MethodPost, "/api/feed/generate", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, llm.FailureMessage, body["content"])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.UpstreamErrors.WithLabelValues("llm")))
}

func TestEvaluateBadges(t *testing.T) {
	h := newHarness(t, nil)

	var badges []social.BadgeStatus
	decode(t, h.do(t, http.MethodPost, "/api/badges/evaluate", `{"votes":1,"posts":2,"followers":150}`), &badges)
	require.Len(t, badges, 3)
	assert.True(t, badges[0].Unlocked)
	assert.False(t, badges[1].Unlocked)
	assert.True(t, badges[2].Unlocked)
}

func TestReferrals(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodPost, "/api/referrals", `{"origin":"https://diwan.iq"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ref map[string]string
	decode(t, resp, &ref)
	assert.True(t, strings.HasPrefix(ref["code"], "user_"))
	assert.Equal(t, "https://diwan.iq?ref="+ref["code"], ref["url"])

	h.messenger.EXPECT().
		Send(gomock.Any(), "+9647701234567", gomock.Any()).
		Return("SM123", nil)
	var sent map[string]string
	decode(t, h.do(t, http.MethodPost, "/api/referrals/invite", `{"phone":"+9647701234567","url":"`+ref["url"]+`"}`), &sent)
	assert.Equal(t, "SM123", sent["sid"])

	resp = h.do(t, http.MethodPost, "/api/referrals/invite", `{"phone":"0770","url":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCampaignLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	h.gen.EXPECT().GenerateSocialPost(gomock.Any()).Return("post", nil).Times(2)

	var run struct {
		Generated []agents.GeneratedContent `json:"generated"`
	}
	resp := h.do(t, http.MethodPost, "/api/agents/campaigns/youth-engagement/run?count=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &run)
	assert.Len(t, run.Generated, 2)

	var status agents.SystemStatus
	decode(t, h.do(t, http.MethodGet, "/api/agents/status", ""), &status)
	assert.Equal(t, "ACTIVE", status.Status)
	assert.Len(t, status.ScheduledContent, 2)

	var campaign agents.Campaign
	decode(t, h.do(t, http.MethodPost, "/api/agents/campaigns/youth-engagement/pause", ""), &campaign)
	assert.Equal(t, agents.CampaignPaused, campaign.Status)

	resp = h.do(t, http.MethodPost, "/api/agents/campaigns/nope/run", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = h.do(t, http.MethodPost, "/api/agents/campaigns/youth-engagement/run?count=50", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalendar(t *testing.T) {
	h := newHarness(t, nil)

	var body map[string]any
	decode(t, h.do(t, http.MethodGet, "/api/calendar", ""), &body)
	assert.Equal(t, true, body["ramadan"])
	assert.Equal(t, "ramadan", body["theme"])
}

func TestTeaHouseRequiresUpgrade(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(t, http.MethodGet, "/ws/teahouse", "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
