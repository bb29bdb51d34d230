package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/finchat/internal/auth"
	"github.com/ent0n29/finchat/internal/config"
	"github.com/ent0n29/finchat/internal/history"
	"github.com/ent0n29/finchat/internal/llm"
	"github.com/ent0n29/finchat/internal/observability"
	"github.com/ent0n29/finchat/internal/pipeline"
	"github.com/ent0n29/finchat/internal/session"
)

type stubPipeline struct {
	answer string
	err    error
	turns  map[string][]history.Turn
}

func newStubPipeline(answer string) *stubPipeline {
	return &stubPipeline{answer: answer, turns: make(map[string][]history.Turn)}
}

func (p *stubPipeline) RunQuery(_ context.Context, userID, query string, _ llm.Backend) ([]history.Turn, error) {
	if p.err != nil {
		return nil, p.err
	}
	updated := append([]history.Turn{{Query: query, Response: p.answer}}, p.turns[userID]...)
	p.turns[userID] = updated
	return updated, nil
}

func (p *stubPipeline) LoadHistory(_ context.Context, userID string) ([]history.Turn, error) {
	return p.turns[userID], nil
}

func (p *stubPipeline) ClearHistory(_ context.Context, userID string) error {
	p.turns[userID] = nil
	return nil
}

func newTestServer(t *testing.T, p Pipeline) (*httptest.Server, *session.Manager) {
	t.Helper()
	cfg := config.Config{
		SessionInactivityTimeout: 2 * time.Minute,
		AllowAnyOrigin:           true,
	}
	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	metrics := observability.NewMetrics(metricsNamespace(t))
	srv := New(cfg, auth.NewInMemoryStore(), sessions, p, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, sessions
}

// metricsNamespace derives a unique, prometheus-safe namespace per test so
// promauto registration never collides across tests in the package.
func metricsNamespace(t *testing.T) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, t.Name())
	return "test_httpapi_" + name + "_" + time.Now().Format("150405000000000")
}

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	return res
}

func signupAndLogin(t *testing.T, baseURL, username, password string) string {
	t.Helper()
	res := postJSON(t, baseURL+"/v1/auth/signup", "", map[string]string{
		"username": username, "password": password,
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	loginRes := postJSON(t, baseURL+"/v1/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	defer loginRes.Body.Close()
	if loginRes.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want %d", loginRes.StatusCode, http.StatusOK)
	}
	var login session.LoginResponse
	if err := json.NewDecoder(loginRes.Body).Decode(&login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if login.Token == "" {
		t.Fatalf("login response missing token")
	}
	return login.Token
}

func TestSignupLoginAndQuery(t *testing.T) {
	ts, _ := newTestServer(t, newStubPipeline("The revenue is $5M."))
	token := signupAndLogin(t, ts.URL, "alice", "secret")

	res := postJSON(t, ts.URL+"/v1/chat/query", token, map[string]string{
		"query": "What is the revenue?", "backend": "groq",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("query status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var out struct {
		Answer  string         `json:"answer"`
		History []history.Turn `json:"history"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode query response: %v", err)
	}
	if out.Answer != "The revenue is $5M." {
		t.Fatalf("answer = %q", out.Answer)
	}
	if len(out.History) != 1 || out.History[0].Query != "What is the revenue?" {
		t.Fatalf("unexpected history: %+v", out.History)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	ts, _ := newTestServer(t, newStubPipeline("a"))
	_ = signupAndLogin(t, ts.URL, "alice", "secret")

	res := postJSON(t, ts.URL+"/v1/auth/signup", "", map[string]string{
		"username": "alice", "password": "other",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts, _ := newTestServer(t, newStubPipeline("a"))
	_ = signupAndLogin(t, ts.URL, "alice", "secret")

	res := postJSON(t, ts.URL+"/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "invalid_credentials" {
		t.Fatalf("code = %q, want %q", body.Code, "invalid_credentials")
	}
}

func TestQueryRequiresSession(t *testing.T) {
	ts, _ := newTestServer(t, newStubPipeline("a"))

	res := postJSON(t, ts.URL+"/v1/chat/query", "", map[string]string{"query": "q"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}

	bogus := postJSON(t, ts.URL+"/v1/chat/query", "bogus-token", map[string]string{"query": "q"})
	defer bogus.Body.Close()
	if bogus.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bogus token status = %d, want %d", bogus.StatusCode, http.StatusUnauthorized)
	}
}

func TestQueryErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty query", pipeline.ErrEmptyQuery, http.StatusBadRequest, "empty_query"},
		{"generation failed", &llm.GenerationError{Backend: llm.BackendGroq, Err: errors.New("boom")}, http.StatusBadGateway, "generation_failed"},
		{"persistence failed", &pipeline.PersistenceError{Op: "save", Err: errors.New("boom")}, http.StatusInternalServerError, "persistence_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newStubPipeline("")
			p.err = tc.err
			ts, _ := newTestServer(t, p)
			token := signupAndLogin(t, ts.URL, "alice", "secret")

			res := postJSON(t, ts.URL+"/v1/chat/query", token, map[string]string{"query": "q"})
			defer res.Body.Close()
			if res.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tc.wantStatus)
			}
			var body struct {
				Code string `json:"code"`
			}
			if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tc.wantCode)
			}
		})
	}
}

func TestInvalidBackendRejected(t *testing.T) {
	ts, _ := newTestServer(t, newStubPipeline("a"))
	token := signupAndLogin(t, ts.URL, "alice", "secret")

	res := postJSON(t, ts.URL+"/v1/chat/query", token, map[string]string{
		"query": "q", "backend": "claude",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestHistoryAndClear(t *testing.T) {
	p := newStubPipeline("answer")
	ts, _ := newTestServer(t, p)
	token := signupAndLogin(t, ts.URL, "alice", "secret")

	res := postJSON(t, ts.URL+"/v1/chat/query", token, map[string]string{"query": "q1"})
	res.Body.Close()

	histRes, err := http.DefaultClient.Do(mustRequest(t, http.MethodGet, ts.URL+"/v1/chat/history", token))
	if err != nil {
		t.Fatalf("history request error: %v", err)
	}
	defer histRes.Body.Close()
	var hist struct {
		History []history.Turn `json:"history"`
	}
	if err := json.NewDecoder(histRes.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.History) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist.History))
	}

	clearRes := postJSON(t, ts.URL+"/v1/chat/history/clear", token, nil)
	clearRes.Body.Close()
	if clearRes.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d", clearRes.StatusCode)
	}

	afterRes, err := http.DefaultClient.Do(mustRequest(t, http.MethodGet, ts.URL+"/v1/chat/history", token))
	if err != nil {
		t.Fatalf("history request error: %v", err)
	}
	defer afterRes.Body.Close()
	var after struct {
		History []history.Turn `json:"history"`
	}
	if err := json.NewDecoder(afterRes.Body).Decode(&after); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(after.History) != 0 {
		t.Fatalf("history after clear = %+v, want empty", after.History)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	ts, sessions := newTestServer(t, newStubPipeline("a"))
	token := signupAndLogin(t, ts.URL, "alice", "secret")

	res := postJSON(t, ts.URL+"/v1/auth/logout", token, nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if _, err := sessions.Get(token); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("session still active after logout")
	}

	query := postJSON(t, ts.URL+"/v1/chat/query", token, map[string]string{"query": "q"})
	defer query.Body.Close()
	if query.StatusCode != http.StatusUnauthorized {
		t.Fatalf("query after logout status = %d, want %d", query.StatusCode, http.StatusUnauthorized)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, newStubPipeline("a"))
	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}

func mustRequest(t *testing.T, method, url, token string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
