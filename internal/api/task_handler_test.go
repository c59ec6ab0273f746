package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jaam8/voting_booth/internal/metrics"
	"github.com/jaam8/voting_booth/internal/models"
	"github.com/jaam8/voting_booth/internal/repository"
	"github.com/jaam8/voting_booth/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

type stubSender struct {
	mu     sync.Mutex
	sent   []string
	failTo string
}

func (s *stubSender) SendVoteInvitation(_ context.Context, to string, _ map[string]string) error {
	if to == s.failTo {
		return errors.New("smtp down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

type testServer struct {
	handler http.Handler
	repo    *repository.MemoryInvitationRepository
	cache   *repository.MemoryTokenCache
	sender  *stubSender
}

func newTestServer(t *testing.T, strict bool) *testServer {
	t.Helper()
	l := zap.NewNop()
	repo := repository.NewMemoryInvitationRepository(l)
	cache := repository.NewMemoryTokenCache(128, time.Hour, l)
	sender := &stubSender{}
	svc := service.New(repo, cache, sender, service.DefaultOptions(), l)
	m, err := metrics.New()
	require.NoError(t, err)

	tasks := NewTaskHandler(svc, m, strict, l)
	router := NewRouter(tasks, NewAuthenticator(testSecret, l), m, RouterConfig{AllowedOrigins: []string{"*"}}, l)
	return &testServer{handler: router, repo: repo, cache: cache, sender: sender}
}

func adminHeaders(t *testing.T) map[string]string {
	t.Helper()
	token, err := IssueAdminToken(testSecret, "admin@x.com", time.Hour, time.Now())
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if raw, ok := body.(string); ok {
		buf.WriteString(raw)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func task(kind string, data interface{}) map[string]interface{} {
	return map[string]interface{}{"kind": kind, "data": data}
}

func invitations(entries ...string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, to := range entries {
		out = append(out, map[string]interface{}{"to": to, "festivalSlug": "fest1", "name": "Guest"})
	}
	return out
}

func TestVoteInvitationsRequiresUser(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no header", nil},
		{"garbage token", map[string]string{"Authorization": "Bearer nope"}},
		{"wrong secret", func() map[string]string {
			token, err := IssueAdminToken([]byte("other"), "admin", time.Hour, time.Now())
			require.NoError(t, err)
			return map[string]string{"Authorization": "Bearer " + token}
		}()},
		{"expired", func() map[string]string {
			token, err := IssueAdminToken(testSecret, "admin", time.Minute, time.Now().Add(-time.Hour))
			require.NoError(t, err)
			return map[string]string{"Authorization": "Bearer " + token}
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/tasks", task("vote_invitations", invitations("a@x.com")), tt.headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "Unauthorized", resp.Message)
			assert.Equal(t, 0, s.repo.Len())
			assert.Empty(t, s.sender.sent)
		})
	}
}

func TestVoteInvitations(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/tasks", task("vote_invitations", invitations("a@x.com", "b@x.com")), adminHeaders(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Body.String())
	assert.Equal(t, 2, s.repo.Len())
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, s.sender.sent)
}

func TestVoteInvitationsPartialFailure(t *testing.T) {
	s := newTestServer(t, true)
	s.sender.failTo = "b@x.com"

	w := s.do(t, http.MethodPost, "/tasks", task("vote_invitations", invitations("a@x.com", "b@x.com")), adminHeaders(t))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"b@x.com"}, resp.Failed)
}

func TestVoteInvitationsBadData(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/tasks", task("vote_invitations", map[string]string{"to": "a@x.com"}), adminHeaders(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/tasks", task("vote_invitations", []map[string]string{{"to": "a@x.com"}}), adminHeaders(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, s.repo.Len())
}

func TestVoteWithoutInvitation(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/tasks", task("vote", map[string]string{"email": "a@x.com", "festivalSlug": "nope"}), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "No vote invitation found", resp.Message)
}

func TestVoteIssuesToken(t *testing.T) {
	s := newTestServer(t, true)
	w := s.do(t, http.MethodPost, "/tasks", task("vote_invitations", invitations("a@x.com")), adminHeaders(t))
	require.Equal(t, http.StatusCreated, w.Code)

	issue := func() string {
		w := s.do(t, http.MethodPost, "/tasks", task("vote", map[string]string{"email": "a@x.com", "festivalSlug": "fest1"}), nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp models.VoteTokenResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		return resp.Token
	}

	first := issue()
	assert.Len(t, first, 32)
	value, expiresAt, ok := s.cache.Get(first)
	require.True(t, ok)
	assert.Equal(t, "a@x.com:fest1", value)
	assert.WithinDuration(t, time.Now().Add(1800*time.Second), expiresAt, 2*time.Second)

	second := issue()
	assert.NotEqual(t, first, second)
	_, _, ok = s.cache.Get(first)
	assert.True(t, ok)
	_, _, ok = s.cache.Get(second)
	assert.True(t, ok)
}

func TestRedeemToken(t *testing.T) {
	s := newTestServer(t, true)
	require.Equal(t, http.StatusCreated,
		s.do(t, http.MethodPost, "/tasks", task("vote_invitations", invitations("a@x.com")), adminHeaders(t)).Code)

	w := s.do(t, http.MethodPost, "/tasks", task("vote", map[string]string{"email": "a@x.com", "festivalSlug": "fest1"}), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var issued models.VoteTokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&issued))

	w = s.do(t, http.MethodPost, "/tokens/redeem", models.RedeemRequest{Token: issued.Token}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var redeemed models.RedeemResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&redeemed))
	assert.Equal(t, models.RedeemResponse{Email: "a@x.com", FestivalSlug: "fest1"}, redeemed)

	w = s.do(t, http.MethodPost, "/tokens/redeem", models.RedeemRequest{Token: issued.Token}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/tokens/redeem", models.RedeemRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownTaskKind(t *testing.T) {
	strict := newTestServer(t, true)
	w := strict.do(t, http.MethodPost, "/tasks", task("reboot", nil), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	lax := newTestServer(t, false)
	w = lax.do(t, http.MethodPost, "/tasks", task("reboot", nil), nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestInvalidJSON(t *testing.T) {
	s := newTestServer(t, true)
	w := s.do(t, http.MethodPost, "/tasks", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true)
	w := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/tasks", nil, nil)
	assert.NotEqual(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIssueAdminTokenValidation(t *testing.T) {
	_, err := IssueAdminToken(nil, "admin", time.Hour, time.Now())
	assert.Error(t, err)
	_, err = IssueAdminToken(testSecret, "", time.Hour, time.Now())
	assert.Error(t, err)
}
