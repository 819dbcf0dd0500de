package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	a, err := NewAuthenticator([]byte("s3cret"))
	require.NoError(t, err)

	token, err := a.IssueToken("app-1", time.Minute)
	require.NoError(t, err)

	appID, err := a.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "app-1", appID)
}

func TestAuthenticator_Rejects(t *testing.T) {
	a, err := NewAuthenticator([]byte("s3cret"))
	require.NoError(t, err)
	other, err := NewAuthenticator([]byte("other"))
	require.NoError(t, err)

	expired := &Authenticator{secret: a.secret, now: func() time.Time { return time.Now().Add(-time.Hour) }}
	expiredToken, err := expired.IssueToken("app-1", time.Minute)
	require.NoError(t, err)

	foreign, err := other.IssueToken("app-1", time.Minute)
	require.NoError(t, err)

	noSubject, err := a.IssueToken("", time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "app-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(a.secret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expiredToken,
		"wrong key":    foreign,
		"no subject":   noSubject,
		"wrong issuer": wrongIssuer,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.Validate(token)
			assert.Error(t, err)
		})
	}
}

func TestNewAuthenticator_EmptySecret(t *testing.T) {
	_, err := NewAuthenticator(nil)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestMiddleware_ScopesTurnsToTokenApp(t *testing.T) {
	app, err := parley.New(parley.WithAppIDs("app-1"))
	require.NoError(t, err)
	require.NoError(t, app.OnIntent(domain.IntentLaunch, domain.Literal{
		Flow:       domain.FlowTerminate,
		Directives: map[string]any{"sayp": "Hi."},
	}))

	a, err := NewAuthenticator([]byte("s3cret"))
	require.NoError(t, err)
	h := NewHandler(app, WithAuthenticator(a))

	good, err := a.IssueToken("app-1", time.Minute)
	require.NoError(t, err)
	otherApp, err := a.IssueToken("app-2", time.Minute)
	require.NoError(t, err)

	// The body claims app-1 but the token decides.
	body := `{"request":{"type":"LaunchRequest"},"context":{"application_id":"app-1"}}`

	tests := []struct {
		name       string
		auth       string
		wantStatus int
		wantSpeech string
	}{
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", auth: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "invalid", auth: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "allowed", auth: "Bearer " + good, wantStatus: http.StatusOK, wantSpeech: "Hi."},
		{name: "other app", auth: "bearer " + otherApp, wantStatus: http.StatusOK, wantSpeech: parley.DefaultErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/turns", strings.NewReader(body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
				return
			}
			assert.Contains(t, w.Body.String(), tt.wantSpeech)
		})
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health stays public")
}

func TestWithMount_SharesAuthentication(t *testing.T) {
	app, err := parley.New()
	require.NoError(t, err)
	a, err := NewAuthenticator([]byte("s3cret"))
	require.NoError(t, err)

	mounted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := ApplicationID(r.Context())
		_, _ = w.Write([]byte(id))
	})
	h := NewHandler(app, WithAuthenticator(a), WithMount("/ws", mounted))

	req := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := a.IssueToken("app-1", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "app-1", w.Body.String())
}

func TestSessions_ScopedToTokenApp(t *testing.T) {
	app, err := parley.New()
	require.NoError(t, err)
	require.NoError(t, app.OnIntent(domain.IntentLaunch, domain.Literal{
		To:         "question",
		Directives: map[string]any{"sayp": "Do you like Voxa?"},
	}))

	a, err := NewAuthenticator([]byte("s3cret"))
	require.NoError(t, err)
	store := memory.NewStore()
	srv := NewServer(app, WithAuthenticator(a), WithSessions(session.NewManager(store)))
	h := srv.Handler()

	owner, err := a.IssueToken("app-1", time.Minute)
	require.NoError(t, err)
	intruder, err := a.IssueToken("app-2", time.Minute)
	require.NoError(t, err)

	do := func(method, target, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/v1/turns", owner, `{"request":{"type":"LaunchRequest"},"session":{"id":"shared"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = store.Load(context.Background(), "app-1/shared")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/v1/sessions/shared", intruder, "").Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/v1/sessions/shared", intruder, "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/v1/sessions/shared", owner, "").Code,
		"another application cannot delete the session")

	ts := httptest.NewServer(h)
	defer ts.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/events?session_id=shared", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+intruder)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Eventually(t, func() bool { return srv.Streams().Subscribers("app-2/shared") == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, srv.Streams().Subscribers("app-1/shared"))
}
