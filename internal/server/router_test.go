package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/inbox"
	"github.com/whisperly/backend/internal/middleware"
	"github.com/whisperly/backend/internal/story"
	"github.com/whisperly/backend/internal/testutil"
)

type client struct {
	t       *testing.T
	handler http.Handler
	session string
}

func newTestRouter(t *testing.T, logger *slog.Logger) http.Handler {
	t.Helper()
	s := testutil.NewMemStore()
	sessions, _ := testutil.Sessions(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return NewRouter(Deps{
		Auth:        auth.NewHandler(s, sessions, false),
		Inbox:       inbox.NewHandler(inbox.NewService(s)),
		Stories:     story.NewHandler(story.NewService(s)),
		Sessions:    sessions,
		AuthLimiter: middleware.NewIPRateLimiter(ctx, 100, time.Minute, middleware.CleanupOpts{}),
		CORSOrigins: []string{"http://localhost:3000"},
		Logger:      logger,
	})
}

func (c *client) do(method, path, body string) (int, map[string]any) {
	c.t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: c.session})
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.SessionCookie {
			c.session = ck.Value
		}
	}

	var out map[string]any
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func (c *client) signUpAndIn(username string) {
	c.t.Helper()
	code, _ := c.do(http.MethodPost, "/api/auth/sign-up",
		`{"username":"`+username+`","email":"`+username+`@test.com","password":"secret1"}`)
	require.Equal(c.t, http.StatusCreated, code)
	code, _ = c.do(http.MethodPost, "/api/auth/sign-in",
		`{"identifier":"`+username+`","password":"secret1"}`)
	require.Equal(c.t, http.StatusOK, code)
	require.NotEmpty(c.t, c.session)
}

func TestHealth(t *testing.T) {
	c := &client{t: t, handler: newTestRouter(t, nil)}
	code, body := c.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestInboxFlow(t *testing.T) {
	h := newTestRouter(t, nil)
	alice := &client{t: t, handler: h}
	alice.signUpAndIn("alice")
	stranger := &client{t: t, handler: h}

	code, body := stranger.do(http.MethodGet, "/api/users/alice", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["isAcceptingMessages"])

	code, body = alice.do(http.MethodPost, "/api/channels", `{"name":"Work","slug":"work"}`)
	require.Equal(t, http.StatusCreated, code)
	channelID := body["channel"].(map[string]any)["id"].(string)

	code, body = stranger.do(http.MethodGet, "/api/users/alice/channels/work", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, channelID, body["channelId"])
	assert.Equal(t, "Work", body["channelName"])

	code, body = stranger.do(http.MethodPost, "/api/send-message", `{"username":"alice","content":"hello"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["success"])

	code, _ = stranger.do(http.MethodPost, "/api/send-message", `{"username":"alice","content":"filed","channelSlug":"work"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = stranger.do(http.MethodGet, "/api/messages", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = alice.do(http.MethodGet, "/api/messages?channelId=none", "")
	require.Equal(t, http.StatusOK, code)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].(map[string]any)["content"])
	assert.Nil(t, msgs[0].(map[string]any)["channelId"])
	unfiledID := msgs[0].(map[string]any)["id"].(string)

	code, body = alice.do(http.MethodGet, "/api/messages?channelId="+channelID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["messages"].([]any), 1)

	code, _ = alice.do(http.MethodGet, "/api/messages?channelId=bogus", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = alice.do(http.MethodDelete, "/api/messages/"+unfiledID, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = alice.do(http.MethodDelete, "/api/messages/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = alice.do(http.MethodDelete, "/api/channels/"+channelID, "")
	assert.Equal(t, http.StatusOK, code)

	code, body = alice.do(http.MethodGet, "/api/messages", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["messages"])

	code, _ = alice.do(http.MethodPost, "/api/accept-messages", `{"acceptMessages":false}`)
	require.Equal(t, http.StatusOK, code)
	code, body = alice.do(http.MethodGet, "/api/accept-messages", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["isAcceptingMessages"])

	code, body = stranger.do(http.MethodPost, "/api/send-message", `{"username":"alice","content":"hello"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, body["success"])
}

func TestStoriesFlow(t *testing.T) {
	h := newTestRouter(t, nil)
	alice := &client{t: t, handler: h}
	alice.signUpAndIn("alice")
	anon := &client{t: t, handler: h}

	code, _ := anon.do(http.MethodPost, "/api/stories", `{"content":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := alice.do(http.MethodPost, "/api/stories", `{"content":"my day"}`)
	require.Equal(t, http.StatusCreated, code)
	storyID := body["story"].(map[string]any)["id"].(string)

	code, _ = alice.do(http.MethodPost, "/api/stories/like", `{"storyId":"`+storyID+`","action":"like"}`)
	require.Equal(t, http.StatusOK, code)
	code, body = alice.do(http.MethodPost, "/api/stories/like", `{"storyId":"`+storyID+`","action":"like"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, story.ErrAlreadyLiked.Message, body["message"])

	code, _ = alice.do(http.MethodPost, "/api/stories/like", `{"action":"like"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = alice.do(http.MethodGet, "/api/stories?sortBy=hot", "")
	require.Equal(t, http.StatusOK, code)
	stories := body["stories"].([]any)
	require.Len(t, stories, 1)
	view := stories[0].(map[string]any)
	assert.Equal(t, float64(1), view["likeCount"])
	assert.Equal(t, true, view["isLiked"])
	assert.Equal(t, "alice", view["username"])

	code, body = anon.do(http.MethodGet, "/api/stories", "")
	require.Equal(t, http.StatusOK, code)
	view = body["stories"].([]any)[0].(map[string]any)
	assert.Equal(t, false, view["isLiked"])

	code, _ = alice.do(http.MethodPost, "/api/stories/like", `{"storyId":"`+storyID+`","action":"unlike"}`)
	assert.Equal(t, http.StatusOK, code)
}

func TestMeAndSignOut(t *testing.T) {
	c := &client{t: t, handler: newTestRouter(t, nil)}
	c.signUpAndIn("alice")

	code, body := c.do(http.MethodGet, "/api/auth/me", "")
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")

	sid := c.session
	code, _ = c.do(http.MethodPost, "/api/auth/sign-out", "")
	require.Equal(t, http.StatusOK, code)

	c.session = sid
	code, _ = c.do(http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}


func TestRequestLogOmitsSenderAddress(t *testing.T) {
	var buf bytes.Buffer
	h := newTestRouter(t, slog.New(slog.NewJSONHandler(&buf, nil)))

	alice := &client{t: t, handler: h}
	alice.signUpAndIn("alice")
	buf.Reset()

	req := httptest.NewRequest(http.MethodPost, "/api/send-message",
		strings.NewReader(`{"username":"alice","content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.77")
	req.RemoteAddr = "198.51.100.9:4711"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	logged := buf.String()
	assert.Contains(t, logged, "/api/send-message")
	assert.Contains(t, logged, `"status":201`)
	assert.NotContains(t, logged, "203.0.113.77")
	assert.NotContains(t, logged, "198.51.100.9")
}
