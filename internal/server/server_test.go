package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/traction/internal/model"
	"github.com/sakif/traction/internal/server"
)

// newTestServer starts a fully wired server over an in-memory database and
// returns its base URL. Each call gets a fresh database, so tests don't see
// each other's users.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(server.Config{
		TemplateDir:   "../../web/templates",
		DBPath:        ":memory:",
		SessionSecret: "test-secret-0123456789abcdef",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// newClient returns a client that keeps cookies across requests (like a
// browser) but does not follow redirects, so tests can assert on them.
func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()

	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	return resp
}

// registerAndLogin creates an account and signs it in, leaving the session
// cookie in the client's jar.
func registerAndLogin(t *testing.T, ts *httptest.Server, client *http.Client, username, password string) {
	t.Helper()

	form := url.Values{"username": {username}, "password": {password}}

	resp := postForm(t, client, ts.URL+"/register", form)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?registered=1", resp.Header.Get("Location"))

	resp = postForm(t, client, ts.URL+"/login", form)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func postJSON(t *testing.T, client *http.Client, target string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(target, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/rocks")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unauthorized", body["error"])
}

func TestDashboardRedirectsAnonymous(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	resp, err := client.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	form := url.Values{"username": {"alice"}, "password": {"password123"}}

	resp := postForm(t, client, ts.URL+"/register", form)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Same username again: the form comes back with an inline message
	// instead of a redirect.
	resp = postForm(t, client, ts.URL+"/register", form)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "That username is already taken.")
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	registerAndLogin(t, ts, client, "alice", "password123")

	resp := postForm(t, newClient(t), ts.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"not-her-password"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Invalid username or password.")
}

func TestLoginUnknownUserSameMessage(t *testing.T) {
	ts := newTestServer(t)

	resp := postForm(t, newClient(t), ts.URL+"/login", url.Values{
		"username": {"nobody"},
		"password": {"password123"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Invalid username or password.")
}

func TestRecordFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, ts, alice, "alice", "password123")

	// Session works: /api/me knows who we are.
	resp, err := alice.Get(ts.URL + "/api/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me model.User
	decodeJSON(t, resp, &me)
	assert.Equal(t, "alice", me.Username)

	// Create a rock; the response carries the generated ID.
	resp = postJSON(t, alice, ts.URL+"/api/rocks", model.Fields{
		"description": "Ship the quarterly report",
		"due_date":    "2026-09-30",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rock model.Record
	decodeJSON(t, resp, &rock)
	require.NotEmpty(t, rock.ID)
	assert.Equal(t, model.KindRock, rock.Kind)
	assert.Equal(t, "Ship the quarterly report", rock.Fields["description"])

	// It shows up in the list.
	resp, err = alice.Get(ts.URL + "/api/rocks")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rocks []model.Record
	decodeJSON(t, resp, &rocks)
	require.Len(t, rocks, 1)
	assert.Equal(t, rock.ID, rocks[0].ID)

	// Close it out and read the new status back.
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/rocks/"+rock.ID+"/status",
		strings.NewReader(`{"status":"done"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = alice.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ok map[string]string
	decodeJSON(t, resp, &ok)
	assert.Equal(t, "success", ok["status"])

	resp, err = alice.Get(ts.URL + "/api/rocks")
	require.NoError(t, err)
	decodeJSON(t, resp, &rocks)
	require.Len(t, rocks, 1)
	assert.Equal(t, "done", rocks[0].Fields["status"])
}

func TestRecordValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, ts, alice, "alice", "password123")

	// Rock without its required description.
	resp := postJSON(t, alice, ts.URL+"/api/rocks", model.Fields{"due_date": "2026-09-30"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Conclude with a score outside 1..10.
	resp = postJSON(t, alice, ts.URL+"/api/conclusions", model.Fields{
		"date":  "2026-08-28",
		"score": 11,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordsAreScopedToOwner(t *testing.T) {
	ts := newTestServer(t)

	alice := newClient(t)
	registerAndLogin(t, ts, alice, "alice", "password123")

	resp := postJSON(t, alice, ts.URL+"/api/todos", model.Fields{
		"description": "Email the vendor",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var todo model.Record
	decodeJSON(t, resp, &todo)

	bob := newClient(t)
	registerAndLogin(t, ts, bob, "bob", "password123")

	// Bob's list is empty even though Alice has a todo.
	resp, err := bob.Get(ts.URL + "/api/todos")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var todos []model.Record
	decodeJSON(t, resp, &todos)
	assert.Empty(t, todos)

	// Bob can't touch Alice's todo either; a record he doesn't own looks
	// exactly like a record that doesn't exist.
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/todos/"+todo.ID+"/status",
		strings.NewReader(`{"status":"done"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = bob.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScorecardListIsCappedAtTwelve(t *testing.T) {
	ts := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, ts, alice, "alice", "password123")

	for i := 1; i <= 14; i++ {
		resp := postJSON(t, alice, ts.URL+"/api/scorecards", model.Fields{
			"date":       fmt.Sprintf("2026-03-%02d", i),
			"timesheets": "complete",
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := alice.Get(ts.URL + "/api/scorecards")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cards []model.Record
	decodeJSON(t, resp, &cards)
	require.Len(t, cards, 12)

	// Newest first; the two oldest weeks fell off.
	assert.Equal(t, "2026-03-14", cards[0].Fields["date"])
	assert.Equal(t, "2026-03-03", cards[11].Fields["date"])
}

func TestLogoutEndsSession(t *testing.T) {
	ts := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, ts, alice, "alice", "password123")

	resp := postForm(t, alice, ts.URL+"/auth/logout", url.Values{})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// The jar honored the cookie deletion, so the API is closed again.
	resp, err := alice.Get(ts.URL + "/api/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
