package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"secret-keeper/database"
	"secret-keeper/database/model"
	"secret-keeper/logger"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testServer *httptest.Server

// fakeProvider stands in for Google: it issues tokens for any code
// except "bad" and serves a fixed profile.
func fakeProvider() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") == "bad" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"sub":   "g123",
			"email": "g123@example.com",
			"name":  "Gee One",
		})
	})
	return httptest.NewServer(mux)
}

func TestMain(m *testing.M) {
	os.Setenv("SK_LOG_FOLDER", os.TempDir())
	logger.InitLogger(logging.DEBUG)

	provider := fakeProvider()
	os.Setenv("SK_SESSION_SECRET", "test-secret")
	os.Setenv("GOOGLE_CLIENT_ID", "client-id")
	os.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	os.Setenv("SK_CALLBACK_BASE", "http://app.test")
	os.Setenv("SK_OAUTH_AUTH_URL", provider.URL+"/auth")
	os.Setenv("SK_OAUTH_TOKEN_URL", provider.URL+"/token")
	os.Setenv("SK_OAUTH_USERINFO_URL", provider.URL+"/userinfo")

	dbDir, err := os.MkdirTemp("", "sk-web-test")
	if err != nil {
		panic(err)
	}
	if err := database.InitDB(filepath.Join(dbDir, "test.db")); err != nil {
		panic(err)
	}
	sqlDB, _ := database.GetDB().DB()
	sqlDB.SetMaxOpenConns(1)

	s := NewServer()
	engine, err := s.initRouter()
	if err != nil {
		panic(err)
	}
	testServer = httptest.NewServer(engine)

	code := m.Run()

	testServer.Close()
	provider.Close()
	database.CloseDB()
	os.RemoveAll(dbDir)
	os.Exit(code)
}

// newClient returns a cookie-carrying client that does not follow
// redirects, so tests can assert on redirect targets.
func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, path string) *http.Response {
	resp, err := client.Get(testServer.URL + path)
	require.NoError(t, err)
	return resp
}

func postForm(t *testing.T, client *http.Client, path string, form url.Values) *http.Response {
	resp, err := client.PostForm(testServer.URL+path, form)
	require.NoError(t, err)
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestPagesRender(t *testing.T) {
	client := newClient(t)

	for _, path := range []string{"/", "/login", "/register", "/secrets"} {
		resp := get(t, client, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}

	resp := get(t, client, "/login?error=oauth")
	assert.Contains(t, body(t, resp), "provider side")
}

func TestSubmitRequiresLogin(t *testing.T) {
	client := newClient(t)

	resp := get(t, client, "/submit")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()
}

func TestRegisterLoginSubmitScenario(t *testing.T) {
	client := newClient(t)

	resp := postForm(t, client, "/register", url.Values{
		"username": {"alice"},
		"password": {"pw1"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/secrets", resp.Header.Get("Location"))
	resp.Body.Close()

	// session established by registration
	resp = get(t, client, "/submit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postForm(t, client, "/submit", url.Values{"secret": {"hello"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/secrets", resp.Header.Get("Location"))
	resp.Body.Close()

	page := body(t, get(t, client, "/secrets"))
	assert.Contains(t, page, "hello")
	assert.Contains(t, page, "alice")

	// resubmitting replaces, never duplicates
	resp = postForm(t, client, "/submit", url.Values{"secret": {"world"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp.Body.Close()

	page = body(t, get(t, client, "/secrets"))
	assert.Contains(t, page, "world")
	assert.NotContains(t, page, "hello")
	assert.Equal(t, 1, strings.Count(page, "alice"))
}

func TestLoginWrongPassword(t *testing.T) {
	client := newClient(t)

	resp := postForm(t, client, "/register", url.Values{
		"username": {"carol"},
		"password": {"pw1"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp.Body.Close()

	// fresh client, wrong password: back to login, no session
	other := newClient(t)
	resp = postForm(t, other, "/login", url.Values{
		"username": {"carol"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()

	resp = get(t, other, "/submit")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()
}

func TestLogout(t *testing.T) {
	client := newClient(t)

	resp := postForm(t, client, "/register", url.Values{
		"username": {"dave"},
		"password": {"pw1"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp.Body.Close()

	resp = get(t, client, "/logout")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	resp.Body.Close()

	resp = get(t, client, "/submit")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()

	// logging out again is still fine
	resp = get(t, client, "/logout")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	resp.Body.Close()

	// credentials still work afterwards
	resp = postForm(t, client, "/login", url.Values{
		"username": {"dave"},
		"password": {"pw1"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/secrets", resp.Header.Get("Location"))
	resp.Body.Close()
}

// doOAuthFlow walks one full authorization attempt and returns the
// final redirect target.
func doOAuthFlow(t *testing.T, client *http.Client, code string) string {
	resp := get(t, client, "/auth/google")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	resp.Body.Close()

	authURL, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	resp = get(t, client, "/auth/google/secrets?state="+url.QueryEscape(state)+"&code="+url.QueryEscape(code))
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	resp.Body.Close()
	return resp.Header.Get("Location")
}

func TestOAuthCallbackIsIdempotent(t *testing.T) {
	location := doOAuthFlow(t, newClient(t), "good-code")
	assert.Equal(t, "/secrets", location)

	// a retried callback resolves to the same account
	location = doOAuthFlow(t, newClient(t), "good-code")
	assert.Equal(t, "/secrets", location)

	var count int64
	database.GetDB().Model(model.User{}).Where("google_id = ?", "g123").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestOAuthFederatedSessionWorks(t *testing.T) {
	client := newClient(t)
	require.Equal(t, "/secrets", doOAuthFlow(t, client, "good-code"))

	resp := get(t, client, "/submit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestOAuthProviderErrorPayload(t *testing.T) {
	client := newClient(t)

	resp := get(t, client, "/auth/google/secrets?error=access_denied")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/login?error=oauth", resp.Header.Get("Location"))
	resp.Body.Close()
}

func TestOAuthExchangeFailure(t *testing.T) {
	location := doOAuthFlow(t, newClient(t), "bad")
	assert.Equal(t, "/login?error=oauth", location)
}

func TestOAuthStateMismatch(t *testing.T) {
	client := newClient(t)

	resp := get(t, client, "/auth/google")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	resp.Body.Close()

	resp = get(t, client, "/auth/google/secrets?state=forged&code=good-code")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()
}
