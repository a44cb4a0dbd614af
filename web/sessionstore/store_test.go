package sessionstore

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "test-session"

func TestStoreRoundtrip(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend, []byte("test-secret"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(r, cookieName)
	require.NoError(t, err)
	assert.True(t, session.IsNew)

	session.Values["uid"] = 42
	w := httptest.NewRecorder()
	require.NoError(t, store.Save(r, w, session))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, 1, backend.Len())

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	restored, err := store.New(r2, cookieName)
	require.NoError(t, err)
	assert.False(t, restored.IsNew)
	assert.Equal(t, 42, restored.Values["uid"])
}

func TestStoreRejectsTamperedCookie(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend, []byte("test-secret"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(r, cookieName)
	require.NoError(t, err)
	session.Values["uid"] = 42
	w := httptest.NewRecorder()
	require.NoError(t, store.Save(r, w, session))

	cookie := w.Result().Cookies()[0]
	cookie.Value = "x" + cookie.Value

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookie)
	restored, err := store.New(r2, cookieName)
	require.NoError(t, err)
	assert.True(t, restored.IsNew)
	assert.Nil(t, restored.Values["uid"])
}

func TestStoreDeleteOnNegativeMaxAge(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend, []byte("test-secret"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(r, cookieName)
	require.NoError(t, err)
	session.Values["uid"] = 42
	w := httptest.NewRecorder()
	require.NoError(t, store.Save(r, w, session))
	require.Equal(t, 1, backend.Len())

	session.Options.MaxAge = -1
	w2 := httptest.NewRecorder()
	require.NoError(t, store.Save(r, w2, session))

	assert.Equal(t, 0, backend.Len())
	cookies := w2.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestMemoryBackendExpiry(t *testing.T) {
	backend := NewMemoryBackend()

	require.NoError(t, backend.Save("a", []byte("payload"), 10*time.Millisecond))
	require.NoError(t, backend.Save("b", []byte("payload"), time.Hour))

	data, err := backend.Load("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	time.Sleep(20 * time.Millisecond)

	_, err = backend.Load("a")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = backend.Load("b")
	assert.NoError(t, err)
}

func TestMemoryBackendPurgeExpired(t *testing.T) {
	backend := NewMemoryBackend()

	require.NoError(t, backend.Save("a", []byte("payload"), 10*time.Millisecond))
	require.NoError(t, backend.Save("b", []byte("payload"), time.Hour))

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, backend.PurgeExpired())
	assert.Equal(t, 1, backend.Len())
}

func TestMemoryBackendUnknownId(t *testing.T) {
	backend := NewMemoryBackend()

	_, err := backend.Load("missing")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, backend.Delete("missing"))
}
