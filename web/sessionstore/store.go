// Package sessionstore implements a server-side session store for gin.
// The cookie carries only a signed session id; the session payload
// lives in a backend (Redis, or an in-process map when Redis is not
// configured), keeping the client-side tampering surface down to the
// id itself.
package sessionstore

import (
	"bytes"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gorillasessions "github.com/gorilla/sessions"
)

const defaultMaxAge = 86400 * 7 // 7 days

// ErrNoSession is returned by backends when the id does not resolve.
var ErrNoSession = errors.New("session not found")

// Backend persists raw session payloads keyed by session id.
type Backend interface {
	Save(id string, data []byte, ttl time.Duration) error
	Load(id string) ([]byte, error)
	Delete(id string) error
}

// Store implements gin-contrib/sessions.Store with server-side payload
// storage and a securecookie-signed session id cookie.
type Store struct {
	backend Backend
	Codecs  []securecookie.Codec
	options *sessions.Options
}

// NewStore creates a session store over the given backend. keyPairs are
// the securecookie signing keys for the id cookie.
func NewStore(backend Backend, keyPairs ...[]byte) *Store {
	return &Store{
		backend: backend,
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		options: &sessions.Options{
			Path:   "/",
			MaxAge: defaultMaxAge,
		},
	}
}

// Options sets the default cookie options for new sessions.
func (s *Store) Options(opts sessions.Options) {
	s.options = &opts
}

// Get returns the cached session for this request, loading it once.
func (s *Store) Get(r *http.Request, name string) (*gorillasessions.Session, error) {
	return gorillasessions.GetRegistry(r).Get(s, name)
}

// New creates a session, restoring state from the backend when the
// request carries a valid id cookie. Undecodable cookies and unknown
// ids fall back to a fresh session rather than an error.
func (s *Store) New(r *http.Request, name string) (*gorillasessions.Session, error) {
	session := gorillasessions.NewSession(s, name)
	session.Options = &gorillasessions.Options{
		Path:     s.options.Path,
		Domain:   s.options.Domain,
		MaxAge:   s.options.MaxAge,
		Secure:   s.options.Secure,
		HttpOnly: s.options.HttpOnly,
		SameSite: s.options.SameSite,
	}
	session.IsNew = true

	if c, errCookie := r.Cookie(name); errCookie == nil {
		err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...)
		if err == nil {
			if err = s.load(session); err == nil {
				session.IsNew = false
			}
		}
	}

	return session, nil
}

// Save persists the session and writes the id cookie. MaxAge < 0
// deletes the backend entry and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *gorillasessions.Session) error {
	if session.Options.MaxAge < 0 {
		if err := s.delete(session); err != nil {
			return err
		}
		http.SetCookie(w, s.newCookie(session, ""))
		return nil
	}

	if session.ID == "" {
		session.ID = strings.TrimRight(
			base32.StdEncoding.EncodeToString(
				securecookie.GenerateRandomKey(32),
			), "=")
	}

	if err := s.save(session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}

	http.SetCookie(w, s.newCookie(session, encoded))
	return nil
}

func (s *Store) newCookie(session *gorillasessions.Session, value string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     session.Name(),
		Value:    value,
		Path:     session.Options.Path,
		Domain:   session.Options.Domain,
		MaxAge:   session.Options.MaxAge,
		Secure:   session.Options.Secure,
		HttpOnly: session.Options.HttpOnly,
		SameSite: session.Options.SameSite,
	}
	if session.Options.MaxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(session.Options.MaxAge) * time.Second)
	}
	return cookie
}

func (s *Store) save(session *gorillasessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("failed to encode session values: %w", err)
	}

	maxAge := session.Options.MaxAge
	if maxAge == 0 {
		maxAge = s.options.MaxAge
	}

	return s.backend.Save(session.ID, buf.Bytes(), time.Duration(maxAge)*time.Second)
}

func (s *Store) load(session *gorillasessions.Session) error {
	data, err := s.backend.Load(session.ID)
	if err != nil {
		return err
	}

	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&session.Values); err != nil {
		return fmt.Errorf("failed to decode session data: %w", err)
	}
	return nil
}

func (s *Store) delete(session *gorillasessions.Session) error {
	if session.ID == "" {
		return nil
	}
	return s.backend.Delete(session.ID)
}
