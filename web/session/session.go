// Package session maps the cookie-backed session to the authenticated
// user of the current request. The session itself only ever holds the
// user id; the full record is resolved from the store once per request
// and attached to the gin context.
package session

import (
	"secret-keeper/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CookieName is the session id cookie.
const CookieName = "secret-keeper"

const (
	loginUserId = "LOGIN_USER_ID"
	oauthState  = "OAUTH_STATE"

	// gin context key for the resolved user record
	ctxLoginUser = "LOGIN_USER"
)

// SetLoginUser establishes the session: it records the user's id, never
// the record and never credential material.
func SetLoginUser(c *gin.Context, user *model.User) error {
	s := sessions.Default(c)
	s.Set(loginUserId, user.Id)
	return s.Save()
}

// GetLoginUserId returns the id stored in the session, if any.
func GetLoginUserId(c *gin.Context) (int, bool) {
	s := sessions.Default(c)
	if obj := s.Get(loginUserId); obj != nil {
		if id, ok := obj.(int); ok {
			return id, true
		}
	}
	return 0, false
}

// SetOAuthState stores the per-attempt state nonce for the callback check.
func SetOAuthState(c *gin.Context, state string) error {
	s := sessions.Default(c)
	s.Set(oauthState, state)
	return s.Save()
}

// PopOAuthState returns and clears the stored state nonce.
func PopOAuthState(c *gin.Context) string {
	s := sessions.Default(c)
	obj := s.Get(oauthState)
	if obj == nil {
		return ""
	}
	s.Delete(oauthState)
	_ = s.Save()
	state, _ := obj.(string)
	return state
}

// AttachLoginUser puts the resolved user record on the request context.
// Called by the resolver middleware, once per request.
func AttachLoginUser(c *gin.Context, user *model.User) {
	c.Set(ctxLoginUser, user)
}

// GetLoginUser returns the user resolved for this request, or nil for
// anonymous requests.
func GetLoginUser(c *gin.Context) *model.User {
	if obj, ok := c.Get(ctxLoginUser); ok {
		if user, ok := obj.(*model.User); ok {
			return user
		}
	}
	return nil
}

// IsLogin reports whether this request carries an authenticated user.
func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

// ClearSession terminates the session and expires the client's cookie.
// Succeeds even when no session was active.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		return err
	}
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	return nil
}
