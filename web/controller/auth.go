package controller

import (
	"errors"
	"net/http"

	"secret-keeper/logger"
	"secret-keeper/web/service"
	"secret-keeper/web/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GoogleAuthController drives the Google federation flow: the redirect
// to the provider and the authorization-code callback.
type GoogleAuthController struct {
	BaseController

	googleService *service.GoogleAuthService
}

func NewGoogleAuthController(g *gin.RouterGroup, googleService *service.GoogleAuthService) *GoogleAuthController {
	a := &GoogleAuthController{googleService: googleService}
	a.initRouter(g)
	return a
}

func (a *GoogleAuthController) initRouter(g *gin.RouterGroup) {
	g.GET("/auth/google", a.redirect)
	g.GET("/auth/google/secrets", a.callback)
}

// redirect begins an authorization attempt. The state nonce lives in
// the session until the callback; no local user state is created yet.
func (a *GoogleAuthController) redirect(c *gin.Context) {
	state := uuid.NewString()
	if err := session.SetOAuthState(c, state); err != nil {
		logger.Warning("unable to save oauth state:", err)
		c.Redirect(http.StatusTemporaryRedirect, "/login")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, a.googleService.AuthCodeURL(state))
}

// callback finishes the attempt. Provider-side failures (error payload,
// failed exchange or profile fetch) redirect to /login?error=oauth so
// the user is told the failure was not theirs; everything else that
// goes wrong falls back to the plain login surface.
func (a *GoogleAuthController) callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		logger.Warningf("oauth provider returned error %q", errParam)
		c.Redirect(http.StatusTemporaryRedirect, "/login?error=oauth")
		return
	}

	state := c.Query("state")
	if state == "" || state != session.PopOAuthState(c) {
		logger.Warning("oauth callback with missing or mismatched state, IP:", getRemoteIp(c))
		c.Redirect(http.StatusTemporaryRedirect, "/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, "/login")
		return
	}

	user, err := a.googleService.Authenticate(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrFederation) {
			logger.Warning("oauth error:", err)
			c.Redirect(http.StatusTemporaryRedirect, "/login?error=oauth")
		} else {
			logger.Warning("federated login err:", err)
			c.Redirect(http.StatusTemporaryRedirect, "/login")
		}
		return
	}

	if err := session.SetLoginUser(c, user); err != nil {
		logger.Warning("unable to save session:", err)
		c.Redirect(http.StatusTemporaryRedirect, "/login")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, "/secrets")
}
