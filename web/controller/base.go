// Package controller provides the HTTP request handlers for
// secret-keeper: registration, login, Google federation and the
// secrets board.
package controller

import (
	"net/http"

	"secret-keeper/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides common functionality for all controllers.
type BaseController struct{}

// checkLogin gates a route on the identity resolved for this request;
// anonymous requests are sent to the login surface.
func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		c.Redirect(http.StatusTemporaryRedirect, "/login")
		c.Abort()
	} else {
		c.Next()
	}
}
