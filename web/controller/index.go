package controller

import (
	"errors"
	"net/http"

	"secret-keeper/logger"
	"secret-keeper/web/service"
	"secret-keeper/web/session"

	"github.com/gin-gonic/gin"
)

// CredentialsForm is the login and registration request body.
type CredentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// IndexController handles the landing page and the local credential
// flow: registration, login and logout.
type IndexController struct {
	BaseController

	userService *service.UserService
}

// NewIndexController creates the controller and registers its routes.
func NewIndexController(g *gin.RouterGroup, userService *service.UserService) *IndexController {
	a := &IndexController{userService: userService}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/login", a.loginPage)
	g.GET("/register", a.registerPage)
	g.GET("/logout", a.logout)

	g.POST("/login", a.login)
	g.POST("/register", a.register)
}

func (a *IndexController) index(c *gin.Context) {
	html(c, "home.html", "Secrets", nil)
}

func (a *IndexController) loginPage(c *gin.Context) {
	html(c, "login.html", "Login", gin.H{
		"oauthError": c.Query("error") == "oauth",
	})
}

func (a *IndexController) registerPage(c *gin.Context) {
	html(c, "register.html", "Register", nil)
}

// register creates a local account and establishes a session for it.
// Any failure sends the user back to the registration form.
func (a *IndexController) register(c *gin.Context) {
	var form CredentialsForm
	if err := c.ShouldBind(&form); err != nil || form.Username == "" || form.Password == "" {
		c.Redirect(http.StatusSeeOther, "/register")
		return
	}

	user, err := a.userService.Register(form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateUsername) {
			logger.Infof("registration rejected, username %q already exists", form.Username)
		} else {
			logger.Warning("register err:", err)
		}
		c.Redirect(http.StatusSeeOther, "/register")
		return
	}

	if err := session.SetLoginUser(c, user); err != nil {
		logger.Warning("unable to save session:", err)
		c.Redirect(http.StatusSeeOther, "/register")
		return
	}

	logger.Infof("%s registered, IP: %s", form.Username, getRemoteIp(c))
	c.Redirect(http.StatusSeeOther, "/secrets")
}

// login verifies the credentials strictly before any session state is
// written; a session exists only for a checked user.
func (a *IndexController) login(c *gin.Context) {
	var form CredentialsForm
	if err := c.ShouldBind(&form); err != nil || form.Username == "" || form.Password == "" {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	user, err := a.userService.CheckUser(form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidCredentials):
			logger.Warningf("failed login for %q, IP: %s", form.Username, getRemoteIp(c))
		default:
			logger.Warning("check user err:", err)
		}
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	if err := session.SetLoginUser(c, user); err != nil {
		logger.Warning("unable to save session:", err)
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", form.Username, getRemoteIp(c))
	c.Redirect(http.StatusSeeOther, "/secrets")
}

// logout terminates the session. It succeeds, and still redirects,
// when no session was active.
func (a *IndexController) logout(c *gin.Context) {
	if user := session.GetLoginUser(c); user != nil {
		logger.Infof("%s logged out", user.DisplayName())
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("unable to clear session:", err)
	}
	c.Redirect(http.StatusTemporaryRedirect, "/")
}
