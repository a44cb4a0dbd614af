package controller

import (
	"errors"
	"net/http"

	"secret-keeper/logger"
	"secret-keeper/web/service"
	"secret-keeper/web/session"

	"github.com/gin-gonic/gin"
)

// SecretForm is the secret submission body.
type SecretForm struct {
	Secret string `form:"secret"`
}

// SecretController serves the shared secrets board and the submission
// flow. The board itself is public; submitting requires a session.
type SecretController struct {
	BaseController

	userService *service.UserService
}

func NewSecretController(g *gin.RouterGroup, userService *service.UserService) *SecretController {
	a := &SecretController{userService: userService}
	a.initRouter(g)
	return a
}

func (a *SecretController) initRouter(g *gin.RouterGroup) {
	g.GET("/secrets", a.secrets)
	g.GET("/submit", a.checkLogin, a.submitPage)
	g.POST("/submit", a.checkLogin, a.submit)
}

// secrets lists every user with a non-null secret.
func (a *SecretController) secrets(c *gin.Context) {
	users, err := a.userService.GetUsersWithSecrets()
	if err != nil {
		logger.Warning("list secrets err:", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	html(c, "secrets.html", "Secrets", gin.H{
		"usersWithSecrets": users,
	})
}

func (a *SecretController) submitPage(c *gin.Context) {
	html(c, "submit.html", "Submit a secret", nil)
}

// submit overwrites the submitting user's secret. A user that no
// longer resolves in the store is a silent no-op.
func (a *SecretController) submit(c *gin.Context) {
	var form SecretForm
	if err := c.ShouldBind(&form); err != nil || form.Secret == "" {
		c.Redirect(http.StatusSeeOther, "/submit")
		return
	}

	user := session.GetLoginUser(c)
	if err := a.userService.SetSecret(user.Id, form.Secret); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Debugf("submit for vanished user %d ignored", user.Id)
		} else {
			logger.Warning("set secret err:", err)
		}
	}
	c.Redirect(http.StatusSeeOther, "/secrets")
}
