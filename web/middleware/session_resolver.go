package middleware

import (
	"secret-keeper/logger"
	"secret-keeper/web/service"
	"secret-keeper/web/session"

	"github.com/gin-gonic/gin"
)

// SessionResolverMiddleware turns the session cookie into the request's
// authenticated identity: session id -> stored user id -> full user
// record, attached to the gin context before any handler runs.
//
// An id that no longer resolves (expired session, deleted account)
// degrades the request to anonymous; it never fails the request.
func SessionResolverMiddleware(userService *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := session.GetLoginUserId(c)
		if !ok {
			c.Next()
			return
		}

		user, err := userService.GetUserById(id)
		if err != nil {
			if err != service.ErrNotFound {
				logger.Warning("resolve session user err:", err)
			}
			c.Next()
			return
		}

		session.AttachLoginUser(c, user)
		c.Next()
	}
}
