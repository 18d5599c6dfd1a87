package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/services"
	"github.com/cspring/microblog/utils"
)

const (
	// SessionCookieName is the cookie carrying the signed session id.
	SessionCookieName = "microblog_session"
	// ContextSessionKey stores the resolved session in the gin context.
	ContextSessionKey = "session"
	// ContextUserKey stores the resolved user (or anonymous sentinel).
	ContextUserKey = "current_user"
)

// SessionLoader resolves the session cookie and current user on every
// request. Requests without a valid session proceed as anonymous; guards
// decide separately whether that is acceptable.
func SessionLoader(identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *models.Session
		if token, err := c.Cookie(SessionCookieName); err == nil {
			if sid, err := utils.ParseSessionToken(token); err == nil {
				if s, ok := utils.GetSession(sid); ok {
					sess = s
				}
			}
		}
		if sess != nil {
			c.Set(ContextSessionKey, sess)
		}
		c.Set(ContextUserKey, identity.CurrentUser(sess))
		c.Next()
	}
}

// SessionFrom returns the request's session, nil when absent.
func SessionFrom(c *gin.Context) *models.Session {
	if v, ok := c.Get(ContextSessionKey); ok {
		if sess, ok := v.(*models.Session); ok {
			return sess
		}
	}
	return nil
}

// UserFrom returns the request's user, the anonymous sentinel when absent.
func UserFrom(c *gin.Context) models.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if user, ok := v.(models.User); ok {
			return user
		}
	}
	return models.Anonymous
}
