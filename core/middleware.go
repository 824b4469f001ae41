package core

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "diary_session"

const (
	ctxSessionKey = "session"
	ctxUserIDKey  = "currentUserID"
)

// SessionMiddleware ensures a cookie session exists, applies consistent
// cookie options, and resolves the session token to a user id when present.
func SessionMiddleware(cfg Config, store *sessions.CookieStore, manager SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			// A tampered or stale cookie decodes to an error plus a fresh
			// session; carry on with the fresh one.
			session, _ = store.New(c.Request, sessionName)
			if session == nil {
				renderServerError(c)
				c.Abort()
				return
			}
		}
		applySessionOptions(cfg, session)
		c.Set(ctxSessionKey, session)

		token, _ := session.Values["token"].(string)
		if token != "" {
			userID, ok, err := manager.Resolve(c.Request.Context(), token)
			if err != nil {
				renderServerError(c)
				c.Abort()
				return
			}
			if ok {
				c.Set(ctxUserIDKey, userID)
			} else {
				// Expired or revoked token; drop it from the cookie.
				delete(session.Values, "token")
				_ = session.Save(c.Request, c.Writer)
			}
		}

		c.Next()
	}
}

// RequireLogin redirects anonymous callers to the login page.
// Being logged out is normal control flow here, never an error page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			c.Redirect(http.StatusFound, "/login/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectIfAuthenticated bounces logged-in users off the login and
// register pages back to home.
func RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID returns the resolved user id for this request, if any.
func currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// currentSession returns the gorilla session placed by SessionMiddleware.
func currentSession(c *gin.Context) *sessions.Session {
	v, _ := c.Get(ctxSessionKey)
	sess, _ := v.(*sessions.Session)
	return sess
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = cfg.SessionTTLSec
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
