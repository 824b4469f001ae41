package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// addFlash appends a one-shot message to the session and persists it.
func addFlash(c *gin.Context, message string) {
	sess := currentSession(c)
	if sess == nil {
		return
	}
	sess.AddFlash(message)
	_ = sess.Save(c.Request, c.Writer)
}

// takeFlashes drains pending flash messages from the session.
func takeFlashes(c *gin.Context) []string {
	sess := currentSession(c)
	if sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) > 0 {
		_ = sess.Save(c.Request, c.Writer)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// renderServerError is the single surface for storage and session failures.
func renderServerError(c *gin.Context) {
	c.String(http.StatusInternalServerError, "Internal Server Error")
}
