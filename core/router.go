package core

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, store *sessions.CookieStore, authService AuthService, entryRepo EntryRepository, sessionManager SessionManager) *gin.Engine {
	r := gin.Default()
	r.LoadHTMLGlob(cfg.TemplateGlob)

	r.Use(SessionMiddleware(cfg, store, sessionManager))

	r.GET("/health/", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	r.GET("/test/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "oki", "service": "diary-backend"})
	})

	anon := r.Group("/", RedirectIfAuthenticated())
	{
		anon.GET("/register/", func(c *gin.Context) {
			c.HTML(http.StatusOK, "register.html", authFormView(takeFlashes(c), "", ""))
		})

		anon.POST("/register/", func(c *gin.Context) {
			username := strings.TrimSpace(c.PostForm("username"))
			password := c.PostForm("password")
			password2 := c.PostForm("password2")

			if username == "" || password == "" {
				c.HTML(http.StatusOK, "register.html", authFormView(nil, "Please fill in all fields!", username))
				return
			}
			if password != password2 {
				c.HTML(http.StatusOK, "register.html", authFormView(nil, "Passwords do not match!", username))
				return
			}

			user, err := authService.Register(c.Request.Context(), username, password)
			if err != nil {
				if err == ErrUsernameTaken {
					c.HTML(http.StatusOK, "register.html", authFormView(nil, "Username already exists!", username))
					return
				}
				renderServerError(c)
				return
			}

			if !establishSession(c, sessionManager, user.ID, "Registration successful!") {
				return
			}
			c.Redirect(http.StatusSeeOther, "/")
		})

		anon.GET("/login/", func(c *gin.Context) {
			c.HTML(http.StatusOK, "login.html", authFormView(takeFlashes(c), "", ""))
		})

		anon.POST("/login/", func(c *gin.Context) {
			username := strings.TrimSpace(c.PostForm("username"))
			password := c.PostForm("password")

			user, err := authService.Authenticate(c.Request.Context(), username, password)
			if err != nil {
				// One message for unknown user and wrong password alike.
				c.HTML(http.StatusOK, "login.html", authFormView(nil, "Invalid username or password!", username))
				return
			}

			if !establishSession(c, sessionManager, user.ID, fmt.Sprintf("Welcome back, %s!", user.Username)) {
				return
			}
			c.Redirect(http.StatusSeeOther, "/")
		})
	}

	authed := r.Group("/", RequireLogin())
	{
		authed.GET("/logout/", func(c *gin.Context) {
			sess := currentSession(c)
			if token, _ := sess.Values["token"].(string); token != "" {
				if err := sessionManager.Revoke(c.Request.Context(), token); err != nil {
					renderServerError(c)
					return
				}
			}
			// Fresh values: drop the token but keep the cookie alive so the
			// flash survives to the login page.
			sess.Values = map[interface{}]interface{}{}
			sess.AddFlash("You have been logged out successfully!")
			if err := sess.Save(c.Request, c.Writer); err != nil {
				renderServerError(c)
				return
			}
			c.Redirect(http.StatusFound, "/login/")
		})

		authed.GET("/", func(c *gin.Context) {
			userID, _ := currentUserID(c)
			entries, err := entryRepo.ListByOwner(c.Request.Context(), userID)
			if err != nil {
				renderServerError(c)
				return
			}
			c.HTML(http.StatusOK, "home.html", gin.H{
				"messages": takeFlashes(c),
				"entries":  entries,
			})
		})

		authed.GET("/add-entry/", func(c *gin.Context) {
			c.HTML(http.StatusOK, "add_entry.html", entryFormView(takeFlashes(c), "", "", ""))
		})

		authed.POST("/add-entry/", func(c *gin.Context) {
			userID, _ := currentUserID(c)
			title := strings.TrimSpace(c.PostForm("title"))
			content := strings.TrimSpace(c.PostForm("content"))

			if title == "" || content == "" {
				c.HTML(http.StatusOK, "add_entry.html", entryFormView(nil, "Please fill in all fields!", title, content))
				return
			}

			if _, err := entryRepo.Create(c.Request.Context(), userID, title, content); err != nil {
				renderServerError(c)
				return
			}
			addFlash(c, "Diary entry added successfully!")
			c.Redirect(http.StatusSeeOther, "/")
		})

		deleteEntry := func(c *gin.Context) {
			userID, _ := currentUserID(c)
			entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil || entryID <= 0 {
				c.Redirect(http.StatusFound, "/")
				return
			}

			deleted, err := entryRepo.DeleteIfOwned(c.Request.Context(), entryID, userID)
			if err != nil {
				renderServerError(c)
				return
			}
			if !deleted {
				// Missing id or somebody else's entry; the response does not
				// say which, only the log does.
				log.Printf("delete-entry: nothing deleted entry=%d user=%d", entryID, userID)
			}
			addFlash(c, "Diary entry deleted successfully!")
			c.Redirect(http.StatusSeeOther, "/")
		}
		authed.GET("/delete-entry/:id/", deleteEntry)
		authed.POST("/delete-entry/:id/", deleteEntry)
	}

	return r
}

// establishSession issues a fresh server-side token for userID and rotates
// the cookie session around it, carrying one flash message for the next
// page. Returns false after rendering an error.
func establishSession(c *gin.Context, manager SessionManager, userID int64, flash string) bool {
	token, err := manager.Issue(c.Request.Context(), userID)
	if err != nil {
		renderServerError(c)
		return false
	}
	sess := currentSession(c)
	sess.Values = map[interface{}]interface{}{}
	sess.Values["token"] = token
	sess.AddFlash(flash)
	if err := sess.Save(c.Request, c.Writer); err != nil {
		renderServerError(c)
		return false
	}
	return true
}

// Template payload builders. Every key a template mentions is always
// present so renders never hit a missing-value placeholder.

func authFormView(messages []string, errMsg, username string) gin.H {
	if messages == nil {
		messages = []string{}
	}
	return gin.H{"messages": messages, "error": errMsg, "username": username}
}

func entryFormView(messages []string, errMsg, title, content string) gin.H {
	if messages == nil {
		messages = []string{}
	}
	return gin.H{"messages": messages, "error": errMsg, "title": title, "content": content}
}
