package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pacelink.app/relay/internal/service"
)

const (
	stateCookieName = "strava_oauth_state"
	stateMaxAge     = 600
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: system-ui, sans-serif; max-width: 40rem; margin: 3rem auto;">
<h1>{{.Title}}</h1>
{{range .Lines}}<p>{{.}}</p>
{{end}}</body>
</html>
`))

type page struct {
	Title string
	Lines []string
}

type OAuthHandler struct {
	oauth        service.OAuthService
	isProduction bool
}

func NewOAuthHandler(oauth service.OAuthService, isProduction bool) *OAuthHandler {
	return &OAuthHandler{
		oauth:        oauth,
		isProduction: isProduction,
	}
}

func (h *OAuthHandler) Authorize(c *gin.Context) {
	state, err := generateState()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to generate state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate authorization"})
		return
	}

	c.SetCookie(
		stateCookieName,
		state,
		stateMaxAge,
		"/",
		"",
		h.isProduction,
		true,
	)

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthorizationURL(state))
}

func (h *OAuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	if errorParam := c.Query("error"); errorParam != "" {
		slog.WarnContext(ctx, "strava authorization denied", "error", errorParam)
		render(c, http.StatusBadRequest, page{
			Title: "Authorization failed",
			Lines: []string{"Strava returned: " + errorParam},
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		render(c, http.StatusBadRequest, page{
			Title: "Authorization failed",
			Lines: []string{"Missing authorization code."},
		})
		return
	}

	// Only checked when our cookie survived; a callback opened in another
	// browser still completes.
	if storedState, err := c.Cookie(stateCookieName); err == nil && storedState != c.Query("state") {
		slog.WarnContext(ctx, "oauth state mismatch")
		render(c, http.StatusBadRequest, page{
			Title: "Authorization failed",
			Lines: []string{"State mismatch. Start again from /strava/auth."},
		})
		return
	}
	h.clearStateCookie(c)

	athlete, err := h.oauth.HandleCallback(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle strava callback", "error", err)
		if errors.Is(err, service.ErrMissingCode) {
			render(c, http.StatusBadRequest, page{Title: "Authorization failed", Lines: []string{err.Error()}})
			return
		}
		render(c, http.StatusInternalServerError, page{
			Title: "Authorization failed",
			Lines: []string{"Token exchange with Strava failed.", err.Error()},
		})
		return
	}

	lines := []string{"Tokens saved. You can close this window."}
	if name := strings.TrimSpace(athlete.Firstname + " " + athlete.Lastname); name != "" {
		lines = append([]string{"Connected as " + name + "."}, lines...)
	}
	if athlete.Scope != "" {
		lines = append(lines, "Scope: "+athlete.Scope)
	}
	render(c, http.StatusOK, page{Title: "Strava connected", Lines: lines})
}

func (h *OAuthHandler) clearStateCookie(c *gin.Context) {
	c.SetCookie(
		stateCookieName,
		"",
		-1,
		"/",
		"",
		h.isProduction,
		true,
	)
}

func render(c *gin.Context, status int, p page) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(c.Writer, p); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to render page", "error", err)
	}
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
