package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/dto"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
)

const (
	ThemeDark    = "dark"
	ThemeLight   = "light"
	DefaultTheme = ThemeDark
)

// PreferencesHandler stores UI preferences in the session
type PreferencesHandler struct{}

func NewPreferencesHandler() *PreferencesHandler {
	return &PreferencesHandler{}
}

func currentTheme(session sessions.Session) string {
	if theme, ok := session.Get(constants.SessionKeyTheme).(string); ok && (theme == ThemeDark || theme == ThemeLight) {
		return theme
	}
	return DefaultTheme
}

func (h *PreferencesHandler) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": currentTheme(sessions.Default(c))})
}

func (h *PreferencesHandler) SetTheme(c *gin.Context) {
	var req dto.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "theme must be dark or light")
		return
	}

	if !h.saveTheme(c, req.Theme) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

// ToggleTheme flips between dark and light
func (h *PreferencesHandler) ToggleTheme(c *gin.Context) {
	next := ThemeLight
	if currentTheme(sessions.Default(c)) == ThemeLight {
		next = ThemeDark
	}

	if !h.saveTheme(c, next) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": next})
}

func (h *PreferencesHandler) saveTheme(c *gin.Context, theme string) bool {
	session := sessions.Default(c)
	session.Set(constants.SessionKeyTheme, theme)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save preference")
		return false
	}
	return true
}
