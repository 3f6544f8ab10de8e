package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) getSettingsHandler(c *gin.Context) {
	settings, err := a.getSettings(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (a *App) updateSettingsHandler(c *gin.Context) {
	var settings SiteSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Request body must be a settings object"})
		return
	}

	settings.SiteName = strings.TrimSpace(settings.SiteName)
	settings.SupportEmail = strings.TrimSpace(settings.SupportEmail)
	settings.SupportPhone = strings.TrimSpace(settings.SupportPhone)
	if settings.SiteName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "siteName is required"})
		return
	}
	if settings.SupportEmail != "" && !strings.Contains(settings.SupportEmail, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "supportEmail must be a valid address"})
		return
	}

	if err := a.saveSettings(c.Request.Context(), settings); err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("settings updated", "siteName", settings.SiteName)
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
