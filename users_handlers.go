package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) listUsersHandler(c *gin.Context) {
	limit := defaultUsersPerPage
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	page, err := a.listUsers(c.Request.Context(), limit, c.Query("nextPageToken"))
	if err != nil {
		writeAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":         page.Users,
		"nextPageToken": page.NextPageToken,
	})
}

// deleteUserHandler removes a backend user. The SPA passes the target's
// email so the console can refuse to delete the signed-in admin's own
// account.
func (a *App) deleteUserHandler(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "user uid is required"})
		return
	}

	session, err := getAdminSession(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Admin session required"})
		return
	}
	if email := strings.TrimSpace(c.Query("email")); email != "" && strings.EqualFold(email, session.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot_delete_self", "message": "You cannot delete your own account"})
		return
	}

	if err := a.deleteUser(c.Request.Context(), uid); err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("user deleted", "uid", uid, "by", session.Email)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "uid": uid})
}
