package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) listBlogsHandler(c *gin.Context) {
	blogs, err := a.listBlogs(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blogs": blogs, "total": len(blogs)})
}

func (a *App) createBlogHandler(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Request body must be a JSON object"})
		return
	}
	title, _ := payload["title"].(string)
	content, _ := payload["content"].(string)
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "title and content are required"})
		return
	}

	blog, err := a.createBlog(c.Request.Context(), payload)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("blog post created", "title", title)
	c.JSON(http.StatusCreated, gin.H{"blog": blog})
}

func (a *App) deleteBlogHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "blog id is required"})
		return
	}

	if err := a.deleteBlog(c.Request.Context(), id); err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("blog post deleted", "id", id)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}
