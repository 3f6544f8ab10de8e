package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) listTripsHandler(c *gin.Context) {
	trips, err := a.listTrips(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips, "total": len(trips)})
}

func (a *App) createTripHandler(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Request body must be a JSON object"})
		return
	}
	if title, _ := payload["title"].(string); strings.TrimSpace(title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "title is required"})
		return
	}

	trip, err := a.createTrip(c.Request.Context(), payload)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("trip created", "title", payload["title"])
	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

func (a *App) updateTripHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "trip id is required"})
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Request body must be a JSON object"})
		return
	}

	trip, err := a.updateTrip(c.Request.Context(), id, payload)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("trip updated", "id", id)
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

func (a *App) deleteTripHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "trip id is required"})
		return
	}

	if err := a.deleteTrip(c.Request.Context(), id); err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("trip deleted", "id", id)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}
