package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var bookingCSVHeader = []string{"ID", "Customer", "Phone", "Trip", "Date", "Amount", "Status", "Payment ID"}

// listBookingsHandler reloads the manifest from the upstream backend and
// returns the normalized rows, optionally filtered by free-text query and
// status. The response keeps the upstream order (newest first).
func (a *App) listBookingsHandler(c *gin.Context) {
	raws, err := a.manifest.Load(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}

	bookings := normalizeBookings(raws)
	bookings = filterBookings(bookings, c.Query("q"), c.Query("status"))

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"total":    len(bookings),
	})
}

func filterBookings(bookings []Booking, query, status string) []Booking {
	query = strings.ToLower(strings.TrimSpace(query))
	status = strings.ToLower(strings.TrimSpace(status))

	if query == "" && status == "" {
		return bookings
	}

	filtered := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if status != "" && b.Status != status {
			continue
		}
		if query != "" {
			haystack := strings.ToLower(b.CustomerName + " " + b.TripTitle + " " + b.ID)
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		filtered = append(filtered, b)
	}
	return filtered
}

func (a *App) bookingStatsHandler(c *gin.Context) {
	raws, err := a.manifest.Load(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}

	stats := computeBookingStats(normalizeBookings(raws))
	c.JSON(http.StatusOK, gin.H{
		"totalRevenue":      stats.Revenue,
		"totalBookings":     stats.Total,
		"pendingBookings":   stats.Pending,
		"confirmedBookings": stats.Confirmed,
	})
}

type bookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (a *App) updateBookingStatusHandler(c *gin.Context) {
	id := c.Param("id")

	var req bookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "status is required"})
		return
	}

	booking, err := a.manifest.SetStatus(c.Request.Context(), id, strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		writeAPIError(c, err)
		return
	}

	if a.notifyStatusChange != nil {
		go a.notifyStatusChange(*booking, booking.Status)
	}

	a.log.Info("booking status updated", "id", booking.ID, "status", booking.Status)
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (a *App) deleteBookingHandler(c *gin.Context) {
	id := c.Param("id")

	if err := a.manifest.Delete(c.Request.Context(), id); err != nil {
		writeAPIError(c, err)
		return
	}

	a.log.Info("booking deleted", "id", id)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// exportBookingsCSVHandler streams the current manifest as a CSV attachment.
// The same filters as the list endpoint apply, so the download matches what
// the operator sees on screen.
func (a *App) exportBookingsCSVHandler(c *gin.Context) {
	raws, err := a.manifest.Load(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}

	bookings := normalizeBookings(raws)
	bookings = filterBookings(bookings, c.Query("q"), c.Query("status"))

	content, err := bookingsToCSV(bookings)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	filename := fmt.Sprintf("dd_tours_manifest_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", content)
}

func bookingsToCSV(bookings []Booking) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(bookingCSVHeader); err != nil {
		return nil, err
	}
	for _, b := range bookings {
		record := []string{
			b.ID,
			b.CustomerName,
			b.Phone,
			b.TripTitle,
			formatBookingDate(b.Date),
			fmt.Sprintf("%g", b.Amount),
			b.Status,
			b.PaymentID,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
