package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// dashboardHandler fetches the booking manifest and the user count in
// parallel. A user-count failure degrades to a null count instead of
// failing the whole dashboard.
func (a *App) dashboardHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		wg        sync.WaitGroup
		raws      []RawBooking
		loadErr   error
		userCount int
		userErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		raws, loadErr = a.manifest.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		userCount, userErr = a.countUsers(ctx)
	}()
	wg.Wait()

	if loadErr != nil {
		writeAPIError(c, loadErr)
		return
	}

	var totalUsers *int
	if userErr != nil {
		a.log.Warn("user count unavailable", "error", userErr.Error())
	} else {
		totalUsers = &userCount
	}

	now := time.Now()
	bookings := normalizeBookings(raws)
	stats := computeBookingStats(bookings)

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"totalRevenue":      stats.Revenue,
			"formattedRevenue":  formatINR(stats.Revenue),
			"totalBookings":     stats.Total,
			"pendingBookings":   stats.Pending,
			"confirmedBookings": stats.Confirmed,
			"totalUsers":        totalUsers,
		},
		"monthlySeries":   buildMonthlySeries(bookings, now),
		"topDestinations": topDestinations(bookings),
		"recentActivity":  recentActivity(raws, now),
	})
}
