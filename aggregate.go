package main

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DashboardStats is recomputed from the full collection on every request.
type DashboardStats struct {
	Revenue   float64 `json:"revenue"`
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Confirmed int     `json:"confirmed"`
}

type MonthlyBucket struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

type Destination struct {
	Rank     int     `json:"rank"`
	Title    string  `json:"title"`
	Bookings int     `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

type ActivityEntry struct {
	User         string `json:"user"`
	Action       string `json:"action"`
	Target       string `json:"target"`
	RelativeTime string `json:"relativeTime"`
	Amount       string `json:"amount"`
}

const (
	activityFeedSize    = 5
	leaderboardSize     = 3
	monthlyWindowMonths = 6
)

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// computeBookingStats sums confirmed revenue and counts bookings per status
// in a single pass. Amounts are already numeric after normalization.
func computeBookingStats(bookings []Booking) DashboardStats {
	stats := DashboardStats{Total: len(bookings)}
	for _, b := range bookings {
		switch b.Status {
		case statusConfirmed:
			stats.Confirmed++
			stats.Revenue += b.Amount
		case statusPending:
			stats.Pending++
		}
	}
	return stats
}

// buildMonthlySeries buckets the current calendar year by month and slices to
// the trailing window ending at the current month. Bookings dated in another
// year are excluded entirely; the chart deliberately shows no cross-year
// history. Revenue accumulates confirmed bookings only, the count all of them.
func buildMonthlySeries(bookings []Booking, now time.Time) []MonthlyBucket {
	buckets := make([]MonthlyBucket, len(monthLabels))
	for i, label := range monthLabels {
		buckets[i] = MonthlyBucket{Month: label}
	}

	for _, b := range bookings {
		if b.Date.IsZero() || b.Date.Year() != now.Year() {
			continue
		}
		month := int(b.Date.Month()) - 1
		buckets[month].Bookings++
		if b.Status == statusConfirmed {
			buckets[month].Revenue += b.Amount
		}
	}

	currentMonth := int(now.Month()) - 1
	start := currentMonth - monthlyWindowMonths
	if start < 0 {
		start = 0
	}
	return buckets[start : currentMonth+1]
}

// topDestinations ranks trips by booking volume. Titles are grouped by exact
// string match; ties keep first-seen order.
func topDestinations(bookings []Booking) []Destination {
	index := map[string]int{}
	ordered := []Destination{}

	for _, b := range bookings {
		i, seen := index[b.TripTitle]
		if !seen {
			i = len(ordered)
			index[b.TripTitle] = i
			ordered = append(ordered, Destination{Title: b.TripTitle})
		}
		ordered[i].Bookings++
		if b.Status == statusConfirmed {
			ordered[i].Revenue += b.Amount
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Bookings > ordered[j].Bookings
	})

	if len(ordered) > leaderboardSize {
		ordered = ordered[:leaderboardSize]
	}
	for i := range ordered {
		ordered[i].Rank = i + 1
	}
	return ordered
}

// recentActivity maps the most recently created bookings to a feed of
// human-readable events. It sorts the raw collection by createdAt so records
// predating the schema's bookingDate field still order correctly.
func recentActivity(raws []RawBooking, now time.Time) []ActivityEntry {
	sorted := append([]RawBooking{}, raws...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return resolveCreatedAt(sorted[i]).After(resolveCreatedAt(sorted[j]))
	})

	if len(sorted) > activityFeedSize {
		sorted = sorted[:activityFeedSize]
	}

	feed := make([]ActivityEntry, 0, len(sorted))
	for _, raw := range sorted {
		b := normalizeBooking(raw)
		entry := ActivityEntry{
			User:         b.CustomerName,
			Action:       activityVerb(b.Status),
			Target:       b.TripTitle,
			RelativeTime: relativeTimeSince(resolveCreatedAt(raw), now),
		}
		if b.Amount > 0 {
			entry.Amount = formatINR(b.Amount)
		}
		feed = append(feed, entry)
	}
	return feed
}

func activityVerb(status string) string {
	switch status {
	case statusConfirmed:
		return "booked"
	case statusCancelled:
		return "cancelled"
	}
	return "requested"
}

// relativeTimeSince buckets a wall-clock delta as minutes, hours or days ago.
func relativeTimeSince(t, now time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	delta := now.Sub(t)
	switch {
	case delta < time.Minute:
		return "just now"
	case delta < time.Hour:
		return fmt.Sprintf("%d min ago", int(delta.Minutes()))
	case delta < 24*time.Hour:
		hours := int(delta.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(delta.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

// formatINR renders an amount with the rupee sign and Indian digit grouping
// (last three digits, then groups of two): 1500000 -> ₹15,00,000.
func formatINR(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	whole := int64(amount)
	fraction := amount - float64(whole)

	digits := fmt.Sprintf("%d", whole)
	grouped := digits
	if len(digits) > 3 {
		head := digits[:len(digits)-3]
		tail := digits[len(digits)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		parts = append([]string{head}, parts...)
		grouped = strings.Join(parts, ",") + "," + tail
	}

	result := "₹" + grouped
	if fraction > 0.004 {
		result += fmt.Sprintf(".%02d", int(math.Round(fraction*100)))
	}
	if negative {
		return "-" + result
	}
	return result
}
