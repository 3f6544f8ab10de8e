package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Arghya-2007/DD-Tours-Travels-Admin/libs/mailer"
)

const notifySendTimeout = 15 * time.Second

// sendStatusChangeEmail emails the customer about a booking status change.
// It runs off the request path; failures are logged and never surfaced to
// the operator.
func (a *App) sendStatusChangeEmail(booking Booking, newStatus string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifySendTimeout)
	defer cancel()

	settings, err := a.getSettings(ctx)
	if err != nil {
		a.log.Warn("status notification skipped", "id", booking.ID, "error", err.Error())
		return
	}
	if !settings.EmailNotifications {
		return
	}
	if booking.Email == "" || booking.Email == notAvailable || !strings.Contains(booking.Email, "@") {
		return
	}

	subject := fmt.Sprintf("Your booking for %s is %s", booking.TripTitle, newStatus)
	text := fmt.Sprintf(
		"Hello %s,\n\nYour booking %s for %s (travel date %s) is now %s.\n\nQuestions? Reach us at %s.\n\n%s",
		booking.CustomerName,
		booking.ID,
		booking.TripTitle,
		formatBookingDate(booking.Date),
		newStatus,
		settings.SupportEmail,
		settings.SiteName,
	)
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your booking <strong>%s</strong> for <strong>%s</strong> (travel date %s) is now <strong>%s</strong>.</p><p>Questions? Reach us at %s.</p><p>%s</p>",
		booking.CustomerName,
		booking.ID,
		booking.TripTitle,
		formatBookingDate(booking.Date),
		newStatus,
		settings.SupportEmail,
		settings.SiteName,
	)

	result, err := a.mailer.Send(mailer.Message{
		To:      []string{booking.Email},
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		a.log.Warn("status notification failed", "id", booking.ID, "error", err.Error())
		return
	}
	a.log.Info("status notification sent", "id", booking.ID, "status", newStatus, "message_id", result.ProviderMessageID)
}
