package mailer

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

type captureProvider struct {
	last Message
}

func (p *captureProvider) Name() string { return "capture" }

func (p *captureProvider) Send(msg Message) (SendResult, error) {
	p.last = msg
	return SendResult{ProviderMessageID: "capture-1"}, nil
}

func TestLogProviderSend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	provider := NewLogProvider(logger)

	msg := Message{
		From:    "bookings@ddtours.local",
		To:      []string{"customer@example.com"},
		Subject: "Booking Confirmed",
		HTML:    "<p>Your trip is confirmed</p>",
		Text:    "Your trip is confirmed",
	}

	result, err := provider.Send(msg)
	if err != nil {
		t.Fatalf("LogProvider.Send() error = %v", err)
	}
	if result.ProviderMessageID == "" {
		t.Error("LogProvider.Send() returned empty message ID")
	}
	if !strings.HasPrefix(result.ProviderMessageID, "log-") {
		t.Errorf("LogProvider.Send() message ID = %v, want prefix 'log-'", result.ProviderMessageID)
	}
}

func TestLogProviderName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	provider := NewLogProvider(logger)

	if got := provider.Name(); got != "log" {
		t.Errorf("LogProvider.Name() = %v, want 'log'", got)
	}
}

func TestMailerAppliesDefaultFrom(t *testing.T) {
	provider := &captureProvider{}
	m := New(provider, "bookings@ddtours.local")

	_, err := m.Send(Message{
		To:      []string{"customer@example.com"},
		Subject: "Booking Update",
		HTML:    "<p>Update</p>",
	})
	if err != nil {
		t.Fatalf("Mailer.Send() error = %v", err)
	}
	if provider.last.From != "bookings@ddtours.local" {
		t.Errorf("Mailer.Send() From = %q, want default sender", provider.last.From)
	}
}

func TestMailerKeepsExplicitFrom(t *testing.T) {
	provider := &captureProvider{}
	m := New(provider, "bookings@ddtours.local")

	_, err := m.Send(Message{
		From:    "alerts@ddtours.local",
		To:      []string{"customer@example.com"},
		Subject: "Booking Update",
	})
	if err != nil {
		t.Fatalf("Mailer.Send() error = %v", err)
	}
	if provider.last.From != "alerts@ddtours.local" {
		t.Errorf("Mailer.Send() From = %q, want explicit sender kept", provider.last.From)
	}
}

func TestMailerProviderName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := New(NewLogProvider(logger), "bookings@ddtours.local")

	if got := m.ProviderName(); got != "log" {
		t.Errorf("Mailer.ProviderName() = %v, want 'log'", got)
	}
}

func TestResendProviderName(t *testing.T) {
	provider := NewResendProvider("fake-api-key")

	if got := provider.Name(); got != "resend" {
		t.Errorf("ResendProvider.Name() = %v, want 'resend'", got)
	}
}
