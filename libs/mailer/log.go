package mailer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// LogProvider writes emails to the structured log instead of sending them.
// It is the default when no Resend API key is configured, so local
// development never emails real customers.
type LogProvider struct {
	Logger *slog.Logger
}

func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{Logger: logger}
}

func (l *LogProvider) Name() string {
	return "log"
}

// Send logs the message and returns a synthetic message ID.
func (l *LogProvider) Send(msg Message) (SendResult, error) {
	fakeID := uuid.New().String()
	l.Logger.Info("mailer: email logged (not sent)",
		"provider", "log",
		"from", msg.From,
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"html_length", len(msg.HTML),
		"text_length", len(msg.Text),
		"fake_message_id", fakeID,
	)
	if msg.Text != "" {
		l.Logger.Info("mailer: email text body", "text", msg.Text)
	}
	return SendResult{ProviderMessageID: fmt.Sprintf("log-%s", fakeID)}, nil
}
