package mailer

// Message is a single outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// SendResult carries the provider's identifier for the sent message.
type SendResult struct {
	ProviderMessageID string
}

// Provider delivers messages through a specific email backend.
type Provider interface {
	Name() string
	Send(msg Message) (SendResult, error)
}

// Mailer is the entry point for sending booking notifications. It applies
// the default sender address and delegates delivery to its provider.
type Mailer struct {
	provider    Provider
	defaultFrom string
}

func New(provider Provider, defaultFrom string) *Mailer {
	return &Mailer{
		provider:    provider,
		defaultFrom: defaultFrom,
	}
}

// Send delivers msg via the configured provider. An empty From falls back
// to the default sender address.
func (m *Mailer) Send(msg Message) (SendResult, error) {
	if msg.From == "" {
		msg.From = m.defaultFrom
	}
	return m.provider.Send(msg)
}

// ProviderName reports which provider the mailer was configured with.
func (m *Mailer) ProviderName() string {
	return m.provider.Name()
}
