// Package mail sends notification email on a background goroutine.
// Delivery is fire-and-forget: the request never waits and failures
// are logged, not surfaced.
package mail

import (
	"log"

	gomail "github.com/wneessen/go-mail"
)

// Sender is the narrow contract the services depend on.
type Sender interface {
	Send(to, subject, textBody, htmlBody string)
}

// SMTPSender delivers through a configured SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
	prefix string
}

// NewSMTPSender builds a sender. Username may be empty for relays
// without authentication.
func NewSMTPSender(host string, port int, username, password, from, prefix string) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPSender{client: client, from: from, prefix: prefix}, nil
}

// Send queues the message and returns immediately.
func (s *SMTPSender) Send(to, subject, textBody, htmlBody string) {
	go func() {
		msg := gomail.NewMsg()
		if err := msg.From(s.from); err != nil {
			log.Printf("mail: invalid sender %q: %v", s.from, err)
			return
		}
		if err := msg.To(to); err != nil {
			log.Printf("mail: invalid recipient %q: %v", to, err)
			return
		}
		msg.Subject(s.prefix + " " + subject)
		msg.SetBodyString(gomail.TypeTextPlain, textBody)
		if htmlBody != "" {
			msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)
		}
		if err := s.client.DialAndSend(msg); err != nil {
			log.Printf("mail: send to %s failed: %v", to, err)
		}
	}()
}

// NopSender discards mail; used by one-shot maintenance commands.
type NopSender struct{}

func (NopSender) Send(to, subject, textBody, htmlBody string) {}
