package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/mailprefs/internal/model"
)

// ErrNotConfigured is returned when sending while SMTP is disabled.
var ErrNotConfigured = errors.New("mailer: smtp is not configured")

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer sends emails via SMTP.
type Mailer struct {
	mu       sync.RWMutex
	settings model.AppSettings

	// sendFn replaces the SMTP transport in tests.
	sendFn func(Message) error
}

// New returns a Mailer using s. A nil s leaves it unconfigured.
func New(s *model.AppSettings) *Mailer {
	m := &Mailer{}
	m.Reconfigure(s)
	return m
}

// Reconfigure swaps in new settings for subsequent sends.
func (m *Mailer) Reconfigure(s *model.AppSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil {
		m.settings = model.AppSettings{}
		return
	}
	m.settings = *s
}

// Enabled reports whether the current settings allow sending.
func (m *Mailer) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.SMTPEnabled()
}

// Send delivers msg immediately.
func (m *Mailer) Send(msg Message) error {
	if m.sendFn != nil {
		return m.sendFn(msg)
	}

	m.mu.RLock()
	s := m.settings
	m.mu.RUnlock()

	if !s.SMTPEnabled() {
		return ErrNotConfigured
	}

	addr := fmt.Sprintf("%s:%d", s.SMTPHost, s.SMTPPort)
	var auth smtp.Auth
	if s.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.SMTPUser, s.SMTPPass, s.SMTPHost)
	}
	return smtp.SendMail(addr, auth, s.SMTPFromAddress, msg.To, []byte(m.formatMessage(msg)))
}

// SendTest sends a fixed message to to, for checking the SMTP settings.
func (m *Mailer) SendTest(to string) error {
	return m.Send(Message{
		To:      []string{to},
		Subject: "Test email",
		Body:    "This is a test email. Your SMTP settings are working.",
	})
}

func (m *Mailer) formatMessage(msg Message) string {
	m.mu.RLock()
	s := m.settings
	m.mu.RUnlock()

	from := s.SMTPFromAddress
	if s.SMTPFromName != "" {
		from = fmt.Sprintf("%s <%s>", headerSafe(s.SMTPFromName), s.SMTPFromAddress)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe(strings.Join(msg.To, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
