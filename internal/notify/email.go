package notify

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/shopspring/decimal"

	"affiliate-platform/internal/models"
)

// Sender delivers affiliate notifications. All call sites are fire-and-forget:
// failures are logged by the caller and never fail the triggering operation.
type Sender interface {
	CommissionEarned(user *models.User, amount decimal.Decimal, source string) error
	PayoutRequested(user *models.User, amount decimal.Decimal) error
	PayoutStatusChanged(user *models.User, amount decimal.Decimal, status string) error
}

// SMTPSender sends notification mail over plain SMTP.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *SMTPSender) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, to, subject, body))

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// CommissionEarned notifies an affiliate about a new pending commission.
func (s *SMTPSender) CommissionEarned(user *models.User, amount decimal.Decimal, source string) error {
	subject := "You earned a new commission"
	body := fmt.Sprintf("Hi %s,\n\nA commission of %s USD from %s was just credited to your account. It will appear in your balance once approved.", user.Name, amount.StringFixed(2), source)
	return s.send(user.Email, subject, body)
}

// PayoutRequested confirms a payout request was received.
func (s *SMTPSender) PayoutRequested(user *models.User, amount decimal.Decimal) error {
	subject := "Payout request received"
	body := fmt.Sprintf("Hi %s,\n\nYour payout request for %s USD was received and is pending review.", user.Name, amount.StringFixed(2))
	return s.send(user.Email, subject, body)
}

// PayoutStatusChanged notifies the affiliate about a payout decision.
func (s *SMTPSender) PayoutStatusChanged(user *models.User, amount decimal.Decimal, status string) error {
	subject := fmt.Sprintf("Payout %s", status)
	body := fmt.Sprintf("Hi %s,\n\nYour payout of %s USD is now %s.", user.Name, amount.StringFixed(2), status)
	return s.send(user.Email, subject, body)
}

// LogSender writes notifications to the process log. It is the fallback when
// SMTP is not configured, and keeps the call points exercised in development.
type LogSender struct{}

func (LogSender) CommissionEarned(user *models.User, amount decimal.Decimal, source string) error {
	log.Printf("notify: commission earned: user=%d amount=%s source=%s", user.ID, amount.StringFixed(2), source)
	return nil
}

func (LogSender) PayoutRequested(user *models.User, amount decimal.Decimal) error {
	log.Printf("notify: payout requested: user=%d amount=%s", user.ID, amount.StringFixed(2))
	return nil
}

func (LogSender) PayoutStatusChanged(user *models.User, amount decimal.Decimal, status string) error {
	log.Printf("notify: payout %s: user=%d amount=%s", status, user.ID, amount.StringFixed(2))
	return nil
}
