// Package mail is the notification collaborator: welcome messages and
// password-reset secrets leave the system through a Mailer. Failures
// propagate so callers can roll back (the reset flow depends on this).
package mail

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/wildtrails/tours-api/internal/domain"
)

type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "passwordReset"
)

type Mailer interface {
	Send(ctx context.Context, to *domain.User, kind Kind, data map[string]string) error
}

func render(to *domain.User, kind Kind, data map[string]string) (subject, body string, err error) {
	name := strings.SplitN(to.Name, " ", 2)[0]
	switch kind {
	case KindWelcome:
		return "Welcome to the Wildtrails family!",
			fmt.Sprintf("Hi %s,\n\nWelcome to Wildtrails, we're glad to have you!\nVisit your account page at %s.\n", name, data["url"]),
			nil
	case KindPasswordReset:
		return "Your password reset token (valid for only 10 minutes)",
			fmt.Sprintf("Hi %s,\n\nForgot your password? Submit a PATCH request with your new password to %s.\nIf you didn't forget your password, please ignore this email.\n", name, data["url"]),
			nil
	default:
		return "", "", fmt.Errorf("unknown mail kind %q", kind)
	}
}

// SMTPMailer delivers over plain SMTP.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func NewSMTPMailer(host string, port int, from, user, pass string) *SMTPMailer {
	m := &SMTPMailer{
		Addr: fmt.Sprintf("%s:%d", host, port),
		From: from,
	}
	if user != "" {
		m.Auth = smtp.PlainAuth("", user, pass, host)
	}
	return m
}

func (m *SMTPMailer) Send(_ context.Context, to *domain.User, kind Kind, data map[string]string) error {
	subject, body, err := render(to, kind, data)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.From, to.Email, subject, body)
	return smtp.SendMail(m.Addr, m.Auth, m.From, []string{to.Email}, []byte(msg))
}

// LogMailer writes messages to the process log instead of delivering them.
// Used in development.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to *domain.User, kind Kind, data map[string]string) error {
	subject, body, err := render(to, kind, data)
	if err != nil {
		return err
	}
	log.Printf("mail to=%s kind=%s subject=%q\n%s", to.Email, kind, subject, body)
	return nil
}
