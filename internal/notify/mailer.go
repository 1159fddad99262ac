// Package notify delivers one-time codes to users.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

var purposeSubjects = map[string]string{
	domain.OtpPurposeEmailVerification: "Verify your email address",
	domain.OtpPurposeNewDeviceLogin:    "Confirm your new device",
	domain.OtpPurposeTransaction:       "Confirm your transaction",
	domain.OtpPurposePasswordReset:     "Reset your password",
}

// SMTPMailer sends OTP emails through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) SendOtp(_ context.Context, email, name, code, purpose string) error {
	subject, ok := purposeSubjects[purpose]
	if !ok {
		subject = "Your one-time code"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\nYour one-time code is %s. It expires in 5 minutes.\r\n", name, code)
	b.WriteString("If you did not request this, please contact support immediately.\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{email}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	return nil
}

// LogMailer is the development notifier: it logs deliveries instead of
// sending mail. The code itself is never logged.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOtp(_ context.Context, email, _, _, purpose string) error {
	m.logger.Info("otp delivery skipped (no SMTP configured)",
		slog.String("email", email),
		slog.String("purpose", purpose),
	)

	return nil
}
