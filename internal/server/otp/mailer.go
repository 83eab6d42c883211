package otp

import (
	"context"
	"log/slog"
)

// Mailer delivers OTP codes to users. Real transport lives outside this
// service; the server only depends on the interface.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogMailer is a Mailer that records deliveries in the log instead of
// sending email. Used in development and tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a logging mailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendOTP logs the delivery. The code itself is only visible at debug level.
func (m *LogMailer) SendOTP(ctx context.Context, email, code string) error {
	m.logger.InfoContext(ctx, "otp delivery requested", slog.String("email", email))
	m.logger.DebugContext(ctx, "otp code", slog.String("email", email), slog.String("code", code))
	return nil
}
