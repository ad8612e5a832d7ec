package auth

import (
	"context"

	"github.com/charmbracelet/log"
)

// Mailer delivers magic links to admins. The production deployment plugs
// in a real email provider; development setups use LogMailer and copy the
// link from the server log.
type Mailer interface {
	// SendMagicLink delivers a sign-in link to the given email address.
	SendMagicLink(ctx context.Context, email, link string) error
}

// LogMailer writes magic links to the logger instead of sending email.
type LogMailer struct {
	logger *log.Logger
}

var _ Mailer = (*LogMailer)(nil)

// NewLogMailer creates a mailer that logs links at info level.
func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendMagicLink logs the link for manual delivery.
func (m *LogMailer) SendMagicLink(_ context.Context, email, link string) error {
	m.logger.Info("magic link issued", "email", email, "link", link)
	return nil
}
