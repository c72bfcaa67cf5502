package email

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// NoopSender logs the message instead of delivering it. Used when no mail
// provider is configured, so local setups still surface the confirmation and
// reset links.
type NoopSender struct {
	logger logging.Logger
}

// NewNoopSender constructs a logging-only sender.
func NewNoopSender(logger logging.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

// Send logs the recipient and subject. The body is dropped so token values
// never land in logs.
func (s *NoopSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "email delivery skipped (no provider configured)",
		"to", msg.To, "subject", msg.Subject)
	return nil
}

var _ Sender = (*NoopSender)(nil)
