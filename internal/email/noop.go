package email

import (
	"context"

	"go.uber.org/zap"
)

// NoopSender logs mail to zap instead of delivering it. Used in
// development and whenever SMTP is not configured.
type NoopSender struct {
	logger *zap.Logger
}

// NewNoopSender creates a NoopSender backed by the given logger.
func NewNoopSender(logger *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

// Send logs the mail and returns nil.
func (n *NoopSender) Send(_ context.Context, to, subject, body string) error {
	n.logger.Info("email suppressed (noop sender)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
