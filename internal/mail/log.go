package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport пишет письма в лог вместо отправки. Для dev-режима.
type LogTransport struct {
	log *zap.SugaredLogger
}

var _ Transport = (*LogTransport)(nil)

func NewLogTransport(log *zap.SugaredLogger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(ctx context.Context, msg *Message) error {
	t.log.Infow("email (dev mode, not sent)",
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
		"text", msg.Text,
	)
	return nil
}
