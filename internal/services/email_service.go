package services

import (
	"context"

	"go.uber.org/zap"
)

type EmailServiceInterface interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// LogEmailService пишет письма в лог вместо реальной отправки.
// Боевой SMTP-транспорт подключается той же сигнатурой.
type LogEmailService struct {
	logger *zap.Logger
}

func NewLogEmailService(logger *zap.Logger) EmailServiceInterface {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) Send(ctx context.Context, to string, subject string, body string) error {
	s.logger.Info("Email отправлен (mock)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
