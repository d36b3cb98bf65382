package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"device-manager/internal/repositories"
	apperrors "device-manager/pkg/errors"
)

// Ключ в app_settings, под которым хранится момент истечения окна.
const overrideExpiresKey = "admin_override_expires_at"

// OverrideServiceInterface — шлюз режима Admin Override: окно, в течение
// которого администратор получает технические действия техника.
type OverrideServiceInterface interface {
	Enable(ctx context.Context, window time.Duration) (time.Time, error)
	Disable(ctx context.Context) error
	State(ctx context.Context) (bool, *time.Time, error)
	IsActive(ctx context.Context) bool
}

type OverrideService struct {
	settingsRepo  repositories.SettingsRepositoryInterface
	logger        *zap.Logger
	defaultWindow time.Duration
	now           func() time.Time
}

func NewOverrideService(
	settingsRepo repositories.SettingsRepositoryInterface,
	logger *zap.Logger,
	defaultWindow time.Duration,
) *OverrideService {
	return &OverrideService{
		settingsRepo:  settingsRepo,
		logger:        logger,
		defaultWindow: defaultWindow,
		now:           time.Now,
	}
}

// WithClock подменяет источник времени. Нужен тестам.
func (s *OverrideService) WithClock(now func() time.Time) *OverrideService {
	s.now = now
	return s
}

func (s *OverrideService) Enable(ctx context.Context, window time.Duration) (time.Time, error) {
	if window <= 0 {
		window = s.defaultWindow
	}

	expiresAt := s.now().Add(window)
	if err := s.settingsRepo.Set(ctx, overrideExpiresKey, expiresAt.Format(time.RFC3339)); err != nil {
		s.logger.Error("OverrideService: не удалось включить режим", zap.Error(err))
		return time.Time{}, err
	}

	s.logger.Info("OverrideService: режим включён", zap.Time("expiresAt", expiresAt))
	return expiresAt, nil
}

func (s *OverrideService) Disable(ctx context.Context) error {
	if err := s.settingsRepo.Delete(ctx, overrideExpiresKey); err != nil {
		s.logger.Error("OverrideService: не удалось выключить режим", zap.Error(err))
		return err
	}
	s.logger.Info("OverrideService: режим выключен")
	return nil
}

// State возвращает текущее состояние окна. Истёкшее окно гасится
// лениво: первое же чтение после истечения удаляет запись.
func (s *OverrideService) State(ctx context.Context) (bool, *time.Time, error) {
	raw, err := s.settingsRepo.Get(ctx, overrideExpiresKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}

	expiresAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.logger.Warn("OverrideService: некорректное значение настройки, сбрасываем",
			zap.String("value", raw))
		_ = s.settingsRepo.Delete(ctx, overrideExpiresKey)
		return false, nil, nil
	}

	if !s.now().Before(expiresAt) {
		if errDel := s.settingsRepo.Delete(ctx, overrideExpiresKey); errDel != nil {
			s.logger.Error("OverrideService: не удалось погасить истёкшее окно", zap.Error(errDel))
		}
		return false, nil, nil
	}

	return true, &expiresAt, nil
}

func (s *OverrideService) IsActive(ctx context.Context) bool {
	active, _, err := s.State(ctx)
	if err != nil {
		s.logger.Error("OverrideService: ошибка чтения состояния, считаем выключенным", zap.Error(err))
		return false
	}
	return active
}
