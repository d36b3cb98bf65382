package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"device-manager/internal/events"
	"device-manager/internal/repositories"
	"device-manager/internal/rules"
	"device-manager/pkg/eventbus"
)

// SLAMonitor — фоновый сканер сроков. Периодически обходит открытые
// устройства со сроком и публикует события о просрочке и риске.
// Каждое устройство уведомляется один раз: повторные срабатывания
// отсекаются маркерами overdue_notified_at / at_risk_notified_at.
type SLAMonitor struct {
	deviceRepo repositories.DeviceRepositoryInterface
	bus        *eventbus.Bus
	interval   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewSLAMonitor(
	deviceRepo repositories.DeviceRepositoryInterface,
	bus *eventbus.Bus,
	interval time.Duration,
	logger *zap.Logger,
) *SLAMonitor {
	return &SLAMonitor{
		deviceRepo: deviceRepo,
		bus:        bus,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock подменяет источник времени. Нужен тестам.
func (m *SLAMonitor) WithClock(now func() time.Time) *SLAMonitor {
	m.now = now
	return m
}

// Start запускает сканер в отдельной горутине. Останавливается по
// отмене контекста. Первый проход выполняется сразу, не дожидаясь тика.
func (m *SLAMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Scan(ctx)
		for {
			select {
			case <-ctx.Done():
				m.logger.Info("SLA-монитор остановлен")
				return
			case <-ticker.C:
				m.Scan(ctx)
			}
		}
	}()
}

// Scan — один проход сканера.
func (m *SLAMonitor) Scan(ctx context.Context) {
	devices, err := m.deviceRepo.FindOpenWithDueDate(ctx)
	if err != nil {
		m.logger.Error("SLA-монитор: ошибка выборки устройств", zap.Error(err))
		return
	}

	now := m.now()
	for i := range devices {
		device := devices[i]

		switch {
		case rules.IsOverdue(device.DueDate, device.CompletedAt, now):
			if device.OverdueNotifiedAt != nil {
				continue
			}
			if err := m.deviceRepo.MarkOverdueNotified(ctx, device.ID, now); err != nil {
				m.logger.Error("SLA-монитор: не удалось пометить просрочку",
					zap.Uint64("deviceID", device.ID), zap.Error(err))
				continue
			}
			m.bus.Publish(ctx, events.DeviceOverdueEvent{Device: device})

		case rules.IsAtRisk(device.DueDate, device.CompletedAt, now):
			if device.AtRiskNotifiedAt != nil || device.OverdueNotifiedAt != nil {
				continue
			}
			if err := m.deviceRepo.MarkAtRiskNotified(ctx, device.ID, now); err != nil {
				m.logger.Error("SLA-монитор: не удалось пометить риск",
					zap.Uint64("deviceID", device.ID), zap.Error(err))
				continue
			}
			m.bus.Publish(ctx, events.DeviceAtRiskEvent{Device: device})
		}
	}
}
