package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"device-manager/internal/entities"
	"device-manager/internal/events"
	"device-manager/internal/repositories"
	"device-manager/pkg/eventbus"
)

type fakeDeviceRepo struct {
	repositories.DeviceRepositoryInterface

	open          []entities.Device
	overdueMarked []uint64
	atRiskMarked  []uint64
}

func (r *fakeDeviceRepo) FindOpenWithDueDate(context.Context) ([]entities.Device, error) {
	return r.open, nil
}

func (r *fakeDeviceRepo) MarkOverdueNotified(_ context.Context, id uint64, _ time.Time) error {
	r.overdueMarked = append(r.overdueMarked, id)
	return nil
}

func (r *fakeDeviceRepo) MarkAtRiskNotified(_ context.Context, id uint64, _ time.Time) error {
	r.atRiskMarked = append(r.atRiskMarked, id)
	return nil
}

func collectEvents(bus *eventbus.Bus, name string) <-chan eventbus.Event {
	ch := make(chan eventbus.Event, 10)
	bus.Subscribe(name, func(_ context.Context, e eventbus.Event) error {
		ch <- e
		return nil
	})
	return ch
}

func waitEvent(t *testing.T, ch <-chan eventbus.Event) eventbus.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("событие не пришло")
		return nil
	}
}

func TestSLAMonitor_PublishesOverdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	repo := &fakeDeviceRepo{open: []entities.Device{
		{ID: 1, Name: "Printer", SerialNumber: "PRN-100", DueDate: &due},
	}}

	bus := eventbus.New(zap.NewNop())
	overdue := collectEvents(bus, "device.overdue")

	m := NewSLAMonitor(repo, bus, time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return now })
	m.Scan(context.Background())

	e := waitEvent(t, overdue)
	event, ok := e.(events.DeviceOverdueEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1), event.Device.ID)
	assert.Equal(t, []uint64{1}, repo.overdueMarked)
}

func TestSLAMonitor_PublishesAtRisk(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(12 * time.Hour)
	repo := &fakeDeviceRepo{open: []entities.Device{
		{ID: 7, Name: "Laptop", SerialNumber: "LPT-7", DueDate: &due},
	}}

	bus := eventbus.New(zap.NewNop())
	atRisk := collectEvents(bus, "device.at_risk")

	m := NewSLAMonitor(repo, bus, time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return now })
	m.Scan(context.Background())

	e := waitEvent(t, atRisk)
	event, ok := e.(events.DeviceAtRiskEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(7), event.Device.ID)
	assert.Equal(t, []uint64{7}, repo.atRiskMarked)
}

func TestSLAMonitor_SkipsAlreadyNotified(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	notified := now.Add(-30 * time.Minute)
	repo := &fakeDeviceRepo{open: []entities.Device{
		{ID: 1, DueDate: &due, OverdueNotifiedAt: &notified},
	}}

	bus := eventbus.New(zap.NewNop())
	overdue := collectEvents(bus, "device.overdue")

	m := NewSLAMonitor(repo, bus, time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return now })
	m.Scan(context.Background())

	select {
	case <-overdue:
		t.Fatal("повторное уведомление о просрочке")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, repo.overdueMarked)
}

func TestSLAMonitor_AtRiskNotRepeated(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(12 * time.Hour)
	notified := now.Add(-time.Hour)
	repo := &fakeDeviceRepo{open: []entities.Device{
		{ID: 3, DueDate: &due, AtRiskNotifiedAt: &notified},
	}}

	bus := eventbus.New(zap.NewNop())
	atRisk := collectEvents(bus, "device.at_risk")

	m := NewSLAMonitor(repo, bus, time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return now })
	m.Scan(context.Background())

	select {
	case <-atRisk:
		t.Fatal("повторное уведомление о риске")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, repo.atRiskMarked)
}

func TestSLAMonitor_IgnoresCompletedAndFarDue(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	pastDue := now.Add(-time.Hour)
	farDue := now.Add(72 * time.Hour)
	completed := now.Add(-2 * time.Hour)
	repo := &fakeDeviceRepo{open: []entities.Device{
		{ID: 1, DueDate: &pastDue, CompletedAt: &completed},
		{ID: 2, DueDate: &farDue},
	}}

	bus := eventbus.New(zap.NewNop())
	overdue := collectEvents(bus, "device.overdue")
	atRisk := collectEvents(bus, "device.at_risk")

	m := NewSLAMonitor(repo, bus, time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return now })
	m.Scan(context.Background())

	select {
	case <-overdue:
		t.Fatal("завершённое устройство не должно считаться просроченным")
	case <-atRisk:
		t.Fatal("далёкий срок не должен считаться риском")
	case <-time.After(100 * time.Millisecond):
	}
}
