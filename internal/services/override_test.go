package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "device-manager/pkg/errors"
)

type fakeSettingsRepo struct {
	values map[string]string
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: make(map[string]string)}
}

func (r *fakeSettingsRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := r.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (r *fakeSettingsRepo) Set(_ context.Context, key string, value string) error {
	r.values[key] = value
	return nil
}

func (r *fakeSettingsRepo) Delete(_ context.Context, key string) error {
	delete(r.values, key)
	return nil
}

func TestOverrideService_EnableAndState(t *testing.T) {
	repo := newFakeSettingsRepo()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewOverrideService(repo, zap.NewNop(), 30*time.Minute).
		WithClock(func() time.Time { return base })

	expiresAt, err := svc.Enable(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, base.Add(30*time.Minute), expiresAt)

	active, got, err := svc.State(context.Background())
	require.NoError(t, err)
	assert.True(t, active)
	require.NotNil(t, got)
	assert.True(t, got.Equal(expiresAt))
}

func TestOverrideService_CustomWindow(t *testing.T) {
	repo := newFakeSettingsRepo()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewOverrideService(repo, zap.NewNop(), 30*time.Minute).
		WithClock(func() time.Time { return base })

	expiresAt, err := svc.Enable(context.Background(), 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Hour), expiresAt)
}

func TestOverrideService_LazyExpiry(t *testing.T) {
	repo := newFakeSettingsRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewOverrideService(repo, zap.NewNop(), 30*time.Minute).
		WithClock(func() time.Time { return now })

	_, err := svc.Enable(context.Background(), 30*time.Minute)
	require.NoError(t, err)

	// ровно на границе окно уже закрыто
	now = now.Add(30 * time.Minute)
	active, _, err := svc.State(context.Background())
	require.NoError(t, err)
	assert.False(t, active)

	// истёкшая запись погашена, повторное чтение её не видит
	_, ok := repo.values[overrideExpiresKey]
	assert.False(t, ok)
}

func TestOverrideService_DisabledByDefault(t *testing.T) {
	svc := NewOverrideService(newFakeSettingsRepo(), zap.NewNop(), 30*time.Minute)

	active, expiresAt, err := svc.State(context.Background())
	require.NoError(t, err)
	assert.False(t, active)
	assert.Nil(t, expiresAt)
	assert.False(t, svc.IsActive(context.Background()))
}

func TestOverrideService_Disable(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := NewOverrideService(repo, zap.NewNop(), 30*time.Minute)

	_, err := svc.Enable(context.Background(), time.Hour)
	require.NoError(t, err)
	require.True(t, svc.IsActive(context.Background()))

	require.NoError(t, svc.Disable(context.Background()))
	assert.False(t, svc.IsActive(context.Background()))
}

func TestOverrideService_GarbageValueReset(t *testing.T) {
	repo := newFakeSettingsRepo()
	repo.values[overrideExpiresKey] = "не дата"
	svc := NewOverrideService(repo, zap.NewNop(), 30*time.Minute)

	active, _, err := svc.State(context.Background())
	require.NoError(t, err)
	assert.False(t, active)

	_, ok := repo.values[overrideExpiresKey]
	assert.False(t, ok)
}
