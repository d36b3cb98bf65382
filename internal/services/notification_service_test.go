package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"device-manager/pkg/contextkeys"
)

func userCtx(userID uint64) context.Context {
	return context.WithValue(context.Background(), contextkeys.UserIDKey, userID)
}

func TestNotificationService_UnreadCountUsesCache(t *testing.T) {
	repo := &fakeNotificationRepo{unread: map[uint64]uint64{7: 5}}
	cache := &fakeCacheRepo{}
	svc := NewNotificationService(repo, cache, zap.NewNop())

	count, err := svc.UnreadCount(userCtx(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
	assert.Equal(t, "5", cache.values[unreadCountKey(7)])

	// второй вызов отвечает из кеша и не замечает изменений в базе
	repo.unread[7] = 9
	count, err = svc.UnreadCount(userCtx(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
}

func TestNotificationService_UnreadCountIgnoresCorruptCacheValue(t *testing.T) {
	repo := &fakeNotificationRepo{unread: map[uint64]uint64{7: 3}}
	cache := &fakeCacheRepo{values: map[string]string{unreadCountKey(7): "мусор"}}
	svc := NewNotificationService(repo, cache, zap.NewNop())

	count, err := svc.UnreadCount(userCtx(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestNotificationService_WritesResetCounterCache(t *testing.T) {
	repo := &fakeNotificationRepo{unread: map[uint64]uint64{7: 5}}
	cache := &fakeCacheRepo{}
	svc := NewNotificationService(repo, cache, zap.NewNop())

	_, err := svc.UnreadCount(userCtx(7))
	require.NoError(t, err)

	repo.unread[7] = 4
	require.NoError(t, svc.MarkRead(userCtx(7), 42))

	count, err := svc.UnreadCount(userCtx(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count, "после прочтения счётчик пересчитан из базы")

	repo.unread[7] = 0
	require.NoError(t, svc.MarkAllRead(userCtx(7)))
	count, err = svc.UnreadCount(userCtx(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNotificationService_DeleteResetsCounterCache(t *testing.T) {
	repo := &fakeNotificationRepo{unread: map[uint64]uint64{7: 2}}
	cache := &fakeCacheRepo{}
	svc := NewNotificationService(repo, cache, zap.NewNop())

	_, err := svc.UnreadCount(userCtx(7))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(userCtx(7), 11))
	assert.Contains(t, cache.deleted, unreadCountKey(7))
}
