package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"device-manager/internal/entities"
	"device-manager/pkg/constants"
	"device-manager/pkg/types"
)

type fakeNotificationRepo struct {
	created []entities.Notification
	failFor map[uint64]error
	unread  map[uint64]uint64
	nextID  uint64
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *entities.Notification) (uint64, error) {
	if err, ok := r.failFor[n.UserID]; ok {
		return 0, err
	}
	r.nextID++
	r.created = append(r.created, *n)
	return r.nextID, nil
}

func (r *fakeNotificationRepo) CreateInTx(ctx context.Context, _ pgx.Tx, n *entities.Notification) (uint64, error) {
	return r.Create(ctx, n)
}

func (r *fakeNotificationRepo) ListByUser(context.Context, uint64, types.Filter) ([]entities.Notification, uint64, error) {
	return nil, 0, nil
}

func (r *fakeNotificationRepo) UnreadCount(_ context.Context, userID uint64) (uint64, error) {
	return r.unread[userID], nil
}

func (r *fakeNotificationRepo) MarkRead(context.Context, uint64, uint64) error { return nil }
func (r *fakeNotificationRepo) MarkAllRead(context.Context, uint64) error      { return nil }
func (r *fakeNotificationRepo) Delete(context.Context, uint64, uint64) error   { return nil }

type fakeCacheRepo struct {
	values  map[string]string
	deleted []string
}

func (c *fakeCacheRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", errors.New("ключ не найден")
	}
	return v, nil
}

func (c *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = fmt.Sprint(value)
	return nil
}

func (c *fakeCacheRepo) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

type fakeUserRepo struct {
	users       map[uint64]*entities.User
	byRoleNames []entities.User
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint64) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(context.Context, string) (*entities.User, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeUserRepo) FindByRoleNames(context.Context, []string) ([]entities.User, error) {
	return r.byRoleNames, nil
}

func (r *fakeUserRepo) CreateUser(context.Context, *entities.User) (uint64, error) {
	return 0, errors.New("not implemented")
}

type fakeEmailService struct {
	sent    []string
	failFor map[string]error
}

func (s *fakeEmailService) Send(_ context.Context, to, _, _ string) error {
	if err, ok := s.failFor[to]; ok {
		return err
	}
	s.sent = append(s.sent, to)
	return nil
}

func TestDispatch_DeduplicatesRecipients(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeEmailService{}
	d := NewNotificationDispatcher(repo, &fakeCacheRepo{}, &fakeUserRepo{}, email, zap.NewNop())

	manager := entities.User{ID: 1, Email: "manager@example.com"}
	result := d.Dispatch(context.Background(), Notice{
		Recipients: []entities.User{manager, manager, {ID: 2, Email: "admin@example.com"}},
		Title:      "Device Completed",
		Message:    "Device PRN-100 marked as Done",
		Type:       constants.NotificationSuccess,
	})

	assert.Equal(t, []uint64{1, 2}, result.Notified)
	assert.Len(t, repo.created, 2)
	assert.Equal(t, []string{"manager@example.com", "admin@example.com"}, email.sent)
}

func TestDispatch_EmailFailureDoesNotBlock(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeEmailService{failFor: map[string]error{
		"broken@example.com": errors.New("smtp: connection refused"),
	}}
	d := NewNotificationDispatcher(repo, &fakeCacheRepo{}, &fakeUserRepo{}, email, zap.NewNop())

	result := d.Dispatch(context.Background(), Notice{
		Recipients: []entities.User{
			{ID: 1, Email: "broken@example.com"},
			{ID: 2, Email: "ok@example.com"},
		},
		Title: "Device Overdue",
		Type:  constants.NotificationDanger,
	})

	// уведомления в БД созданы для обоих, письмо упало только одно
	assert.Equal(t, []uint64{1, 2}, result.Notified)
	require.Len(t, result.EmailErrs, 1)
	assert.Contains(t, result.EmailErrs[0].Error(), "broken@example.com")
}

func TestDispatch_PersistFailureSkipsRecipient(t *testing.T) {
	repo := &fakeNotificationRepo{failFor: map[uint64]error{1: errors.New("db down")}}
	email := &fakeEmailService{}
	cache := &fakeCacheRepo{}
	d := NewNotificationDispatcher(repo, cache, &fakeUserRepo{}, email, zap.NewNop())

	result := d.Dispatch(context.Background(), Notice{
		Recipients: []entities.User{
			{ID: 1, Email: "first@example.com"},
			{ID: 2, Email: "second@example.com"},
		},
		Title: "Device Assigned",
		Type:  constants.NotificationInfo,
	})

	assert.Equal(t, []uint64{2}, result.Notified)
	// письмо не шлётся получателю, чьё уведомление не сохранилось
	assert.Equal(t, []string{"second@example.com"}, email.sent)
	// и его счётчик непрочитанных не трогаем
	assert.Equal(t, []string{unreadCountKey(2)}, cache.deleted)
}

func TestDispatch_ResetsUnreadCounters(t *testing.T) {
	cache := &fakeCacheRepo{values: map[string]string{
		unreadCountKey(1): "3",
		unreadCountKey(2): "0",
	}}
	d := NewNotificationDispatcher(&fakeNotificationRepo{}, cache, &fakeUserRepo{}, &fakeEmailService{}, zap.NewNop())

	d.Dispatch(context.Background(), Notice{
		Recipients: []entities.User{{ID: 1}, {ID: 2}},
		Title:      "Device Overdue",
		Type:       constants.NotificationDanger,
	})

	// кешированные счётчики обоих получателей сброшены
	assert.NotContains(t, cache.values, unreadCountKey(1))
	assert.NotContains(t, cache.values, unreadCountKey(2))
}

func TestDispatch_SkipsEmptyEmail(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeEmailService{}
	d := NewNotificationDispatcher(repo, &fakeCacheRepo{}, &fakeUserRepo{}, email, zap.NewNop())

	result := d.Dispatch(context.Background(), Notice{
		Recipients: []entities.User{{ID: 1}},
		Title:      "Device Approved",
		Type:       constants.NotificationSuccess,
	})

	assert.Equal(t, []uint64{1}, result.Notified)
	assert.Empty(t, email.sent)
	assert.Empty(t, result.EmailErrs)
}
