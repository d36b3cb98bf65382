package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"device-manager/internal/authz"
	"device-manager/internal/dto"
	"device-manager/internal/entities"
	"device-manager/internal/repositories"
	"device-manager/pkg/constants"
	"device-manager/pkg/contextkeys"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/types"
	"device-manager/pkg/utils"
)

type memTxManager struct{}

func (memTxManager) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// stubDeviceRepo держит одно устройство в памяти и применяет к нему
// мутации workflow так же, как это делает SQL-слой.
type stubDeviceRepo struct {
	repositories.DeviceRepositoryInterface

	device *entities.Device
}

func (r *stubDeviceRepo) FindDevice(context.Context, uint64) (*entities.Device, error) {
	copied := *r.device
	return &copied, nil
}

func (r *stubDeviceRepo) FindDeviceInTx(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Device, error) {
	return r.FindDevice(ctx, id)
}

func (r *stubDeviceRepo) SetAssignmentInTx(_ context.Context, _ pgx.Tx, _ uint64, technicianID *uint64, status string, workStatus *string) error {
	r.device.TechnicianID = technicianID
	r.device.Status = status
	r.device.WorkStatus = workStatus
	r.device.IsApprovedByManager = false
	r.device.CompletedAt = nil
	return nil
}

func (r *stubDeviceRepo) SetWorkStatusInTx(_ context.Context, _ pgx.Tx, _ uint64, workStatus string, completedAt *time.Time) error {
	r.device.WorkStatus = &workStatus
	r.device.CompletedAt = completedAt
	return nil
}

func (r *stubDeviceRepo) AssignManyInTx(_ context.Context, _ pgx.Tx, _ uint64, deviceIDs []uint64, _ string, _ string) ([]uint64, error) {
	return deviceIDs, nil
}

func (r *stubDeviceRepo) SetApprovalInTx(_ context.Context, _ pgx.Tx, _ uint64, approvedBy string, approvedAt time.Time) error {
	r.device.IsApprovedByManager = true
	r.device.ApprovedBy = &approvedBy
	r.device.ApprovedAt = &approvedAt
	return nil
}

type stubTechnicianRepo struct {
	repositories.TechnicianRepositoryInterface

	techs    map[uint64]*entities.Technician
	created  []entities.Technician
	restored []uint64
}

func (r *stubTechnicianRepo) FindTechnician(_ context.Context, id uint64) (*entities.Technician, error) {
	tech, ok := r.techs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return tech, nil
}

func (r *stubTechnicianRepo) FindTechnicianInTx(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Technician, error) {
	return r.FindTechnician(ctx, id)
}

// FindByUserID отвечает только активными техниками, как и SQL-версия.
func (r *stubTechnicianRepo) FindByUserID(_ context.Context, userID uint64) (*entities.Technician, error) {
	for _, tech := range r.techs {
		if !tech.IsDeleted && tech.UserID != nil && *tech.UserID == userID {
			return tech, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *stubTechnicianRepo) FindNamesByIDs(_ context.Context, ids []uint64) (map[uint64]string, error) {
	names := make(map[uint64]string, len(ids))
	for _, id := range ids {
		if tech, ok := r.techs[id]; ok {
			names[id] = tech.FullName
		}
	}
	return names, nil
}

func (r *stubTechnicianRepo) CreateTechnician(_ context.Context, t *entities.Technician) (uint64, error) {
	r.created = append(r.created, *t)
	return uint64(len(r.created)), nil
}

func (r *stubTechnicianRepo) RestoreInTx(_ context.Context, _ pgx.Tx, id uint64) error {
	r.restored = append(r.restored, id)
	return nil
}

type recordingAuditRepo struct {
	entries []entities.AuditLog
}

func (r *recordingAuditRepo) CreateInTx(_ context.Context, _ pgx.Tx, log *entities.AuditLog) error {
	r.entries = append(r.entries, *log)
	return nil
}

func (r *recordingAuditRepo) FindByDeviceID(context.Context, uint64) ([]entities.AuditLog, error) {
	return r.entries, nil
}

func (r *recordingAuditRepo) FindAll(context.Context, types.Filter) ([]entities.AuditLog, uint64, error) {
	return r.entries, uint64(len(r.entries)), nil
}

func (r *recordingAuditRepo) countByAction(action string) int {
	count := 0
	for _, e := range r.entries {
		if e.Action == action {
			count++
		}
	}
	return count
}

type recordingHistoryRepo struct {
	entries []entities.DeviceHistory
}

func (r *recordingHistoryRepo) CreateInTx(_ context.Context, _ pgx.Tx, h *entities.DeviceHistory) error {
	r.entries = append(r.entries, *h)
	return nil
}

func (r *recordingHistoryRepo) FindByDeviceID(context.Context, uint64) ([]entities.DeviceHistory, error) {
	return r.entries, nil
}

type recordingDispatcher struct {
	notices  []Notice
	managers []entities.User
}

func (d *recordingDispatcher) Dispatch(_ context.Context, notice Notice) DispatchResult {
	d.notices = append(d.notices, notice)
	result := DispatchResult{}
	for _, u := range notice.Recipients {
		result.Notified = append(result.Notified, u.ID)
	}
	return result
}

func (d *recordingDispatcher) ManagersAndAdmins(context.Context) ([]entities.User, error) {
	return d.managers, nil
}

type stubOverrideService struct {
	active bool
}

func (s *stubOverrideService) Enable(_ context.Context, window time.Duration) (time.Time, error) {
	s.active = true
	return time.Now().Add(window), nil
}

func (s *stubOverrideService) Disable(context.Context) error {
	s.active = false
	return nil
}

func (s *stubOverrideService) State(context.Context) (bool, *time.Time, error) {
	return s.active, nil, nil
}

func (s *stubOverrideService) IsActive(context.Context) bool { return s.active }

func workflowCtx(userID uint64, role string) context.Context {
	ctx := context.WithValue(context.Background(), contextkeys.UserIDKey, userID)
	ctx = context.WithValue(ctx, contextkeys.RoleNameKey, role)
	return context.WithValue(ctx, contextkeys.UserPermissionsMapKey, authz.PermissionsForRole(role))
}

type deviceFixture struct {
	svc        *DeviceService
	deviceRepo *stubDeviceRepo
	audit      *recordingAuditRepo
	history    *recordingHistoryRepo
	dispatcher *recordingDispatcher
	override   *stubOverrideService
}

func newDeviceFixture(device *entities.Device, techs map[uint64]*entities.Technician, users map[uint64]*entities.User) *deviceFixture {
	f := &deviceFixture{
		deviceRepo: &stubDeviceRepo{device: device},
		audit:      &recordingAuditRepo{},
		history:    &recordingHistoryRepo{},
		dispatcher: &recordingDispatcher{},
		override:   &stubOverrideService{},
	}
	f.svc = NewDeviceService(
		memTxManager{},
		f.deviceRepo,
		nil,
		&stubTechnicianRepo{techs: techs},
		nil,
		f.audit,
		f.history,
		&fakeUserRepo{users: users},
		f.dispatcher,
		f.override,
		zap.NewNop(),
	)
	return f
}

func TestAssignDevice_SingleAuditRowAndNotification(t *testing.T) {
	device := &entities.Device{
		ID:           1,
		Name:         "Printer HP-400",
		SerialNumber: "PRN-400",
		Status:       constants.DeviceStatusInactive,
		Priority:     "High",
	}
	techs := map[uint64]*entities.Technician{
		5: {ID: 5, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(10))},
	}
	users := map[uint64]*entities.User{
		1:  {ID: 1, FullName: "Admin", RoleName: constants.RoleAdmin},
		10: {ID: 10, Email: "karim@example.com", FullName: "Karim Salimov"},
	}
	f := newDeviceFixture(device, techs, users)

	err := f.svc.AssignDevice(workflowCtx(1, constants.RoleAdmin), 1, dto.AssignDeviceDTO{TechnicianID: utils.Ptr(uint64(5))})
	require.NoError(t, err)

	// Ровно одна запись аудита о смене техника
	assert.Equal(t, 1, f.audit.countByAction(constants.AuditTechnicianChanged))
	assert.Equal(t, 1, f.audit.countByAction(constants.AuditStatusChanged), "Inactive -> Active")

	require.NotNil(t, device.TechnicianID)
	assert.Equal(t, uint64(5), *device.TechnicianID)
	assert.Equal(t, constants.DeviceStatusActive, device.Status)
	require.NotNil(t, device.WorkStatus)
	assert.Equal(t, constants.WorkStatusAssigned, *device.WorkStatus)

	// Одно уведомление — пользователю назначенного техника
	require.Len(t, f.dispatcher.notices, 1)
	notice := f.dispatcher.notices[0]
	assert.Equal(t, "Device Assigned", notice.Title)
	assert.Equal(t, constants.NotificationInfo, notice.Type)
	require.Len(t, notice.Recipients, 1)
	assert.Equal(t, uint64(10), notice.Recipients[0].ID)
}

func TestAssignDevice_SameTechnicianIsNoOp(t *testing.T) {
	device := &entities.Device{
		ID:           1,
		Name:         "Printer HP-400",
		Status:       constants.DeviceStatusActive,
		TechnicianID: utils.Ptr(uint64(5)),
		WorkStatus:   utils.Ptr(constants.WorkStatusInProgress),
	}
	techs := map[uint64]*entities.Technician{
		5: {ID: 5, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(10))},
	}
	users := map[uint64]*entities.User{
		1:  {ID: 1, FullName: "Admin", RoleName: constants.RoleAdmin},
		10: {ID: 10, FullName: "Karim Salimov"},
	}
	f := newDeviceFixture(device, techs, users)

	err := f.svc.AssignDevice(workflowCtx(1, constants.RoleAdmin), 1, dto.AssignDeviceDTO{TechnicianID: utils.Ptr(uint64(5))})
	require.NoError(t, err)

	// Повторное назначение того же техника не порождает аудита
	assert.Empty(t, f.audit.entries)
	require.NotNil(t, device.WorkStatus)
	assert.Equal(t, constants.WorkStatusInProgress, *device.WorkStatus, "рабочий цикл не сброшен")
}

func TestUpdateWorkStatus_DoneStampsCompletionAndNotifiesManagers(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	device := &entities.Device{
		ID:           2,
		Name:         "Scanner Epson V39",
		Status:       constants.DeviceStatusActive,
		TechnicianID: utils.Ptr(uint64(5)),
		WorkStatus:   utils.Ptr(constants.WorkStatusInProgress),
	}
	techs := map[uint64]*entities.Technician{
		5: {ID: 5, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(3))},
	}
	users := map[uint64]*entities.User{
		3: {ID: 3, FullName: "Karim Salimov", RoleName: constants.RoleTechnician},
	}
	f := newDeviceFixture(device, techs, users)
	f.svc.WithClock(func() time.Time { return fixed })
	f.dispatcher.managers = []entities.User{
		{ID: 100, Email: "manager@example.com"},
		{ID: 1, Email: "admin@example.com"},
	}

	err := f.svc.UpdateWorkStatus(workflowCtx(3, constants.RoleTechnician), 2, dto.UpdateWorkStatusDTO{WorkStatus: constants.WorkStatusDone})
	require.NoError(t, err)

	require.NotNil(t, device.CompletedAt)
	assert.Equal(t, fixed, *device.CompletedAt)
	assert.Equal(t, 1, f.audit.countByAction(constants.AuditWorkStatusUpdated))

	// Уведомление уходит всем менеджерам и администраторам
	require.Len(t, f.dispatcher.notices, 1)
	notice := f.dispatcher.notices[0]
	assert.Equal(t, "Device Completed", notice.Title)
	assert.Equal(t, constants.NotificationSuccess, notice.Type)
	assert.Equal(t, f.dispatcher.managers, notice.Recipients)
}

func TestUpdateWorkStatus_IntermediateStatusDoesNotNotify(t *testing.T) {
	device := &entities.Device{
		ID:           2,
		Name:         "Scanner Epson V39",
		Status:       constants.DeviceStatusActive,
		TechnicianID: utils.Ptr(uint64(5)),
		WorkStatus:   utils.Ptr(constants.WorkStatusAssigned),
	}
	techs := map[uint64]*entities.Technician{
		5: {ID: 5, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(3))},
	}
	users := map[uint64]*entities.User{
		3: {ID: 3, FullName: "Karim Salimov", RoleName: constants.RoleTechnician},
	}
	f := newDeviceFixture(device, techs, users)

	err := f.svc.UpdateWorkStatus(workflowCtx(3, constants.RoleTechnician), 2, dto.UpdateWorkStatusDTO{WorkStatus: constants.WorkStatusInProgress})
	require.NoError(t, err)

	assert.Nil(t, device.CompletedAt)
	assert.Empty(t, f.dispatcher.notices)
}

func TestApproveDevice_NotifiesTechnician(t *testing.T) {
	device := &entities.Device{
		ID:           3,
		Name:         "Router MikroTik",
		Status:       constants.DeviceStatusActive,
		TechnicianID: utils.Ptr(uint64(5)),
		WorkStatus:   utils.Ptr(constants.WorkStatusDone),
		CompletedAt:  utils.Ptr(time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)),
	}
	techs := map[uint64]*entities.Technician{
		5: {ID: 5, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(10))},
	}
	users := map[uint64]*entities.User{
		2:  {ID: 2, FullName: "Dilshod Rahimov", RoleName: constants.RoleManager},
		10: {ID: 10, Email: "karim@example.com", FullName: "Karim Salimov"},
	}
	f := newDeviceFixture(device, techs, users)

	err := f.svc.ApproveDevice(workflowCtx(2, constants.RoleManager), 3)
	require.NoError(t, err)

	assert.True(t, device.IsApprovedByManager)
	require.NotNil(t, device.ApprovedBy)
	assert.Equal(t, "Dilshod Rahimov", *device.ApprovedBy)
	assert.Equal(t, 1, f.audit.countByAction(constants.AuditManagerApproval))

	require.Len(t, f.dispatcher.notices, 1)
	notice := f.dispatcher.notices[0]
	assert.Equal(t, "Device Approved", notice.Title)
	require.Len(t, notice.Recipients, 1)
	assert.Equal(t, uint64(10), notice.Recipients[0].ID)
}

func TestApproveDevice_AdminNeedsActiveOverride(t *testing.T) {
	device := &entities.Device{
		ID:           3,
		Name:         "Router MikroTik",
		Status:       constants.DeviceStatusActive,
		TechnicianID: utils.Ptr(uint64(5)),
		WorkStatus:   utils.Ptr(constants.WorkStatusDone),
	}
	techs := map[uint64]*entities.Technician{
		5: {ID: 5, FullName: "Karim Salimov"},
	}
	users := map[uint64]*entities.User{
		1: {ID: 1, FullName: "Admin", RoleName: constants.RoleAdmin},
	}
	f := newDeviceFixture(device, techs, users)

	err := f.svc.ApproveDevice(workflowCtx(1, constants.RoleAdmin), 3)
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "админ без активного override не принимает работу")
	assert.False(t, device.IsApprovedByManager)

	f.override.active = true
	require.NoError(t, f.svc.ApproveDevice(workflowCtx(1, constants.RoleAdmin), 3))
	assert.True(t, device.IsApprovedByManager)
}

func TestApproveDevice_RequiresDoneStatus(t *testing.T) {
	device := &entities.Device{
		ID:           3,
		Name:         "Router MikroTik",
		Status:       constants.DeviceStatusActive,
		TechnicianID: utils.Ptr(uint64(5)),
		WorkStatus:   utils.Ptr(constants.WorkStatusInProgress),
	}
	techs := map[uint64]*entities.Technician{
		5: {ID: 5, FullName: "Karim Salimov"},
	}
	users := map[uint64]*entities.User{
		2: {ID: 2, FullName: "Dilshod Rahimov", RoleName: constants.RoleManager},
	}
	f := newDeviceFixture(device, techs, users)

	err := f.svc.ApproveDevice(workflowCtx(2, constants.RoleManager), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Done")
	assert.False(t, device.IsApprovedByManager)
	assert.Empty(t, f.dispatcher.notices)
}
