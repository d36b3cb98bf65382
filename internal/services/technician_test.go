package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"device-manager/internal/dto"
	"device-manager/internal/entities"
	"device-manager/pkg/constants"
	"device-manager/pkg/utils"
)

func newTechnicianService(techRepo *stubTechnicianRepo, users map[uint64]*entities.User) *TechnicianService {
	return NewTechnicianService(
		memTxManager{},
		techRepo,
		&stubDeviceRepo{},
		&recordingAuditRepo{},
		&recordingHistoryRepo{},
		&fakeUserRepo{users: users},
		&recordingDispatcher{},
		zap.NewNop(),
	)
}

func TestCreateTechnician_RejectsAlreadyLinkedUser(t *testing.T) {
	techRepo := &stubTechnicianRepo{techs: map[uint64]*entities.Technician{
		3: {ID: 3, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(10))},
	}}
	users := map[uint64]*entities.User{
		1:  {ID: 1, FullName: "Admin", RoleName: constants.RoleAdmin},
		10: {ID: 10, FullName: "Karim Salimov"},
		11: {ID: 11, FullName: "Farrukh Nazarov"},
	}
	svc := newTechnicianService(techRepo, users)
	ctx := workflowCtx(1, constants.RoleAdmin)

	_, err := svc.CreateTechnician(ctx, dto.CreateTechnicianDTO{
		FullName:  "Farrukh Nazarov",
		Phone:     "+992 900 11 22 33",
		Expertise: "Printers",
		UserID:    utils.Ptr(uint64(10)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "уже привязан к технику Karim Salimov")
	assert.Empty(t, techRepo.created)

	// Свободная учётная запись привязывается без препятствий
	_, err = svc.CreateTechnician(ctx, dto.CreateTechnicianDTO{
		FullName:  "Farrukh Nazarov",
		Phone:     "+992 900 11 22 33",
		Expertise: "Printers",
		UserID:    utils.Ptr(uint64(11)),
	})
	require.NoError(t, err)
	assert.Len(t, techRepo.created, 1)
}

func TestRestoreTechnician_RejectsRelinkedAccount(t *testing.T) {
	techRepo := &stubTechnicianRepo{techs: map[uint64]*entities.Technician{
		3: {ID: 3, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(10)), IsDeleted: true},
		4: {ID: 4, FullName: "Farrukh Nazarov", UserID: utils.Ptr(uint64(10))},
	}}
	users := map[uint64]*entities.User{
		1: {ID: 1, FullName: "Admin", RoleName: constants.RoleAdmin},
	}
	svc := newTechnicianService(techRepo, users)

	_, err := svc.RestoreTechnician(workflowCtx(1, constants.RoleAdmin), 3, dto.RestoreTechnicianDTO{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "уже привязана к технику Farrukh Nazarov")
	assert.Empty(t, techRepo.restored)
}

func TestRestoreTechnician_FreeAccountRestores(t *testing.T) {
	techRepo := &stubTechnicianRepo{techs: map[uint64]*entities.Technician{
		3: {ID: 3, FullName: "Karim Salimov", UserID: utils.Ptr(uint64(10)), IsDeleted: true},
	}}
	users := map[uint64]*entities.User{
		1: {ID: 1, FullName: "Admin", RoleName: constants.RoleAdmin},
	}
	svc := newTechnicianService(techRepo, users)

	_, err := svc.RestoreTechnician(workflowCtx(1, constants.RoleAdmin), 3, dto.RestoreTechnicianDTO{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, techRepo.restored)
}
