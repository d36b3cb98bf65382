package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"device-manager/pkg/constants"
)

func TestDeriveStatus(t *testing.T) {
	techID := uint64(7)

	assert.Equal(t, constants.DeviceStatusActive, DeriveStatus(&techID))
	assert.Equal(t, constants.DeviceStatusInactive, DeriveStatus(nil))
}

func TestAssignmentWorkStatus(t *testing.T) {
	techID := uint64(3)

	ws := AssignmentWorkStatus(&techID)
	if assert.NotNil(t, ws) {
		assert.Equal(t, constants.WorkStatusAssigned, *ws)
	}

	assert.Nil(t, AssignmentWorkStatus(nil))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityRank(constants.PriorityCritical), PriorityRank(constants.PriorityHigh))
	assert.Less(t, PriorityRank(constants.PriorityHigh), PriorityRank(constants.PriorityMedium))
	assert.Less(t, PriorityRank(constants.PriorityMedium), PriorityRank(constants.PriorityLow))
	assert.Equal(t, 4, PriorityRank("что-то неизвестное"))
}

func TestSLAStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("без срока", func(t *testing.T) {
		assert.Equal(t, constants.SLANoDueDate, SLAStatus(nil, nil, now))
	})

	t.Run("завершено за час до срока", func(t *testing.T) {
		due := now.Add(time.Hour)
		done := now
		assert.Equal(t, constants.SLAMetSLA, SLAStatus(&due, &done, now))
	})

	t.Run("завершено ровно в срок", func(t *testing.T) {
		due := now
		done := now
		assert.Equal(t, constants.SLAMetSLA, SLAStatus(&due, &done, now))
	})

	t.Run("завершено после срока", func(t *testing.T) {
		due := now.Add(-time.Hour)
		done := now
		assert.Equal(t, constants.SLAMissedSLA, SLAStatus(&due, &done, now))
	})

	t.Run("срок через 2 часа, не завершено", func(t *testing.T) {
		due := now.Add(2 * time.Hour)
		assert.Equal(t, constants.SLAAtRisk, SLAStatus(&due, nil, now))
	})

	t.Run("срок 2 часа назад, не завершено", func(t *testing.T) {
		due := now.Add(-2 * time.Hour)
		assert.Equal(t, constants.SLAOverdue, SLAStatus(&due, nil, now))
	})

	t.Run("срок через 3 дня", func(t *testing.T) {
		due := now.Add(72 * time.Hour)
		assert.Equal(t, constants.SLAOnTime, SLAStatus(&due, nil, now))
	})

	t.Run("граница окна риска", func(t *testing.T) {
		due := now.Add(AtRiskWindow)
		assert.Equal(t, constants.SLAAtRisk, SLAStatus(&due, nil, now))

		due = now.Add(AtRiskWindow + time.Second)
		assert.Equal(t, constants.SLAOnTime, SLAStatus(&due, nil, now))
	})
}

func TestIsOverdueAndIsAtRisk(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	soon := now.Add(time.Hour)
	done := now

	assert.True(t, IsOverdue(&past, nil, now))
	assert.False(t, IsOverdue(&past, &done, now), "завершённое устройство не просрочено")
	assert.False(t, IsOverdue(nil, nil, now))

	assert.True(t, IsAtRisk(&soon, nil, now))
	assert.False(t, IsAtRisk(&past, nil, now), "просроченное не считается At Risk")
	assert.False(t, IsAtRisk(&soon, &done, now))
}
