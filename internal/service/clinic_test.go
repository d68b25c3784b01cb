package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizdir/admin-server/internal/audit"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
)

func newClinicFixture() (*ClinicService, *mockBusinessRepo, *recorderSpy) {
	businesses := new(mockBusinessRepo)
	recorder := &recorderSpy{}
	svc := NewClinicService(businesses, recorder)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) }
	return svc, businesses, recorder
}

func TestClinicService_Register(t *testing.T) {
	ctx := context.Background()
	svc, businesses, recorder := newClinicFixture()

	var captured model.CreateBusinessParams
	businesses.On("Create", ctx, mock.MatchedBy(func(p model.CreateBusinessParams) bool {
		captured = p
		return true
	})).Return(&model.Business{ID: 4, Name: "Smile Dental", Type: model.BusinessTypeClinic}, nil)

	clinic, err := svc.Register(ctx, ClinicInput{
		Name:        "Smile Dental",
		Address:     "1 Main St",
		Phone:       "010-1234-5678",
		Specialties: []string{"orthodontics"},
	}, audit.Entry{ActorID: audit.Int64(99), IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), clinic.ID)

	assert.Equal(t, model.BusinessTypeClinic, captured.Type)
	assert.Equal(t, model.BusinessStatusPending, captured.Status)
	assert.Equal(t, "010-1234-5678", *captured.Phone)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(captured.Metadata, &metadata))
	assert.Equal(t, []any{"orthodontics"}, metadata["specialties"])
	assert.Equal(t, []any{}, metadata["images"])
	assert.Equal(t, "2026-02-01T09:00:00Z", metadata["registeredAt"])

	require.Len(t, recorder.entries, 1)
	assert.Nil(t, recorder.entries[0].ActorID)
	assert.Equal(t, "1.2.3.4", recorder.entries[0].IP)
}

func TestClinicService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("general businesses are hidden", func(t *testing.T) {
		svc, businesses, _ := newClinicFixture()
		businesses.On("FindByID", ctx, int64(4)).Return(&model.Business{ID: 4, Type: model.BusinessTypeGeneral}, nil)

		_, err := svc.Get(ctx, 4)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("returns clinics", func(t *testing.T) {
		svc, businesses, _ := newClinicFixture()
		businesses.On("FindByID", ctx, int64(4)).Return(&model.Business{ID: 4, Type: model.BusinessTypeClinic}, nil)

		clinic, err := svc.Get(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(4), clinic.ID)
	})
}

func TestClinicService_List(t *testing.T) {
	ctx := context.Background()
	svc, businesses, _ := newClinicFixture()
	params := model.ListParams{Page: 1, Limit: 20}
	businesses.On("List", ctx, model.BusinessFilter{Type: model.BusinessTypeClinic, Status: model.BusinessStatusPending}, params).
		Return(&model.Page[model.BusinessListItem]{Total: 0}, nil)

	_, err := svc.List(ctx, model.BusinessStatusPending, params)
	require.NoError(t, err)
	businesses.AssertExpectations(t)
}

func TestClinicService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the reason and audits", func(t *testing.T) {
		svc, businesses, recorder := newClinicFixture()
		reason := "incomplete license"
		businesses.On("FindByID", ctx, int64(4)).Return(&model.Business{ID: 4, Type: model.BusinessTypeClinic}, nil)
		businesses.On("UpdateStatus", ctx, int64(4), model.BusinessStatusRejected, &reason).
			Return(&model.Business{ID: 4, Status: model.BusinessStatusRejected}, nil)

		clinic, err := svc.UpdateStatus(ctx, 4, model.BusinessStatusRejected, &reason, audit.Entry{ActorID: audit.Int64(1)})
		require.NoError(t, err)
		assert.Equal(t, model.BusinessStatusRejected, clinic.Status)
		require.Len(t, recorder.entries, 1)
		assert.Equal(t, model.ActionUpdateStatus, recorder.entries[0].Action)
		assert.Equal(t, int64(1), *recorder.entries[0].ActorID)
	})

	t.Run("missing clinic is not found", func(t *testing.T) {
		svc, businesses, _ := newClinicFixture()
		businesses.On("FindByID", ctx, int64(4)).Return(nil, nil)

		_, err := svc.UpdateStatus(ctx, 4, model.BusinessStatusApproved, nil, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		businesses.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClinicService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, businesses, recorder := newClinicFixture()
	businesses.On("FindByID", ctx, int64(4)).Return(&model.Business{ID: 4, Name: "Smile", Type: model.BusinessTypeClinic}, nil)
	businesses.On("Delete", ctx, int64(4)).Return(true, nil)

	require.NoError(t, svc.Delete(ctx, 4, audit.Entry{}))
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "Deleted clinic: Smile", recorder.entries[0].Details)
}
