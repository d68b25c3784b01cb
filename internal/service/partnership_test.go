package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizdir/admin-server/internal/audit"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
)

func newPartnershipFixture() (*PartnershipService, *mockPartnershipRepo, *mockBusinessRepo, *recorderSpy) {
	partnerships := new(mockPartnershipRepo)
	businesses := new(mockBusinessRepo)
	recorder := &recorderSpy{}
	return NewPartnershipService(partnerships, businesses, recorder), partnerships, businesses, recorder
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPartnershipService_Create(t *testing.T) {
	ctx := context.Background()
	start := date(2026, 1, 1)

	t.Run("creates and audits with the business name", func(t *testing.T) {
		svc, partnerships, businesses, recorder := newPartnershipFixture()
		params := model.CreatePartnershipParams{BusinessID: 3, PartnerName: "Acme", StartDate: start}
		businesses.On("FindByID", ctx, int64(3)).Return(&model.Business{ID: 3, Name: "Cafe"}, nil)
		partnerships.On("Create", ctx, params).Return(&model.Partnership{ID: 8, PartnerName: "Acme"}, nil)

		p, err := svc.Create(ctx, params, audit.Entry{})
		require.NoError(t, err)
		assert.Equal(t, int64(8), p.ID)
		require.Len(t, recorder.entries, 1)
		assert.Equal(t, "Created partnership: Acme with Cafe", recorder.entries[0].Details)
	})

	t.Run("unknown business is not found", func(t *testing.T) {
		svc, partnerships, businesses, _ := newPartnershipFixture()
		businesses.On("FindByID", ctx, int64(3)).Return(nil, nil)

		_, err := svc.Create(ctx, model.CreatePartnershipParams{BusinessID: 3, StartDate: start}, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		partnerships.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		svc, partnerships, businesses, _ := newPartnershipFixture()
		end := date(2025, 12, 31)
		businesses.On("FindByID", ctx, int64(3)).Return(&model.Business{ID: 3}, nil)

		_, err := svc.Create(ctx, model.CreatePartnershipParams{BusinessID: 3, StartDate: start, EndDate: &end}, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
		partnerships.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("end equal to start is allowed", func(t *testing.T) {
		svc, partnerships, businesses, _ := newPartnershipFixture()
		end := start
		params := model.CreatePartnershipParams{BusinessID: 3, StartDate: start, EndDate: &end}
		businesses.On("FindByID", ctx, int64(3)).Return(&model.Business{ID: 3}, nil)
		partnerships.On("Create", ctx, params).Return(&model.Partnership{ID: 9}, nil)

		_, err := svc.Create(ctx, params, audit.Entry{})
		require.NoError(t, err)
	})
}

func TestPartnershipService_Update(t *testing.T) {
	ctx := context.Background()
	existingEnd := date(2026, 6, 30)
	existing := &model.Partnership{ID: 8, PartnerName: "Acme", StartDate: date(2026, 1, 1), EndDate: &existingEnd}

	t.Run("moving start past the stored end is rejected", func(t *testing.T) {
		svc, partnerships, _, _ := newPartnershipFixture()
		newStart := date(2026, 7, 1)
		partnerships.On("FindByID", ctx, int64(8)).Return(existing, nil)

		_, err := svc.Update(ctx, 8, model.UpdatePartnershipParams{StartDate: &newStart}, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
		partnerships.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("clearing the end date lifts the bound", func(t *testing.T) {
		svc, partnerships, _, recorder := newPartnershipFixture()
		newStart := date(2026, 7, 1)
		params := model.UpdatePartnershipParams{StartDate: &newStart, ClearEndDate: true}
		partnerships.On("FindByID", ctx, int64(8)).Return(existing, nil)
		partnerships.On("Update", ctx, int64(8), params).Return(&model.Partnership{ID: 8, PartnerName: "Acme"}, nil)

		_, err := svc.Update(ctx, 8, params, audit.Entry{})
		require.NoError(t, err)
		assert.Equal(t, "Updated partnership: Acme", recorder.entries[0].Details)
	})

	t.Run("missing partnership is not found", func(t *testing.T) {
		svc, partnerships, _, _ := newPartnershipFixture()
		partnerships.On("FindByID", ctx, int64(8)).Return(nil, nil)

		_, err := svc.Update(ctx, 8, model.UpdatePartnershipParams{}, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestPartnershipService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, partnerships, _, recorder := newPartnershipFixture()
	status := model.PartnershipStatusTerminated
	partnerships.On("Update", ctx, int64(8), model.UpdatePartnershipParams{Status: &status}).
		Return(&model.Partnership{ID: 8, Status: status}, nil)

	p, err := svc.UpdateStatus(ctx, 8, status, audit.Entry{})
	require.NoError(t, err)
	assert.Equal(t, status, p.Status)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, model.ActionUpdateStatus, recorder.entries[0].Action)
	assert.Equal(t, "Changed partnership status to: TERMINATED", recorder.entries[0].Details)
}

func TestPartnershipService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and audits", func(t *testing.T) {
		svc, partnerships, _, recorder := newPartnershipFixture()
		partnerships.On("FindByID", ctx, int64(8)).Return(&model.Partnership{ID: 8, PartnerName: "Acme"}, nil)
		partnerships.On("Delete", ctx, int64(8)).Return(true, nil)

		require.NoError(t, svc.Delete(ctx, 8, audit.Entry{}))
		assert.Equal(t, "Deleted partnership: Acme", recorder.entries[0].Details)
	})

	t.Run("concurrent delete is not found", func(t *testing.T) {
		svc, partnerships, _, recorder := newPartnershipFixture()
		partnerships.On("FindByID", ctx, int64(8)).Return(&model.Partnership{ID: 8}, nil)
		partnerships.On("Delete", ctx, int64(8)).Return(false, nil)

		err := svc.Delete(ctx, 8, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		assert.Empty(t, recorder.entries)
	})
}

func TestPartnershipService_ListByBusiness(t *testing.T) {
	ctx := context.Background()
	svc, partnerships, _, _ := newPartnershipFixture()
	params := model.ListParams{Page: 2, Limit: 5}
	filter := model.PartnershipFilter{BusinessID: 3, Status: model.PartnershipStatusActive}
	partnerships.On("List", ctx, filter, params).Return(&model.Page[model.Partnership]{Total: 6}, nil)

	page, err := svc.ListByBusiness(ctx, 3, model.PartnershipStatusActive, params)
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
}

func TestPartnershipService_Overview(t *testing.T) {
	svc, partnerships, businesses, _ := newPartnershipFixture()
	partnerships.On("Count", mock.Anything, model.PartnershipFilter{}).Return(10, nil)
	partnerships.On("Count", mock.Anything, model.PartnershipFilter{Status: model.PartnershipStatusActive}).Return(6, nil)
	partnerships.On("Count", mock.Anything, model.PartnershipFilter{Status: model.PartnershipStatusExpired}).Return(3, nil)
	partnerships.On("Count", mock.Anything, model.PartnershipFilter{Status: model.PartnershipStatusTerminated}).Return(1, nil)
	businesses.On("Count", mock.Anything, model.BusinessFilter{}).Return(4, nil)
	partnerships.On("AverageDiscount", mock.Anything).Return(12.5, nil)

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PartnershipOverview{
		TotalPartnerships:      10,
		ActivePartnerships:     6,
		ExpiredPartnerships:    3,
		TerminatedPartnerships: 1,
		TotalBusinesses:        4,
		AverageDiscount:        12.5,
	}, *o)
}
