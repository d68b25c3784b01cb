package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bizdir/admin-server/internal/audit"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
)

type PartnershipOverview struct {
	TotalPartnerships      int     `json:"totalPartnerships"`
	ActivePartnerships     int     `json:"activePartnerships"`
	ExpiredPartnerships    int     `json:"expiredPartnerships"`
	TerminatedPartnerships int     `json:"terminatedPartnerships"`
	TotalBusinesses        int     `json:"totalBusinesses"`
	AverageDiscount        float64 `json:"averageDiscount"`
}

type PartnershipService struct {
	partnerships repository.PartnershipRepository
	businesses   repository.BusinessRepository
	audit        audit.Recorder
}

func NewPartnershipService(partnerships repository.PartnershipRepository, businesses repository.BusinessRepository, recorder audit.Recorder) *PartnershipService {
	return &PartnershipService{
		partnerships: partnerships,
		businesses:   businesses,
		audit:        recorder,
	}
}

func (s *PartnershipService) List(ctx context.Context, filter model.PartnershipFilter, params model.ListParams) (*model.Page[model.Partnership], error) {
	return s.partnerships.List(ctx, filter, params)
}

// ListByBusiness pages through one business's partnerships.
func (s *PartnershipService) ListByBusiness(ctx context.Context, businessID int64, status model.PartnershipStatus, params model.ListParams) (*model.Page[model.Partnership], error) {
	return s.partnerships.List(ctx, model.PartnershipFilter{BusinessID: businessID, Status: status}, params)
}

func (s *PartnershipService) Get(ctx context.Context, id int64) (*model.Partnership, error) {
	return s.find(ctx, id)
}

func (s *PartnershipService) Create(ctx context.Context, params model.CreatePartnershipParams, meta audit.Entry) (*model.Partnership, error) {
	business, err := s.businesses.FindByID(ctx, params.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("find business: %w", err)
	}
	if business == nil {
		return nil, apperrors.NotFound("Business")
	}
	if err := checkDates(params.StartDate, params.EndDate); err != nil {
		return nil, err
	}

	partnership, err := s.partnerships.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create partnership: %w", err)
	}

	s.audit.Record(ctx, entry(meta, model.ActionCreate, model.ResourcePartnership, partnership.ID,
		fmt.Sprintf("Created partnership: %s with %s", partnership.PartnerName, business.Name)))

	return partnership, nil
}

// Update merges params into the stored row. The date range is checked against
// the merged values, so moving only one end is still validated.
func (s *PartnershipService) Update(ctx context.Context, id int64, params model.UpdatePartnershipParams, meta audit.Entry) (*model.Partnership, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	start := existing.StartDate
	if params.StartDate != nil {
		start = *params.StartDate
	}
	end := existing.EndDate
	switch {
	case params.ClearEndDate:
		end = nil
	case params.EndDate != nil:
		end = params.EndDate
	}
	if err := checkDates(start, end); err != nil {
		return nil, err
	}

	partnership, err := s.partnerships.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("update partnership: %w", err)
	}
	if partnership == nil {
		return nil, apperrors.NotFound("Partnership")
	}

	s.audit.Record(ctx, entry(meta, model.ActionUpdate, model.ResourcePartnership, partnership.ID,
		"Updated partnership: "+partnership.PartnerName))

	return partnership, nil
}

func (s *PartnershipService) UpdateStatus(ctx context.Context, id int64, status model.PartnershipStatus, meta audit.Entry) (*model.Partnership, error) {
	partnership, err := s.partnerships.Update(ctx, id, model.UpdatePartnershipParams{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("update partnership status: %w", err)
	}
	if partnership == nil {
		return nil, apperrors.NotFound("Partnership")
	}

	s.audit.Record(ctx, entry(meta, model.ActionUpdateStatus, model.ResourcePartnership, partnership.ID,
		fmt.Sprintf("Changed partnership status to: %s", status)))

	return partnership, nil
}

func (s *PartnershipService) Delete(ctx context.Context, id int64, meta audit.Entry) error {
	partnership, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.partnerships.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete partnership: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("Partnership")
	}

	s.audit.Record(ctx, entry(meta, model.ActionDelete, model.ResourcePartnership, id,
		"Deleted partnership: "+partnership.PartnerName))

	return nil
}

func (s *PartnershipService) Overview(ctx context.Context) (*PartnershipOverview, error) {
	var o PartnershipOverview
	byStatus := func(status model.PartnershipStatus) func(ctx context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			return s.partnerships.Count(ctx, model.PartnershipFilter{Status: status})
		}
	}

	err := fanOut(ctx,
		count(&o.TotalPartnerships, byStatus("")),
		count(&o.ActivePartnerships, byStatus(model.PartnershipStatusActive)),
		count(&o.ExpiredPartnerships, byStatus(model.PartnershipStatusExpired)),
		count(&o.TerminatedPartnerships, byStatus(model.PartnershipStatusTerminated)),
		count(&o.TotalBusinesses, func(ctx context.Context) (int, error) {
			return s.businesses.Count(ctx, model.BusinessFilter{})
		}),
		func(ctx context.Context) error {
			avg, err := s.partnerships.AverageDiscount(ctx)
			o.AverageDiscount = avg
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("partnership overview: %w", err)
	}
	return &o, nil
}

func (s *PartnershipService) find(ctx context.Context, id int64) (*model.Partnership, error) {
	partnership, err := s.partnerships.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find partnership: %w", err)
	}
	if partnership == nil {
		return nil, apperrors.NotFound("Partnership")
	}
	return partnership, nil
}

func checkDates(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return apperrors.InvalidFields([]apperrors.FieldError{
			{Field: "endDate", Message: "must not be before startDate"},
		})
	}
	return nil
}
