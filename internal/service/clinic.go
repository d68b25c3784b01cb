package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/bizdir/admin-server/internal/audit"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
)

const clinicCategory = "clinic"

type ClinicInput struct {
	Name        string
	Address     string
	Phone       string
	Website     *string
	Description *string
	Specialties []string
	Images      []string
}

type clinicMetadata struct {
	Specialties  []string  `json:"specialties"`
	Images       []string  `json:"images"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ClinicService is the public intake surface for CLINIC businesses. Every
// lookup is scoped to that type, so general businesses are invisible here.
type ClinicService struct {
	businesses repository.BusinessRepository
	audit      audit.Recorder
	now        func() time.Time
}

func NewClinicService(businesses repository.BusinessRepository, recorder audit.Recorder) *ClinicService {
	return &ClinicService{
		businesses: businesses,
		audit:      recorder,
		now:        time.Now,
	}
}

// Register creates a PENDING clinic on behalf of an anonymous caller.
func (s *ClinicService) Register(ctx context.Context, input ClinicInput, meta audit.Entry) (*model.Business, error) {
	metadata, err := json.Marshal(clinicMetadata{
		Specialties:  nonNil(input.Specialties),
		Images:       nonNil(input.Images),
		RegisteredAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode clinic metadata: %w", err)
	}

	phone := input.Phone
	clinic, err := s.businesses.Create(ctx, model.CreateBusinessParams{
		Name:        input.Name,
		Description: input.Description,
		Address:     input.Address,
		Phone:       &phone,
		Website:     input.Website,
		Category:    clinicCategory,
		Type:        model.BusinessTypeClinic,
		Status:      model.BusinessStatusPending,
		Metadata:    types.JSONText(metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("create clinic: %w", err)
	}

	meta.ActorID = nil
	s.audit.Record(ctx, entry(meta, model.ActionCreate, model.ResourceBusiness, clinic.ID, "Registered clinic: "+clinic.Name))

	return clinic, nil
}

func (s *ClinicService) List(ctx context.Context, status model.BusinessStatus, params model.ListParams) (*model.Page[model.BusinessListItem], error) {
	return s.businesses.List(ctx, model.BusinessFilter{Type: model.BusinessTypeClinic, Status: status}, params)
}

func (s *ClinicService) Get(ctx context.Context, id int64) (*model.Business, error) {
	clinic, err := s.businesses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find clinic: %w", err)
	}
	if clinic == nil || clinic.Type != model.BusinessTypeClinic {
		return nil, apperrors.NotFound("Clinic")
	}
	return clinic, nil
}

// UpdateStatus moves the clinic through review. A reason is kept in metadata
// as rejectionReason; a nil reason clears any earlier one.
func (s *ClinicService) UpdateStatus(ctx context.Context, id int64, status model.BusinessStatus, reason *string, meta audit.Entry) (*model.Business, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	clinic, err := s.businesses.UpdateStatus(ctx, id, status, reason)
	if err != nil {
		return nil, fmt.Errorf("update clinic status: %w", err)
	}
	if clinic == nil {
		return nil, apperrors.NotFound("Clinic")
	}

	s.audit.Record(ctx, entry(meta, model.ActionUpdateStatus, model.ResourceBusiness, clinic.ID,
		fmt.Sprintf("Changed clinic status to: %s", status)))

	return clinic, nil
}

func (s *ClinicService) Delete(ctx context.Context, id int64, meta audit.Entry) error {
	clinic, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.businesses.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete clinic: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("Clinic")
	}

	s.audit.Record(ctx, entry(meta, model.ActionDelete, model.ResourceBusiness, id, "Deleted clinic: "+clinic.Name))

	return nil
}
