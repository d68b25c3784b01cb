package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/database"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
	"github.com/bizdir/admin-server/internal/storage"
)

// ImageStorage is the file side of business image management.
type ImageStorage interface {
	Validate(files []*multipart.FileHeader) error
	Save(files []*multipart.FileHeader) ([]storage.SavedImage, error)
	RemoveAll(images []storage.SavedImage)
	Remove(imageURL string) error
}

type BusinessService struct {
	db           *sqlx.DB
	businesses   repository.BusinessRepository
	images       repository.BusinessImageRepository
	partnerships repository.PartnershipRepository
	store        ImageStorage
	audit        audit.Recorder
}

func NewBusinessService(
	db *sqlx.DB,
	businesses repository.BusinessRepository,
	images repository.BusinessImageRepository,
	partnerships repository.PartnershipRepository,
	store ImageStorage,
	recorder audit.Recorder,
) *BusinessService {
	return &BusinessService{
		db:           db,
		businesses:   businesses,
		images:       images,
		partnerships: partnerships,
		store:        store,
		audit:        recorder,
	}
}

// List returns a page of businesses with their images attached.
func (s *BusinessService) List(ctx context.Context, filter model.BusinessFilter, params model.ListParams) (*model.Page[model.BusinessListItem], error) {
	page, err := s.businesses.List(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	if len(page.Items) == 0 {
		return page, nil
	}

	ids := make([]int64, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.ID
	}
	images, err := s.images.ListByBusinessIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list business images: %w", err)
	}
	for i := range page.Items {
		page.Items[i].Images = nonNil(images[page.Items[i].ID])
	}
	return page, nil
}

// Get returns the business with images and partnerships.
func (s *BusinessService) Get(ctx context.Context, id int64) (*model.Business, error) {
	business, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	images, err := s.images.ListByBusiness(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list business images: %w", err)
	}
	partnerships, err := s.partnerships.ListByBusiness(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list business partnerships: %w", err)
	}

	business.Images = nonNil(images)
	business.Partnerships = nonNil(partnerships)
	return business, nil
}

func (s *BusinessService) Create(ctx context.Context, params model.CreateBusinessParams, meta audit.Entry) (*model.Business, error) {
	business, err := s.businesses.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create business: %w", err)
	}
	business.Images = []model.BusinessImage{}

	s.audit.Record(ctx, entry(meta, model.ActionCreate, model.ResourceBusiness, business.ID, "Created business: "+business.Name))

	return business, nil
}

func (s *BusinessService) Update(ctx context.Context, id int64, params model.UpdateBusinessParams, meta audit.Entry) (*model.Business, error) {
	business, err := s.businesses.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("update business: %w", err)
	}
	if business == nil {
		return nil, apperrors.NotFound("Business")
	}

	images, err := s.images.ListByBusiness(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list business images: %w", err)
	}
	business.Images = nonNil(images)

	s.audit.Record(ctx, entry(meta, model.ActionUpdate, model.ResourceBusiness, business.ID, "Updated business: "+business.Name))

	return business, nil
}

// Delete removes the business; images and partnerships cascade. Image files
// are removed after the row is gone.
func (s *BusinessService) Delete(ctx context.Context, id int64, meta audit.Entry) error {
	business, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	images, err := s.images.ListByBusiness(ctx, id)
	if err != nil {
		return fmt.Errorf("list business images: %w", err)
	}

	deleted, err := s.businesses.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete business: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("Business")
	}

	for _, img := range images {
		s.removeFile(img.ImageURL)
	}

	s.audit.Record(ctx, entry(meta, model.ActionDelete, model.ResourceBusiness, id, "Deleted business: "+business.Name))

	return nil
}

// UploadImages stores the files and appends them to the business gallery in
// one transaction. Files already written are removed if anything fails.
func (s *BusinessService) UploadImages(ctx context.Context, businessID int64, files []*multipart.FileHeader, meta audit.Entry) ([]model.BusinessImage, error) {
	if err := s.store.Validate(files); err != nil {
		return nil, err
	}

	saved, err := s.store.Save(files)
	if err != nil {
		return nil, err
	}

	var (
		business *model.Business
		created  = make([]model.BusinessImage, 0, len(saved))
	)
	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		// The row lock serializes concurrent uploads so appended orders stay contiguous.
		var err error
		business, err = s.businesses.WithTx(tx).FindByIDForUpdate(ctx, businessID)
		if err != nil {
			return fmt.Errorf("lock business: %w", err)
		}
		if business == nil {
			return apperrors.NotFound("Business")
		}

		images := s.images.WithTx(tx)
		for _, img := range saved {
			altText := img.OriginalName
			row, err := images.Append(ctx, model.CreateBusinessImageParams{
				BusinessID: businessID,
				ImageURL:   img.URL,
				AltText:    &altText,
			})
			if err != nil {
				return fmt.Errorf("append business image: %w", err)
			}
			created = append(created, *row)
		}
		return nil
	})
	if err != nil {
		s.store.RemoveAll(saved)
		return nil, err
	}

	s.audit.Record(ctx, entry(meta, model.ActionUploadImages, model.ResourceBusiness, businessID,
		fmt.Sprintf("Uploaded %d images for business: %s", len(created), business.Name)))

	return created, nil
}

// DeleteImage removes one image and closes the gap in the ordering.
func (s *BusinessService) DeleteImage(ctx context.Context, businessID, imageID int64, meta audit.Entry) error {
	var image *model.BusinessImage
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		images := s.images.WithTx(tx)

		var err error
		image, err = images.FindByID(ctx, businessID, imageID)
		if err != nil {
			return fmt.Errorf("find business image: %w", err)
		}
		if image == nil {
			return apperrors.NotFound("Image")
		}
		if err := images.Delete(ctx, image); err != nil {
			return fmt.Errorf("delete business image: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeFile(image.ImageURL)

	s.audit.Record(ctx, entry(meta, model.ActionDeleteImage, model.ResourceBusinessImage, imageID,
		fmt.Sprintf("Deleted image for business ID: %d", businessID)))

	return nil
}

func (s *BusinessService) find(ctx context.Context, id int64) (*model.Business, error) {
	business, err := s.businesses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find business: %w", err)
	}
	if business == nil {
		return nil, apperrors.NotFound("Business")
	}
	return business, nil
}

// removeFile deletes an image file; the row is already gone so failures are
// only logged.
func (s *BusinessService) removeFile(imageURL string) {
	if err := s.store.Remove(imageURL); err != nil {
		log.Warn().Err(err).Str("imageUrl", imageURL).Msg("failed to remove image file")
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
