package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bizdir/admin-server/internal/model"
)

// BusinessImageRepository keeps sort_order gapless per business: Append
// continues after the current maximum and Delete shifts later rows down.
type BusinessImageRepository interface {
	ListByBusiness(ctx context.Context, businessID int64) ([]model.BusinessImage, error)
	ListByBusinessIDs(ctx context.Context, businessIDs []int64) (map[int64][]model.BusinessImage, error)
	FindByID(ctx context.Context, businessID, imageID int64) (*model.BusinessImage, error)
	Append(ctx context.Context, params model.CreateBusinessImageParams) (*model.BusinessImage, error)
	Delete(ctx context.Context, image *model.BusinessImage) error
	WithTx(tx *sqlx.Tx) BusinessImageRepository
}

type businessImageRepo struct {
	db sqlxDB
}

func NewBusinessImageRepository(db *sqlx.DB) BusinessImageRepository {
	return &businessImageRepo{db: db}
}

func (r *businessImageRepo) WithTx(tx *sqlx.Tx) BusinessImageRepository {
	return &businessImageRepo{db: tx}
}

func (r *businessImageRepo) ListByBusiness(ctx context.Context, businessID int64) ([]model.BusinessImage, error) {
	images := []model.BusinessImage{}
	err := r.db.SelectContext(ctx, &images, `
		SELECT * FROM business_images
		WHERE business_id = $1
		ORDER BY sort_order ASC
	`, businessID)
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *businessImageRepo) ListByBusinessIDs(ctx context.Context, businessIDs []int64) (map[int64][]model.BusinessImage, error) {
	result := make(map[int64][]model.BusinessImage, len(businessIDs))
	if len(businessIDs) == 0 {
		return result, nil
	}

	var images []model.BusinessImage
	err := r.db.SelectContext(ctx, &images, `
		SELECT * FROM business_images
		WHERE business_id = ANY($1)
		ORDER BY business_id, sort_order ASC
	`, pq.Array(businessIDs))
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		result[img.BusinessID] = append(result[img.BusinessID], img)
	}
	return result, nil
}

func (r *businessImageRepo) FindByID(ctx context.Context, businessID, imageID int64) (*model.BusinessImage, error) {
	var image model.BusinessImage
	err := r.db.GetContext(ctx, &image, `
		SELECT * FROM business_images WHERE id = $1 AND business_id = $2
	`, imageID, businessID)
	return HandleNotFound(&image, err)
}

func (r *businessImageRepo) Append(ctx context.Context, params model.CreateBusinessImageParams) (*model.BusinessImage, error) {
	var image model.BusinessImage
	err := r.db.GetContext(ctx, &image, `
		INSERT INTO business_images (business_id, image_url, alt_text, sort_order)
		VALUES ($1, $2, $3, (
			SELECT COALESCE(MAX(sort_order) + 1, 0) FROM business_images WHERE business_id = $1
		))
		RETURNING *
	`, params.BusinessID, params.ImageURL, params.AltText)
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// Delete must run inside a transaction: the unique order constraint is
// deferred until commit.
func (r *businessImageRepo) Delete(ctx context.Context, image *model.BusinessImage) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM business_images WHERE id = $1`, image.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE business_images SET sort_order = sort_order - 1
		WHERE business_id = $1 AND sort_order > $2
	`, image.BusinessID, image.Order)
	return err
}
