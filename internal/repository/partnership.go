package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bizdir/admin-server/internal/model"
)

type PartnershipRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Partnership, error)
	List(ctx context.Context, filter model.PartnershipFilter, params model.ListParams) (*model.Page[model.Partnership], error)
	ListByBusiness(ctx context.Context, businessID int64) ([]model.Partnership, error)
	Create(ctx context.Context, params model.CreatePartnershipParams) (*model.Partnership, error)
	Update(ctx context.Context, id int64, params model.UpdatePartnershipParams) (*model.Partnership, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// ExpireEnded moves ACTIVE partnerships whose end date is before now to
	// EXPIRED and returns the affected ids.
	ExpireEnded(ctx context.Context, now time.Time) ([]int64, error)
	Count(ctx context.Context, filter model.PartnershipFilter) (int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	// AverageDiscount is the mean of non-null discounts, 0 when there are none.
	AverageDiscount(ctx context.Context) (float64, error)
	WithTx(tx *sqlx.Tx) PartnershipRepository
}

type partnershipRepo struct {
	db sqlxDB
}

func NewPartnershipRepository(db *sqlx.DB) PartnershipRepository {
	return &partnershipRepo{db: db}
}

func (r *partnershipRepo) WithTx(tx *sqlx.Tx) PartnershipRepository {
	return &partnershipRepo{db: tx}
}

// partnershipColumns selects p.* plus the joined business summary under the
// "business." prefix sqlx maps onto Partnership.Business.
const partnershipColumns = `
	p.*,
	b.id AS "business.id",
	b.name AS "business.name",
	b.category AS "business.category",
	b.address AS "business.address",
	b.phone AS "business.phone",
	b.email AS "business.email"`

func (r *partnershipRepo) FindByID(ctx context.Context, id int64) (*model.Partnership, error) {
	var partnership model.Partnership
	err := r.db.GetContext(ctx, &partnership, `
		SELECT`+partnershipColumns+`
		FROM partnerships p
		JOIN businesses b ON b.id = p.business_id
		WHERE p.id = $1
	`, id)
	return HandleNotFound(&partnership, err)
}

func partnershipWhere(filter model.PartnershipFilter) *where {
	w := &where{}
	if filter.Status != "" {
		w.add("p.status = ?", filter.Status)
	}
	if filter.BusinessID > 0 {
		w.add("p.business_id = ?", filter.BusinessID)
	}
	w.search(filter.Search, "p.partner_name", "p.description")
	return w
}

func (r *partnershipRepo) List(ctx context.Context, filter model.PartnershipFilter, params model.ListParams) (*model.Page[model.Partnership], error) {
	w := partnershipWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, rebind(`SELECT COUNT(*) FROM partnerships p`+w.String()), w.Args()...); err != nil {
		return nil, err
	}

	items := []model.Partnership{}
	err := r.db.SelectContext(ctx, &items, rebind(`
		SELECT`+partnershipColumns+`
		FROM partnerships p
		JOIN businesses b ON b.id = p.business_id`+w.String()+`
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?
	`), w.Args(params.Limit, params.Offset())...)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.Partnership]{Items: items, Total: total}, nil
}

func (r *partnershipRepo) ListByBusiness(ctx context.Context, businessID int64) ([]model.Partnership, error) {
	items := []model.Partnership{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM partnerships
		WHERE business_id = $1
		ORDER BY created_at DESC, id DESC
	`, businessID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *partnershipRepo) Create(ctx context.Context, params model.CreatePartnershipParams) (*model.Partnership, error) {
	if params.Status == "" {
		params.Status = model.PartnershipStatusActive
	}

	var partnership model.Partnership
	err := r.db.GetContext(ctx, &partnership, `
		WITH p AS (
			INSERT INTO partnerships (business_id, partner_name, description, start_date, end_date, status, discount, terms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT`+partnershipColumns+`
		FROM p
		JOIN businesses b ON b.id = p.business_id
	`, params.BusinessID, params.PartnerName, params.Description, params.StartDate,
		params.EndDate, params.Status, params.Discount, params.Terms)
	if err != nil {
		return nil, err
	}
	return &partnership, nil
}

func (r *partnershipRepo) Update(ctx context.Context, id int64, params model.UpdatePartnershipParams) (*model.Partnership, error) {
	var partnership model.Partnership
	err := r.db.GetContext(ctx, &partnership, `
		WITH p AS (
			UPDATE partnerships SET
				partner_name = COALESCE($2, partner_name),
				description = COALESCE($3, description),
				start_date = COALESCE($4, start_date),
				end_date = CASE WHEN $5 THEN NULL ELSE COALESCE($6, end_date) END,
				status = COALESCE($7, status),
				discount = CASE WHEN $8 THEN NULL ELSE COALESCE($9, discount) END,
				terms = COALESCE($10, terms),
				updated_at = $11
			WHERE id = $1
			RETURNING *
		)
		SELECT`+partnershipColumns+`
		FROM p
		JOIN businesses b ON b.id = p.business_id
	`, id, params.PartnerName, params.Description, params.StartDate, params.ClearEndDate,
		params.EndDate, params.Status, params.ClearDiscount, params.Discount, params.Terms, time.Now())
	return HandleNotFound(&partnership, err)
}

func (r *partnershipRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM partnerships WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *partnershipRepo) ExpireEnded(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		UPDATE partnerships SET status = $1, updated_at = $3
		WHERE status = $2 AND end_date IS NOT NULL AND end_date < $3
		RETURNING id
	`, model.PartnershipStatusExpired, model.PartnershipStatusActive, now)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *partnershipRepo) Count(ctx context.Context, filter model.PartnershipFilter) (int, error) {
	w := partnershipWhere(filter)
	var count int
	err := r.db.GetContext(ctx, &count, rebind(`SELECT COUNT(*) FROM partnerships p`+w.String()), w.Args()...)
	return count, err
}

func (r *partnershipRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return countBetween(ctx, r.db, "partnerships", from, to)
}

func (r *partnershipRepo) AverageDiscount(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.GetContext(ctx, &avg, `
		SELECT COALESCE(AVG(discount), 0)::float8 FROM partnerships WHERE discount IS NOT NULL
	`)
	return avg, err
}
