package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/bizdir/admin-server/internal/model"
)

type BusinessRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Business, error)
	// FindByIDForUpdate row-locks the business until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Business, error)
	List(ctx context.Context, filter model.BusinessFilter, params model.ListParams) (*model.Page[model.BusinessListItem], error)
	Create(ctx context.Context, params model.CreateBusinessParams) (*model.Business, error)
	Update(ctx context.Context, id int64, params model.UpdateBusinessParams) (*model.Business, error)
	// UpdateStatus sets the status and records reason under metadata.rejectionReason.
	// A nil reason removes any previous one.
	UpdateStatus(ctx context.Context, id int64, status model.BusinessStatus, reason *string) (*model.Business, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context, filter model.BusinessFilter) (int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	CountByCategory(ctx context.Context) ([]model.CategoryCount, error)
	WithTx(tx *sqlx.Tx) BusinessRepository
}

type businessRepo struct {
	db sqlxDB
}

func NewBusinessRepository(db *sqlx.DB) BusinessRepository {
	return &businessRepo{db: db}
}

func (r *businessRepo) WithTx(tx *sqlx.Tx) BusinessRepository {
	return &businessRepo{db: tx}
}

func (r *businessRepo) FindByID(ctx context.Context, id int64) (*model.Business, error) {
	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		SELECT * FROM businesses WHERE id = $1
	`, id)
	return HandleNotFound(&business, err)
}

func (r *businessRepo) FindByIDForUpdate(ctx context.Context, id int64) (*model.Business, error) {
	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		SELECT * FROM businesses WHERE id = $1 FOR UPDATE
	`, id)
	return HandleNotFound(&business, err)
}

func businessWhere(filter model.BusinessFilter) *where {
	w := &where{}
	if filter.Status != "" {
		w.add("b.status = ?", filter.Status)
	}
	if filter.Category != "" {
		w.add("b.category = ?", filter.Category)
	}
	if filter.Type != "" {
		w.add("b.type = ?", filter.Type)
	}
	if filter.IsVerified != nil {
		w.add("b.is_verified = ?", *filter.IsVerified)
	}
	w.search(filter.Search, "b.name", "b.description", "b.address")
	return w
}

func (r *businessRepo) List(ctx context.Context, filter model.BusinessFilter, params model.ListParams) (*model.Page[model.BusinessListItem], error) {
	w := businessWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, rebind(`SELECT COUNT(*) FROM businesses b`+w.String()), w.Args()...); err != nil {
		return nil, err
	}

	items := []model.BusinessListItem{}
	err := r.db.SelectContext(ctx, &items, rebind(`
		SELECT b.*,
			(SELECT COUNT(*) FROM partnerships p WHERE p.business_id = b.id) AS partnership_count
		FROM businesses b`+w.String()+`
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ? OFFSET ?
	`), w.Args(params.Limit, params.Offset())...)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.BusinessListItem]{Items: items, Total: total}, nil
}

func (r *businessRepo) Create(ctx context.Context, params model.CreateBusinessParams) (*model.Business, error) {
	if params.Type == "" {
		params.Type = model.BusinessTypeGeneral
	}
	if params.Status == "" {
		params.Status = model.BusinessStatusPending
	}
	if len(params.Metadata) == 0 {
		params.Metadata = types.JSONText("{}")
	}

	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		INSERT INTO businesses (name, description, address, phone, email, website, category, type, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *
	`, params.Name, params.Description, params.Address, params.Phone, params.Email,
		params.Website, params.Category, params.Type, params.Status, params.Metadata)
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepo) Update(ctx context.Context, id int64, params model.UpdateBusinessParams) (*model.Business, error) {
	var metadata interface{}
	if len(params.Metadata) > 0 {
		metadata = params.Metadata
	}

	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		UPDATE businesses SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			address = COALESCE($4, address),
			phone = COALESCE($5, phone),
			email = COALESCE($6, email),
			website = COALESCE($7, website),
			category = COALESCE($8, category),
			status = COALESCE($9, status),
			is_verified = COALESCE($10, is_verified),
			metadata = COALESCE($11, metadata),
			updated_at = $12
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Description, params.Address, params.Phone, params.Email,
		params.Website, params.Category, params.Status, params.IsVerified, metadata, time.Now())
	return HandleNotFound(&business, err)
}

func (r *businessRepo) UpdateStatus(ctx context.Context, id int64, status model.BusinessStatus, reason *string) (*model.Business, error) {
	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		UPDATE businesses SET
			status = $2,
			metadata = CASE
				WHEN $3::text IS NULL THEN metadata - 'rejectionReason'
				ELSE jsonb_set(metadata, '{rejectionReason}', to_jsonb($3::text))
			END,
			updated_at = $4
		WHERE id = $1
		RETURNING *
	`, id, status, reason, time.Now())
	return HandleNotFound(&business, err)
}

func (r *businessRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *businessRepo) Count(ctx context.Context, filter model.BusinessFilter) (int, error) {
	w := businessWhere(filter)
	var count int
	err := r.db.GetContext(ctx, &count, rebind(`SELECT COUNT(*) FROM businesses b`+w.String()), w.Args()...)
	return count, err
}

func (r *businessRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return countBetween(ctx, r.db, "businesses", from, to)
}

func (r *businessRepo) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	counts := []model.CategoryCount{}
	err := r.db.SelectContext(ctx, &counts, `
		SELECT category, COUNT(*) AS count
		FROM businesses
		GROUP BY category
		ORDER BY count DESC, category ASC
	`)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
