package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bizdir/admin-server/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context, filter model.AccountFilter, params model.ListParams) (*model.Page[model.AccountListItem], error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	Update(ctx context.Context, id int64, params model.UpdateAccountParams) (*model.Account, error)
	SetActive(ctx context.Context, id int64, active bool) (*model.Account, error)
	Count(ctx context.Context, filter model.AccountFilter) (int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM users WHERE email = $1
	`, email)
	return HandleNotFound(&account, err)
}

func accountWhere(filter model.AccountFilter) *where {
	w := &where{}
	if filter.Role != "" {
		w.add("u.role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		w.add("u.is_active = ?", *filter.IsActive)
	}
	w.search(filter.Search, "u.email", "u.name")
	return w
}

func (r *accountRepo) List(ctx context.Context, filter model.AccountFilter, params model.ListParams) (*model.Page[model.AccountListItem], error) {
	w := accountWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, rebind(`SELECT COUNT(*) FROM users u`+w.String()), w.Args()...); err != nil {
		return nil, err
	}

	items := []model.AccountListItem{}
	err := r.db.SelectContext(ctx, &items, rebind(`
		SELECT u.*,
			(SELECT COUNT(*) FROM admin_logs l WHERE l.user_id = u.id) AS log_count
		FROM users u`+w.String()+`
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT ? OFFSET ?
	`), w.Args(params.Limit, params.Offset())...)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.AccountListItem]{Items: items, Total: total}, nil
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO users (email, name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Email, params.Name, params.PasswordHash, params.Role, params.IsActive)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) Update(ctx context.Context, id int64, params model.UpdateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE users SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			is_active = COALESCE($4, is_active),
			password_hash = COALESCE($5, password_hash),
			updated_at = $6
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Role, params.IsActive, params.PasswordHash, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) SetActive(ctx context.Context, id int64, active bool) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE users SET is_active = $2, updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, active, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) Count(ctx context.Context, filter model.AccountFilter) (int, error) {
	w := accountWhere(filter)
	var count int
	err := r.db.GetContext(ctx, &count, rebind(`SELECT COUNT(*) FROM users u`+w.String()), w.Args()...)
	return count, err
}

func (r *accountRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return countBetween(ctx, r.db, "users", from, to)
}
