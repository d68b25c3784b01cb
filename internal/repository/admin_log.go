package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bizdir/admin-server/internal/model"
)

// AdminLogRepository is append-only: entries are never updated or deleted.
type AdminLogRepository interface {
	Create(ctx context.Context, params model.CreateAdminLogParams) (*model.AdminLog, error)
	List(ctx context.Context, filter model.AdminLogFilter, params model.ListParams) (*model.Page[model.AdminLogWithActor], error)
	Count(ctx context.Context, filter model.AdminLogFilter) (int, error)
}

type adminLogRepo struct {
	db sqlxDB
}

func NewAdminLogRepository(db *sqlx.DB) AdminLogRepository {
	return &adminLogRepo{db: db}
}

func (r *adminLogRepo) Create(ctx context.Context, params model.CreateAdminLogParams) (*model.AdminLog, error) {
	var entry model.AdminLog
	err := r.db.GetContext(ctx, &entry, `
		INSERT INTO admin_logs (user_id, action, resource, resource_id, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.UserID, params.Action, params.Resource, params.ResourceID,
		params.Details, params.IPAddress, params.UserAgent)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func adminLogWhere(filter model.AdminLogFilter) *where {
	w := &where{}
	if filter.UserID != nil {
		w.add("l.user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		w.add("l.action = ?", filter.Action)
	}
	if filter.Resource != "" {
		w.add("l.resource = ?", filter.Resource)
	}
	if filter.Since != nil {
		w.add("l.created_at >= ?", *filter.Since)
	}
	return w
}

func (r *adminLogRepo) List(ctx context.Context, filter model.AdminLogFilter, params model.ListParams) (*model.Page[model.AdminLogWithActor], error) {
	w := adminLogWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, rebind(`SELECT COUNT(*) FROM admin_logs l`+w.String()), w.Args()...); err != nil {
		return nil, err
	}

	items := []model.AdminLogWithActor{}
	err := r.db.SelectContext(ctx, &items, rebind(`
		SELECT l.*, u.email AS actor_email, u.name AS actor_name
		FROM admin_logs l
		LEFT JOIN users u ON u.id = l.user_id`+w.String()+`
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ? OFFSET ?
	`), w.Args(params.Limit, params.Offset())...)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.AdminLogWithActor]{Items: items, Total: total}, nil
}

func (r *adminLogRepo) Count(ctx context.Context, filter model.AdminLogFilter) (int, error) {
	w := adminLogWhere(filter)
	var count int
	err := r.db.GetContext(ctx, &count, rebind(`SELECT COUNT(*) FROM admin_logs l`+w.String()), w.Args()...)
	return count, err
}
