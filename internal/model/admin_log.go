package model

import (
	"encoding/json"
	"time"
)

// AdminLog is an append-only audit trail row. UserID is a weak reference:
// the row survives removal of the account.
type AdminLog struct {
	ID         int64         `db:"id" json:"id"`
	UserID     *int64        `db:"user_id" json:"userId"`
	Action     AuditAction   `db:"action" json:"action"`
	Resource   AuditResource `db:"resource" json:"resource"`
	ResourceID *int64        `db:"resource_id" json:"resourceId"`
	Details    *string       `db:"details" json:"details"`
	IPAddress  *string       `db:"ip_address" json:"ipAddress"`
	UserAgent  *string       `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// AdminLogWithActor is an AdminLog joined with whatever is left of its actor.
type AdminLogWithActor struct {
	AdminLog
	ActorEmail *string `db:"actor_email" json:"-"`
	ActorName  *string `db:"actor_name" json:"-"`
}

// LogActor is the account summary rendered as "user" on an audit entry.
type LogActor struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Actor returns nil for system entries and for actors whose account is gone.
func (l AdminLogWithActor) Actor() *LogActor {
	if l.UserID == nil || l.ActorEmail == nil {
		return nil
	}
	return &LogActor{ID: *l.UserID, Email: *l.ActorEmail, Name: l.ActorName}
}

func (l AdminLogWithActor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AdminLog
		User *LogActor `json:"user"`
	}{l.AdminLog, l.Actor()})
}

type CreateAdminLogParams struct {
	UserID     *int64
	Action     AuditAction
	Resource   AuditResource
	ResourceID *int64
	Details    *string
	IPAddress  *string
	UserAgent  *string
}

type AdminLogFilter struct {
	UserID   *int64
	Action   AuditAction
	Resource AuditResource
	Since    *time.Time
}
