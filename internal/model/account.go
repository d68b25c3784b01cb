package model

import (
	"time"
)

type Account struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         *string   `db:"name" json:"name"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// AccountListItem is an Account row annotated with its audit entry count.
type AccountListItem struct {
	Account
	LogCount int `db:"log_count" json:"logCount"`
}

type CreateAccountParams struct {
	Email        string
	Name         *string
	PasswordHash *string
	Role         Role
	IsActive     bool
}

// UpdateAccountParams merges only the non-nil fields.
type UpdateAccountParams struct {
	Name         *string
	Role         *Role
	IsActive     *bool
	PasswordHash *string
}

type AccountFilter struct {
	Role     Role
	IsActive *bool
	Search   string
}
