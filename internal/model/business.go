package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Business struct {
	ID          int64          `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description *string        `db:"description" json:"description"`
	Address     string         `db:"address" json:"address"`
	Phone       *string        `db:"phone" json:"phone"`
	Email       *string        `db:"email" json:"email"`
	Website     *string        `db:"website" json:"website"`
	Category    string         `db:"category" json:"category"`
	Type        BusinessType   `db:"type" json:"type"`
	Status      BusinessStatus `db:"status" json:"status"`
	IsVerified  bool           `db:"is_verified" json:"isVerified"`
	Metadata    types.JSONText `db:"metadata" json:"metadata"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`

	Images       []BusinessImage `db:"-" json:"images"`
	Partnerships []Partnership   `db:"-" json:"partnerships,omitempty"`
}

// BusinessListItem carries the partnership count shown in list views.
type BusinessListItem struct {
	Business
	PartnershipCount int `db:"partnership_count" json:"partnershipCount"`
}

type BusinessImage struct {
	ID         int64     `db:"id" json:"id"`
	BusinessID int64     `db:"business_id" json:"businessId"`
	ImageURL   string    `db:"image_url" json:"imageUrl"`
	AltText    *string   `db:"alt_text" json:"altText"`
	Order      int       `db:"sort_order" json:"order"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type CreateBusinessParams struct {
	Name        string
	Description *string
	Address     string
	Phone       *string
	Email       *string
	Website     *string
	Category    string
	Type        BusinessType
	Status      BusinessStatus
	Metadata    types.JSONText
}

// UpdateBusinessParams merges only the non-nil fields. A nil Metadata keeps
// the stored document.
type UpdateBusinessParams struct {
	Name        *string
	Description *string
	Address     *string
	Phone       *string
	Email       *string
	Website     *string
	Category    *string
	Status      *BusinessStatus
	IsVerified  *bool
	Metadata    types.JSONText
}

type BusinessFilter struct {
	Status     BusinessStatus
	Category   string
	Type       BusinessType
	IsVerified *bool
	Search     string
}

type CreateBusinessImageParams struct {
	BusinessID int64
	ImageURL   string
	AltText    *string
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int    `db:"count" json:"count"`
}
