package model

import (
	"time"
)

type Partnership struct {
	ID          int64             `db:"id" json:"id"`
	BusinessID  int64             `db:"business_id" json:"businessId"`
	PartnerName string            `db:"partner_name" json:"partnerName"`
	Description *string           `db:"description" json:"description"`
	StartDate   time.Time         `db:"start_date" json:"startDate"`
	EndDate     *time.Time        `db:"end_date" json:"endDate"`
	Status      PartnershipStatus `db:"status" json:"status"`
	Discount    *float64          `db:"discount" json:"discount"`
	Terms       *string           `db:"terms" json:"terms"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updatedAt"`

	Business *PartnershipBusiness `db:"business" json:"business,omitempty"`
}

// PartnershipBusiness is the business summary joined onto partnership reads.
type PartnershipBusiness struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Category string  `db:"category" json:"category"`
	Address  string  `db:"address" json:"address"`
	Phone    *string `db:"phone" json:"phone"`
	Email    *string `db:"email" json:"email"`
}

type CreatePartnershipParams struct {
	BusinessID  int64
	PartnerName string
	Description *string
	StartDate   time.Time
	EndDate     *time.Time
	Status      PartnershipStatus
	Discount    *float64
	Terms       *string
}

// UpdatePartnershipParams merges only the set fields. ClearEndDate and
// ClearDiscount null the column explicitly.
type UpdatePartnershipParams struct {
	PartnerName   *string
	Description   *string
	StartDate     *time.Time
	EndDate       *time.Time
	ClearEndDate  bool
	Status        *PartnershipStatus
	Discount      *float64
	ClearDiscount bool
	Terms         *string
}

type PartnershipFilter struct {
	Status     PartnershipStatus
	BusinessID int64
	Search     string
}
