package model

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// AtLeast reports whether r sits at or above min in the role hierarchy.
// Unknown roles never satisfy any minimum.
func (r Role) AtLeast(min Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	return rank >= roleRank[min]
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

type BusinessStatus string

const (
	BusinessStatusPending   BusinessStatus = "PENDING"
	BusinessStatusApproved  BusinessStatus = "APPROVED"
	BusinessStatusRejected  BusinessStatus = "REJECTED"
	BusinessStatusSuspended BusinessStatus = "SUSPENDED"
)

type BusinessType string

const (
	BusinessTypeGeneral BusinessType = "GENERAL"
	BusinessTypeClinic  BusinessType = "CLINIC"
)

type PartnershipStatus string

const (
	PartnershipStatusActive     PartnershipStatus = "ACTIVE"
	PartnershipStatusInactive   PartnershipStatus = "INACTIVE"
	PartnershipStatusExpired    PartnershipStatus = "EXPIRED"
	PartnershipStatusTerminated PartnershipStatus = "TERMINATED"
)

type AuditAction string

const (
	ActionLogin        AuditAction = "LOGIN"
	ActionLogout       AuditAction = "LOGOUT"
	ActionCreate       AuditAction = "CREATE"
	ActionUpdate       AuditAction = "UPDATE"
	ActionDelete       AuditAction = "DELETE"
	ActionActivate     AuditAction = "ACTIVATE"
	ActionDeactivate   AuditAction = "DEACTIVATE"
	ActionUploadImages AuditAction = "UPLOAD_IMAGES"
	ActionDeleteImage  AuditAction = "DELETE_IMAGE"
	ActionUpdateStatus AuditAction = "UPDATE_STATUS"
	ActionExpire       AuditAction = "EXPIRE"
)

type AuditResource string

const (
	ResourceAuth          AuditResource = "AUTH"
	ResourceBusiness      AuditResource = "BUSINESS"
	ResourceBusinessImage AuditResource = "BUSINESS_IMAGE"
	ResourceUser          AuditResource = "USER"
	ResourcePartnership   AuditResource = "PARTNERSHIP"
)
