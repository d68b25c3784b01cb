package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/auth"
	"github.com/bizdir/admin-server/internal/database"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
	"github.com/bizdir/admin-server/internal/util"
)

const (
	accountDetailLogLimit = 50
	recentWindow          = 7 * 24 * time.Hour
)

type CreateAccountInput struct {
	Email    string
	Name     *string
	Role     model.Role
	IsActive *bool
	Password *string
}

type UpdateAccountInput struct {
	Name     *string
	Role     *model.Role
	IsActive *bool
	Password *string
}

// AccountDetail is an account with its most recent audit entries.
type AccountDetail struct {
	*model.Account
	AdminLogs []model.AdminLogWithActor `json:"adminLogs"`
}

type UserOverview struct {
	TotalUsers      int `json:"totalUsers"`
	ActiveUsers     int `json:"activeUsers"`
	InactiveUsers   int `json:"inactiveUsers"`
	AdminUsers      int `json:"adminUsers"`
	SuperAdminUsers int `json:"superAdminUsers"`
	RecentUsers     int `json:"recentUsers"`
}

type AccountService struct {
	accounts repository.AccountRepository
	logs     repository.AdminLogRepository
	audit    audit.Recorder
	now      func() time.Time
}

func NewAccountService(accounts repository.AccountRepository, logs repository.AdminLogRepository, recorder audit.Recorder) *AccountService {
	return &AccountService{
		accounts: accounts,
		logs:     logs,
		audit:    recorder,
		now:      time.Now,
	}
}

func (s *AccountService) List(ctx context.Context, filter model.AccountFilter, params model.ListParams) (*model.Page[model.AccountListItem], error) {
	return s.accounts.List(ctx, filter, params)
}

func (s *AccountService) Get(ctx context.Context, id int64) (*AccountDetail, error) {
	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.List(ctx, model.AdminLogFilter{UserID: &id}, model.ListParams{Page: 1, Limit: accountDetailLogLimit})
	if err != nil {
		return nil, fmt.Errorf("list account logs: %w", err)
	}

	return &AccountDetail{Account: account, AdminLogs: logs.Items}, nil
}

// Create adds an account. The actor cannot grant a role above their own.
func (s *AccountService) Create(ctx context.Context, actor *auth.Identity, input CreateAccountInput, meta audit.Entry) (*model.Account, error) {
	if !actor.Role.AtLeast(input.Role) {
		return nil, apperrors.Forbidden("Cannot assign a role above your own")
	}

	email := util.NormalizeEmail(input.Email)
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("Email already exists")
	}

	params := model.CreateAccountParams{
		Email:    email,
		Name:     input.Name,
		Role:     input.Role,
		IsActive: true,
	}
	if input.IsActive != nil {
		params.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hash, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		params.PasswordHash = &hash
	}

	account, err := s.accounts.Create(ctx, params)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("Email already exists")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.audit.Record(ctx, entry(meta, model.ActionCreate, model.ResourceUser, account.ID,
		fmt.Sprintf("Created user: %s with role: %s", account.Email, account.Role)))

	return account, nil
}

func (s *AccountService) Update(ctx context.Context, actor *auth.Identity, id int64, input UpdateAccountInput, meta audit.Entry) (*model.Account, error) {
	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkManage(actor, target); err != nil {
		return nil, err
	}
	if input.Role != nil && !actor.Role.AtLeast(*input.Role) {
		return nil, apperrors.Forbidden("Cannot assign a role above your own")
	}
	if input.IsActive != nil && !*input.IsActive && id == actor.ID {
		return nil, apperrors.ValidationError("You cannot deactivate your own account")
	}

	params := model.UpdateAccountParams{
		Name:     input.Name,
		Role:     input.Role,
		IsActive: input.IsActive,
	}
	if input.Password != nil {
		hash, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		params.PasswordHash = &hash
	}

	account, err := s.accounts.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if account == nil {
		return nil, apperrors.NotFound("User")
	}

	s.audit.Record(ctx, entry(meta, model.ActionUpdate, model.ResourceUser, account.ID, "Updated user: "+account.Email))

	return account, nil
}

// Deactivate is the account "delete": the row stays so the audit trail keeps
// resolving its actor.
func (s *AccountService) Deactivate(ctx context.Context, actor *auth.Identity, id int64, meta audit.Entry) error {
	if id == actor.ID {
		return apperrors.ValidationError("You cannot deactivate your own account")
	}
	_, err := s.setActive(ctx, actor, id, false, meta)
	return err
}

func (s *AccountService) Activate(ctx context.Context, actor *auth.Identity, id int64, meta audit.Entry) (*model.Account, error) {
	return s.setActive(ctx, actor, id, true, meta)
}

func (s *AccountService) setActive(ctx context.Context, actor *auth.Identity, id int64, active bool, meta audit.Entry) (*model.Account, error) {
	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkManage(actor, target); err != nil {
		return nil, err
	}

	account, err := s.accounts.SetActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("set account active: %w", err)
	}
	if account == nil {
		return nil, apperrors.NotFound("User")
	}

	action, verb := model.ActionDeactivate, "Deactivated"
	if active {
		action, verb = model.ActionActivate, "Activated"
	}
	s.audit.Record(ctx, entry(meta, action, model.ResourceUser, account.ID, fmt.Sprintf("%s user: %s", verb, account.Email)))

	return account, nil
}

// Logs pages through the audit entries written by the account.
func (s *AccountService) Logs(ctx context.Context, id int64, params model.ListParams) (*model.Page[model.AdminLogWithActor], error) {
	return s.logs.List(ctx, model.AdminLogFilter{UserID: &id}, params)
}

func (s *AccountService) Overview(ctx context.Context) (*UserOverview, error) {
	var o UserOverview
	active := true
	now := s.now()

	err := fanOut(ctx,
		count(&o.TotalUsers, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{})
		}),
		count(&o.ActiveUsers, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{IsActive: &active})
		}),
		count(&o.AdminUsers, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{Role: model.RoleAdmin})
		}),
		count(&o.SuperAdminUsers, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{Role: model.RoleSuperAdmin})
		}),
		count(&o.RecentUsers, func(ctx context.Context) (int, error) {
			return s.accounts.CountCreatedBetween(ctx, now.Add(-recentWindow), now)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("user overview: %w", err)
	}

	o.InactiveUsers = o.TotalUsers - o.ActiveUsers
	return &o, nil
}

func (s *AccountService) find(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return nil, apperrors.NotFound("User")
	}
	return account, nil
}

// checkManage rejects changes to accounts ranked above the actor.
func (s *AccountService) checkManage(actor *auth.Identity, target *model.Account) error {
	if target.Role.Valid() && !actor.Role.AtLeast(target.Role) {
		return apperrors.Forbidden("Cannot modify an account with a higher role")
	}
	return nil
}
