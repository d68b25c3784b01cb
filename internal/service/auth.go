package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/auth"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
	"github.com/bizdir/admin-server/internal/util"
)

// Login outcomes reported to LoginMetrics.
const (
	LoginSuccess   = "success"
	LoginInvalid   = "invalid_credentials"
	LoginForbidden = "forbidden"
	LoginError     = "error"
)

type LoginMetrics interface {
	RecordLogin(outcome string)
}

type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *model.Account `json:"user"`
}

type AuthService struct {
	accounts    repository.AccountRepository
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	audit       audit.Recorder
	metrics     LoginMetrics
}

func NewAuthService(
	accounts repository.AccountRepository,
	tokens *auth.TokenManager,
	revocations auth.RevocationStore,
	recorder audit.Recorder,
	metrics LoginMetrics,
) *AuthService {
	return &AuthService{
		accounts:    accounts,
		tokens:      tokens,
		revocations: revocations,
		audit:       recorder,
		metrics:     metrics,
	}
}

// Login verifies the credential pair and issues a session token. Unknown,
// inactive and wrong-password accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, meta audit.Entry) (*LoginResult, error) {
	account, err := s.accounts.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		s.recordLogin(LoginError)
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil || !account.IsActive {
		s.recordLogin(LoginInvalid)
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if !account.Role.AtLeast(model.RoleAdmin) {
		s.recordLogin(LoginForbidden)
		return nil, apperrors.Forbidden("Admin access required")
	}
	if account.PasswordHash == nil || !util.CheckPasswordHash(password, *account.PasswordHash) {
		s.recordLogin(LoginInvalid)
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		s.recordLogin(LoginError)
		return nil, err
	}

	meta.ActorID = audit.Int64(account.ID)
	s.audit.Record(ctx, entry(meta, model.ActionLogin, model.ResourceAuth, account.ID, "Admin login: "+account.Email))
	s.recordLogin(LoginSuccess)

	log.Info().Int64("userId", account.ID).Msg("admin logged in")

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: account}, nil
}

// Me returns the caller's account, failing when it has since been removed or
// deactivated.
func (s *AuthService) Me(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil || !account.IsActive {
		return nil, apperrors.Unauthorized("User not found or inactive")
	}
	return account, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, identity *auth.Identity, meta audit.Entry) error {
	if err := s.revocations.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	meta.ActorID = audit.Int64(identity.ID)
	s.audit.Record(ctx, entry(meta, model.ActionLogout, model.ResourceAuth, identity.ID, "Admin logout: "+identity.Email))
	return nil
}

func (s *AuthService) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(outcome)
	}
}
