package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// AuthService coordinates login and account creation.
type AuthService struct {
	actors     repository.ActorRepository
	tokenMgr   *auth.TokenManager
	limiter    *auth.LoginLimiter
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	ActorRepo repository.ActorRepository
	Limiter   *auth.LoginLimiter
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		actors:     deps.ActorRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		limiter:    deps.Limiter,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for the HTTP middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates an actor by username. Failed attempts are
// counted per client key; once the limit is hit the account responds
// with a rate-limit error for the remainder of the window regardless
// of credential validity. Username lookups and password mismatches
// return the same error to avoid account probing.
func (s *AuthService) Login(ctx context.Context, clientKey, username, password string) (*domain.Actor, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("username and password required", nil)
	}

	if s.limiter != nil && !s.limiter.Allow(ctx, clientKey) {
		return nil, "", time.Time{}, apperrors.NewRateLimited("too many login attempts, try again later")
	}

	actor, err := s.actors.GetByUsername(ctx, username)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.recordFailure(ctx, clientKey)
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(actor.PasswordHash, password); err != nil {
		s.recordFailure(ctx, clientKey)
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, clientKey)
	}
	token, exp, err := s.tokenMgr.GenerateToken(actor)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return actor, token, exp, nil
}

// CreateActorInput describes a new account.
type CreateActorInput struct {
	Username string
	Email    string
	Password string
	Role     domain.RoleKind
	Facility string
	Area     domain.WorkArea
}

// CreateActor provisions an account. Administrators only.
func (s *AuthService) CreateActor(ctx context.Context, role domain.Role, input CreateActorInput) (*domain.Actor, error) {
	if !role.IsAdministrator() {
		return nil, apperrors.NewForbidden("only administrators may create accounts")
	}
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}
	switch input.Role {
	case domain.RoleAdministrator:
		input.Facility = ""
		input.Area = ""
	case domain.RoleFacilityTechnician:
		if input.Facility == "" || !domain.ValidWorkArea(input.Area) {
			return nil, apperrors.NewValidationError("technicians need a facility and a valid work area", nil)
		}
	case domain.RoleProcurementCoordinator:
		if input.Facility == "" {
			return nil, apperrors.NewValidationError("coordinators need a facility", nil)
		}
		input.Area = ""
	default:
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}

	if _, err := s.actors.GetByUsername(ctx, input.Username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": input.Username})
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	actor := &domain.Actor{
		Username:     input.Username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         input.Role,
		Facility:     input.Facility,
		Area:         input.Area,
	}
	if err := s.actors.Create(ctx, actor); err != nil {
		return nil, apperrors.MapError(err)
	}
	return actor, nil
}

func (s *AuthService) recordFailure(ctx context.Context, clientKey string) {
	if s.limiter != nil {
		s.limiter.RecordFailure(ctx, clientKey)
	}
}
