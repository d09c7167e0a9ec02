package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

func newAuthFixture(t *testing.T) (*AuthService, *memActorRepo) {
	t.Helper()
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 5
	cfg.Auth.BcryptCost = 4 // keep hashing fast in tests

	actors := newMemActorRepo()
	svc := NewAuthService(cfg, AuthDependencies{ActorRepo: actors})
	return svc, actors
}

func seedActor(t *testing.T, actors *memActorRepo, username, password string, role domain.RoleKind) *domain.Actor {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	return actors.add(domain.Actor{
		Username:     username,
		Email:        username + "@plant.example",
		PasswordHash: hash,
		Role:         role,
		Facility:     "T-700",
		Area:         domain.WorkAreaElectrical,
	})
}

func TestLogin(t *testing.T) {
	svc, actors := newAuthFixture(t)
	seeded := seedActor(t, actors, "T700 EL", "hunter2", domain.RoleFacilityTechnician)

	actor, token, exp, err := svc.Login(context.Background(), "10.0.0.1", "T700 EL", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, actor.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.ActorID)
	assert.Equal(t, domain.RoleFacilityTechnician, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, actors := newAuthFixture(t)
	seedActor(t, actors, "T700 EL", "hunter2", domain.RoleFacilityTechnician)

	// Wrong password and unknown username produce the same error code.
	_, _, _, err := svc.Login(context.Background(), "10.0.0.1", "T700 EL", "wrong")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	_, _, _, err = svc.Login(context.Background(), "10.0.0.1", "nobody", "hunter2")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	_, _, _, err = svc.Login(context.Background(), "10.0.0.1", "", "")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestCreateActor(t *testing.T) {
	svc, _ := newAuthFixture(t)
	adminRole := domain.Role{Kind: domain.RoleAdministrator}
	techRole := domain.Role{Kind: domain.RoleFacilityTechnician, Facility: "T-700"}

	_, err := svc.CreateActor(context.Background(), techRole, CreateActorInput{
		Username: "new", Password: "pw", Role: domain.RoleFacilityTechnician,
		Facility: "T-700", Area: domain.WorkAreaElectrical,
	})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	created, err := svc.CreateActor(context.Background(), adminRole, CreateActorInput{
		Username: "T700 MECH", Email: "mech@plant.example", Password: "pw",
		Role: domain.RoleFacilityTechnician, Facility: "T-700", Area: domain.WorkAreaMechanical,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "pw", created.PasswordHash)

	// Duplicate usernames conflict.
	_, err = svc.CreateActor(context.Background(), adminRole, CreateActorInput{
		Username: "T700 MECH", Password: "pw",
		Role: domain.RoleFacilityTechnician, Facility: "T-700", Area: domain.WorkAreaMechanical,
	})
	assert.Equal(t, "CONFLICT", errCode(t, err))

	// Technicians need a full binding.
	_, err = svc.CreateActor(context.Background(), adminRole, CreateActorInput{
		Username: "unbound", Password: "pw", Role: domain.RoleFacilityTechnician,
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	// Coordinators need a facility but no area.
	_, err = svc.CreateActor(context.Background(), adminRole, CreateActorInput{
		Username: "rsc", Password: "pw", Role: domain.RoleProcurementCoordinator,
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	// Administrator bindings are dropped; admins are never scoped.
	admin, err := svc.CreateActor(context.Background(), adminRole, CreateActorInput{
		Username: "boss", Password: "pw", Role: domain.RoleAdministrator,
		Facility: "T-700", Area: domain.WorkAreaElectrical,
	})
	require.NoError(t, err)
	assert.Empty(t, admin.Facility)
	assert.Empty(t, admin.Area)

	_, err = svc.CreateActor(context.Background(), adminRole, CreateActorInput{
		Username: "odd", Password: "pw", Role: domain.RoleKind("GUEST"),
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}
