package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the signed token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateActorRequest payload for account provisioning.
type CreateActorRequest struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domain.RoleKind `json:"role"`
	Facility string          `json:"facility"`
	Area     domain.WorkArea `json:"area"`
}

// ActorResponse describes an account without its credentials.
type ActorResponse struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     domain.RoleKind `json:"role"`
	Facility string          `json:"facility,omitempty"`
	Area     domain.WorkArea `json:"area,omitempty"`
}

// ActorResponseFrom maps a domain actor.
func ActorResponseFrom(actor *domain.Actor) ActorResponse {
	return ActorResponse{
		ID:       actor.ID,
		Username: actor.Username,
		Email:    actor.Email,
		Role:     actor.Role,
		Facility: actor.Facility,
		Area:     actor.Area,
	}
}
