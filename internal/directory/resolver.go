package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// ActorLookup is the slice of actor persistence the resolver needs.
type ActorLookup interface {
	FindTechnician(ctx context.Context, facility string, area domain.WorkArea) (*domain.Actor, error)
	FindCoordinator(ctx context.Context, facility string) (*domain.Actor, error)
	FirstAdministrator(ctx context.Context) (*domain.Actor, error)
}

// Resolver maps facilities and work areas to responsible actors.
// It performs lookups only; it never mutates anything.
type Resolver struct {
	actors ActorLookup
}

// NewResolver constructs a resolver over the given actor lookup.
func NewResolver(actors ActorLookup) *Resolver {
	return &Resolver{actors: actors}
}

// NormalizeFacility strips separators from a facility code so that
// "T-700" and "T 700" identify the same site.
func NormalizeFacility(facility string) string {
	var b strings.Builder
	for _, r := range facility {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveResponsible returns the technician bound to the facility and
// work area, or nil when no one is bound. An unmatched combination is
// a valid "unassigned" outcome, not an error; no fallback is applied.
func (r *Resolver) ResolveResponsible(ctx context.Context, facility string, area domain.WorkArea) (*domain.Actor, error) {
	if !domain.ValidWorkArea(area) {
		return nil, nil
	}
	actor, err := r.actors.FindTechnician(ctx, facility, area)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return actor, nil
}

// ResolveFacilityOf returns the facility an actor is bound to.
// Administrators are unrestricted rather than bound to a literal facility.
func (r *Resolver) ResolveFacilityOf(actor *domain.Actor) (facility string, unrestricted bool) {
	if actor == nil {
		return "", false
	}
	if actor.Role == domain.RoleAdministrator {
		return "", true
	}
	return actor.Facility, false
}

// ResolveProcurementCoordinator returns the RSC designated for the
// facility. When none exists it falls back to the first administrator,
// so procurement requests never silently vanish.
func (r *Resolver) ResolveProcurementCoordinator(ctx context.Context, facility string) (*domain.Actor, error) {
	coordinator, err := r.actors.FindCoordinator(ctx, facility)
	if err == nil {
		return coordinator, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	admin, err := r.actors.FirstAdministrator(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return admin, nil
}
