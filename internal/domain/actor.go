package domain

import "time"

// RoleKind enumerates the roles an actor can hold.
type RoleKind string

const (
	RoleAdministrator          RoleKind = "ADMINISTRATOR"
	RoleFacilityTechnician     RoleKind = "TECHNICIAN"
	RoleProcurementCoordinator RoleKind = "RSC"
)

// WorkArea classifies tickets and technician bindings.
type WorkArea string

const (
	WorkAreaElectrical WorkArea = "ELECTRICAL"
	WorkAreaMechanical WorkArea = "MECHANICAL"
	WorkAreaFacility   WorkArea = "FACILITY"
)

// WorkAreas lists every valid work area.
var WorkAreas = []WorkArea{WorkAreaElectrical, WorkAreaMechanical, WorkAreaFacility}

// ValidWorkArea reports whether the value is a known work area.
func ValidWorkArea(area WorkArea) bool {
	for _, candidate := range WorkAreas {
		if candidate == area {
			return true
		}
	}
	return false
}

// Role is the resolved authority of an actor. For administrators the
// facility and area fields are empty; an administrator is never scoped.
type Role struct {
	Kind     RoleKind
	Facility string
	Area     WorkArea
}

// IsAdministrator reports whether the role grants global access.
func (r Role) IsAdministrator() bool {
	return r.Kind == RoleAdministrator
}

// Actor is an identity that reports, works on, or approves tickets.
type Actor struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         RoleKind
	Facility     string
	Area         WorkArea
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResolvedRole builds the role variant carried into guarded operations.
func (a *Actor) ResolvedRole() Role {
	if a == nil {
		return Role{}
	}
	return Role{Kind: a.Role, Facility: a.Facility, Area: a.Area}
}
