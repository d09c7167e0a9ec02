package authz

import (
	"strings"

	"github.com/spec-kit/maintenance-service/internal/directory"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Policy decisions are pure functions of (role, facility). Callers
// re-evaluate them on every guarded mutation; nothing here is cached.

// IsAdministrator reports whether the role grants global access.
func IsAdministrator(role domain.Role) bool {
	return role.Kind == domain.RoleAdministrator
}

// CanEditFacility governs claiming, progress updates, completion and
// material line creation/deletion for tickets of the given facility.
func CanEditFacility(role domain.Role, facility string) bool {
	if IsAdministrator(role) {
		return true
	}
	return sameFacility(role.Facility, facility)
}

// CanManageProcurement governs the order-side fields of material lines:
// requisition and purchase-order references, delivery dates, and the
// ordered flag. Only the facility's procurement coordinator or an
// administrator passes; facility technicians do not.
func CanManageProcurement(role domain.Role, facility string) bool {
	if IsAdministrator(role) {
		return true
	}
	return role.Kind == domain.RoleProcurementCoordinator && sameFacility(role.Facility, facility)
}

func sameFacility(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(directory.NormalizeFacility(a), directory.NormalizeFacility(b))
}
