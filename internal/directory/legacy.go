package directory

import (
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// The predecessor system encoded a technician's binding in the username
// itself, e.g. "T700 EL" for the electrical technician of facility
// T-700. The convention survives only as an import concern: a one-time
// backfill parses it into structured facility/area columns, and nothing
// consults usernames at request time.

var areaAbbreviations = map[domain.WorkArea]string{
	domain.WorkAreaElectrical: "EL",
	domain.WorkAreaMechanical: "MECH",
	domain.WorkAreaFacility:   "TP",
}

// AreaAbbreviation returns the legacy short code for a work area.
func AreaAbbreviation(area domain.WorkArea) (string, bool) {
	abbrev, ok := areaAbbreviations[area]
	return abbrev, ok
}

// LegacyUsername renders the historical "<facility><abbrev>" username
// for a binding, e.g. ("T-700", Electrical) -> "T700 EL".
func LegacyUsername(facility string, area domain.WorkArea) (string, bool) {
	abbrev, ok := areaAbbreviations[area]
	if !ok {
		return "", false
	}
	return NormalizeFacility(facility) + " " + abbrev, true
}

// ParseLegacyUsername derives a facility and work area from a
// convention-encoded username. The facility is rendered in canonical
// "T-700" form. Returns ok=false for usernames outside the convention.
func ParseLegacyUsername(username string) (facility string, area domain.WorkArea, ok bool) {
	parts := strings.Fields(username)
	if len(parts) != 2 {
		return "", "", false
	}
	code := parts[0]
	if len(code) < 2 || (code[0] != 'T' && code[0] != 't') {
		return "", "", false
	}
	digits := code[1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	for candidate, abbrev := range areaAbbreviations {
		if strings.EqualFold(parts[1], abbrev) {
			return "T-" + digits, candidate, true
		}
	}
	return "", "", false
}
