package directory

import (
	"testing"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func TestParseLegacyUsername(t *testing.T) {
	cases := []struct {
		username string
		facility string
		area     domain.WorkArea
		ok       bool
	}{
		{"T700 EL", "T-700", domain.WorkAreaElectrical, true},
		{"T700 MECH", "T-700", domain.WorkAreaMechanical, true},
		{"T12 TP", "T-12", domain.WorkAreaFacility, true},
		{"t700 el", "T-700", domain.WorkAreaElectrical, true},
		{"T700EL", "", "", false},
		{"T700 HVAC", "", "", false},
		{"X700 EL", "", "", false},
		{"T7a0 EL", "", "", false},
		{"admin", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range cases {
		facility, area, ok := ParseLegacyUsername(tc.username)
		if ok != tc.ok || facility != tc.facility || area != tc.area {
			t.Errorf("ParseLegacyUsername(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.username, facility, area, ok, tc.facility, tc.area, tc.ok)
		}
	}
}

func TestLegacyUsernameRoundTrip(t *testing.T) {
	username, ok := LegacyUsername("T-700", domain.WorkAreaElectrical)
	if !ok || username != "T700 EL" {
		t.Fatalf("LegacyUsername = %q, %v", username, ok)
	}
	facility, area, ok := ParseLegacyUsername(username)
	if !ok || facility != "T-700" || area != domain.WorkAreaElectrical {
		t.Fatalf("round trip failed: (%q, %q, %v)", facility, area, ok)
	}
	if _, ok := LegacyUsername("T-700", domain.WorkArea("PLUMBING")); ok {
		t.Fatal("unknown area should not render")
	}
}
