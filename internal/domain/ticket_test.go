package domain

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		name    string
		current TicketStatus
		next    TicketStatus
		want    bool
	}{
		{"reported to in progress", TicketStatusReported, TicketStatusInProgress, true},
		{"reported straight to completed", TicketStatusReported, TicketStatusCompleted, true},
		{"reported to confirmed skips completion", TicketStatusReported, TicketStatusConfirmed, false},
		{"reclaim while in progress", TicketStatusInProgress, TicketStatusInProgress, true},
		{"in progress to completed", TicketStatusInProgress, TicketStatusCompleted, true},
		{"in progress back to reported", TicketStatusInProgress, TicketStatusReported, false},
		{"completed to confirmed", TicketStatusCompleted, TicketStatusConfirmed, true},
		{"completed back to in progress", TicketStatusCompleted, TicketStatusInProgress, false},
		{"confirmed is terminal", TicketStatusConfirmed, TicketStatusInProgress, false},
		{"confirmed cannot reconfirm", TicketStatusConfirmed, TicketStatusConfirmed, false},
		{"unknown status has no transitions", TicketStatus("ARCHIVED"), TicketStatusInProgress, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidTransition(tc.current, tc.next); got != tc.want {
				t.Fatalf("ValidTransition(%s, %s) = %v, want %v", tc.current, tc.next, got, tc.want)
			}
		})
	}
}

func TestArchived(t *testing.T) {
	for _, status := range []TicketStatus{TicketStatusReported, TicketStatusInProgress} {
		ticket := Ticket{Status: status}
		if ticket.Archived() {
			t.Errorf("%s should be active", status)
		}
	}
	for _, status := range ArchivedStatuses {
		ticket := Ticket{Status: status}
		if !ticket.Archived() {
			t.Errorf("%s should be archived", status)
		}
	}
}

func TestValidWorkArea(t *testing.T) {
	for _, area := range WorkAreas {
		if !ValidWorkArea(area) {
			t.Errorf("%s should be valid", area)
		}
	}
	if ValidWorkArea(WorkArea("PLUMBING")) {
		t.Error("unknown area accepted")
	}
	if ValidWorkArea("") {
		t.Error("empty area accepted")
	}
}
