package domain

import "testing"

func TestTicketCanEdit(t *testing.T) {
	tests := []struct {
		status TicketStatus
		want   bool
	}{
		{TicketStatusOpen, true},
		{TicketStatusInProgress, true},
		{TicketStatusDone, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			ticket := &Ticket{Status: tt.status}
			if got := ticket.CanEdit(); got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		current TicketStatus
		next    TicketStatus
		want    bool
	}{
		{"open to in progress", TicketStatusOpen, TicketStatusInProgress, true},
		{"in progress to done", TicketStatusInProgress, TicketStatusDone, true},
		{"open stays open", TicketStatusOpen, TicketStatusOpen, true},
		{"in progress stays in progress", TicketStatusInProgress, TicketStatusInProgress, true},
		{"open straight to done", TicketStatusOpen, TicketStatusDone, true},
		{"in progress back to open", TicketStatusInProgress, TicketStatusOpen, true},
		{"unknown target", TicketStatusOpen, TicketStatus("CLOSED"), false},
		{"done back to open", TicketStatusDone, TicketStatusOpen, false},
		{"done stays done", TicketStatusDone, TicketStatusDone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.current, tt.next); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.current, tt.next, got, tt.want)
			}
		})
	}
}

func TestTicketVisibleTo(t *testing.T) {
	ticket := &Ticket{ClientID: "c1"}

	if !ticket.VisibleTo(Principal{ID: "c1", Role: RoleClient}) {
		t.Error("owner should see the ticket")
	}
	if ticket.VisibleTo(Principal{ID: "c2", Role: RoleClient}) {
		t.Error("other client must not see the ticket")
	}
	if !ticket.VisibleTo(Principal{ID: "t1", Role: RoleTech}) {
		t.Error("technician should see every ticket")
	}
}

func TestEnumsValid(t *testing.T) {
	if !TicketPriorityHigh.Valid() || TicketPriority("URGENT").Valid() {
		t.Error("priority validation mismatch")
	}
	if !TicketStatusDone.Valid() || TicketStatus("CLOSED").Valid() {
		t.Error("status validation mismatch")
	}
	if !RoleTech.Valid() || Role("ADMIN").Valid() {
		t.Error("role validation mismatch")
	}
}

func TestTicketIsAssigned(t *testing.T) {
	empty := ""
	tech := "t1"
	if (&Ticket{}).IsAssigned() {
		t.Error("nil technician is not assigned")
	}
	if (&Ticket{TechnicianID: &empty}).IsAssigned() {
		t.Error("empty technician is not assigned")
	}
	if !(&Ticket{TechnicianID: &tech}).IsAssigned() {
		t.Error("technician set should be assigned")
	}
}
