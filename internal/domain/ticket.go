package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusDone       TicketStatus = "DONE"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusDone:
		return true
	}
	return false
}

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
//
// Version is the optimistic concurrency token: it is bumped by the store on
// every successful update and a write carrying a stale version is rejected.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	ClientName   string
	ClientID     string
	TechnicianID *string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanEdit reports whether the ticket still accepts mutations. DONE is terminal.
func (t *Ticket) CanEdit() bool {
	return t.Status != TicketStatusDone
}

// IsAssigned reports whether a technician has been bound to the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.TechnicianID != nil && *t.TechnicianID != ""
}

// VisibleTo reports whether the principal may see the ticket and its comments.
func (t *Ticket) VisibleTo(p Principal) bool {
	if p.Role == RoleTech {
		return true
	}
	return t.ClientID == p.ID
}

// CanTransition reports whether a ticket may move from current to next.
// Technicians may set any known status while the ticket is open for edits;
// nothing leaves DONE.
func CanTransition(current, next TicketStatus) bool {
	return current != TicketStatusDone && next.Valid()
}
