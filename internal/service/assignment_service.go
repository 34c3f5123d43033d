package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// maxMutationAttempts bounds the read-check-write loop when the store reports
// a concurrent modification.
const maxMutationAttempts = 3

// AssignToTechnician binds technicianID to the ticket and moves it to
// IN_PROGRESS. A ticket can be assigned only once.
func (s *TicketService) AssignToTechnician(ctx context.Context, ticketID, technicianID string) (*domain.Ticket, error) {
	technicianID = strings.TrimSpace(technicianID)
	if technicianID == "" {
		return nil, apperrors.NewValidationError("technician id is required", nil)
	}

	var oldStatus domain.TicketStatus
	ticket, err := s.mutateTicket(ctx, ticketID, func(ticket *domain.Ticket) (bool, error) {
		if ticket.IsAssigned() {
			return false, apperrors.NewConflict("Ticket already assigned", map[string]any{"ticket_id": ticket.ID})
		}
		if !ticket.CanEdit() {
			return false, apperrors.NewInvalidState("Ticket finished cannot be edited", map[string]any{"ticket_id": ticket.ID})
		}
		oldStatus = ticket.Status
		tech := technicianID
		ticket.TechnicianID = &tech
		ticket.Status = domain.TicketStatusInProgress
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	actor := events.Actor{ID: technicianID, Role: domain.RoleTech}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketAssignedPayload{TechnicianID: technicianID},
	})
	if oldStatus != ticket.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
		})
	}
	return ticket, nil
}

// mutateTicket loads the ticket, lets apply check and change it, then writes
// it back with a version compare-and-swap. On a stale write the whole cycle is
// re-run against fresh state so the checks in apply always see what is stored.
// apply reports whether anything changed; unchanged tickets are not written.
func (s *TicketService) mutateTicket(ctx context.Context, ticketID string, apply func(*domain.Ticket) (bool, error)) (*domain.Ticket, error) {
	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		ticket, err := s.GetTicketByID(ctx, ticketID)
		if err != nil {
			return nil, err
		}

		changed, err := apply(ticket)
		if err != nil {
			return nil, err
		}
		if !changed {
			return ticket, nil
		}

		err = s.tickets.Update(ctx, ticket)
		switch {
		case err == nil:
			return ticket, nil
		case errors.Is(err, repository.ErrStaleTicket):
			s.logger.Debug("stale ticket write, retrying",
				zap.String("ticket_id", ticketID),
				zap.Int("attempt", attempt))
			continue
		default:
			return nil, s.mapStoreError(err, ticketID)
		}
	}

	s.logger.Warn("ticket update retries exhausted", zap.String("ticket_id", ticketID))
	return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticketID})
}
