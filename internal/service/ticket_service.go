package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Every ticket mutation goes
// through it.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bounds     PageBounds
	location   *time.Location
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Bounds      PageBounds
	Location    *time.Location
	Clock       func() time.Time
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title       string
	Description string
	Priority    string
	ClientName  string
}

// UpdateTicketInput carries the fields to change. Nil fields are left untouched.
type UpdateTicketInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bounds:     deps.Bounds.Normalize(),
		location:   deps.Location,
		now:        deps.Clock,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.location == nil {
		svc.location = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Create opens a new ticket owned by callerID. The ticket always starts OPEN
// and unassigned.
func (s *TicketService) Create(ctx context.Context, callerID string, input CreateTicketInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	details := map[string]any{}
	if title == "" {
		details["title"] = "required"
	}
	if description == "" {
		details["description"] = "required"
	}

	priority := domain.TicketPriorityMedium
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		priority = domain.TicketPriority(strings.ToUpper(raw))
		if !priority.Valid() {
			details["priority"] = "must be one of LOW, MEDIUM, HIGH"
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	clientName, err := s.resolveClientName(ctx, callerID, input.ClientName)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		ClientName:  clientName,
		ClientID:    callerID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: callerID},
		Payload: events.TicketCreatedPayload{
			ClientID: ticket.ClientID,
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

func (s *TicketService) resolveClientName(ctx context.Context, callerID, supplied string) (string, error) {
	if name := strings.TrimSpace(supplied); name != "" {
		return name, nil
	}
	if s.users != nil {
		user, err := s.users.GetByID(ctx, callerID)
		if err == nil {
			return user.Name, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("resolve client name: %w", err)
		}
	}
	return "", apperrors.NewValidationError("invalid ticket", map[string]any{"clientName": "required"})
}

// Update applies a partial update. All checks run before any field is
// changed, and the ticket is persisted once.
func (s *TicketService) Update(ctx context.Context, caller domain.Principal, ticketID string, input UpdateTicketInput) (*domain.Ticket, error) {
	var (
		changed   []string
		oldStatus domain.TicketStatus
	)

	ticket, err := s.mutateTicket(ctx, ticketID, func(ticket *domain.Ticket) (bool, error) {
		changed = changed[:0]
		oldStatus = ticket.Status

		if !ticket.VisibleTo(caller) {
			return false, apperrors.NewForbidden("access denied")
		}
		if !ticket.CanEdit() {
			return false, apperrors.NewInvalidState("Ticket finished cannot be edited", map[string]any{"ticket_id": ticket.ID})
		}
		if input.Status != nil && !caller.IsTech() {
			return false, apperrors.NewForbidden("Only TECH can change ticket status")
		}

		next, err := validateUpdate(input)
		if err != nil {
			return false, err
		}
		if input.Status != nil && !domain.CanTransition(ticket.Status, next.Status) {
			return false, apperrors.NewInvalidState("invalid status transition", map[string]any{
				"from": ticket.Status,
				"to":   next.Status,
			})
		}

		if input.Title != nil && next.Title != ticket.Title {
			ticket.Title = next.Title
			changed = append(changed, "title")
		}
		if input.Description != nil && next.Description != ticket.Description {
			ticket.Description = next.Description
			changed = append(changed, "description")
		}
		if input.Priority != nil && next.Priority != ticket.Priority {
			ticket.Priority = next.Priority
			changed = append(changed, "priority")
		}
		if input.Status != nil && next.Status != ticket.Status {
			ticket.Status = next.Status
			changed = append(changed, "status")
		}
		return len(changed) > 0, nil
	})
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		actor := events.ActorFrom(caller)
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload:  events.TicketUpdatedPayload{Fields: append([]string(nil), changed...), Version: ticket.Version},
		})
		if oldStatus != ticket.Status {
			s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketStatusChanged,
				TicketID: ticket.ID,
				Actor:    actor,
				Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
			})
		}
	}
	return ticket, nil
}

type ticketFields struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Status      domain.TicketStatus
}

func validateUpdate(input UpdateTicketInput) (ticketFields, error) {
	var next ticketFields
	details := map[string]any{}
	if input.Title != nil {
		next.Title = strings.TrimSpace(*input.Title)
		if next.Title == "" {
			details["title"] = "must not be empty"
		}
	}
	if input.Description != nil {
		next.Description = strings.TrimSpace(*input.Description)
		if next.Description == "" {
			details["description"] = "must not be empty"
		}
	}
	if input.Priority != nil {
		next.Priority = domain.TicketPriority(strings.ToUpper(strings.TrimSpace(*input.Priority)))
		if !next.Priority.Valid() {
			details["priority"] = "must be one of LOW, MEDIUM, HIGH"
		}
	}
	if input.Status != nil {
		next.Status = domain.TicketStatus(strings.ToUpper(strings.TrimSpace(*input.Status)))
		if !next.Status.Valid() {
			details["status"] = "must be one of OPEN, IN_PROGRESS, DONE"
		}
	}
	if len(details) > 0 {
		return ticketFields{}, apperrors.NewValidationError("invalid ticket update", details)
	}
	return next, nil
}

// GetTicketByID returns the ticket or a NotFound error.
func (s *TicketService) GetTicketByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, id)
	}
	return ticket, nil
}

// GetTicketForCaller returns the ticket when the caller may see it.
func (s *TicketService) GetTicketForCaller(ctx context.Context, caller domain.Principal, id string) (*domain.Ticket, error) {
	ticket, err := s.GetTicketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.VisibleTo(caller) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// DeleteTicket removes a ticket and, through the store, its comments.
// Clients may only delete their own tickets.
func (s *TicketService) DeleteTicket(ctx context.Context, caller domain.Principal, id string) error {
	ticket, err := s.GetTicketForCaller(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return s.mapStoreError(err, id)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
	})
	return nil
}

// List returns one page of tickets visible to the caller, newest first.
func (s *TicketService) List(ctx context.Context, params ListParams) ([]domain.Ticket, error) {
	filter, err := BuildTicketFilter(params, s.bounds, s.location)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// ListTicketComments returns the ticket thread oldest first.
func (s *TicketService) ListTicketComments(ctx context.Context, caller domain.Principal, ticketID string) ([]domain.TicketComment, error) {
	if _, err := s.GetTicketForCaller(ctx, caller, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// CreateTicketComment appends a comment. Comments are accepted in every
// ticket status.
func (s *TicketService) CreateTicketComment(ctx context.Context, caller domain.Principal, ticketID, message string) (*domain.TicketComment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", map[string]any{"message": "required"})
	}
	if utf8.RuneCountInString(message) > domain.CommentMaxLength {
		return nil, apperrors.NewValidationError("message is too long", map[string]any{"message": fmt.Sprintf("at most %d characters", domain.CommentMaxLength)})
	}

	if _, err := s.GetTicketForCaller(ctx, caller, ticketID); err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		ID:       uuid.NewString(),
		TicketID: ticketID,
		AuthorID: caller.ID,
		Message:  message,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, s.mapStoreError(err, ticketID)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticketID,
		Actor:    events.ActorFrom(caller),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: stringPreview(comment.Message, 120),
		},
	})
	return comment, nil
}

func (s *TicketService) mapStoreError(err error, ticketID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("Ticket", map[string]any{"ticket_id": ticketID})
	}
	return fmt.Errorf("ticket store: %w", err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
