package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. Status is accepted for compatibility and
// ignored: new tickets always start OPEN.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	ClientName  string `json:"client_name"`
	Status      string `json:"status,omitempty"`
}

// UpdateTicketRequest payload. Omitted fields are left untouched.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	ClientName   string                `json:"client_name"`
	ClientID     string                `json:"client_id"`
	TechnicianID *string               `json:"technician_id"`
	Version      int64                 `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Message string `json:"message"`
}

// CommentResponse represents one message in a ticket thread.
type CommentResponse struct {
	ID         string      `json:"id"`
	TicketID   string      `json:"ticket_id"`
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	AuthorRole domain.Role `json:"author_role"`
	Message    string      `json:"message"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Description:  ticket.Description,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		ClientName:   ticket.ClientName,
		ClientID:     ticket.ClientID,
		TechnicianID: ticket.TechnicianID,
		Version:      ticket.Version,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		AuthorID:   comment.AuthorID,
		AuthorName: comment.AuthorName,
		AuthorRole: comment.AuthorRole,
		Message:    comment.Message,
		CreatedAt:  comment.CreatedAt,
	}
}
