package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketCommentRepository manages ticket discussion threads.
type TicketCommentRepository interface {
	// Create persists the comment and fills ID, CreatedAt and the author display fields.
	Create(ctx context.Context, comment *domain.TicketComment) error
	// ListByTicket returns the thread oldest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository builds repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        WITH inserted AS (
            INSERT INTO ticket_comments (id, ticket_id, author_id, message)
            VALUES ($1,$2,$3,$4)
            RETURNING author_id, created_at
        )
        SELECT inserted.created_at, COALESCE(u.name, ''), COALESCE(u.role, '')
        FROM inserted LEFT JOIN users u ON u.id = inserted.author_id`
	err := r.pool.QueryRow(ctx, query,
		comment.ID,
		comment.TicketID,
		comment.AuthorID,
		comment.Message,
	).Scan(&comment.CreatedAt, &comment.AuthorName, &comment.AuthorRole)
	if err != nil {
		return fmt.Errorf("insert comment: %w", translateError(err))
	}
	return nil
}

func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.author_id, COALESCE(u.name, ''), COALESCE(u.role, ''), c.message, c.created_at
        FROM ticket_comments c LEFT JOIN users u ON u.id = c.author_id
        WHERE c.ticket_id=$1 ORDER BY c.created_at ASC, c.id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	result := []domain.TicketComment{}
	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.AuthorRole,
			&comment.Message,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
