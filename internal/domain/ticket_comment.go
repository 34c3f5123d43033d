package domain

import "time"

// CommentMaxLength bounds the length of a comment message, in characters.
const CommentMaxLength = 255

// TicketComment captures one message in a ticket discussion thread.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorName string
	AuthorRole Role
	Message    string
	CreatedAt  time.Time
}
