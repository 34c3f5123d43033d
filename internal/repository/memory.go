package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MemoryStore keeps tickets, comments and users in process memory. It honors
// the same contracts as the Postgres repositories, including the version
// compare-and-swap on ticket updates and cascade deletion of comments.
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	tickets  map[string]domain.Ticket
	comments map[string][]domain.TicketComment
	users    map[string]domain.User
	emails   map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      func() time.Time { return time.Now().UTC() },
		tickets:  make(map[string]domain.Ticket),
		comments: make(map[string][]domain.TicketComment),
		users:    make(map[string]domain.User),
		emails:   make(map[string]string),
	}
}

// WithClock overrides the timestamp source. Used by tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Tickets exposes the store as a TicketRepository.
func (s *MemoryStore) Tickets() TicketRepository { return memoryTickets{s} }

// Comments exposes the store as a TicketCommentRepository.
func (s *MemoryStore) Comments() TicketCommentRepository { return memoryComments{s} }

// Users exposes the store as a UserRepository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

type memoryTickets struct{ s *MemoryStore }

func (m memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tickets[ticket.ID]; ok {
		return ErrDuplicate
	}
	now := m.s.now()
	ticket.Version = 1
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = ticket.CreatedAt
	m.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (m memoryTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != ticket.Version {
		return ErrStaleTicket
	}
	stored.Title = ticket.Title
	stored.Description = ticket.Description
	stored.Status = ticket.Status
	stored.Priority = ticket.Priority
	stored.TechnicianID = cloneString(ticket.TechnicianID)
	stored.Version++
	stored.UpdatedAt = m.s.now()
	m.s.tickets[ticket.ID] = stored

	ticket.Version = stored.Version
	ticket.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	stored, ok := m.s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket := cloneTicket(stored)
	return &ticket, nil
}

func (m memoryTickets) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	matched := []domain.Ticket{}
	for _, ticket := range m.s.tickets {
		if filter.ClientID != nil && ticket.ClientID != *filter.ClientID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		matched = append(matched, cloneTicket(ticket))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (m memoryTickets) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.tickets, id)
	delete(m.s.comments, id)
	return nil
}

type memoryComments struct{ s *MemoryStore }

func (m memoryComments) Create(_ context.Context, comment *domain.TicketComment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tickets[comment.TicketID]; !ok {
		return ErrNotFound
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = m.s.now()
	}
	if author, ok := m.s.users[comment.AuthorID]; ok {
		comment.AuthorName = author.Name
		comment.AuthorRole = author.Role
	}
	m.s.comments[comment.TicketID] = append(m.s.comments[comment.TicketID], *comment)
	return nil
}

func (m memoryComments) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	thread := m.s.comments[ticketID]
	result := make([]domain.TicketComment, 0, len(thread))
	for _, comment := range thread {
		if author, ok := m.s.users[comment.AuthorID]; ok {
			comment.AuthorName = author.Name
			comment.AuthorRole = author.Role
		}
		result = append(result, comment)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := m.s.emails[email]; taken {
		return ErrDuplicate
	}
	if _, taken := m.s.users[user.ID]; taken {
		return ErrDuplicate
	}
	now := m.s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.s.users[user.ID] = *user
	m.s.emails[email] = user.ID
	return nil
}

func (m memoryUsers) Update(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Name = user.Name
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = m.s.now()
	m.s.users[user.ID] = stored
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	id, ok := m.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := m.s.users[id]
	return &user, nil
}

func (m memoryUsers) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	result := []domain.User{}
	for _, user := range m.s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(filter.Offset, 0)
	if offset >= len(result) {
		return []domain.User{}, nil
	}
	return result[offset:min(offset+limit, len(result))], nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.TechnicianID = cloneString(t.TechnicianID)
	return t
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func containsStatus(list []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, v domain.TicketPriority) bool {
	for _, p := range list {
		if p == v {
			return true
		}
	}
	return false
}
