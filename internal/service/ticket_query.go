package service

import (
	"math"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ListParams describes a ticket listing request before shaping.
type ListParams struct {
	Page      int
	Limit     *int
	Status    string
	Priority  string
	CreatedAt string
	Caller    domain.Principal
}

// PageBounds holds the listing size limits.
type PageBounds struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Normalize returns usable bounds.
func (b PageBounds) Normalize() PageBounds {
	if b.MaxPageSize < 1 {
		b.MaxPageSize = 100
	}
	if b.DefaultPageSize < 1 {
		b.DefaultPageSize = 10
	}
	if b.DefaultPageSize > b.MaxPageSize {
		b.DefaultPageSize = b.MaxPageSize
	}
	return b
}

// ClampPage returns the effective page, limit and offset. page is at least 1,
// a nil limit falls back to the default page size and any supplied limit is
// clamped to [1, MaxPageSize]. page is capped so the offset cannot overflow.
func (b PageBounds) ClampPage(page int, limit *int) (int, int, int) {
	b = b.Normalize()
	size := b.DefaultPageSize
	if limit != nil {
		size = min(max(*limit, 1), b.MaxPageSize)
	}
	page = min(max(page, 1), math.MaxInt/size)
	return page, size, (page - 1) * size
}

const dateLayout = "2006-01-02"

// DayWindow parses a YYYY-MM-DD or RFC3339 value and returns the inclusive
// bounds of that calendar day in loc, ending at 23:59:59.999.
func DayWindow(value string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)

	var day time.Time
	if parsed, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		day = parsed
	} else if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		day = parsed.In(loc)
	} else {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("invalid createdAt date", map[string]any{"createdAt": value})
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end, nil
}

// BuildTicketFilter turns listing params into a store filter, applying the
// caller's visibility scope.
func BuildTicketFilter(params ListParams, bounds PageBounds, loc *time.Location) (repository.TicketFilter, error) {
	_, limit, offset := bounds.ClampPage(params.Page, params.Limit)
	filter := repository.TicketFilter{Limit: limit, Offset: offset}

	if !params.Caller.IsTech() {
		clientID := params.Caller.ID
		filter.ClientID = &clientID
	}

	if status := strings.ToUpper(strings.TrimSpace(params.Status)); status != "" {
		s := domain.TicketStatus(status)
		if !s.Valid() {
			return repository.TicketFilter{}, apperrors.NewValidationError("invalid status filter", map[string]any{"status": params.Status})
		}
		filter.Statuses = []domain.TicketStatus{s}
	}
	if priority := strings.ToUpper(strings.TrimSpace(params.Priority)); priority != "" {
		p := domain.TicketPriority(priority)
		if !p.Valid() {
			return repository.TicketFilter{}, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": params.Priority})
		}
		filter.Priorities = []domain.TicketPriority{p}
	}
	if strings.TrimSpace(params.CreatedAt) != "" {
		from, to, err := DayWindow(params.CreatedAt, loc)
		if err != nil {
			return repository.TicketFilter{}, err
		}
		filter.CreatedFrom = &from
		filter.CreatedTo = &to
	}
	return filter, nil
}
