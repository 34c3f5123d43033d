package service

import (
	"math"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func intPtr(n int) *int { return &n }

func TestClampPage(t *testing.T) {
	bounds := PageBounds{DefaultPageSize: 10, MaxPageSize: 100}
	tests := []struct {
		name                string
		page                int
		limit               *int
		wantPage, wantLimit int
		wantOffset          int
	}{
		{"defaults", 0, nil, 1, 10, 0},
		{"explicit zero limit", 1, intPtr(0), 1, 1, 0},
		{"negative page", -4, intPtr(5), 1, 5, 0},
		{"negative limit", 2, intPtr(-3), 2, 1, 1},
		{"above ceiling", 3, intPtr(500), 3, 100, 200},
		{"regular", 4, intPtr(25), 4, 25, 75},
		{"huge page", math.MaxInt, intPtr(100), math.MaxInt / 100, 100, (math.MaxInt/100 - 1) * 100},
		{"huge page default limit", math.MaxInt, nil, math.MaxInt / 10, 10, (math.MaxInt/10 - 1) * 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, offset := bounds.ClampPage(tt.page, tt.limit)
			if page != tt.wantPage || limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("ClampPage(%d, %v) = (%d, %d, %d), want (%d, %d, %d)",
					tt.page, tt.limit, page, limit, offset, tt.wantPage, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestClampPageBoundsHold(t *testing.T) {
	bounds := PageBounds{DefaultPageSize: 10, MaxPageSize: 10}
	pages := []int{math.MinInt, -3, -1, 0, 1, 2, 3, math.MaxInt / 2, math.MaxInt}
	for _, page := range pages {
		for _, limit := range []*int{nil, intPtr(math.MinInt), intPtr(-100), intPtr(-1), intPtr(0), intPtr(1), intPtr(9), intPtr(10), intPtr(11), intPtr(1000), intPtr(math.MaxInt)} {
			p, l, o := bounds.ClampPage(page, limit)
			if p < 1 || l < 1 || l > 10 || o < 0 || o != (p-1)*l {
				t.Fatalf("ClampPage(%d, %v) = (%d, %d, %d) out of bounds", page, limit, p, l, o)
			}
		}
	}
}

func TestPageBoundsNormalize(t *testing.T) {
	got := PageBounds{DefaultPageSize: 50, MaxPageSize: 20}.Normalize()
	if got.DefaultPageSize != 20 {
		t.Errorf("DefaultPageSize = %d, want clamp to ceiling", got.DefaultPageSize)
	}
	got = PageBounds{}.Normalize()
	if got.DefaultPageSize != 10 || got.MaxPageSize != 100 {
		t.Errorf("zero bounds normalized to %+v", got)
	}
}

func TestDayWindow(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	tests := []struct {
		name      string
		value     string
		loc       *time.Location
		wantStart time.Time
	}{
		{"date utc", "2024-03-10", time.UTC, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"date in zone", "2024-03-10", saoPaulo, time.Date(2024, 3, 10, 0, 0, 0, 0, saoPaulo)},
		{"rfc3339 shifts into zone", "2024-03-10T01:30:00Z", saoPaulo, time.Date(2024, 3, 9, 0, 0, 0, 0, saoPaulo)},
		{"nil location", "2024-03-10", nil, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := DayWindow(tt.value, tt.loc)
			if err != nil {
				t.Fatalf("DayWindow() error = %v", err)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			wantEnd := tt.wantStart.Add(24*time.Hour - time.Millisecond)
			if !end.Equal(wantEnd) {
				t.Errorf("end = %v, want %v", end, wantEnd)
			}
		})
	}

	if _, _, err := DayWindow("10/03/2024", time.UTC); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("bad date error = %v", err)
	}
}

func TestBuildTicketFilter(t *testing.T) {
	bounds := PageBounds{DefaultPageSize: 10, MaxPageSize: 100}

	filter, err := BuildTicketFilter(ListParams{
		Page:     2,
		Limit:    intPtr(5),
		Status:   "open",
		Priority: "HIGH",
		Caller:   domain.Principal{ID: "c1", Role: domain.RoleClient},
	}, bounds, time.UTC)
	if err != nil {
		t.Fatalf("BuildTicketFilter() error = %v", err)
	}
	if filter.ClientID == nil || *filter.ClientID != "c1" {
		t.Errorf("client scope missing: %+v", filter)
	}
	if filter.Limit != 5 || filter.Offset != 5 {
		t.Errorf("Limit/Offset = %d/%d, want 5/5", filter.Limit, filter.Offset)
	}
	if len(filter.Statuses) != 1 || filter.Statuses[0] != domain.TicketStatusOpen {
		t.Errorf("Statuses = %v", filter.Statuses)
	}
	if len(filter.Priorities) != 1 || filter.Priorities[0] != domain.TicketPriorityHigh {
		t.Errorf("Priorities = %v", filter.Priorities)
	}
	if filter.CreatedFrom != nil || filter.CreatedTo != nil {
		t.Error("no date filter expected")
	}

	filter, err = BuildTicketFilter(ListParams{Caller: domain.Principal{ID: "t1", Role: domain.RoleTech}, CreatedAt: "2024-01-02"}, bounds, time.UTC)
	if err != nil {
		t.Fatalf("BuildTicketFilter() error = %v", err)
	}
	if filter.ClientID != nil {
		t.Error("technicians must not be scoped to a client")
	}
	if filter.CreatedFrom == nil || filter.CreatedTo == nil {
		t.Fatal("date window missing")
	}

	if _, err := BuildTicketFilter(ListParams{Status: "CLOSED"}, bounds, time.UTC); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("unknown status error = %v", err)
	}
}
