package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, expiresAt, err := tm.GenerateToken("user-1", domain.RoleTech)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt %v is not in the future", expiresAt)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	p := claims.Principal()
	if p.ID != "user-1" || p.Role != domain.RoleTech {
		t.Errorf("Principal() = %+v", p)
	}
}

func TestParseTokenRejects(t *testing.T) {
	issuer := NewTokenManager("secret", time.Hour)
	good, _, _ := issuer.GenerateToken("user-1", domain.RoleClient)

	expired := NewTokenManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, _ := expired.GenerateToken("user-1", domain.RoleClient)

	noRole, _, _ := issuer.GenerateToken("user-1", domain.Role("ADMIN"))

	tests := []struct {
		name  string
		tm    *TokenManager
		token string
	}{
		{"wrong secret", NewTokenManager("other", time.Hour), good},
		{"expired", issuer, stale},
		{"garbage", issuer, "not.a.token"},
		{"unknown role", issuer, noRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.tm.ParseToken(tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := ComparePassword(hash, "s3cret!"); err != nil {
		t.Errorf("ComparePassword() error = %v", err)
	}
	if err := ComparePassword(hash, "nope"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("ComparePassword(wrong) error = %v, want ErrPasswordMismatch", err)
	}
}

func newAuthApp(tm *TokenManager, gates ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm).Handle}, gates...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.ID)
	})
	app.Get("/", handlers...)
	return app
}

func TestMiddlewareAndRoleGate(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	clientToken, _, _ := tm.GenerateToken("client-1", domain.RoleClient)
	techToken, _, _ := tm.GenerateToken("tech-1", domain.RoleTech)

	app := newAuthApp(tm, RequireRole(domain.RoleTech))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"client forbidden", "Bearer " + clientToken, http.StatusForbidden},
		{"tech allowed", "Bearer " + techToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
