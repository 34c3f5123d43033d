package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func newAccountServices() (*AuthService, *UserService) {
	users := repository.NewMemoryStore().Users()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authSvc := NewAuthService(AuthDependencies{UserRepo: users, Tokens: tokens, BcryptCost: bcrypt.MinCost})
	userSvc := NewUserService(users, PageBounds{DefaultPageSize: 10, MaxPageSize: 100}, bcrypt.MinCost)
	return authSvc, userSvc
}

func TestRegisterAndLogin(t *testing.T) {
	authSvc, _ := newAccountServices()
	ctx := context.Background()

	user, err := authSvc.Register(ctx, RegisterInput{Name: " Ana ", Email: " Ana@Example.COM ", Password: "secret1", Role: "client"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Name != "Ana" || user.Email != "ana@example.com" || user.Role != domain.RoleClient {
		t.Errorf("user = %+v", user)
	}
	if user.PasswordHash == "secret1" {
		t.Error("password stored in clear text")
	}

	_, err = authSvc.Register(ctx, RegisterInput{Name: "Ana Two", Email: "ana@example.com", Password: "secret1"})
	wantCode(t, err, apperrors.CodeConflict)

	session, err := authSvc.Login(ctx, "ANA@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	claims, err := authSvc.TokenManager().ParseToken(session.Token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != user.ID || claims.Role != domain.RoleClient {
		t.Errorf("claims = %+v", claims)
	}

	_, err = authSvc.Login(ctx, "ana@example.com", "wrong")
	wantCode(t, err, apperrors.CodeUnauthorized)
	_, err = authSvc.Login(ctx, "nobody@example.com", "secret1")
	wantCode(t, err, apperrors.CodeUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	authSvc, _ := newAccountServices()
	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"short name", RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"}, "name"},
		{"bad email", RegisterInput{Name: "Ana", Email: "ana", Password: "secret1"}, "email"},
		{"short password", RegisterInput{Name: "Ana", Email: "a@b.c", Password: "123"}, "password"},
		{"unknown role", RegisterInput{Name: "Ana", Email: "a@b.c", Password: "secret1", Role: "ADMIN"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authSvc.Register(context.Background(), tt.input)
			wantCode(t, err, apperrors.CodeValidationFailed)
			if _, ok := apperrors.ToDomainError(err).Details[tt.field]; !ok {
				t.Errorf("details missing %q", tt.field)
			}
		})
	}
}

func TestUserDirectory(t *testing.T) {
	authSvc, userSvc := newAccountServices()
	ctx := context.Background()

	ana, _ := authSvc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	tess, _ := authSvc.Register(ctx, RegisterInput{Name: "Tess", Email: "tess@example.com", Password: "secret1", Role: "TECH"})
	anaP := domain.Principal{ID: ana.ID, Role: domain.RoleClient}
	tessP := domain.Principal{ID: tess.ID, Role: domain.RoleTech}

	if _, err := userSvc.GetUser(ctx, anaP, ana.ID); err != nil {
		t.Errorf("self lookup error = %v", err)
	}
	_, err := userSvc.GetUser(ctx, anaP, tess.ID)
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = userSvc.GetUser(ctx, tessP, "missing")
	wantCode(t, err, apperrors.CodeNotFound)

	_, err = userSvc.ListUsers(ctx, anaP, UserListFilters{})
	wantCode(t, err, apperrors.CodeForbidden)
	techs, err := userSvc.ListUsers(ctx, tessP, UserListFilters{Role: "tech"})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(techs) != 1 || techs[0].ID != tess.ID {
		t.Errorf("techs = %+v", techs)
	}
	_, err = userSvc.ListUsers(ctx, tessP, UserListFilters{Role: "ADMIN"})
	wantCode(t, err, apperrors.CodeValidationFailed)
}

func TestUpdateUserSelfOnly(t *testing.T) {
	authSvc, userSvc := newAccountServices()
	ctx := context.Background()
	ana, _ := authSvc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	anaP := domain.Principal{ID: ana.ID, Role: domain.RoleClient}

	_, err := userSvc.UpdateUser(ctx, domain.Principal{ID: "other", Role: domain.RoleTech}, ana.ID, UpdateUserInput{Name: ptr("Hacked")})
	wantCode(t, err, apperrors.CodeForbidden)

	_, err = userSvc.UpdateUser(ctx, anaP, ana.ID, UpdateUserInput{Name: ptr("A")})
	wantCode(t, err, apperrors.CodeValidationFailed)

	updated, err := userSvc.UpdateUser(ctx, anaP, ana.ID, UpdateUserInput{Name: ptr("Ana Maria"), Password: ptr("newsecret")})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Name != "Ana Maria" {
		t.Errorf("Name = %q", updated.Name)
	}
	if _, err := authSvc.Login(ctx, "ana@example.com", "newsecret"); err != nil {
		t.Errorf("login with new password error = %v", err)
	}
}
