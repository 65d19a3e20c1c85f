package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/service"
)

func TestUserService_Register_Success(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.users.Register(ctx, domain.RegisterInput{
		Name: "New User", Email: "new@example.com", Phone: "+1555", Password: "password456",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID != 3 {
		t.Fatalf("expected the next user id 3, got %d", user.ID)
	}
	if user.Role != domain.RolePatient {
		t.Fatalf("expected patient role, got %s", user.Role)
	}
	if user.Password != "" {
		t.Fatal("expected returned user to be sanitized")
	}
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.users.Register(ctx, domain.RegisterInput{
		Name: "Copy", Email: "PATIENT@demo.com", Phone: "+1", Password: "password456",
	})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected a conflict, got %v", err)
	}

	users, _ := svc.users.List(ctx)
	if len(users) != 2 {
		t.Fatalf("expected no user to be appended, got %d users", len(users))
	}
}

func TestUserService_Register_EmptyFields(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.RegisterInput
	}{
		{"empty name", domain.RegisterInput{Email: "a@b.com", Phone: "1", Password: "pw"}},
		{"empty email", domain.RegisterInput{Name: "A", Phone: "1", Password: "pw"}},
		{"bad email", domain.RegisterInput{Name: "A", Email: "nope", Phone: "1", Password: "pw"}},
		{"empty phone", domain.RegisterInput{Name: "A", Email: "a@b.com", Password: "pw"}},
		{"empty password", domain.RegisterInput{Name: "A", Email: "a@b.com", Phone: "1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.users.Register(ctx, tc.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUserService_Login_Success(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, token, err := svc.users.Login(ctx, "Admin@Demo.com", service.DemoPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 1 || user.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Password != "" {
		t.Fatal("expected sanitized user")
	}

	userID, err := svc.users.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != 1 {
		t.Fatalf("expected subject 1, got %d", userID)
	}
}

func TestUserService_Login_Failures(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "admin@demo.com", "wrong"},
		{"unknown email", "nobody@demo.com", service.DemoPassword},
		{"empty password", "admin@demo.com", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.users.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestUserService_PasswordIsHashed(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.users.Register(ctx, domain.RegisterInput{
		Name: "Hash", Email: "hash@example.com", Phone: "1", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var stored string
	svc.store.View(func(snap *domain.Snapshot) {
		stored = snap.Users[snap.UserIndex(user.ID)].Password
	})
	if stored == "s3cret-pass" || stored == "" {
		t.Fatalf("expected a bcrypt hash to be stored, got %q", stored)
	}
}

func TestUserService_ValidateToken_Invalid(t *testing.T) {
	svc := newTestServices(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.users.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", token, err)
		}
	}
}

func TestPlaintextDemoHasher(t *testing.T) {
	h := service.PlaintextDemoHasher{}
	stored, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !h.Compare(stored, "password123") {
		t.Fatal("expected matching password to compare equal")
	}
	if h.Compare(stored, "password124") {
		t.Fatal("expected different password to be rejected")
	}
}
