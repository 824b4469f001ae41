package core

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	users := newMemUserRepo()
	svc := NewRepositoryAuthService(users)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Username != "alice" || u.ID == 0 {
		t.Fatalf("Register returned %+v", u)
	}

	// The stored credential must be a hash, never the password itself.
	rec, _ := users.FindByUsername(ctx, "alice")
	if rec.PasswordHash == "pw1" {
		t.Fatal("password stored in plain text")
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte("pw1")) != nil {
		t.Fatal("stored hash does not verify the password")
	}

	got, err := svc.Authenticate(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("Authenticate returned user %d, want %d", got.ID, u.ID)
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	users := newMemUserRepo()
	svc := NewRepositoryAuthService(users)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	cases := []struct {
		name               string
		username, password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "bob", "pw1"},
		{"empty username", "", "pw1"},
		{"empty password", "alice", ""},
	}
	for _, tc := range cases {
		if _, err := svc.Authenticate(ctx, tc.username, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: err = %v, want ErrInvalidCredentials", tc.name, err)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := newMemUserRepo()
	svc := NewRepositoryAuthService(users)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("second Register err = %v, want ErrUsernameTaken", err)
	}
	if n := users.count(); n != 1 {
		t.Fatalf("user count = %d after duplicate register, want 1", n)
	}
}

func TestRegisterTrimsUsername(t *testing.T) {
	users := newMemUserRepo()
	svc := NewRepositoryAuthService(users)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "  alice  ", "pw1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("Authenticate error after trimmed register: %v", err)
	}
}
