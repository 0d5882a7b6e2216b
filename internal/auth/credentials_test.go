package auth

import (
	"context"
	"errors"
	"testing"
)

type failingLookup struct{ err error }

func (f failingLookup) GetByEmail(context.Context, string) (*User, error) {
	return nil, f.err
}

func TestAuthenticator_Success(t *testing.T) {
	db := testDB(t)
	want := seedTestUser(t, db, "login@example.com", RoleSeller)

	got, err := NewAuthenticator(NewUserRepository(db)).Authenticate(context.Background(), " login@example.com ", testPassword)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("Authenticate() ID = %q, want %q", got.ID, want.ID)
	}
}

func TestAuthenticator_FailuresAreIndistinguishable(t *testing.T) {
	db := testDB(t)
	seedTestUser(t, db, "known@example.com", RoleBuyer)
	authn := NewAuthenticator(NewUserRepository(db))
	ctx := context.Background()

	_, wrongPassword := authn.Authenticate(ctx, "known@example.com", "not-the-password")
	_, unknownEmail := authn.Authenticate(ctx, "unknown@example.com", testPassword)

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("error messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAuthenticator_StoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := NewAuthenticator(failingLookup{err: boom}).Authenticate(context.Background(), "a@example.com", "pw")
	if !errors.Is(err, boom) {
		t.Errorf("Authenticate() error = %v, want wrapped store error", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("store failure must not look like bad credentials")
	}
}
