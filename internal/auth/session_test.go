package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestSessions(t *testing.T, adminEmails ...string) (*SessionService, *SQLiteUserRepository, *SQLiteTokenStore) {
	t.Helper()
	db := testDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenStore(db)
	return NewSessionService(testCodec(t), tokens, users, adminEmails, discardLogger()), users, tokens
}

func TestSessionService_Register(t *testing.T) {
	svc, users, tokens := newTestSessions(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, Registration{Email: " New@Example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if sess.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want normalised", sess.User.Email)
	}
	if sess.User.Role != RoleBuyer {
		t.Errorf("Role = %q, want buyer", sess.User.Role)
	}
	if len(sess.User.Username) != len("user-")+8 || sess.User.Username[:5] != "user-" {
		t.Errorf("Username = %q, want user-xxxxxxxx", sess.User.Username)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("Register() should issue both tokens")
	}
	if ok, _ := tokens.Exists(ctx, sess.RefreshToken); !ok { //nolint:errcheck // asserted via ok
		t.Error("refresh token was not recorded")
	}
	if time.Until(sess.RefreshExpiresAt) < 23*time.Hour {
		t.Errorf("RefreshExpiresAt = %v, want about 24h ahead", sess.RefreshExpiresAt)
	}

	stored, err := users.GetByID(ctx, sess.User.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.PasswordHash == testPassword {
		t.Error("password stored in plaintext")
	}
}

func TestSessionService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestSessions(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Email: "dup@example.com", Password: testPassword}); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, Registration{Email: "DUP@example.com", Password: testPassword})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("second Register() error = %v, want ErrEmailExists", err)
	}
	if !IsCredentialError(err) {
		t.Error("duplicate email should be reported as a credential error")
	}
}

func TestSessionService_Register_Admin(t *testing.T) {
	svc, _, _ := newTestSessions(t, "Boss@Example.com")
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Email: "intruder@example.com", Password: testPassword, Role: RoleAdmin})
	if !errors.Is(err, ErrAdminNotWhitelisted) {
		t.Errorf("non-whitelisted admin error = %v, want ErrAdminNotWhitelisted", err)
	}

	sess, err := svc.Register(ctx, Registration{Email: "boss@example.com", Password: testPassword, Role: RoleAdmin})
	if err != nil {
		t.Fatalf("whitelisted admin Register() error = %v", err)
	}
	if sess.User.Role != RoleAdmin {
		t.Errorf("Role = %q, want admin", sess.User.Role)
	}
}

func TestSessionService_Register_InvalidRole(t *testing.T) {
	svc, _, _ := newTestSessions(t)

	_, err := svc.Register(context.Background(), Registration{Email: "r@example.com", Password: testPassword, Role: "owner"})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Register() error = %v, want ErrInvalidRole", err)
	}
}

func TestSessionService_LoginAllowsConcurrentSessions(t *testing.T) {
	svc, _, tokens := newTestSessions(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Email: "multi@example.com", Password: testPassword}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	first, err := svc.Login(ctx, "multi@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, err := svc.Login(ctx, "MULTI@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		if ok, _ := tokens.Exists(ctx, tok); !ok { //nolint:errcheck // asserted via ok
			t.Error("an earlier session was invalidated by a later login")
		}
	}
}

func TestSessionService_Login_BadCredentials(t *testing.T) {
	svc, _, _ := newTestSessions(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", testPassword)
	if !errors.Is(err, ErrInvalidCredentials) || !IsCredentialError(err) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionService_RefreshAndLogout(t *testing.T) {
	svc, _, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, Registration{Email: "cycle@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	access, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	subject, err := svc.codec.VerifyAccessToken(access)
	if err != nil || subject != sess.User.ID {
		t.Fatalf("refreshed token subject = (%q, %v), want %q", subject, err, sess.User.ID)
	}

	// No rotation: the same refresh token keeps working.
	if _, err := svc.Refresh(ctx, sess.RefreshToken); err != nil {
		t.Errorf("second Refresh() error = %v", err)
	}

	if err := svc.Logout(ctx, sess.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Refresh(ctx, sess.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Refresh() after logout error = %v, want ErrTokenRevoked", err)
	}

	if err := svc.Logout(ctx, sess.RefreshToken); err != nil {
		t.Errorf("repeated Logout() error = %v, want nil", err)
	}
	if err := svc.Logout(ctx, ""); err != nil {
		t.Errorf("Logout(\"\") error = %v, want nil", err)
	}
}

func TestSessionService_Refresh_StoreCheckedFirst(t *testing.T) {
	svc, _, _ := newTestSessions(t)

	// Validly signed but never recorded.
	forged, err := svc.codec.IssueRefreshToken("usr-nobody")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}
	if _, err := svc.Refresh(context.Background(), forged); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Refresh() error = %v, want ErrTokenRevoked", err)
	}
}

func TestSessionService_Refresh_Expired(t *testing.T) {
	svc, _, tokens := newTestSessions(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, Registration{Email: "stale@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	svc.codec.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, err := svc.codec.IssueRefreshToken(sess.User.ID)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}
	svc.codec.now = time.Now
	if err := tokens.Record(ctx, stale, sess.User.ID, time.Now().Add(-24*time.Hour)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if _, err := svc.Refresh(ctx, stale); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Refresh() error = %v, want ErrTokenExpired", err)
	}
}

func TestSessionService_RevokeAll(t *testing.T) {
	svc, _, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, Registration{Email: "all@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	other, err := svc.Login(ctx, "all@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.RevokeAll(ctx, sess.User.ID); err != nil {
		t.Fatalf("RevokeAll() error = %v", err)
	}
	for _, tok := range []string{sess.RefreshToken, other.RefreshToken} {
		if _, err := svc.Refresh(ctx, tok); !errors.Is(err, ErrTokenRevoked) {
			t.Errorf("Refresh() after RevokeAll error = %v, want ErrTokenRevoked", err)
		}
	}
}

func TestGenerateUsername_Exhausted(t *testing.T) {
	_, err := GenerateUsername(context.Background(), alwaysTaken{})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("GenerateUsername() error = %v, want ErrUsernameExists", err)
	}
}

type alwaysTaken struct{}

func (alwaysTaken) UsernameExists(context.Context, string) (bool, error) { return true, nil }
