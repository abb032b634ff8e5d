package auth_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chainballot/chainballot/internal/apperrors"
	"github.com/chainballot/chainballot/internal/auth"
	"github.com/chainballot/chainballot/internal/clock"
	db_connection "github.com/chainballot/chainballot/internal/database/connection"
	"github.com/chainballot/chainballot/internal/database/repositories"
	"github.com/chainballot/chainballot/internal/models"
)

func setupTestService(t *testing.T, clk clock.Clock) *auth.Service {
	t.Helper()

	db, err := db_connection.NewConnection(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db_connection.CloseDatabaseConnection(db)
	})

	repos := repositories.NewRepositories(db)
	return auth.NewService(repos.Users, []byte("test-secret"), time.Hour, clk)
}

func getRegisterParams() auth.RegisterParams {
	return auth.RegisterParams{
		Email:    "elector@example.com",
		Username: "elector",
		Password: "correct horse",
		Role:     models.RoleElector,
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	service := setupTestService(t, clock.SystemClock{})

	registered, err := service.Register(getRegisterParams())
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	user, token, err := service.Login("elector@example.com", "correct horse")
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}

	if user.Id != registered.Id {
		t.Fatalf("login returned wrong user: %d != %d", user.Id, registered.Id)
	}

	userId, err := service.VerifyToken(token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}

	if userId != registered.Id {
		t.Fatalf("token carries wrong user id: %d != %d", userId, registered.Id)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	service := setupTestService(t, clock.SystemClock{})

	if _, err := service.Register(getRegisterParams()); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	_, _, err := service.Login("elector@example.com", "wrong password")
	if !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	service := setupTestService(t, clock.SystemClock{})

	_, _, err := service.Login("nobody@example.com", "whatever")
	if !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := setupTestService(t, clock.SystemClock{})

	if _, err := service.Register(getRegisterParams()); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	params := getRegisterParams()
	params.Username = "someone else"

	_, err := service.Register(params)
	if !apperrors.IsKind(err, apperrors.KindPreconditionFailed) {
		t.Fatalf("expected precondition failed for duplicate email, got %v", err)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	service := setupTestService(t, clock.SystemClock{})

	params := getRegisterParams()
	params.Password = "short"

	_, err := service.Register(params)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterMalformedWallet(t *testing.T) {
	service := setupTestService(t, clock.SystemClock{})

	params := getRegisterParams()
	params.WalletAddress = "not-a-wallet"

	_, err := service.Register(params)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	//issue with a clock two hours in the past so the one hour ttl is
	//already over at verification time
	past := &clock.Fixed{Time: time.Now().Add(-2 * time.Hour)}
	service := setupTestService(t, past)

	registered, err := service.Register(getRegisterParams())
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	token, err := service.IssueToken(registered)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	_, err = service.VerifyToken(token)
	if !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Fatalf("expected authorization error for expired token, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	service := setupTestService(t, clock.SystemClock{})

	registered, err := service.Register(getRegisterParams())
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	token, err := service.IssueToken(registered)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	_, err = service.VerifyToken(token + "x")
	if !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Fatalf("expected authorization error for tampered token, got %v", err)
	}
}
