package repositories_test

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	db_connection "github.com/chainballot/chainballot/internal/database/connection"
	"github.com/chainballot/chainballot/internal/database/repositories"
	"github.com/chainballot/chainballot/internal/models"
)

func setupTestRepositories(t *testing.T) (*repositories.Repositories, *gorm.DB) {
	t.Helper()

	dbFile := filepath.Join(t.TempDir(), "mirror.db")

	db, err := db_connection.NewConnection(dbFile)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db_connection.CloseDatabaseConnection(db)
	})

	return repositories.NewRepositories(db), db
}

func createTestUser(t *testing.T, repos *repositories.Repositories, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		Username:     email,
		PasswordHash: []byte("x"),
		Role:         role,
	}

	if err := repos.Users.Create(user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

func createTestElection(t *testing.T, repos *repositories.Repositories, createdBy uint64, onChainId string) *models.Election {
	t.Helper()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	election := &models.Election{
		Title:      "test election",
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
		Blockchain: models.BlockchainEthereum,
		OnChainId:  onChainId,
		CreatedBy:  createdBy,
		Approved:   true,
	}

	if err := repos.Elections.Create(election); err != nil {
		t.Fatalf("failed to create test election: %v", err)
	}

	return election
}

func createTestCandidate(t *testing.T, repos *repositories.Repositories, electionId uint64, userId uint64) *models.Candidate {
	t.Helper()

	candidate := &models.Candidate{
		ElectionId:         electionId,
		UserId:             userId,
		OnChainCandidateId: "1",
		Approved:           true,
	}

	if err := repos.Candidates.Create(candidate); err != nil {
		t.Fatalf("failed to create test candidate: %v", err)
	}

	return candidate
}
