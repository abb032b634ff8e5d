package repositories

import (
	"gorm.io/gorm"

	db_models "github.com/chainballot/chainballot/internal/database/models"
	mapping "github.com/chainballot/chainballot/internal/mapping"
	models "github.com/chainballot/chainballot/internal/models"
)

type CandidateRepository interface {
	Create(candidate *models.Candidate) error
	GetById(id uint64) (*models.Candidate, error)
	GetByElectionAndUser(electionId uint64, userId uint64) (*models.Candidate, error)
	GetByElectionOrderedByVotes(electionId uint64) ([]*models.Candidate, error)
}

type CandidateRepositoryImpl struct {
	db *gorm.DB
}

func NewCandidateRepositoryImpl(db *gorm.DB) *CandidateRepositoryImpl {
	return &CandidateRepositoryImpl{db: db}
}

func (repo *CandidateRepositoryImpl) Create(candidate *models.Candidate) error {
	candidateDB := mapping.CandidateToCandidateDB(candidate)

	if err := repo.db.Create(candidateDB).Error; err != nil {
		return translateError(err)
	}

	candidate.Id = candidateDB.Id
	candidate.CreatedAt = candidateDB.CreatedAt
	return nil
}

func (repo *CandidateRepositoryImpl) GetById(id uint64) (*models.Candidate, error) {
	var candidateDB db_models.CandidateDB
	result := repo.db.Where("id = ?", id).First(&candidateDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.CandidateDBToCandidate(&candidateDB), nil
}

func (repo *CandidateRepositoryImpl) GetByElectionAndUser(electionId uint64, userId uint64) (*models.Candidate, error) {
	var candidateDB db_models.CandidateDB
	result := repo.db.
		Where("election_id = ? AND user_id = ?", electionId, userId).
		First(&candidateDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.CandidateDBToCandidate(&candidateDB), nil
}

// GetByElectionOrderedByVotes orders by cached count descending with
// creation order as the stable tie break.
func (repo *CandidateRepositoryImpl) GetByElectionOrderedByVotes(electionId uint64) ([]*models.Candidate, error) {
	var candidatesDB []db_models.CandidateDB
	result := repo.db.
		Where("election_id = ?", electionId).
		Order("votes_received DESC").
		Order("id ASC").
		Find(&candidatesDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	candidates := make([]*models.Candidate, len(candidatesDB))
	for idx, candidateDB := range candidatesDB {
		candidates[idx] = mapping.CandidateDBToCandidate(&candidateDB)
	}

	return candidates, nil
}
