package repositories

import (
	"gorm.io/gorm"

	db_models "github.com/chainballot/chainballot/internal/database/models"
	mapping "github.com/chainballot/chainballot/internal/mapping"
	models "github.com/chainballot/chainballot/internal/models"
)

type ElectionRepository interface {
	Create(election *models.Election) error
	GetById(id uint64) (*models.Election, error)
	GetByOnChainId(blockchain models.Blockchain, onChainId string) (*models.Election, error)
	GetVisible() ([]*models.Election, error)
}

type ElectionRepositoryImpl struct {
	db *gorm.DB
}

func NewElectionRepositoryImpl(db *gorm.DB) *ElectionRepositoryImpl {
	return &ElectionRepositoryImpl{db: db}
}

func (repo *ElectionRepositoryImpl) Create(election *models.Election) error {
	electionDB := mapping.ElectionToElectionDB(election)

	if err := repo.db.Create(electionDB).Error; err != nil {
		return translateError(err)
	}

	election.Id = electionDB.Id
	election.CreatedAt = electionDB.CreatedAt
	return nil
}

func (repo *ElectionRepositoryImpl) GetById(id uint64) (*models.Election, error) {
	var electionDB db_models.ElectionDB
	result := repo.db.Where("id = ?", id).First(&electionDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.ElectionDBToElection(&electionDB), nil
}

func (repo *ElectionRepositoryImpl) GetByOnChainId(blockchain models.Blockchain, onChainId string) (*models.Election, error) {
	var electionDB db_models.ElectionDB
	result := repo.db.
		Where("blockchain = ? AND on_chain_id = ?", string(blockchain), onChainId).
		First(&electionDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.ElectionDBToElection(&electionDB), nil
}

// GetVisible returns elections exposed through the read API. A row
// without an on-chain id is a failed creation and stays hidden.
func (repo *ElectionRepositoryImpl) GetVisible() ([]*models.Election, error) {
	var electionsDB []db_models.ElectionDB
	result := repo.db.
		Where("on_chain_id <> ''").
		Order("created_at DESC").
		Find(&electionsDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	elections := make([]*models.Election, len(electionsDB))
	for idx, electionDB := range electionsDB {
		elections[idx] = mapping.ElectionDBToElection(&electionDB)
	}

	return elections, nil
}
