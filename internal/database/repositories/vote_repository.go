package repositories

import (
	"gorm.io/gorm"

	db_models "github.com/chainballot/chainballot/internal/database/models"
	mapping "github.com/chainballot/chainballot/internal/mapping"
	models "github.com/chainballot/chainballot/internal/models"
)

type VoteRepository interface {
	CreateWithCount(vote *models.Vote) error
	GetByElectionAndVoter(electionId uint64, voterId uint64) (*models.Vote, error)
	GetByTxHash(txHash string) (*models.Vote, error)
	GetByElection(electionId uint64) ([]*models.Vote, error)
	MarkVerifiedByCandidate(electionId uint64, candidateId uint64) error
	ElectionsWithUnverifiedVotes() ([]uint64, error)
}

type VoteRepositoryImpl struct {
	db *gorm.DB
}

func NewVoteRepositoryImpl(db *gorm.DB) *VoteRepositoryImpl {
	return &VoteRepositoryImpl{db: db}
}

// CreateWithCount inserts the vote row and increments the candidate's
// cached count in one transaction. Either both happen or neither, and
// a duplicate (election, voter) pair aborts before the increment.
func (repo *VoteRepositoryImpl) CreateWithCount(vote *models.Vote) error {
	voteDB := mapping.VoteToVoteDB(vote)

	err := repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(voteDB).Error; err != nil {
			return err
		}

		return tx.Model(&db_models.CandidateDB{}).
			Where("id = ?", vote.CandidateId).
			UpdateColumn("votes_received", gorm.Expr("votes_received + ?", 1)).
			Error
	})

	if err != nil {
		return translateError(err)
	}

	vote.Id = voteDB.Id
	vote.VotedAt = voteDB.VotedAt
	return nil
}

func (repo *VoteRepositoryImpl) GetByElectionAndVoter(electionId uint64, voterId uint64) (*models.Vote, error) {
	var voteDB db_models.VoteDB
	result := repo.db.
		Where("election_id = ? AND voter_id = ?", electionId, voterId).
		First(&voteDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.VoteDBToVote(&voteDB), nil
}

func (repo *VoteRepositoryImpl) GetByTxHash(txHash string) (*models.Vote, error) {
	var voteDB db_models.VoteDB
	result := repo.db.Where("tx_hash = ?", txHash).First(&voteDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.VoteDBToVote(&voteDB), nil
}

func (repo *VoteRepositoryImpl) GetByElection(electionId uint64) ([]*models.Vote, error) {
	var votesDB []db_models.VoteDB
	result := repo.db.
		Where("election_id = ?", electionId).
		Order("id ASC").
		Find(&votesDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	votes := make([]*models.Vote, len(votesDB))
	for idx, voteDB := range votesDB {
		votes[idx] = mapping.VoteDBToVote(&voteDB)
	}

	return votes, nil
}

// ElectionsWithUnverifiedVotes lists elections that still carry mirror
// votes not yet covered by an on-chain tally check.
func (repo *VoteRepositoryImpl) ElectionsWithUnverifiedVotes() ([]uint64, error) {
	var electionIds []uint64
	result := repo.db.Model(&db_models.VoteDB{}).
		Where("verified = ?", false).
		Distinct("election_id").
		Order("election_id ASC").
		Pluck("election_id", &electionIds)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return electionIds, nil
}

// MarkVerifiedByCandidate flags all mirror votes for a candidate as
// covered by the on-chain tally.
func (repo *VoteRepositoryImpl) MarkVerifiedByCandidate(electionId uint64, candidateId uint64) error {
	err := repo.db.Model(&db_models.VoteDB{}).
		Where("election_id = ? AND candidate_id = ?", electionId, candidateId).
		UpdateColumn("verified", true).
		Error

	return translateError(err)
}
