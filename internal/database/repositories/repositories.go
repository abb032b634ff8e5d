package repositories

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
)

// Repositories bundles the mirror store repositories for injection.
type Repositories struct {
	Users      UserRepository
	Elections  ElectionRepository
	Candidates CandidateRepository
	Votes      VoteRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:      NewUserRepositoryImpl(db),
		Elections:  NewElectionRepositoryImpl(db),
		Candidates: NewCandidateRepositoryImpl(db),
		Votes:      NewVoteRepositoryImpl(db),
	}
}

// translateError maps storage errors to the application taxonomy so
// callers never branch on raw gorm sentinels. A duplicate key is a
// precondition failure, the constraint is the authority under races.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.KindPreconditionFailed, "record already exists", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.KindNotFound, "record not found", err)
	}

	return err
}
