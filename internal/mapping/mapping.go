package mapping

import (
	db_models "github.com/chainballot/chainballot/internal/database/models"
	models "github.com/chainballot/chainballot/internal/models"
)

func UserToUserDB(user *models.User) *db_models.UserDB {
	return &db_models.UserDB{
		Id:            user.Id,
		Email:         user.Email,
		Username:      user.Username,
		PasswordHash:  user.PasswordHash,
		Role:          string(user.Role),
		WalletAddress: user.WalletAddress,
		CreatedAt:     user.CreatedAt,
	}
}

func UserDBToUser(userDB *db_models.UserDB) *models.User {
	return &models.User{
		Id:            userDB.Id,
		Email:         userDB.Email,
		Username:      userDB.Username,
		PasswordHash:  userDB.PasswordHash,
		Role:          models.Role(userDB.Role),
		WalletAddress: userDB.WalletAddress,
		CreatedAt:     userDB.CreatedAt,
	}
}

func ElectionToElectionDB(election *models.Election) *db_models.ElectionDB {
	return &db_models.ElectionDB{
		Id:           election.Id,
		Title:        election.Title,
		Description:  election.Description,
		StartTime:    election.StartTime,
		EndTime:      election.EndTime,
		Blockchain:   string(election.Blockchain),
		OnChainId:    election.OnChainId,
		MetadataHash: election.MetadataHash,
		CreatedBy:    election.CreatedBy,
		CreatedAt:    election.CreatedAt,
		Approved:     election.Approved,
	}
}

func ElectionDBToElection(electionDB *db_models.ElectionDB) *models.Election {
	return &models.Election{
		Id:           electionDB.Id,
		Title:        electionDB.Title,
		Description:  electionDB.Description,
		StartTime:    electionDB.StartTime,
		EndTime:      electionDB.EndTime,
		Blockchain:   models.Blockchain(electionDB.Blockchain),
		OnChainId:    electionDB.OnChainId,
		MetadataHash: electionDB.MetadataHash,
		CreatedBy:    electionDB.CreatedBy,
		CreatedAt:    electionDB.CreatedAt,
		Approved:     electionDB.Approved,
	}
}

func CandidateToCandidateDB(candidate *models.Candidate) *db_models.CandidateDB {
	return &db_models.CandidateDB{
		Id:                 candidate.Id,
		ElectionId:         candidate.ElectionId,
		UserId:             candidate.UserId,
		OnChainCandidateId: candidate.OnChainCandidateId,
		Bio:                candidate.Bio,
		VotesReceived:      candidate.VotesReceived,
		Approved:           candidate.Approved,
		CreatedAt:          candidate.CreatedAt,
	}
}

func CandidateDBToCandidate(candidateDB *db_models.CandidateDB) *models.Candidate {
	return &models.Candidate{
		Id:                 candidateDB.Id,
		ElectionId:         candidateDB.ElectionId,
		UserId:             candidateDB.UserId,
		OnChainCandidateId: candidateDB.OnChainCandidateId,
		Bio:                candidateDB.Bio,
		VotesReceived:      candidateDB.VotesReceived,
		Approved:           candidateDB.Approved,
		CreatedAt:          candidateDB.CreatedAt,
	}
}

func VoteToVoteDB(vote *models.Vote) *db_models.VoteDB {
	return &db_models.VoteDB{
		Id:          vote.Id,
		ElectionId:  vote.ElectionId,
		VoterId:     vote.VoterId,
		CandidateId: vote.CandidateId,
		TxHash:      vote.TxHash,
		Blockchain:  string(vote.Blockchain),
		VotedAt:     vote.VotedAt,
		Verified:    vote.Verified,
	}
}

func VoteDBToVote(voteDB *db_models.VoteDB) *models.Vote {
	return &models.Vote{
		Id:          voteDB.Id,
		ElectionId:  voteDB.ElectionId,
		VoterId:     voteDB.VoterId,
		CandidateId: voteDB.CandidateId,
		TxHash:      voteDB.TxHash,
		Blockchain:  models.Blockchain(voteDB.Blockchain),
		VotedAt:     voteDB.VotedAt,
		Verified:    voteDB.Verified,
	}
}
