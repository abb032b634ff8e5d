package db_models

import "time"

// The (election_id, user_id) unique index is the mechanism that rejects
// a second registration for the same user under concurrent requests.
type CandidateDB struct {
	Id                 uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	ElectionId         uint64    `gorm:"column:election_id;not null;uniqueIndex:idx_candidates_election_user"`
	UserId             uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_candidates_election_user"`
	OnChainCandidateId string    `gorm:"column:on_chain_candidate_id"`
	Bio                string    `gorm:"column:bio"`
	VotesReceived      uint64    `gorm:"column:votes_received;not null;default:0"`
	Approved           bool      `gorm:"column:approved;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`

	Votes []VoteDB `gorm:"foreignKey:CandidateId;references:Id;constraint:OnDelete:CASCADE"`
}

func (CandidateDB) TableName() string {
	return "candidates"
}
