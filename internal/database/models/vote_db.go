package db_models

import "time"

// The (election_id, voter_id) unique index prevents double voting under
// concurrent requests, tx_hash is unique across both backends.
type VoteDB struct {
	Id          uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	ElectionId  uint64    `gorm:"column:election_id;not null;uniqueIndex:idx_votes_election_voter"`
	VoterId     uint64    `gorm:"column:voter_id;not null;uniqueIndex:idx_votes_election_voter"`
	CandidateId uint64    `gorm:"column:candidate_id;not null"`
	TxHash      string    `gorm:"column:tx_hash;not null;uniqueIndex"`
	Blockchain  string    `gorm:"column:blockchain;not null"`
	VotedAt     time.Time `gorm:"column:voted_at;autoCreateTime"`
	Verified    bool      `gorm:"column:verified;not null"`
}

func (VoteDB) TableName() string {
	return "votes"
}
