package models

import "time"

type Vote struct {
	Id          uint64
	ElectionId  uint64
	VoterId     uint64
	CandidateId uint64
	TxHash      string //proof of cast, globally unique across backends
	Blockchain  Blockchain
	VotedAt     time.Time
	Verified    bool //set by reconciliation once the chain tally covers this vote
}
