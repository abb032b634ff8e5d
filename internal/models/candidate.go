package models

import "time"

type Candidate struct {
	Id                 uint64
	ElectionId         uint64
	UserId             uint64
	OnChainCandidateId string
	Bio                string
	VotesReceived      uint64 //cached local count, advisory for display
	Approved           bool
	CreatedAt          time.Time
}
