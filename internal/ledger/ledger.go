package ledger

import (
	"context"

	models "github.com/chainballot/chainballot/internal/models"
)

// Tally is one candidate's on-chain vote count.
type Tally struct {
	CandidateId string
	Votes       uint64
}

// Client is the capability set a backend must provide. On-chain ids are
// normalized to strings so callers never branch on backend shape, the
// EVM backend renders its numeric ids in decimal. Write calls block
// until the backend confirms and classify failures as
// apperrors.KindLedgerUnavailable, KindTransactionRejected or
// KindConfirmationTimeout (the last one is an ambiguous outcome).
type Client interface {
	//CreateElection submits the election and returns its on-chain id.
	CreateElection(ctx context.Context, title string, description string, startUnix int64, endUnix int64) (string, error)

	//AddCandidate registers a candidate and returns its on-chain id.
	//identity is a wallet address on EVM, an opaque name on Fabric.
	AddCandidate(ctx context.Context, electionId string, identity string, displayName string) (string, error)

	//CastVote submits the vote and returns the proof-of-cast tx hash.
	CastVote(ctx context.Context, electionId string, candidateId string, voterIdentity string) (string, error)

	//Results returns the authoritative per-candidate counts. Read only,
	//used for reconciliation, never on the hot path.
	Results(ctx context.Context, electionId string) ([]Tally, error)

	Backend() models.Blockchain
}
