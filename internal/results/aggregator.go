package results

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	clock "github.com/chainballot/chainballot/internal/clock"
	repositories "github.com/chainballot/chainballot/internal/database/repositories"
	ledger "github.com/chainballot/chainballot/internal/ledger"
	models "github.com/chainballot/chainballot/internal/models"
)

type CandidateResult struct {
	CandidateId uint64
	UserId      uint64
	Username    string
	Votes       uint64
	//Divergent marks a mirror count that disagrees with the chain tally
	Divergent bool
}

type ElectionResults struct {
	ElectionId uint64
	Title      string
	TotalVotes uint64
	Candidates []CandidateResult
}

// Aggregator computes ranked tallies from the mirror. Results stay
// gated until the election ends. With cross-checking enabled the
// mirror counts are compared against the chain and divergence is
// flagged, never corrected.
type Aggregator struct {
	repos      *repositories.Repositories
	ledgers    map[models.Blockchain]ledger.Client
	clock      clock.Clock
	crossCheck bool
	logger     zerolog.Logger
}

func NewAggregator(repos *repositories.Repositories, ledgers map[models.Blockchain]ledger.Client, clk clock.Clock, crossCheck bool, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		repos:      repos,
		ledgers:    ledgers,
		clock:      clk,
		crossCheck: crossCheck,
		logger:     logger.With().Str("component", "results").Logger(),
	}
}

func (aggregator *Aggregator) Results(ctx context.Context, electionId uint64) (*ElectionResults, error) {
	election, err := aggregator.repos.Elections.GetById(electionId)
	if err != nil {
		return nil, err
	}

	if !election.Usable() {
		return nil, apperrors.Newf(apperrors.KindNotFound, "election %d not found", electionId)
	}

	if !election.Ended(aggregator.clock.Now()) {
		return nil, apperrors.New(apperrors.KindResultsNotYetAvailable,
			"results are not available until the election ends")
	}

	//ordering is votes descending with creation order as the stable
	//tie break, enforced by the repository query
	candidates, err := aggregator.repos.Candidates.GetByElectionOrderedByVotes(election.Id)
	if err != nil {
		return nil, err
	}

	chainVotes := aggregator.chainTally(ctx, election)

	electionResults := &ElectionResults{
		ElectionId: election.Id,
		Title:      election.Title,
		Candidates: make([]CandidateResult, len(candidates)),
	}

	for idx, candidate := range candidates {
		user, err := aggregator.repos.Users.GetById(candidate.UserId)
		if err != nil {
			return nil, err
		}

		result := CandidateResult{
			CandidateId: candidate.Id,
			UserId:      candidate.UserId,
			Username:    user.Username,
			Votes:       candidate.VotesReceived,
		}

		if chainVotes != nil {
			onChain, ok := chainVotes[candidate.OnChainCandidateId]
			if !ok || onChain != candidate.VotesReceived {
				result.Divergent = true
				aggregator.logger.Warn().
					Uint64("election", election.Id).
					Uint64("candidate", candidate.Id).
					Uint64("mirror_votes", candidate.VotesReceived).
					Uint64("chain_votes", onChain).
					Msg("mirror count diverges from chain tally")
			}
		}

		electionResults.TotalVotes += candidate.VotesReceived
		electionResults.Candidates[idx] = result
	}

	return electionResults, nil
}

// chainTally best-effort fetches the authoritative counts. The chain
// being unreachable degrades to mirror-only results rather than
// failing the read.
func (aggregator *Aggregator) chainTally(ctx context.Context, election *models.Election) map[string]uint64 {
	if !aggregator.crossCheck {
		return nil
	}

	client, ok := aggregator.ledgers[election.Blockchain]
	if !ok {
		return nil
	}

	tallies, err := client.Results(ctx, election.OnChainId)
	if err != nil {
		aggregator.logger.Warn().
			Uint64("election", election.Id).
			Err(err).
			Msg("failed to fetch chain tally for cross-check")
		return nil
	}

	chainVotes := make(map[string]uint64, len(tallies))
	for _, tally := range tallies {
		chainVotes[tally.CandidateId] = tally.Votes
	}

	return chainVotes
}
