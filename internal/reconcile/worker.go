package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	clock "github.com/chainballot/chainballot/internal/clock"
	repositories "github.com/chainballot/chainballot/internal/database/repositories"
	ledger "github.com/chainballot/chainballot/internal/ledger"
	models "github.com/chainballot/chainballot/internal/models"
)

// VerifyVotesPayload asks the worker to cross-check a closed election
// against its chain tally.
type VerifyVotesPayload struct {
	ElectionId uint64 `json:"election_id"`
}

// Worker drains the reconciliation queue. Mirror tasks replay a local
// write that failed after ledger confirmation, verify tasks compare
// mirror counts against the chain and flag divergence without
// correcting it.
type Worker struct {
	queue   *Queue
	repos   *repositories.Repositories
	ledgers map[models.Blockchain]ledger.Client
	clock   clock.Clock
	logger  zerolog.Logger
}

func NewWorker(queue *Queue, repos *repositories.Repositories, ledgers map[models.Blockchain]ledger.Client, clk clock.Clock, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:   queue,
		repos:   repos,
		ledgers: ledgers,
		clock:   clk,
		logger:  logger.With().Str("component", "reconciler").Logger(),
	}
}

func (worker *Worker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			worker.SweepEndedElections()
			worker.ProcessOnce(ctx)
		}
	}
}

// SweepEndedElections queues a verify task for every ended election
// that still carries unverified mirror votes. A task already queued for
// the same election is not duplicated, the queue stays the single
// retry mechanism.
func (worker *Worker) SweepEndedElections() {
	electionIds, err := worker.repos.Votes.ElectionsWithUnverifiedVotes()
	if err != nil {
		worker.logger.Error().Err(err).Msg("failed to list elections pending verification")
		return
	}

	if len(electionIds) == 0 {
		return
	}

	tasks, err := worker.queue.Tasks()
	if err != nil {
		worker.logger.Error().Err(err).Msg("failed to list reconciliation tasks")
		return
	}

	queued := make(map[uint64]bool)
	for _, task := range tasks {
		if task.Kind != TaskVerifyVotes {
			continue
		}

		payload := &VerifyVotesPayload{}
		if err := json.Unmarshal(task.Payload, payload); err != nil {
			continue
		}

		queued[payload.ElectionId] = true
	}

	for _, electionId := range electionIds {
		if queued[electionId] {
			continue
		}

		election, err := worker.repos.Elections.GetById(electionId)
		if err != nil {
			worker.logger.Error().Err(err).Uint64("election", electionId).Msg("failed to load election for verification sweep")
			continue
		}

		if !election.Ended(worker.clock.Now()) {
			continue
		}

		if _, err := worker.queue.Enqueue(TaskVerifyVotes, VerifyVotesPayload{ElectionId: electionId}); err != nil {
			worker.logger.Error().Err(err).Uint64("election", electionId).Msg("failed to enqueue verify task")
			continue
		}

		worker.logger.Info().Uint64("election", electionId).Msg("queued post-election vote verification")
	}
}

func (worker *Worker) ProcessOnce(ctx context.Context) {
	tasks, err := worker.queue.Tasks()
	if err != nil {
		worker.logger.Error().Err(err).Msg("failed to list reconciliation tasks")
		return
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}

		if err := worker.process(ctx, task); err != nil {
			worker.logger.Warn().
				Str("task", task.Id).
				Str("kind", string(task.Kind)).
				Int("attempts", task.Attempts+1).
				Err(err).
				Msg("reconciliation task failed, keeping it queued")

			if recordErr := worker.queue.RecordFailure(task, err); recordErr != nil {
				worker.logger.Error().Err(recordErr).Msg("failed to record task failure")
			}

			continue
		}

		if err := worker.queue.Delete(task.Id); err != nil {
			worker.logger.Error().Err(err).Str("task", task.Id).Msg("failed to delete finished task")
			continue
		}

		worker.logger.Info().
			Str("task", task.Id).
			Str("kind", string(task.Kind)).
			Msg("reconciliation task finished")
	}
}

func (worker *Worker) process(ctx context.Context, task *Task) error {
	switch task.Kind {
	case TaskMirrorElection:
		return worker.mirrorElection(task)
	case TaskMirrorCandidate:
		return worker.mirrorCandidate(task)
	case TaskMirrorVote:
		return worker.mirrorVote(task)
	case TaskVerifyVotes:
		return worker.verifyVotes(ctx, task)
	}

	return xerrors.Errorf("unknown task kind %q", task.Kind)
}

func (worker *Worker) mirrorElection(task *Task) error {
	election := &models.Election{}
	if err := json.Unmarshal(task.Payload, election); err != nil {
		return xerrors.Errorf("failed to decode election payload: %w", err)
	}

	err := worker.repos.Elections.Create(election)
	if apperrors.IsKind(err, apperrors.KindPreconditionFailed) {
		//the row landed on an earlier attempt
		return nil
	}

	return err
}

func (worker *Worker) mirrorCandidate(task *Task) error {
	candidate := &models.Candidate{}
	if err := json.Unmarshal(task.Payload, candidate); err != nil {
		return xerrors.Errorf("failed to decode candidate payload: %w", err)
	}

	err := worker.repos.Candidates.Create(candidate)
	if apperrors.IsKind(err, apperrors.KindPreconditionFailed) {
		return nil
	}

	return err
}

func (worker *Worker) mirrorVote(task *Task) error {
	vote := &models.Vote{}
	if err := json.Unmarshal(task.Payload, vote); err != nil {
		return xerrors.Errorf("failed to decode vote payload: %w", err)
	}

	err := worker.repos.Votes.CreateWithCount(vote)
	if apperrors.IsKind(err, apperrors.KindPreconditionFailed) {
		return nil
	}

	return err
}

// verifyVotes marks mirror votes verified when the chain tally covers
// the local count. A chain count below the mirror count is divergence,
// it is flagged and left for an operator, never silently corrected.
func (worker *Worker) verifyVotes(ctx context.Context, task *Task) error {
	payload := &VerifyVotesPayload{}
	if err := json.Unmarshal(task.Payload, payload); err != nil {
		return xerrors.Errorf("failed to decode verify payload: %w", err)
	}

	election, err := worker.repos.Elections.GetById(payload.ElectionId)
	if err != nil {
		return err
	}

	if !election.Ended(worker.clock.Now()) {
		return xerrors.Errorf("election %d has not ended yet", election.Id)
	}

	client, ok := worker.ledgers[election.Blockchain]
	if !ok {
		return xerrors.Errorf("no ledger client for backend %s", election.Blockchain)
	}

	tallies, err := client.Results(ctx, election.OnChainId)
	if err != nil {
		return err
	}

	chainVotes := make(map[string]uint64, len(tallies))
	for _, tally := range tallies {
		chainVotes[tally.CandidateId] = tally.Votes
	}

	candidates, err := worker.repos.Candidates.GetByElectionOrderedByVotes(election.Id)
	if err != nil {
		return err
	}

	for _, candidate := range candidates {
		onChain := chainVotes[candidate.OnChainCandidateId]

		if onChain < candidate.VotesReceived {
			worker.logger.Warn().
				Uint64("election", election.Id).
				Uint64("candidate", candidate.Id).
				Uint64("mirror_votes", candidate.VotesReceived).
				Uint64("chain_votes", onChain).
				Msg("mirror count diverges from chain tally")
			continue
		}

		if err := worker.repos.Votes.MarkVerifiedByCandidate(election.Id, candidate.Id); err != nil {
			return err
		}
	}

	return nil
}
