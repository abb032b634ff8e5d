package coordinator

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	clock "github.com/chainballot/chainballot/internal/clock"
	repositories "github.com/chainballot/chainballot/internal/database/repositories"
	ledger "github.com/chainballot/chainballot/internal/ledger"
	metadata "github.com/chainballot/chainballot/internal/metadata"
	models "github.com/chainballot/chainballot/internal/models"
	reconcile "github.com/chainballot/chainballot/internal/reconcile"
)

// Coordinator sequences every write as ledger submission, confirmation,
// then a short mirror transaction. The ledger is the source of truth,
// the mirror is a rebuildable cache, so a ledger failure leaves no
// mirror row and a mirror failure after confirmation becomes a durable
// reconciliation task instead of a silent drop.
type Coordinator struct {
	ledgers  map[models.Blockchain]ledger.Client
	metadata metadata.Store
	repos    *repositories.Repositories
	queue    *reconcile.Queue
	clock    clock.Clock
	logger   zerolog.Logger
}

func NewCoordinator(
	ledgers map[models.Blockchain]ledger.Client,
	metadataStore metadata.Store,
	repos *repositories.Repositories,
	queue *reconcile.Queue,
	clk clock.Clock,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		ledgers:  ledgers,
		metadata: metadataStore,
		repos:    repos,
		queue:    queue,
		clock:    clk,
		logger:   logger.With().Str("component", "coordinator").Logger(),
	}
}

type CreateElectionParams struct {
	Title       string
	Description string
	Rules       string
	Options     map[string]string
	StartTime   time.Time
	EndTime     time.Time
	Blockchain  models.Blockchain
}

func (coordinator *Coordinator) CreateElection(ctx context.Context, callerId uint64, params CreateElectionParams) (*models.Election, error) {
	caller, err := coordinator.repos.Users.GetById(callerId)
	if err != nil {
		return nil, err
	}

	if !caller.IsElector() {
		return nil, apperrors.New(apperrors.KindAuthorization, "only electors can create elections")
	}

	if params.Title == "" {
		return nil, apperrors.New(apperrors.KindValidation, "title is required")
	}

	if !params.StartTime.Before(params.EndTime) {
		return nil, apperrors.New(apperrors.KindValidation, "start time must be before end time")
	}

	client, ok := coordinator.ledgers[params.Blockchain]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "unsupported blockchain %q", params.Blockchain)
	}

	//metadata goes out first so a storage failure aborts before any
	//ledger resources are spent
	blob, err := json.Marshal(models.ElectionMetadata{
		Description: params.Description,
		Rules:       params.Rules,
		Options:     params.Options,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to encode election metadata: %w", err)
	}

	//once the ledger call is in flight the operation must finish even
	//if the requester disconnects
	detached := context.WithoutCancel(ctx)

	metadataHash, err := coordinator.metadata.Put(detached, blob)
	if err != nil {
		return nil, xerrors.Errorf("failed to store election metadata: %w", err)
	}

	onChainId, err := client.CreateElection(detached,
		params.Title, params.Description, params.StartTime.Unix(), params.EndTime.Unix())
	if err != nil {
		//no mirror row, a ghost election must never become visible
		return nil, err
	}

	election := &models.Election{
		Title:        params.Title,
		Description:  params.Description,
		StartTime:    params.StartTime,
		EndTime:      params.EndTime,
		Blockchain:   params.Blockchain,
		OnChainId:    onChainId,
		MetadataHash: metadataHash,
		CreatedBy:    caller.Id,
		Approved:     true,
	}

	if err := coordinator.repos.Elections.Create(election); err != nil {
		return nil, coordinator.deferRepair(reconcile.TaskMirrorElection, election, err)
	}

	coordinator.logger.Info().
		Uint64("election", election.Id).
		Str("backend", string(election.Blockchain)).
		Str("on_chain_id", onChainId).
		Msg("election created")

	return election, nil
}

func (coordinator *Coordinator) RegisterCandidate(ctx context.Context, callerId uint64, electionId uint64, bio string) (*models.Candidate, error) {
	caller, err := coordinator.repos.Users.GetById(callerId)
	if err != nil {
		return nil, err
	}

	if !caller.IsCandidate() {
		return nil, apperrors.New(apperrors.KindAuthorization, "only candidates can register")
	}

	election, err := coordinator.usableElection(electionId)
	if err != nil {
		return nil, err
	}

	if !election.RegistrationOpen(coordinator.clock.Now()) {
		return nil, apperrors.New(apperrors.KindPreconditionFailed, "registration window is closed")
	}

	if _, err := coordinator.repos.Candidates.GetByElectionAndUser(election.Id, caller.Id); err == nil {
		return nil, apperrors.New(apperrors.KindPreconditionFailed, "already registered for this election")
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}

	identity, err := coordinator.ledgerIdentity(caller, election.Blockchain)
	if err != nil {
		return nil, err
	}

	client := coordinator.ledgers[election.Blockchain]
	detached := context.WithoutCancel(ctx)

	onChainCandidateId, err := client.AddCandidate(detached, election.OnChainId, identity, caller.Username)
	if err != nil {
		return nil, err
	}

	candidate := &models.Candidate{
		ElectionId:         election.Id,
		UserId:             caller.Id,
		OnChainCandidateId: onChainCandidateId,
		Bio:                bio,
		Approved:           true,
	}

	if err := coordinator.repos.Candidates.Create(candidate); err != nil {
		if apperrors.IsKind(err, apperrors.KindPreconditionFailed) {
			//a concurrent registration won the constraint, the extra
			//ledger record is append-only noise and stays rejected here
			return nil, apperrors.Wrap(apperrors.KindPreconditionFailed, "already registered for this election", err)
		}

		return nil, coordinator.deferRepair(reconcile.TaskMirrorCandidate, candidate, err)
	}

	coordinator.logger.Info().
		Uint64("election", election.Id).
		Uint64("candidate", candidate.Id).
		Msg("candidate registered")

	return candidate, nil
}

func (coordinator *Coordinator) CastVote(ctx context.Context, voterId uint64, electionId uint64, candidateId uint64) (*models.Vote, error) {
	voter, err := coordinator.repos.Users.GetById(voterId)
	if err != nil {
		return nil, err
	}

	if !voter.IsElector() {
		return nil, apperrors.New(apperrors.KindAuthorization, "only electors can vote")
	}

	election, err := coordinator.usableElection(electionId)
	if err != nil {
		return nil, err
	}

	if !election.IsActive(coordinator.clock.Now()) {
		return nil, apperrors.New(apperrors.KindPreconditionFailed, "election is not active")
	}

	candidate, err := coordinator.repos.Candidates.GetById(candidateId)
	if err != nil {
		return nil, err
	}

	if candidate.ElectionId != election.Id {
		return nil, apperrors.New(apperrors.KindPreconditionFailed, "candidate does not belong to this election")
	}

	if _, err := coordinator.repos.Votes.GetByElectionAndVoter(election.Id, voter.Id); err == nil {
		return nil, apperrors.New(apperrors.KindPreconditionFailed, "already voted in this election")
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}

	identity, err := coordinator.ledgerIdentity(voter, election.Blockchain)
	if err != nil {
		return nil, err
	}

	client := coordinator.ledgers[election.Blockchain]
	detached := context.WithoutCancel(ctx)

	txHash, err := client.CastVote(detached, election.OnChainId, candidate.OnChainCandidateId, identity)
	if err != nil {
		//an ambiguous outcome (confirmation timeout) is surfaced as is,
		//a blind retry could double the transaction on chain
		return nil, err
	}

	vote := &models.Vote{
		ElectionId:  election.Id,
		VoterId:     voter.Id,
		CandidateId: candidate.Id,
		TxHash:      txHash,
		Blockchain:  election.Blockchain,
	}

	if err := coordinator.repos.Votes.CreateWithCount(vote); err != nil {
		if apperrors.IsKind(err, apperrors.KindPreconditionFailed) {
			return nil, apperrors.Wrap(apperrors.KindPreconditionFailed, "already voted in this election", err)
		}

		return nil, coordinator.deferRepair(reconcile.TaskMirrorVote, vote, err)
	}

	coordinator.logger.Info().
		Uint64("election", election.Id).
		Uint64("candidate", candidate.Id).
		Str("tx_hash", txHash).
		Msg("vote cast")

	return vote, nil
}

func (coordinator *Coordinator) usableElection(electionId uint64) (*models.Election, error) {
	election, err := coordinator.repos.Elections.GetById(electionId)
	if err != nil {
		return nil, err
	}

	if !election.Usable() {
		//failed mid-creation, must not be exposed as usable
		return nil, apperrors.Newf(apperrors.KindNotFound, "election %d not found", electionId)
	}

	return election, nil
}

// ledgerIdentity picks what the backend knows the user as. The EVM
// backend demands a wallet, checked here so a doomed transaction is
// never attempted.
func (coordinator *Coordinator) ledgerIdentity(user *models.User, blockchain models.Blockchain) (string, error) {
	if blockchain == models.BlockchainEthereum {
		if !user.HasWallet() {
			return "", apperrors.New(apperrors.KindPreconditionFailed, "a wallet address is required for ethereum elections")
		}

		if !models.ValidWalletAddress(user.WalletAddress) {
			return "", apperrors.Newf(apperrors.KindValidation, "malformed wallet address %q", user.WalletAddress)
		}

		return user.WalletAddress, nil
	}

	return strconv.FormatUint(user.Id, 10), nil
}

// deferRepair records a confirmed ledger write whose mirror row failed.
// The chain state is authoritative, the task replays the mirror write
// out of band.
func (coordinator *Coordinator) deferRepair(kind reconcile.TaskKind, payload any, cause error) error {
	coordinator.logger.Error().
		Str("kind", string(kind)).
		Err(cause).
		Msg("mirror write failed after ledger confirmation")

	if _, err := coordinator.queue.Enqueue(kind, payload); err != nil {
		coordinator.logger.Error().Err(err).Msg("failed to enqueue reconciliation task")
		return apperrors.Wrap(apperrors.KindReconciliationRequired,
			"ledger write confirmed but mirror and queue are both unavailable", cause)
	}

	return apperrors.Wrap(apperrors.KindReconciliationRequired,
		"ledger write confirmed but mirror update failed, queued for repair", cause)
}
