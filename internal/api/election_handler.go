package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	coordinator "github.com/chainballot/chainballot/internal/coordinator"
	repositories "github.com/chainballot/chainballot/internal/database/repositories"
	models "github.com/chainballot/chainballot/internal/models"
	results "github.com/chainballot/chainballot/internal/results"
)

// ElectionHandler adapts requests into coordinator calls. It parses and
// shapes, the business rules live behind it.
type ElectionHandler struct {
	coordinator *coordinator.Coordinator
	aggregator  *results.Aggregator
	repos       *repositories.Repositories
	logger      zerolog.Logger
}

func NewElectionHandler(coord *coordinator.Coordinator, aggregator *results.Aggregator, repos *repositories.Repositories, logger zerolog.Logger) *ElectionHandler {
	return &ElectionHandler{
		coordinator: coord,
		aggregator:  aggregator,
		repos:       repos,
		logger:      logger.With().Str("component", "api.elections").Logger(),
	}
}

type createElectionRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Rules       string            `json:"rules"`
	Options     map[string]string `json:"options"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Blockchain  string            `json:"blockchain"`
}

type electionResponse struct {
	Id           uint64    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Blockchain   string    `json:"blockchain"`
	OnChainId    string    `json:"on_chain_id"`
	MetadataHash string    `json:"metadata_hash"`
	CreatedBy    uint64    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func electionToResponse(election *models.Election) electionResponse {
	return electionResponse{
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
	}
}

func (handler *ElectionHandler) Create(w http.ResponseWriter, r *http.Request, userId uint64) {
	var req createElectionRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	blockchain, err := models.ParseBlockchain(req.Blockchain)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, "blockchain must be ETH or HLF", err))
		return
	}

	election, err := handler.coordinator.CreateElection(r.Context(), userId, coordinator.CreateElectionParams{
		Title:       req.Title,
		Description: req.Description,
		Rules:       req.Rules,
		Options:     req.Options,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Blockchain:  blockchain,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, electionToResponse(election))
}

func (handler *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	elections, err := handler.repos.Elections.GetVisible()
	if err != nil {
		handler.logger.Error().Err(err).Msg("failed to list elections")
		writeError(w, err)
		return
	}

	response := make([]electionResponse, len(elections))
	for idx, election := range elections {
		response[idx] = electionToResponse(election)
	}

	writeJSON(w, http.StatusOK, response)
}

func (handler *ElectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	election, ok := handler.visibleElection(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, electionToResponse(election))
}

type registerCandidateRequest struct {
	Bio string `json:"bio"`
}

type candidateResponse struct {
	Id                 uint64 `json:"id"`
	ElectionId         uint64 `json:"election_id"`
	UserId             uint64 `json:"user_id"`
	OnChainCandidateId string `json:"on_chain_candidate_id"`
	Bio                string `json:"bio"`
	VotesReceived      uint64 `json:"votes_received"`
}

func (handler *ElectionHandler) RegisterCandidate(w http.ResponseWriter, r *http.Request, userId uint64) {
	electionId, ok := pathId(w, r, "id")
	if !ok {
		return
	}

	var req registerCandidateRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	candidate, err := handler.coordinator.RegisterCandidate(r.Context(), userId, electionId, req.Bio)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, candidateResponse{
		Id:                 candidate.Id,
		ElectionId:         candidate.ElectionId,
		UserId:             candidate.UserId,
		OnChainCandidateId: candidate.OnChainCandidateId,
		Bio:                candidate.Bio,
		VotesReceived:      candidate.VotesReceived,
	})
}

type castVoteRequest struct {
	CandidateId uint64 `json:"candidate_id"`
}

type voteResponse struct {
	Id         uint64    `json:"id"`
	ElectionId uint64    `json:"election_id"`
	TxHash     string    `json:"tx_hash"`
	Blockchain string    `json:"blockchain"`
	VotedAt    time.Time `json:"voted_at"`
	Verified   bool      `json:"verified"`
}

func (handler *ElectionHandler) CastVote(w http.ResponseWriter, r *http.Request, userId uint64) {
	electionId, ok := pathId(w, r, "id")
	if !ok {
		return
	}

	var req castVoteRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	vote, err := handler.coordinator.CastVote(r.Context(), userId, electionId, req.CandidateId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, voteResponse{
		Id:         vote.Id,
		ElectionId: vote.ElectionId,
		TxHash:     vote.TxHash,
		Blockchain: string(vote.Blockchain),
		VotedAt:    vote.VotedAt,
		Verified:   vote.Verified,
	})
}

type resultsResponse struct {
	ElectionId uint64                 `json:"election_id"`
	Title      string                 `json:"title"`
	TotalVotes uint64                 `json:"total_votes"`
	Candidates []candidateResultEntry `json:"candidates"`
}

type candidateResultEntry struct {
	Id        uint64 `json:"id"`
	UserId    uint64 `json:"user_id"`
	Username  string `json:"username"`
	Votes     uint64 `json:"votes"`
	Divergent bool   `json:"divergent,omitempty"`
}

func (handler *ElectionHandler) Results(w http.ResponseWriter, r *http.Request) {
	electionId, ok := pathId(w, r, "id")
	if !ok {
		return
	}

	electionResults, err := handler.aggregator.Results(r.Context(), electionId)
	if err != nil {
		writeError(w, err)
		return
	}

	response := resultsResponse{
		ElectionId: electionResults.ElectionId,
		Title:      electionResults.Title,
		TotalVotes: electionResults.TotalVotes,
		Candidates: make([]candidateResultEntry, len(electionResults.Candidates)),
	}

	for idx, candidate := range electionResults.Candidates {
		response.Candidates[idx] = candidateResultEntry{
			Id:        candidate.CandidateId,
			UserId:    candidate.UserId,
			Username:  candidate.Username,
			Votes:     candidate.Votes,
			Divergent: candidate.Divergent,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// VerifyVote reports the stored proof for a cast vote by its tx hash.
func (handler *ElectionHandler) VerifyVote(w http.ResponseWriter, r *http.Request) {
	txHash := r.PathValue("txHash")
	if txHash == "" {
		writeErrorMessage(w, http.StatusBadRequest, "tx hash is required")
		return
	}

	vote, err := handler.repos.Votes.GetByTxHash(txHash)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{
		Id:         vote.Id,
		ElectionId: vote.ElectionId,
		TxHash:     vote.TxHash,
		Blockchain: string(vote.Blockchain),
		VotedAt:    vote.VotedAt,
		Verified:   vote.Verified,
	})
}

func (handler *ElectionHandler) visibleElection(w http.ResponseWriter, r *http.Request) (*models.Election, bool) {
	electionId, ok := pathId(w, r, "id")
	if !ok {
		return nil, false
	}

	election, err := handler.repos.Elections.GetById(electionId)
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	if !election.Usable() {
		writeErrorMessage(w, http.StatusNotFound, "election not found")
		return nil, false
	}

	return election, true
}

func pathId(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}

	return id, true
}
