package reconcile_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainballot/chainballot/internal/clock"
	db_connection "github.com/chainballot/chainballot/internal/database/connection"
	"github.com/chainballot/chainballot/internal/database/repositories"
	"github.com/chainballot/chainballot/internal/ledger"
	"github.com/chainballot/chainballot/internal/models"
	"github.com/chainballot/chainballot/internal/reconcile"
)

type fakeLedger struct {
	tallies []ledger.Tally
	err     error
}

func (fake *fakeLedger) Backend() models.Blockchain {
	return models.BlockchainEthereum
}

func (fake *fakeLedger) CreateElection(ctx context.Context, title string, description string, startUnix int64, endUnix int64) (string, error) {
	return "", errors.New("not implemented")
}

func (fake *fakeLedger) AddCandidate(ctx context.Context, electionId string, identity string, displayName string) (string, error) {
	return "", errors.New("not implemented")
}

func (fake *fakeLedger) CastVote(ctx context.Context, electionId string, candidateId string, voterIdentity string) (string, error) {
	return "", errors.New("not implemented")
}

func (fake *fakeLedger) Results(ctx context.Context, electionId string) ([]ledger.Tally, error) {
	return fake.tallies, fake.err
}

type workerFixture struct {
	worker    *reconcile.Worker
	queue     *reconcile.Queue
	repos     *repositories.Repositories
	ledger    *fakeLedger
	clock     *clock.Fixed
	voter     *models.User
	election  *models.Election
	candidate *models.Candidate
}

func setupWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	dir := t.TempDir()

	db, err := db_connection.NewConnection(filepath.Join(dir, "mirror.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db_connection.CloseDatabaseConnection(db)
	})

	queue := openTestQueue(t, dir)
	t.Cleanup(func() {
		queue.Close()
	})

	repos := repositories.NewRepositories(db)

	voter := &models.User{Email: "elector@example.com", Username: "elector", PasswordHash: []byte("x"), Role: models.RoleElector}
	runner := &models.User{Email: "candidate@example.com", Username: "candidate", PasswordHash: []byte("x"), Role: models.RoleCandidate}
	for _, user := range []*models.User{voter, runner} {
		if err := repos.Users.Create(user); err != nil {
			t.Fatalf("failed to create test user: %v", err)
		}
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	election := &models.Election{
		Title:      "test election",
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
		Blockchain: models.BlockchainEthereum,
		OnChainId:  "e1",
		CreatedBy:  voter.Id,
		Approved:   true,
	}
	if err := repos.Elections.Create(election); err != nil {
		t.Fatalf("failed to create test election: %v", err)
	}

	candidate := &models.Candidate{ElectionId: election.Id, UserId: runner.Id, OnChainCandidateId: "c1", Approved: true}
	if err := repos.Candidates.Create(candidate); err != nil {
		t.Fatalf("failed to create test candidate: %v", err)
	}

	fake := &fakeLedger{}
	fixed := &clock.Fixed{Time: election.EndTime.Add(time.Hour)}

	worker := reconcile.NewWorker(queue, repos,
		map[models.Blockchain]ledger.Client{models.BlockchainEthereum: fake},
		fixed, zerolog.Nop())

	return &workerFixture{
		worker:    worker,
		queue:     queue,
		repos:     repos,
		ledger:    fake,
		clock:     fixed,
		voter:     voter,
		election:  election,
		candidate: candidate,
	}
}

func (fixture *workerFixture) remainingTasks(t *testing.T) []*reconcile.Task {
	t.Helper()

	tasks, err := fixture.queue.Tasks()
	if err != nil {
		t.Fatalf("failed to list tasks: %v", err)
	}

	return tasks
}

func TestWorkerReplaysMirrorVote(t *testing.T) {
	fixture := setupWorkerFixture(t)

	vote := &models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: fixture.candidate.Id,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}

	if _, err := fixture.queue.Enqueue(reconcile.TaskMirrorVote, vote); err != nil {
		t.Fatalf("failed to enqueue task: %v", err)
	}

	fixture.worker.ProcessOnce(context.Background())

	if tasks := fixture.remainingTasks(t); len(tasks) != 0 {
		t.Fatalf("finished task still queued: %+v", tasks)
	}

	replayed, err := fixture.repos.Votes.GetByTxHash("0xabc")
	if err != nil {
		t.Fatalf("replayed vote not in mirror: %v", err)
	}

	if replayed.VoterId != fixture.voter.Id {
		t.Fatalf("replayed vote carries wrong voter: %d", replayed.VoterId)
	}

	updated, err := fixture.repos.Candidates.GetById(fixture.candidate.Id)
	if err != nil {
		t.Fatalf("failed to reload candidate: %v", err)
	}

	if updated.VotesReceived != 1 {
		t.Fatalf("replay did not update the count: %d", updated.VotesReceived)
	}
}

func TestWorkerDropsTaskWhenRowAlreadyLanded(t *testing.T) {
	fixture := setupWorkerFixture(t)

	vote := &models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: fixture.candidate.Id,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}

	if err := fixture.repos.Votes.CreateWithCount(vote); err != nil {
		t.Fatalf("failed to create vote: %v", err)
	}

	replay := &models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: fixture.candidate.Id,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}

	if _, err := fixture.queue.Enqueue(reconcile.TaskMirrorVote, replay); err != nil {
		t.Fatalf("failed to enqueue task: %v", err)
	}

	fixture.worker.ProcessOnce(context.Background())

	if tasks := fixture.remainingTasks(t); len(tasks) != 0 {
		t.Fatalf("redundant task still queued: %+v", tasks)
	}

	updated, err := fixture.repos.Candidates.GetById(fixture.candidate.Id)
	if err != nil {
		t.Fatalf("failed to reload candidate: %v", err)
	}

	if updated.VotesReceived != 1 {
		t.Fatalf("redundant replay bumped the count: %d", updated.VotesReceived)
	}
}

func TestWorkerKeepsFailingTask(t *testing.T) {
	fixture := setupWorkerFixture(t)

	//references a candidate that does not exist, the insert keeps failing
	vote := &models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: 999,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}

	if _, err := fixture.queue.Enqueue(reconcile.TaskMirrorVote, vote); err != nil {
		t.Fatalf("failed to enqueue task: %v", err)
	}

	fixture.worker.ProcessOnce(context.Background())

	tasks := fixture.remainingTasks(t)
	if len(tasks) != 1 {
		t.Fatalf("failing task was dropped")
	}

	if tasks[0].Attempts != 1 {
		t.Fatalf("attempt not recorded: %+v", tasks[0])
	}
}

func TestWorkerVerifiesVotesAgainstChain(t *testing.T) {
	fixture := setupWorkerFixture(t)

	if err := fixture.repos.Votes.CreateWithCount(&models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: fixture.candidate.Id,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}); err != nil {
		t.Fatalf("failed to create vote: %v", err)
	}

	fixture.ledger.tallies = []ledger.Tally{{CandidateId: "c1", Votes: 1}}

	if _, err := fixture.queue.Enqueue(reconcile.TaskVerifyVotes, reconcile.VerifyVotesPayload{ElectionId: fixture.election.Id}); err != nil {
		t.Fatalf("failed to enqueue task: %v", err)
	}

	fixture.worker.ProcessOnce(context.Background())

	if tasks := fixture.remainingTasks(t); len(tasks) != 0 {
		t.Fatalf("finished task still queued: %+v", tasks)
	}

	vote, err := fixture.repos.Votes.GetByTxHash("0xabc")
	if err != nil {
		t.Fatalf("failed to get vote: %v", err)
	}

	if !vote.Verified {
		t.Fatalf("covered vote not marked verified")
	}
}

func TestWorkerLeavesDivergentVotesUnverified(t *testing.T) {
	fixture := setupWorkerFixture(t)

	if err := fixture.repos.Votes.CreateWithCount(&models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: fixture.candidate.Id,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}); err != nil {
		t.Fatalf("failed to create vote: %v", err)
	}

	//chain is missing the vote, divergence must stay visible
	fixture.ledger.tallies = []ledger.Tally{{CandidateId: "c1", Votes: 0}}

	if _, err := fixture.queue.Enqueue(reconcile.TaskVerifyVotes, reconcile.VerifyVotesPayload{ElectionId: fixture.election.Id}); err != nil {
		t.Fatalf("failed to enqueue task: %v", err)
	}

	fixture.worker.ProcessOnce(context.Background())

	vote, err := fixture.repos.Votes.GetByTxHash("0xabc")
	if err != nil {
		t.Fatalf("failed to get vote: %v", err)
	}

	if vote.Verified {
		t.Fatalf("divergent vote marked verified")
	}
}

func TestSweepQueuesVerifyForEndedElection(t *testing.T) {
	fixture := setupWorkerFixture(t)

	if err := fixture.repos.Votes.CreateWithCount(&models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: fixture.candidate.Id,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}); err != nil {
		t.Fatalf("failed to create vote: %v", err)
	}

	fixture.worker.SweepEndedElections()

	tasks := fixture.remainingTasks(t)
	if len(tasks) != 1 || tasks[0].Kind != reconcile.TaskVerifyVotes {
		t.Fatalf("expected one verify task, got %+v", tasks)
	}

	//a second sweep must not duplicate the queued task
	fixture.worker.SweepEndedElections()

	if tasks := fixture.remainingTasks(t); len(tasks) != 1 {
		t.Fatalf("sweep duplicated the verify task: %+v", tasks)
	}

	//once the chain covers the vote the sweep goes quiet
	fixture.ledger.tallies = []ledger.Tally{{CandidateId: "c1", Votes: 1}}
	fixture.worker.ProcessOnce(context.Background())
	fixture.worker.SweepEndedElections()

	if tasks := fixture.remainingTasks(t); len(tasks) != 0 {
		t.Fatalf("verified election swept again: %+v", tasks)
	}
}

func TestSweepSkipsOngoingElection(t *testing.T) {
	fixture := setupWorkerFixture(t)
	fixture.clock.Time = fixture.election.StartTime.Add(time.Hour) //mid-election

	if err := fixture.repos.Votes.CreateWithCount(&models.Vote{
		ElectionId:  fixture.election.Id,
		VoterId:     fixture.voter.Id,
		CandidateId: fixture.candidate.Id,
		TxHash:      "0xabc",
		Blockchain:  models.BlockchainEthereum,
	}); err != nil {
		t.Fatalf("failed to create vote: %v", err)
	}

	fixture.worker.SweepEndedElections()

	if tasks := fixture.remainingTasks(t); len(tasks) != 0 {
		t.Fatalf("ongoing election was queued for verification: %+v", tasks)
	}
}

func TestWorkerRefusesVerifyBeforeEnd(t *testing.T) {
	fixture := setupWorkerFixture(t)
	fixture.clock.Time = fixture.election.StartTime.Add(time.Hour) //mid-election

	if _, err := fixture.queue.Enqueue(reconcile.TaskVerifyVotes, reconcile.VerifyVotesPayload{ElectionId: fixture.election.Id}); err != nil {
		t.Fatalf("failed to enqueue task: %v", err)
	}

	fixture.worker.ProcessOnce(context.Background())

	if tasks := fixture.remainingTasks(t); len(tasks) != 1 {
		t.Fatalf("premature verify task was dropped")
	}
}
