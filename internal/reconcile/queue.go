package reconcile

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

type TaskKind string

const (
	TaskMirrorElection  TaskKind = "mirror-election"
	TaskMirrorCandidate TaskKind = "mirror-candidate"
	TaskMirrorVote      TaskKind = "mirror-vote"
	TaskVerifyVotes     TaskKind = "verify-votes"
)

// Task is one durable "verify and repair" unit. The ledger is the
// source of truth, a task records mirror state that still has to catch
// up with a confirmed chain write.
type Task struct {
	Id        string          `json:"id"`
	Kind      TaskKind        `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
}

var tasksBucket = []byte("tasks")

// Queue is the durable reconciliation task list. Tasks survive process
// restarts and are never dropped on failure, only retried.
type Queue struct {
	db *bbolt.DB
}

func OpenQueue(path string) (*Queue, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, xerrors.Errorf("failed to open reconciliation queue: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tasksBucket)
		return err
	})

	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("failed to create tasks bucket: %w", err)
	}

	return &Queue{db: db}, nil
}

func (queue *Queue) Close() error {
	return queue.db.Close()
}

func (queue *Queue) Enqueue(kind TaskKind, payload any) (*Task, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode task payload: %w", err)
	}

	task := &Task{
		Id:        uuid.NewString(),
		Kind:      kind,
		Payload:   encoded,
		CreatedAt: time.Now().UTC(),
	}

	if err := queue.put(task); err != nil {
		return nil, err
	}

	return task, nil
}

func (queue *Queue) Tasks() ([]*Task, error) {
	var tasks []*Task

	err := queue.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(tasksBucket)

		return bucket.ForEach(func(_, value []byte) error {
			task := &Task{}
			if err := json.Unmarshal(value, task); err != nil {
				return xerrors.Errorf("failed to decode task: %w", err)
			}

			tasks = append(tasks, task)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func (queue *Queue) Delete(id string) error {
	return queue.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tasksBucket).Delete([]byte(id))
	})
}

// RecordFailure keeps the task queued with its attempt count visible to
// operators.
func (queue *Queue) RecordFailure(task *Task, cause error) error {
	task.Attempts++
	task.LastError = cause.Error()

	return queue.put(task)
}

func (queue *Queue) put(task *Task) error {
	encoded, err := json.Marshal(task)
	if err != nil {
		return xerrors.Errorf("failed to encode task: %w", err)
	}

	return queue.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tasksBucket).Put([]byte(task.Id), encoded)
	})
}
