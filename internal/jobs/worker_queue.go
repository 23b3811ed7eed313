package jobs

import (
	"context"

	"github.com/vytor/studyflash/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool   *worker.Pool
	filler worker.DeckFiller
	purge  func(ctx context.Context) (int64, error)
}

// NewWorkerQueue creates a new WorkerQueue implementation. filler may be set
// later with SetFiller to break the construction cycle with the service that
// both enqueues and runs generation jobs.
func NewWorkerQueue(pool *worker.Pool, purge func(ctx context.Context) (int64, error)) *WorkerQueue {
	return &WorkerQueue{pool: pool, purge: purge}
}

func (q *WorkerQueue) SetFiller(f worker.DeckFiller) {
	q.filler = f
}

func (q *WorkerQueue) EnqueueGeneration(deckID int64, text string, count int) error {
	return q.pool.Submit(&worker.GenerateCardsJob{
		Filler: q.filler,
		DeckID: deckID,
		Text:   text,
		Count:  count,
	})
}

func (q *WorkerQueue) EnqueueSessionPurge() error {
	return q.pool.Submit(&worker.PurgeSessionsJob{Purge: q.purge})
}
