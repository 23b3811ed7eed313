package jobs

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueGeneration(deckID int64, text string, count int) error
	EnqueueSessionPurge() error
}
