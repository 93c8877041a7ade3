package engine

import "github.com/LaxarJS/laxar-log-activity/internal/domain"

// retryQueue holds payloads whose asynchronous delivery failed.
// It is owned by the engine loop; the single shared retry timer lives on
// the engine so only one timer is ever outstanding.
type retryQueue struct {
	entries []*domain.PendingSubmission
}

func newRetryQueue() *retryQueue {
	return &retryQueue{}
}

// enqueue adds a failed payload with its initial retry budget.
func (q *retryQueue) enqueue(payload []byte, budget int) *domain.PendingSubmission {
	entry := &domain.PendingSubmission{
		Payload:     payload,
		RetriesLeft: budget,
	}
	q.entries = append(q.entries, entry)
	return entry
}

// evict removes every entry whose budget is already zero and whose outcome
// is known: delivered entries silently, exhausted ones counted as losses.
// An exhausted entry whose final attempt is still in flight stays until the
// result arrives, so a late success is never logged as a loss. Eviction runs
// at the start of each retry tick so the attempt pass stays a single
// iteration.
func (q *retryQueue) evict() (dropped int) {
	kept := q.entries[:0]
	for _, entry := range q.entries {
		if entry.RetriesLeft > 0 || entry.InFlight {
			kept = append(kept, entry)
			continue
		}
		if !entry.Delivered {
			dropped++
		}
	}
	// Clear trailing references so evicted payloads can be collected.
	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = nil
	}
	q.entries = kept
	return dropped
}

func (q *retryQueue) empty() bool {
	return len(q.entries) == 0
}

func (q *retryQueue) size() int {
	return len(q.entries)
}
