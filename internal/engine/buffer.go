package engine

import (
	"fmt"

	"github.com/LaxarJS/laxar-log-activity/internal/domain"
)

// dedupLookback bounds the duplicate scan. Looking back exactly two entries
// distinguishes a record firing in a tight loop from one recurring after
// other output, at O(1) per ingestion.
const dedupLookback = 2

// buffer is the pending, not-yet-submitted sequence of records.
// Insertion order is flush order. It owns duplicate merging: a new record
// that repeats one of the last two entries is merged instead of appended.
type buffer struct {
	records []domain.Record
}

func newBuffer() *buffer {
	return &buffer{}
}

// add applies deduplication and appends rec if it was not merged.
// Returns true when rec was merged into a prior entry.
func (b *buffer) add(rec domain.Record) bool {
	n := len(b.records)
	for i := n - 1; i >= 0 && i >= n-dedupLookback; i-- {
		if rec.DuplicateOf(b.records[i]) {
			b.records[i].Repetitions++
			return true
		}
	}
	b.records = append(b.records, rec)
	return false
}

func (b *buffer) size() int {
	return len(b.records)
}

func (b *buffer) empty() bool {
	return len(b.records) == 0
}

// drain returns the buffered records with repetition suffixes applied and
// clears the buffer. The flush owns the returned slice; delivery outcome
// tracking happens in the retry queue, never here.
func (b *buffer) drain() []domain.Record {
	records := b.records
	b.records = nil
	for i := range records {
		if records[i].Repetitions > 1 {
			records[i].Text += fmt.Sprintf(" (repeated %dx)", records[i].Repetitions)
		}
	}
	return records
}
