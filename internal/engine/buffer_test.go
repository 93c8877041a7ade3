package engine

import (
	"testing"
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/domain"
)

func bufRecord(id int64, level, file string, line int, text string) domain.Record {
	return domain.Record{
		ID:          id,
		Time:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:       level,
		File:        file,
		Line:        line,
		Text:        text,
		Repetitions: 1,
	}
}

func TestBuffer_MergesWithinLookback(t *testing.T) {
	b := newBuffer()

	if merged := b.add(bufRecord(1, "ERROR", "a.js", 1, "boom")); merged {
		t.Error("first record reported as merged")
	}
	if merged := b.add(bufRecord(2, "ERROR", "a.js", 1, "boom")); !merged {
		t.Error("immediate duplicate not merged")
	}
	if merged := b.add(bufRecord(3, "INFO", "b.js", 2, "other")); merged {
		t.Error("distinct record reported as merged")
	}
	if merged := b.add(bufRecord(4, "ERROR", "a.js", 1, "boom")); !merged {
		t.Error("duplicate at lookback distance two not merged")
	}

	if b.size() != 2 {
		t.Fatalf("size = %d, want 2", b.size())
	}
	if got := b.records[0].Repetitions; got != 3 {
		t.Errorf("repetitions = %d, want 3", got)
	}
}

func TestBuffer_NoMergeBeyondLookback(t *testing.T) {
	b := newBuffer()
	b.add(bufRecord(1, "ERROR", "a.js", 1, "boom"))
	b.add(bufRecord(2, "INFO", "b.js", 2, "one"))
	b.add(bufRecord(3, "INFO", "c.js", 3, "two"))

	if merged := b.add(bufRecord(4, "ERROR", "a.js", 1, "boom")); merged {
		t.Error("merged beyond the two-entry lookback")
	}
	if b.size() != 4 {
		t.Errorf("size = %d, want 4", b.size())
	}
}

func TestBuffer_MergeRequiresFullIdentity(t *testing.T) {
	b := newBuffer()
	b.add(bufRecord(1, "ERROR", "a.js", 1, "boom"))

	variants := []domain.Record{
		bufRecord(2, "WARN", "a.js", 1, "boom"),
		bufRecord(3, "ERROR", "b.js", 1, "boom"),
		bufRecord(4, "ERROR", "a.js", 2, "boom"),
		bufRecord(5, "ERROR", "a.js", 1, "bang"),
	}
	for _, v := range variants {
		if merged := b.add(v); merged {
			t.Errorf("record %d merged despite differing identity", v.ID)
		}
	}
}

func TestBuffer_DrainAppliesRepetitionSuffix(t *testing.T) {
	b := newBuffer()
	b.add(bufRecord(1, "ERROR", "a.js", 1, "boom"))
	b.add(bufRecord(2, "ERROR", "a.js", 1, "boom"))
	b.add(bufRecord(3, "INFO", "b.js", 2, "once"))

	records := b.drain()
	if len(records) != 2 {
		t.Fatalf("drained %d records, want 2", len(records))
	}
	if records[0].Text != "boom (repeated 2x)" {
		t.Errorf("text = %q, want %q", records[0].Text, "boom (repeated 2x)")
	}
	if records[1].Text != "once" {
		t.Errorf("singleton text = %q, want unchanged", records[1].Text)
	}
	if !b.empty() {
		t.Error("buffer not empty after drain")
	}
}

func TestBuffer_DrainEmpty(t *testing.T) {
	b := newBuffer()
	if records := b.drain(); len(records) != 0 {
		t.Errorf("drained %d records from empty buffer", len(records))
	}
}
