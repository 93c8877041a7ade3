package domain

import "time"

// InstanceTag is the tag key that carries the log instance identifier.
// The engine injects it on every record that does not already carry one.
const InstanceTag = "INST"

// Record is a single structured log record flowing through the engine.
// Text holds the raw message template on ingestion and the rendered message
// once the record has been buffered; Values are consumed by formatting and
// are empty afterwards.
type Record struct {
	// ID is a monotonically increasing sequence number assigned by the
	// log source. It is the source of truth for ordering and replay
	// filtering: the engine discards any record whose ID is not greater
	// than the last one it has seen.
	ID int64

	// Time is the moment the record was emitted.
	Time time.Time

	// Level is the severity label (e.g. "INFO", "ERROR").
	Level string

	// File and Line identify the call site that emitted the record.
	File string
	Line int

	// Tags carries arbitrary correlation tags. InstanceTag is always
	// present on buffered records.
	Tags map[string]string

	// Text is the message template on input and the rendered text once
	// the record has been formatted.
	Text string

	// Values are the positional replacement values for the template.
	Values []any

	// Replacements are the values extracted by the anonymize formatter,
	// in extraction order. They travel separately from Text so raw
	// sensitive values never appear in the rendered message.
	Replacements []any

	// Repetitions counts how many times this record was seen, starting
	// at 1 and incremented on every duplicate merge.
	Repetitions int
}

// DuplicateOf reports whether r repeats prev. Two records are duplicates
// when call site, level and rendered text all match; timestamps and tags
// are deliberately ignored.
func (r Record) DuplicateOf(prev Record) bool {
	return r.File == prev.File &&
		r.Line == prev.Line &&
		r.Level == prev.Level &&
		r.Text == prev.Text
}

// WireMessage is the JSON shape of a single record on the wire.
type WireMessage struct {
	File         string            `json:"file"`
	Line         int               `json:"line"`
	Level        string            `json:"level"`
	Repetitions  int               `json:"repetitions"`
	Replacements []any             `json:"replacements"`
	Tags         map[string]string `json:"tags"`
	Text         string            `json:"text"`
	Time         string            `json:"time"`
}

// ToWire converts a buffered record to its wire representation.
// Time is rendered as ISO-8601 / RFC 3339.
func (r Record) ToWire() WireMessage {
	replacements := r.Replacements
	if replacements == nil {
		replacements = []any{}
	}
	return WireMessage{
		File:         r.File,
		Line:         r.Line,
		Level:        r.Level,
		Repetitions:  r.Repetitions,
		Replacements: replacements,
		Tags:         r.Tags,
		Text:         r.Text,
		Time:         r.Time.UTC().Format(time.RFC3339Nano),
	}
}

// BatchPayload is the request body when the request policy is PolicyBatch:
// one request carrying every record of the flushed window.
type BatchPayload struct {
	Source   string        `json:"source"`
	Messages []WireMessage `json:"messages"`
}

// MessagePayload is the request body when the request policy is
// PolicyPerMessage: the message fields spread at top level plus the source.
type MessagePayload struct {
	Source string `json:"source"`
	WireMessage
}

// RequestPolicy controls how a flushed buffer is partitioned into requests.
type RequestPolicy string

const (
	// PolicyBatch sends the whole flushed buffer in a single request.
	PolicyBatch RequestPolicy = "BATCH"

	// PolicyPerMessage sends one request per buffered record.
	PolicyPerMessage RequestPolicy = "PER_MESSAGE"
)

// Valid reports whether p is a known request policy.
func (p RequestPolicy) Valid() bool {
	return p == PolicyBatch || p == PolicyPerMessage
}

// PendingSubmission is a serialized payload whose asynchronous delivery
// failed and which is awaiting re-delivery. Entries live in the retry queue
// until they are delivered or their budget runs out.
type PendingSubmission struct {
	// Payload is the opaque serialized request body.
	Payload []byte

	// RetriesLeft is the remaining delivery budget. An entry with zero
	// budget is evicted on the next retry tick.
	RetriesLeft int

	// Delivered marks an entry whose re-delivery succeeded; it is kept
	// until the next tick so the retry pass stays single-iteration.
	Delivered bool

	// InFlight marks an entry whose latest attempt has not reported back
	// yet. An exhausted entry is not written off while its final attempt
	// is still outstanding.
	InFlight bool
}
