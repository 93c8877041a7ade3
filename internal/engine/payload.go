package engine

import (
	"encoding/json"
	"fmt"

	"github.com/LaxarJS/laxar-log-activity/internal/domain"
)

// buildPayloads partitions a flushed batch into request bodies according to
// the request policy: one body for the whole batch, or one per record.
func buildPayloads(source string, policy domain.RequestPolicy, records []domain.Record) ([][]byte, error) {
	if len(records) == 0 {
		return nil, nil
	}

	if policy == domain.PolicyBatch {
		messages := make([]domain.WireMessage, len(records))
		for i, rec := range records {
			messages[i] = rec.ToWire()
		}
		body, err := json.Marshal(domain.BatchPayload{
			Source:   source,
			Messages: messages,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal batch payload: %w", err)
		}
		return [][]byte{body}, nil
	}

	payloads := make([][]byte, 0, len(records))
	for _, rec := range records {
		body, err := json.Marshal(domain.MessagePayload{
			Source:      source,
			WireMessage: rec.ToWire(),
		})
		if err != nil {
			return nil, fmt.Errorf("marshal message payload: %w", err)
		}
		payloads = append(payloads, body)
	}
	return payloads, nil
}
