package store

import (
	"encoding/json"
	"fmt"

	"github.com/vendalab/salespipe/internal/models"
)

// marshalStateJSON serializes the map/slice parts of a state for the JSON
// columns shared by both SQL backends.
func marshalStateJSON(state models.ConversationState) (fields, triggers, history, questions []byte, err error) {
	if fields, err = json.Marshal(state.CollectedFields); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal collected fields: %w", err)
	}
	if triggers, err = json.Marshal(state.ActivatedTriggers); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal activated triggers: %w", err)
	}
	if history, err = json.Marshal(state.EnforcementHistory); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal enforcement history: %w", err)
	}
	if questions, err = json.Marshal(state.AskedQuestions); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal asked questions: %w", err)
	}
	return fields, triggers, history, questions, nil
}

// unmarshalStateJSON restores the map/slice parts of a state from the JSON
// columns. nil slices become empty values so invariants hold after a read.
func unmarshalStateJSON(state *models.ConversationState, fields, triggers, history, questions []byte) error {
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &state.CollectedFields); err != nil {
			return fmt.Errorf("unmarshal collected fields: %w", err)
		}
	}
	if state.CollectedFields == nil {
		state.CollectedFields = make(map[string]models.FieldValue)
	}
	if len(triggers) > 0 {
		if err := json.Unmarshal(triggers, &state.ActivatedTriggers); err != nil {
			return fmt.Errorf("unmarshal activated triggers: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &state.EnforcementHistory); err != nil {
			return fmt.Errorf("unmarshal enforcement history: %w", err)
		}
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &state.AskedQuestions); err != nil {
			return fmt.Errorf("unmarshal asked questions: %w", err)
		}
	}
	return nil
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
