package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/arcade/internal/entity"
)

const (
	actionTableState  = "table:state"
	actionGameTurn    = "game:turn"
	actionGameReset   = "game:reset"
	actionScoresReset = "scores:reset"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Table *entity.TableState `json:"table,omitempty"`
	Cell  *int               `json:"cell,omitempty"`
	Error string             `json:"error,omitempty"`
}

func encodeMessage(action string, payload Payload) ([]byte, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: rawPayload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
