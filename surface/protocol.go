package surface

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/luc527/checkers_autoplay/core"
)

// Envelope for every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"data,omitempty"`
}

// Server to client.
const (
	TypeState = "state"
	TypeError = "error"
)

// Client to server.
const (
	TypeClick   = "click"
	TypeControl = "control"
)

type StateData struct {
	Id      uuid.UUID      `json:"id"`
	Cells   []core.RawCell `json:"cells"`
	Message *string        `json:"message,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type NameData struct {
	Name string `json:"name"`
}

func Encode(typ string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{typ, raw})
}

func (d StateData) View() View {
	v := View{Cells: d.Cells}
	if d.Message != nil {
		v.Status, v.HasStatus = *d.Message, true
	}
	return v
}
