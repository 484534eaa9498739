// Package protocol defines the WebSocket command/response envelopes the
// time-travel server exchanges with clients, and the sentinel error codes
// those responses carry.
package protocol

import "encoding/json"

const Version = "1.0"

// Command types a client may send.
const (
	OpUndo  = "undo"
	OpRedo  = "redo"
	OpGoto  = "goto"
	OpState = "state"
)

// BaseCommand lets the server route an incoming JSON command by its op
// before unmarshalling into the op-specific shape.
type BaseCommand struct {
	Op string `json:"op"`
}

func DecodeBase(b []byte) (BaseCommand, error) {
	var c BaseCommand
	err := json.Unmarshal(b, &c)
	return c, err
}
