package domain

import (
	"encoding/json"
	"time"
)

// Snapshot is one JSON document describing the current state of a backend
// resource, as served by a route handler. The payload stays raw; only the
// change key and fetch time are interpreted by this layer.
type Snapshot struct {
	Module    string          `json:"module"`
	Body      json.RawMessage `json:"body"`
	ChangeKey string          `json:"change_key"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ChangeEvent records a committed snapshot change for downstream consumers.
type ChangeEvent struct {
	Module    string    `json:"module"`
	ChangeKey string    `json:"change_key"`
	At        time.Time `json:"at"`
}

// SystemEvent is one entry of the bounded dashboard event log.
type SystemEvent struct {
	Module  string    `json:"module"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
