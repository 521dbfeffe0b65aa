package model

import "time"

// Setting represents a key-value setting stored in the database.
// Keys are namespaced by prefix, e.g. "ai.model".
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
