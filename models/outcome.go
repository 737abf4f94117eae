package models

import "encoding/json"

// Outcome is the result of one remote check-in attempt. It is stored as JSON
// in tokens.last_result.
type Outcome struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FailureOutcome builds the outcome recorded when the remote call itself failed.
func FailureOutcome(err error) *Outcome {
	return &Outcome{
		Success: false,
		Message: "Request failed: " + err.Error(),
	}
}
