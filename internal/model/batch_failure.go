package model

// BatchFailure records an input the batch exporter could not report on.
type BatchFailure struct {
	Index   int    `json:"index"`
	Input   string `json:"input"`
	Invalid bool   `json:"invalid"`
	Error   string `json:"error"`
	At      string `json:"at"`
}
