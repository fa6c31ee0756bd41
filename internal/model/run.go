package model

import "time"

// RunStatus tracks a discovery run's lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunStats summarizes what a discovery run did.
type RunStats struct {
	Searches     int `json:"searches"`
	Places       int `json:"places"`
	Investigated int `json:"investigated"`
	Staged       int `json:"staged"`
	Skipped      int `json:"skipped"`
}

// DiscoveryRun is one execution of the discovery pipeline.
type DiscoveryRun struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	Stats     RunStats  `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
