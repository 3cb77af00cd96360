package model

// TaskDefinition is a catalog entry describing a household task and what
// completing it is worth. Definitions are seeded at startup and read-heavy;
// nothing in the ledger ever deletes them.
type TaskDefinition struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Points           int    `json:"points"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}
