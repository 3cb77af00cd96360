package model

import "time"

// Assignment is an active task-to-member link awaiting completion. At most
// one may exist per (family, task, member); the same task may be active for
// several different members of one family at once. An assignment is created
// by assign, consumed by complete, and never otherwise mutated.
type Assignment struct {
	FamilyID   int64     `json:"family_id"`
	TaskID     string    `json:"task_id"`
	AssignedTo int64     `json:"assigned_to"`
	AssignedBy int64     `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
	DueAt      time.Time `json:"due_at"`
}

// AssignmentWithTask pairs an assignment with its catalog entry for display.
type AssignmentWithTask struct {
	Assignment
	Task TaskDefinition `json:"task"`
}
