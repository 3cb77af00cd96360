package model

import "time"

// CompletionRecord is the permanent record written when an assignment is
// completed. PointsEarned is captured from the catalog at completion time so
// historical totals stay stable if a task's point value later changes.
// Records are append-only and immutable once written; every derived statistic
// is computed from them.
type CompletionRecord struct {
	ID           int64     `json:"id"`
	FamilyID     int64     `json:"family_id"`
	TaskID       string    `json:"task_id"`
	MemberID     int64     `json:"member_id"`
	AssignedBy   int64     `json:"assigned_by"`
	AssignedAt   time.Time `json:"assigned_at"`
	CompletedAt  time.Time `json:"completed_at"`
	PointsEarned int       `json:"points_earned"`
}
