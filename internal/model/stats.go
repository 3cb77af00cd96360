package model

import "time"

// BadgeKind identifies a permanent achievement flag.
type BadgeKind string

const (
	BadgeRookie         BadgeKind = "rookie"
	BadgeExpert         BadgeKind = "expert"
	BadgeMaster         BadgeKind = "master"
	BadgeWeekWarrior    BadgeKind = "week_warrior"
	BadgeMonthChampion  BadgeKind = "month_champion"
	BadgePointCollector BadgeKind = "point_collector"
)

// Badge records that a member holds a badge. A badge, once awarded, is never
// awarded again.
type Badge struct {
	MemberID  int64     `json:"member_id"`
	Kind      BadgeKind `json:"kind"`
	AwardedAt time.Time `json:"awarded_at"`
}

// UserStats holds a member's accumulated totals. The row is maintained
// transactionally alongside every completion; TotalPoints always equals the
// sum of PointsEarned over the member's completion records.
type UserStats struct {
	MemberID        int64       `json:"member_id"`
	TotalPoints     int         `json:"total_points"`
	TasksCompleted  int         `json:"tasks_completed"`
	Level           int         `json:"level"`
	Streak          int         `json:"streak"`
	LastCompletedAt *time.Time  `json:"last_completed_at,omitempty"`
	Badges          []BadgeKind `json:"badges,omitempty"`
}

// MonthlyStat is one month's completion bucket for a member.
type MonthlyStat struct {
	MemberID       int64 `json:"member_id"`
	Year           int   `json:"year"`
	Month          int   `json:"month"`
	Points         int   `json:"points"`
	TasksCompleted int   `json:"tasks_completed"`
}

// LeaderboardEntry is one ranked row of a family leaderboard.
type LeaderboardEntry struct {
	MemberID       int64       `json:"member_id"`
	DisplayName    string      `json:"display_name"`
	TotalPoints    int         `json:"total_points"`
	TasksCompleted int         `json:"tasks_completed"`
	Level          int         `json:"level"`
	Streak         int         `json:"streak"`
	Badges         []BadgeKind `json:"badges,omitempty"`
}
