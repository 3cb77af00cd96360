// Package store defines the persistence contract the ledger runs against and
// its two engines: a durable SQLite store and an in-process fallback used when
// the database cannot be opened. Both engines honor the same transactional
// semantics; the fallback loses all state on restart.
package store

import (
	"errors"

	"famtask/internal/model"
)

// ErrConflict is returned by Tx.InsertAssignment when an active assignment
// already exists for the same (family, task, member) key.
var ErrConflict = errors.New("store: conflict")

// Tx is the set of operations available inside a single atomic unit. In the
// SQLite engine a Tx is a database transaction; in the fallback engine it is
// a critical section. Either way, no two callers can both pass an existence
// check before either writes.
type Tx interface {
	GetTask(id string) (*model.TaskDefinition, error)

	GetAssignment(familyID int64, taskID string, memberID int64) (*model.Assignment, error)
	InsertAssignment(a model.Assignment) error
	DeleteAssignment(familyID int64, taskID string, memberID int64) error

	InsertCompletion(rec model.CompletionRecord) error

	GetUserStats(memberID int64) (*model.UserStats, error)
	PutUserStats(s model.UserStats) error

	ListBadges(memberID int64) ([]model.BadgeKind, error)
	InsertBadge(b model.Badge) error

	AddMonthlyStat(memberID int64, year, month, points int) error
}

// Store is the full persistence contract. Reads outside Update see committed
// state only. Missing rows are reported as nil results, not errors; any
// non-nil error other than ErrConflict is a storage failure the caller maps
// to its own taxonomy.
type Store interface {
	SeedTasks(tasks []model.TaskDefinition) error
	GetTask(id string) (*model.TaskDefinition, error)
	ListTasks() ([]model.TaskDefinition, error)

	UpsertMember(m model.FamilyMember) error
	GetMember(familyID, memberID int64) (*model.FamilyMember, error)
	ListMembers(familyID int64) ([]model.FamilyMember, error)

	ListAssignmentsByMember(familyID, memberID int64) ([]model.Assignment, error)
	ListAssignmentsByFamily(familyID int64) ([]model.Assignment, error)

	ListCompletionsByMember(memberID int64) ([]model.CompletionRecord, error)
	GetUserStats(memberID int64) (*model.UserStats, error)
	ListBadges(memberID int64) ([]model.BadgeKind, error)
	ListMonthlyStats(memberID int64, year int) ([]model.MonthlyStat, error)

	// Update runs fn as one atomic unit. If fn returns an error, none of its
	// writes survive.
	Update(fn func(Tx) error) error

	Close() error
}
