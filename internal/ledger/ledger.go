// Package ledger implements the assignment and gamification ledger: the rules
// turning a catalog task into an active assignment, an assignment into a
// permanent completion record, and completion records into points, levels,
// streaks, badges, and leaderboards. All state goes through the store
// contract; the ledger never formats text or touches a transport.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"famtask/internal/model"
	"famtask/internal/store"
)

const (
	// LevelWidth is the number of points per level: level rises by one for
	// every LevelWidth points earned, starting at level 1.
	LevelWidth = 100

	// assignmentDueIn is how long a member has before an assignment is due.
	assignmentDueIn = 3 * 24 * time.Hour
)

// errCatalogMiss flags a completion that found its catalog entry gone; the
// caller reseeds once and retries.
var errCatalogMiss = errors.New("catalog entry missing")

// Outcome summarizes what a completion earned, for the caller to render.
type Outcome struct {
	PointsAwarded int               `json:"points_awarded"`
	LeveledUp     bool              `json:"leveled_up"`
	NewLevel      int               `json:"new_level"`
	Streak        int               `json:"streak"`
	NewBadges     []model.BadgeKind `json:"new_badges,omitempty"`
}

type Ledger struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// New builds a ledger over the given store and seeds the default task catalog
// if it is empty.
func New(st store.Store, logger *slog.Logger) (*Ledger, error) {
	l := &Ledger{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	if err := st.SeedTasks(DefaultTasks()); err != nil {
		return nil, transient("seed catalog", err)
	}
	return l, nil
}

// --- Task catalog ---

// UnknownTask is the sentinel returned for a dangling task reference, so
// display code never has to handle a missing catalog entry.
func UnknownTask(id string) model.TaskDefinition {
	return model.TaskDefinition{ID: id, Name: "Unknown task"}
}

// resolveTask looks a task up, reseeding the catalog once on a miss in case
// it was wiped or never populated. A nil result after the retry means the
// task genuinely does not exist.
func (l *Ledger) resolveTask(id string) (*model.TaskDefinition, error) {
	t, err := l.store.GetTask(id)
	if err != nil {
		return nil, transient("get task", err)
	}
	if t != nil {
		return t, nil
	}
	if err := l.store.SeedTasks(DefaultTasks()); err != nil {
		return nil, transient("reseed catalog", err)
	}
	t, err = l.store.GetTask(id)
	if err != nil {
		return nil, transient("get task", err)
	}
	return t, nil
}

// AllTasks returns the full catalog.
func (l *Ledger) AllTasks() ([]model.TaskDefinition, error) {
	tasks, err := l.store.ListTasks()
	if err != nil {
		return nil, transient("list tasks", err)
	}
	return tasks, nil
}

// TaskByID returns the catalog entry for id, or the unknown-task sentinel if
// it is missing even after the self-healing reseed.
func (l *Ledger) TaskByID(id string) (model.TaskDefinition, error) {
	t, err := l.resolveTask(id)
	if err != nil {
		return model.TaskDefinition{}, err
	}
	if t == nil {
		return UnknownTask(id), nil
	}
	return *t, nil
}

// --- Membership registry ---

// AddMember registers a member within a family, creating the family
// implicitly on first contact and refreshing the display name on a repeat.
func (l *Ledger) AddMember(familyID, memberID int64, displayName string) (*model.FamilyMember, error) {
	m := model.FamilyMember{
		FamilyID:    familyID,
		MemberID:    memberID,
		DisplayName: displayName,
		JoinedAt:    l.now(),
	}
	if err := l.store.UpsertMember(m); err != nil {
		return nil, transient("upsert member", err)
	}
	got, err := l.store.GetMember(familyID, memberID)
	if err != nil {
		return nil, transient("get member", err)
	}
	return got, nil
}

// Members returns the family roster in join order.
func (l *Ledger) Members(familyID int64) ([]model.FamilyMember, error) {
	members, err := l.store.ListMembers(familyID)
	if err != nil {
		return nil, transient("list members", err)
	}
	return members, nil
}

// --- Assignment ledger ---

// Assign creates an active assignment of task taskID to assignedTo, due in
// three days. The same task may already be assigned to other members of the
// family; a second assignment to the same member fails ErrDuplicateAssignment.
// Self-assignment skips the known-member check, matching the join-on-first-
// action membership policy.
func (l *Ledger) Assign(familyID int64, taskID string, assignedTo, assignedBy int64) (*model.Assignment, error) {
	task, err := l.resolveTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %q: %w", taskID, ErrNotFound)
	}

	if assignedTo != assignedBy {
		member, err := l.store.GetMember(familyID, assignedTo)
		if err != nil {
			return nil, transient("get member", err)
		}
		if member == nil {
			return nil, fmt.Errorf("member %d: %w", assignedTo, ErrNotFound)
		}
	}

	now := l.now()
	a := model.Assignment{
		FamilyID:   familyID,
		TaskID:     taskID,
		AssignedTo: assignedTo,
		AssignedBy: assignedBy,
		AssignedAt: now,
		DueAt:      now.Add(assignmentDueIn),
	}

	err = l.store.Update(func(tx store.Tx) error {
		existing, err := tx.GetAssignment(familyID, taskID, assignedTo)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateAssignment
		}
		return tx.InsertAssignment(a)
	})
	if err != nil {
		return nil, l.mapUpdateErr("assign", err)
	}

	l.logger.Info("task assigned",
		"family_id", familyID, "task_id", taskID,
		"assigned_to", assignedTo, "assigned_by", assignedBy)
	return &a, nil
}

// ActiveForMember returns the member's active assignments, soonest due first,
// each annotated with its catalog entry.
func (l *Ledger) ActiveForMember(familyID, memberID int64) ([]model.AssignmentWithTask, error) {
	assignments, err := l.store.ListAssignmentsByMember(familyID, memberID)
	if err != nil {
		return nil, transient("list assignments", err)
	}
	return l.annotate(assignments)
}

// ActiveForFamily returns every active assignment in the family, soonest due
// first.
func (l *Ledger) ActiveForFamily(familyID int64) ([]model.AssignmentWithTask, error) {
	assignments, err := l.store.ListAssignmentsByFamily(familyID)
	if err != nil {
		return nil, transient("list assignments", err)
	}
	return l.annotate(assignments)
}

func (l *Ledger) annotate(assignments []model.Assignment) ([]model.AssignmentWithTask, error) {
	out := make([]model.AssignmentWithTask, 0, len(assignments))
	for _, a := range assignments {
		task, err := l.store.GetTask(a.TaskID)
		if err != nil {
			return nil, transient("get task", err)
		}
		annotated := model.AssignmentWithTask{Assignment: a}
		if task != nil {
			annotated.Task = *task
		} else {
			annotated.Task = UnknownTask(a.TaskID)
		}
		out = append(out, annotated)
	}
	return out, nil
}

// --- Completion engine ---

// Complete retires the member's active assignment of taskID and converts it
// into a permanent completion record, updating points, level, streak, badges,
// and the monthly bucket in the same atomic unit. If the catalog entry has
// vanished since assignment, the catalog is reseeded once and the completion
// retried; a second miss fails ErrDataIntegrity.
func (l *Ledger) Complete(familyID int64, taskID string, memberID int64) (*Outcome, error) {
	out, err := l.completeOnce(familyID, taskID, memberID)
	if errors.Is(err, errCatalogMiss) {
		if seedErr := l.store.SeedTasks(DefaultTasks()); seedErr != nil {
			return nil, transient("reseed catalog", seedErr)
		}
		out, err = l.completeOnce(familyID, taskID, memberID)
		if errors.Is(err, errCatalogMiss) {
			return nil, fmt.Errorf("task %q missing after reseed: %w", taskID, ErrDataIntegrity)
		}
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("task completed",
		"family_id", familyID, "task_id", taskID, "member_id", memberID,
		"points", out.PointsAwarded, "level", out.NewLevel, "streak", out.Streak,
		"new_badges", len(out.NewBadges))
	return out, nil
}

func (l *Ledger) completeOnce(familyID int64, taskID string, memberID int64) (*Outcome, error) {
	now := l.now()
	var out Outcome

	err := l.store.Update(func(tx store.Tx) error {
		a, err := tx.GetAssignment(familyID, taskID, memberID)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrNotAssigned
		}

		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return errCatalogMiss
		}

		rec := model.CompletionRecord{
			FamilyID:     familyID,
			TaskID:       taskID,
			MemberID:     memberID,
			AssignedBy:   a.AssignedBy,
			AssignedAt:   a.AssignedAt,
			CompletedAt:  now,
			PointsEarned: task.Points,
		}
		if err := tx.InsertCompletion(rec); err != nil {
			return err
		}

		stats, err := tx.GetUserStats(memberID)
		if err != nil {
			return err
		}
		prevLevel := 1
		if stats == nil {
			stats = &model.UserStats{MemberID: memberID, Level: 1}
		} else {
			prevLevel = stats.Level
		}

		stats.Streak = nextStreak(stats, now)
		stats.TotalPoints += task.Points
		stats.TasksCompleted++
		stats.Level = stats.TotalPoints/LevelWidth + 1
		completedAt := now
		stats.LastCompletedAt = &completedAt

		if err := tx.PutUserStats(*stats); err != nil {
			return err
		}

		newBadges, err := awardBadges(tx, *stats, now)
		if err != nil {
			return err
		}

		if err := tx.AddMonthlyStat(memberID, now.Year(), int(now.Month()), task.Points); err != nil {
			return err
		}
		if err := tx.DeleteAssignment(familyID, taskID, memberID); err != nil {
			return err
		}

		out = Outcome{
			PointsAwarded: task.Points,
			LeveledUp:     stats.Level > prevLevel,
			NewLevel:      stats.Level,
			Streak:        stats.Streak,
			NewBadges:     newBadges,
		}
		return nil
	})
	if err != nil {
		return nil, l.mapUpdateErr("complete", err)
	}
	return &out, nil
}

// nextStreak applies the calendar-gap rule: a completion exactly one calendar
// day after the previous one extends the streak, a larger gap resets it to 1,
// and a repeat on the same day leaves it unchanged.
func nextStreak(stats *model.UserStats, now time.Time) int {
	if stats.LastCompletedAt == nil {
		return 1
	}
	switch calendarDaysApart(*stats.LastCompletedAt, now) {
	case 0:
		return stats.Streak
	case 1:
		return stats.Streak + 1
	default:
		return 1
	}
}

// calendarDaysApart counts whole calendar days between two instants in the
// later instant's location, ignoring time of day.
func calendarDaysApart(earlier, later time.Time) int {
	loc := later.Location()
	ey, em, ed := earlier.In(loc).Date()
	ly, lm, ld := later.Date()
	start := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	end := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}

var badgeThresholds = []struct {
	kind      model.BadgeKind
	qualifies func(model.UserStats) bool
}{
	{model.BadgeRookie, func(s model.UserStats) bool { return s.TasksCompleted >= 10 }},
	{model.BadgeExpert, func(s model.UserStats) bool { return s.TasksCompleted >= 50 }},
	{model.BadgeMaster, func(s model.UserStats) bool { return s.TasksCompleted >= 100 }},
	{model.BadgeWeekWarrior, func(s model.UserStats) bool { return s.Streak >= 7 }},
	{model.BadgeMonthChampion, func(s model.UserStats) bool { return s.Streak >= 30 }},
	{model.BadgePointCollector, func(s model.UserStats) bool { return s.TotalPoints >= 500 }},
}

// awardBadges records any newly earned badges and returns them. Held badges
// are never re-awarded.
func awardBadges(tx store.Tx, stats model.UserStats, now time.Time) ([]model.BadgeKind, error) {
	held, err := tx.ListBadges(stats.MemberID)
	if err != nil {
		return nil, err
	}
	heldSet := make(map[model.BadgeKind]bool, len(held))
	for _, k := range held {
		heldSet[k] = true
	}

	var awarded []model.BadgeKind
	for _, threshold := range badgeThresholds {
		if heldSet[threshold.kind] || !threshold.qualifies(stats) {
			continue
		}
		b := model.Badge{MemberID: stats.MemberID, Kind: threshold.kind, AwardedAt: now}
		if err := tx.InsertBadge(b); err != nil {
			return nil, err
		}
		awarded = append(awarded, threshold.kind)
	}
	return awarded, nil
}

// --- Stats & leaderboard aggregator ---

// UserStats returns a member's stats with held badges, or nil for a member
// with no completions, so callers can tell a new member from one with zero
// points.
func (l *Ledger) UserStats(memberID int64) (*model.UserStats, error) {
	stats, err := l.store.GetUserStats(memberID)
	if err != nil {
		return nil, transient("get user stats", err)
	}
	if stats == nil {
		return nil, nil
	}
	badges, err := l.store.ListBadges(memberID)
	if err != nil {
		return nil, transient("list badges", err)
	}
	stats.Badges = badges
	return stats, nil
}

// Leaderboard ranks every registered member of the family by total points,
// then tasks completed, then join order. Members with no completions rank
// with zero totals.
func (l *Ledger) Leaderboard(familyID int64) ([]model.LeaderboardEntry, error) {
	members, err := l.store.ListMembers(familyID)
	if err != nil {
		return nil, transient("list members", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		entry := model.LeaderboardEntry{
			MemberID:    m.MemberID,
			DisplayName: m.DisplayName,
			Level:       1,
		}
		stats, err := l.store.GetUserStats(m.MemberID)
		if err != nil {
			return nil, transient("get user stats", err)
		}
		if stats != nil {
			entry.TotalPoints = stats.TotalPoints
			entry.TasksCompleted = stats.TasksCompleted
			entry.Level = stats.Level
			entry.Streak = stats.Streak
			badges, err := l.store.ListBadges(m.MemberID)
			if err != nil {
				return nil, transient("list badges", err)
			}
			entry.Badges = badges
		}
		entries = append(entries, entry)
	}

	// Stable sort keeps join order as the final tie-break.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].TasksCompleted > entries[j].TasksCompleted
	})
	return entries, nil
}

// MonthlyStats returns all twelve months of the given year for a member,
// zero-filled where no completions happened.
func (l *Ledger) MonthlyStats(memberID int64, year int) ([]model.MonthlyStat, error) {
	stored, err := l.store.ListMonthlyStats(memberID, year)
	if err != nil {
		return nil, transient("list monthly stats", err)
	}

	byMonth := make(map[int]model.MonthlyStat, len(stored))
	for _, m := range stored {
		byMonth[m.Month] = m
	}

	months := make([]model.MonthlyStat, 0, 12)
	for month := 1; month <= 12; month++ {
		if m, ok := byMonth[month]; ok {
			months = append(months, m)
			continue
		}
		months = append(months, model.MonthlyStat{MemberID: memberID, Year: year, Month: month})
	}
	return months, nil
}

// mapUpdateErr classifies an error escaping a store transaction: ledger kinds
// pass through, store conflicts become duplicate assignments, and anything
// else is a storage failure.
func (l *Ledger) mapUpdateErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicateAssignment),
		errors.Is(err, ErrNotAssigned),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDataIntegrity),
		errors.Is(err, errCatalogMiss):
		return err
	case errors.Is(err, store.ErrConflict):
		return ErrDuplicateAssignment
	default:
		return transient(op, err)
	}
}
