package store

import (
	"database/sql"
	"fmt"
	"strings"

	"famtask/internal/model"
)

// SQLiteStore is the durable engine, backed by the schema in
// internal/database/migrations.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// querier abstracts *sql.DB and *sql.Tx so reads work inside and outside a
// transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Task methods ---

const taskCols = `id, name, points, estimated_minutes`

func scanTask(scanner interface{ Scan(...any) error }) (*model.TaskDefinition, error) {
	var t model.TaskDefinition
	err := scanner.Scan(&t.ID, &t.Name, &t.Points, &t.EstimatedMinutes)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) SeedTasks(tasks []model.TaskDefinition) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO tasks (` + taskCols + `) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		if _, err := stmt.Exec(t.ID, t.Name, t.Points, t.EstimatedMinutes); err != nil {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func getTask(q querier, id string) (*model.TaskDefinition, error) {
	row := q.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) GetTask(id string) (*model.TaskDefinition, error) {
	return getTask(s.db, id)
}

func (s *SQLiteStore) ListTasks() ([]model.TaskDefinition, error) {
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskDefinition
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// --- Member methods ---

const memberCols = `family_id, member_id, display_name, joined_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	err := scanner.Scan(&m.FamilyID, &m.MemberID, &m.DisplayName, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) UpsertMember(m model.FamilyMember) error {
	_, err := s.db.Exec(
		`INSERT INTO family_members (`+memberCols+`) VALUES (?, ?, ?, ?)
		 ON CONFLICT(family_id, member_id) DO UPDATE SET display_name = excluded.display_name`,
		m.FamilyID, m.MemberID, m.DisplayName, m.JoinedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMember(familyID, memberID int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? AND member_id = ?`,
		familyID, memberID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) ListMembers(familyID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? ORDER BY joined_at ASC, member_id ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// --- Assignment methods ---

const assignmentCols = `family_id, task_id, assigned_to, assigned_by, assigned_at, due_at`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	err := scanner.Scan(&a.FamilyID, &a.TaskID, &a.AssignedTo, &a.AssignedBy, &a.AssignedAt, &a.DueAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func getAssignment(q querier, familyID int64, taskID string, memberID int64) (*model.Assignment, error) {
	row := q.QueryRow(
		`SELECT `+assignmentCols+` FROM assignments WHERE family_id = ? AND task_id = ? AND assigned_to = ?`,
		familyID, taskID, memberID,
	)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func insertAssignment(q querier, a model.Assignment) error {
	_, err := q.Exec(
		`INSERT INTO assignments (`+assignmentCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.FamilyID, a.TaskID, a.AssignedTo, a.AssignedBy, a.AssignedAt.UTC(), a.DueAt.UTC(),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func deleteAssignment(q querier, familyID int64, taskID string, memberID int64) error {
	_, err := q.Exec(
		`DELETE FROM assignments WHERE family_id = ? AND task_id = ? AND assigned_to = ?`,
		familyID, taskID, memberID,
	)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listAssignments(where string, args ...any) ([]model.Assignment, error) {
	rows, err := s.db.Query(`SELECT `+assignmentCols+` FROM assignments WHERE `+where+` ORDER BY due_at ASC, task_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *SQLiteStore) ListAssignmentsByMember(familyID, memberID int64) ([]model.Assignment, error) {
	return s.listAssignments(`family_id = ? AND assigned_to = ?`, familyID, memberID)
}

func (s *SQLiteStore) ListAssignmentsByFamily(familyID int64) ([]model.Assignment, error) {
	return s.listAssignments(`family_id = ?`, familyID)
}

// --- Completion methods ---

const completionCols = `id, family_id, task_id, member_id, assigned_by, assigned_at, completed_at, points_earned`

func insertCompletion(q querier, rec model.CompletionRecord) error {
	_, err := q.Exec(
		`INSERT INTO completions (family_id, task_id, member_id, assigned_by, assigned_at, completed_at, points_earned)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.FamilyID, rec.TaskID, rec.MemberID, rec.AssignedBy, rec.AssignedAt.UTC(), rec.CompletedAt.UTC(), rec.PointsEarned,
	)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCompletionsByMember(memberID int64) ([]model.CompletionRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM completions WHERE member_id = ? ORDER BY completed_at ASC, id ASC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var recs []model.CompletionRecord
	for rows.Next() {
		var r model.CompletionRecord
		if err := rows.Scan(&r.ID, &r.FamilyID, &r.TaskID, &r.MemberID, &r.AssignedBy, &r.AssignedAt, &r.CompletedAt, &r.PointsEarned); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// --- Stats methods ---

func getUserStats(q querier, memberID int64) (*model.UserStats, error) {
	var st model.UserStats
	var last sql.NullTime
	err := q.QueryRow(
		`SELECT member_id, total_points, tasks_completed, level, streak, last_completed_at
		 FROM user_stats WHERE member_id = ?`,
		memberID,
	).Scan(&st.MemberID, &st.TotalPoints, &st.TasksCompleted, &st.Level, &st.Streak, &last)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user stats: %w", err)
	}
	if last.Valid {
		t := last.Time
		st.LastCompletedAt = &t
	}
	return &st, nil
}

func putUserStats(q querier, st model.UserStats) error {
	var last any
	if st.LastCompletedAt != nil {
		last = st.LastCompletedAt.UTC()
	}
	_, err := q.Exec(
		`INSERT INTO user_stats (member_id, total_points, tasks_completed, level, streak, last_completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(member_id) DO UPDATE SET
		   total_points = excluded.total_points,
		   tasks_completed = excluded.tasks_completed,
		   level = excluded.level,
		   streak = excluded.streak,
		   last_completed_at = excluded.last_completed_at`,
		st.MemberID, st.TotalPoints, st.TasksCompleted, st.Level, st.Streak, last,
	)
	if err != nil {
		return fmt.Errorf("put user stats: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserStats(memberID int64) (*model.UserStats, error) {
	return getUserStats(s.db, memberID)
}

func listBadges(q querier, memberID int64) ([]model.BadgeKind, error) {
	rows, err := q.Query(`SELECT kind FROM badges WHERE member_id = ? ORDER BY awarded_at ASC, kind ASC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var kinds []model.BadgeKind
	for rows.Next() {
		var k model.BadgeKind
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, rows.Err()
}

func insertBadge(q querier, b model.Badge) error {
	_, err := q.Exec(
		`INSERT INTO badges (member_id, kind, awarded_at) VALUES (?, ?, ?) ON CONFLICT(member_id, kind) DO NOTHING`,
		b.MemberID, string(b.Kind), b.AwardedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert badge: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListBadges(memberID int64) ([]model.BadgeKind, error) {
	return listBadges(s.db, memberID)
}

func addMonthlyStat(q querier, memberID int64, year, month, points int) error {
	_, err := q.Exec(
		`INSERT INTO monthly_stats (member_id, year, month, points, tasks_completed) VALUES (?, ?, ?, ?, 1)
		 ON CONFLICT(member_id, year, month) DO UPDATE SET
		   points = points + excluded.points,
		   tasks_completed = tasks_completed + 1`,
		memberID, year, month, points,
	)
	if err != nil {
		return fmt.Errorf("add monthly stat: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMonthlyStats(memberID int64, year int) ([]model.MonthlyStat, error) {
	rows, err := s.db.Query(
		`SELECT member_id, year, month, points, tasks_completed FROM monthly_stats
		 WHERE member_id = ? AND year = ? ORDER BY month ASC`,
		memberID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("list monthly stats: %w", err)
	}
	defer rows.Close()

	var stats []model.MonthlyStat
	for rows.Next() {
		var m model.MonthlyStat
		if err := rows.Scan(&m.MemberID, &m.Year, &m.Month, &m.Points, &m.TasksCompleted); err != nil {
			return nil, fmt.Errorf("scan monthly stat: %w", err)
		}
		stats = append(stats, m)
	}
	return stats, rows.Err()
}

// --- Transactions ---

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetTask(id string) (*model.TaskDefinition, error) {
	return getTask(t.tx, id)
}

func (t *sqliteTx) GetAssignment(familyID int64, taskID string, memberID int64) (*model.Assignment, error) {
	return getAssignment(t.tx, familyID, taskID, memberID)
}

func (t *sqliteTx) InsertAssignment(a model.Assignment) error {
	return insertAssignment(t.tx, a)
}

func (t *sqliteTx) DeleteAssignment(familyID int64, taskID string, memberID int64) error {
	return deleteAssignment(t.tx, familyID, taskID, memberID)
}

func (t *sqliteTx) InsertCompletion(rec model.CompletionRecord) error {
	return insertCompletion(t.tx, rec)
}

func (t *sqliteTx) GetUserStats(memberID int64) (*model.UserStats, error) {
	return getUserStats(t.tx, memberID)
}

func (t *sqliteTx) PutUserStats(s model.UserStats) error {
	return putUserStats(t.tx, s)
}

func (t *sqliteTx) ListBadges(memberID int64) ([]model.BadgeKind, error) {
	return listBadges(t.tx, memberID)
}

func (t *sqliteTx) InsertBadge(b model.Badge) error {
	return insertBadge(t.tx, b)
}

func (t *sqliteTx) AddMonthlyStat(memberID int64, year, month, points int) error {
	return addMonthlyStat(t.tx, memberID, year, month, points)
}

func (s *SQLiteStore) Update(fn func(Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
