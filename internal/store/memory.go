package store

import (
	"sort"
	"sync"

	"famtask/internal/model"
)

type memberKey struct {
	familyID int64
	memberID int64
}

type assignmentKey struct {
	familyID int64
	taskID   string
	memberID int64
}

type badgeKey struct {
	memberID int64
	kind     model.BadgeKind
}

type monthlyKey struct {
	memberID int64
	year     int
	month    int
}

// MemoryStore is the in-process fallback engine. It holds the whole ledger in
// composite-keyed maps behind one mutex, preserves every store invariant for
// the process lifetime, and loses all state on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	tasks       map[string]model.TaskDefinition
	members     map[memberKey]model.FamilyMember
	assignments map[assignmentKey]model.Assignment
	completions []model.CompletionRecord
	stats       map[int64]model.UserStats
	badges      map[badgeKey]model.Badge
	monthly     map[monthlyKey]model.MonthlyStat
	nextID      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:       make(map[string]model.TaskDefinition),
		members:     make(map[memberKey]model.FamilyMember),
		assignments: make(map[assignmentKey]model.Assignment),
		stats:       make(map[int64]model.UserStats),
		badges:      make(map[badgeKey]model.Badge),
		monthly:     make(map[monthlyKey]model.MonthlyStat),
	}
}

func (s *MemoryStore) SeedTasks(tasks []model.TaskDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if _, ok := s.tasks[t.ID]; !ok {
			s.tasks[t.ID] = t
		}
	}
	return nil
}

func (s *MemoryStore) GetTask(id string) (*model.TaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTaskLocked(id)
}

func (s *MemoryStore) getTaskLocked(id string) (*model.TaskDefinition, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *MemoryStore) ListTasks() ([]model.TaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]model.TaskDefinition, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (s *MemoryStore) UpsertMember(m model.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{m.FamilyID, m.MemberID}
	if existing, ok := s.members[key]; ok {
		existing.DisplayName = m.DisplayName
		s.members[key] = existing
		return nil
	}
	s.members[key] = m
	return nil
}

func (s *MemoryStore) GetMember(familyID, memberID int64) (*model.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberKey{familyID, memberID}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) ListMembers(familyID int64) ([]model.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []model.FamilyMember
	for key, m := range s.members {
		if key.familyID == familyID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].MemberID < members[j].MemberID
	})
	return members, nil
}

func (s *MemoryStore) listAssignments(match func(assignmentKey) bool) []model.Assignment {
	var assignments []model.Assignment
	for key, a := range s.assignments {
		if match(key) {
			assignments = append(assignments, a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		if !assignments[i].DueAt.Equal(assignments[j].DueAt) {
			return assignments[i].DueAt.Before(assignments[j].DueAt)
		}
		return assignments[i].TaskID < assignments[j].TaskID
	})
	return assignments
}

func (s *MemoryStore) ListAssignmentsByMember(familyID, memberID int64) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAssignments(func(k assignmentKey) bool {
		return k.familyID == familyID && k.memberID == memberID
	}), nil
}

func (s *MemoryStore) ListAssignmentsByFamily(familyID int64) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAssignments(func(k assignmentKey) bool {
		return k.familyID == familyID
	}), nil
}

func (s *MemoryStore) ListCompletionsByMember(memberID int64) ([]model.CompletionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []model.CompletionRecord
	for _, r := range s.completions {
		if r.MemberID == memberID {
			recs = append(recs, r)
		}
	}
	return recs, nil
}

func (s *MemoryStore) GetUserStats(memberID int64) (*model.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserStatsLocked(memberID)
}

func (s *MemoryStore) getUserStatsLocked(memberID int64) (*model.UserStats, error) {
	st, ok := s.stats[memberID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *MemoryStore) ListBadges(memberID int64) ([]model.BadgeKind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBadgesLocked(memberID)
}

func (s *MemoryStore) listBadgesLocked(memberID int64) ([]model.BadgeKind, error) {
	var badges []model.Badge
	for key, b := range s.badges {
		if key.memberID == memberID {
			badges = append(badges, b)
		}
	}
	sort.Slice(badges, func(i, j int) bool {
		if !badges[i].AwardedAt.Equal(badges[j].AwardedAt) {
			return badges[i].AwardedAt.Before(badges[j].AwardedAt)
		}
		return badges[i].Kind < badges[j].Kind
	})
	kinds := make([]model.BadgeKind, 0, len(badges))
	for _, b := range badges {
		kinds = append(kinds, b.Kind)
	}
	if len(kinds) == 0 {
		return nil, nil
	}
	return kinds, nil
}

func (s *MemoryStore) ListMonthlyStats(memberID int64, year int) ([]model.MonthlyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats []model.MonthlyStat
	for key, m := range s.monthly {
		if key.memberID == memberID && key.year == year {
			stats = append(stats, m)
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Month < stats[j].Month })
	return stats, nil
}

// memoryTx gives transactional callbacks direct access to the locked store.
type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) GetTask(id string) (*model.TaskDefinition, error) {
	return t.s.getTaskLocked(id)
}

func (t *memoryTx) GetAssignment(familyID int64, taskID string, memberID int64) (*model.Assignment, error) {
	a, ok := t.s.assignments[assignmentKey{familyID, taskID, memberID}]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *memoryTx) InsertAssignment(a model.Assignment) error {
	key := assignmentKey{a.FamilyID, a.TaskID, a.AssignedTo}
	if _, ok := t.s.assignments[key]; ok {
		return ErrConflict
	}
	t.s.assignments[key] = a
	return nil
}

func (t *memoryTx) DeleteAssignment(familyID int64, taskID string, memberID int64) error {
	delete(t.s.assignments, assignmentKey{familyID, taskID, memberID})
	return nil
}

func (t *memoryTx) InsertCompletion(rec model.CompletionRecord) error {
	t.s.nextID++
	rec.ID = t.s.nextID
	t.s.completions = append(t.s.completions, rec)
	return nil
}

func (t *memoryTx) GetUserStats(memberID int64) (*model.UserStats, error) {
	return t.s.getUserStatsLocked(memberID)
}

func (t *memoryTx) PutUserStats(st model.UserStats) error {
	t.s.stats[st.MemberID] = st
	return nil
}

func (t *memoryTx) ListBadges(memberID int64) ([]model.BadgeKind, error) {
	return t.s.listBadgesLocked(memberID)
}

func (t *memoryTx) InsertBadge(b model.Badge) error {
	key := badgeKey{b.MemberID, b.Kind}
	if _, ok := t.s.badges[key]; ok {
		return nil
	}
	t.s.badges[key] = b
	return nil
}

func (t *memoryTx) AddMonthlyStat(memberID int64, year, month, points int) error {
	key := monthlyKey{memberID, year, month}
	m, ok := t.s.monthly[key]
	if !ok {
		m = model.MonthlyStat{MemberID: memberID, Year: year, Month: month}
	}
	m.Points += points
	m.TasksCompleted++
	t.s.monthly[key] = m
	return nil
}

// Update runs fn under the store mutex. State is snapshotted first and
// restored if fn fails, so a partial unit never survives.
func (s *MemoryStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memoryTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	tasks       map[string]model.TaskDefinition
	members     map[memberKey]model.FamilyMember
	assignments map[assignmentKey]model.Assignment
	completions []model.CompletionRecord
	stats       map[int64]model.UserStats
	badges      map[badgeKey]model.Badge
	monthly     map[monthlyKey]model.MonthlyStat
	nextID      int64
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		tasks:       make(map[string]model.TaskDefinition, len(s.tasks)),
		members:     make(map[memberKey]model.FamilyMember, len(s.members)),
		assignments: make(map[assignmentKey]model.Assignment, len(s.assignments)),
		completions: append([]model.CompletionRecord(nil), s.completions...),
		stats:       make(map[int64]model.UserStats, len(s.stats)),
		badges:      make(map[badgeKey]model.Badge, len(s.badges)),
		monthly:     make(map[monthlyKey]model.MonthlyStat, len(s.monthly)),
		nextID:      s.nextID,
	}
	for k, v := range s.tasks {
		snap.tasks[k] = v
	}
	for k, v := range s.members {
		snap.members[k] = v
	}
	for k, v := range s.assignments {
		snap.assignments[k] = v
	}
	for k, v := range s.stats {
		snap.stats[k] = v
	}
	for k, v := range s.badges {
		snap.badges[k] = v
	}
	for k, v := range s.monthly {
		snap.monthly[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.tasks = snap.tasks
	s.members = snap.members
	s.assignments = snap.assignments
	s.completions = snap.completions
	s.stats = snap.stats
	s.badges = snap.badges
	s.monthly = snap.monthly
	s.nextID = snap.nextID
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
