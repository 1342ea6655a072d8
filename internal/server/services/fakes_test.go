package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lucasvieira/questify/internal/common"
	"github.com/lucasvieira/questify/internal/dbx"
	"github.com/lucasvieira/questify/internal/server/models"
	ledgerrepo "github.com/lucasvieira/questify/internal/server/repositories/ledger"
	missionsrepo "github.com/lucasvieira/questify/internal/server/repositories/missions"
	refreshtokensrepo "github.com/lucasvieira/questify/internal/server/repositories/refreshtokens"
	statsrepo "github.com/lucasvieira/questify/internal/server/repositories/stats"
	usersrepo "github.com/lucasvieira/questify/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// fakeStore is a mutex-guarded in-memory stand-in for Postgres. Its
// repositories reproduce the same semantics the SQL implementations rely
// on: the conditional completed-transition, the unique ledger constraint
// and commutative stats increments.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	missions map[string]*models.Mission
	ledger   map[string]*models.LedgerEntry // keyed by mission id
	stats    map[string]*models.StatsProjection
	tokens   map[string]*models.RefreshToken

	failStatsInit  bool
	failApplyDelta bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*models.User),
		missions: make(map[string]*models.Mission),
		ledger:   make(map[string]*models.LedgerEntry),
		stats:    make(map[string]*models.StatsProjection),
		tokens:   make(map[string]*models.RefreshToken),
	}
}

func (f *fakeStore) addUser(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &models.User{ID: id, Name: "u " + id, Email: id + "@example.com"}
	f.stats[id] = &models.StatsProjection{UserID: id, Level: 1}
}

func (f *fakeStore) addMission(id, userID string, reward int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missions[id] = &models.Mission{
		ID: id, UserID: userID, Title: "m " + id,
		Reward: reward, Status: models.MissionStatusOpen, CreatedAt: time.Now(),
	}
}

func (f *fakeStore) statsCopy(userID string) models.StatsProjection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.stats[userID]
}

func (f *fakeStore) ledgerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ledger)
}

// --- users ---

type fakeUsersRepo struct{ s *fakeStore }

func (r *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = "u" + time.Now().Format("150405.000000000")
	}
	u.CreatedAt = time.Now()
	r.s.users[u.ID] = u
	return u, nil
}

func (r *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

// --- missions ---

type fakeMissionsRepo struct{ s *fakeStore }

func (r *fakeMissionsRepo) Create(ctx context.Context, m *models.Mission) (*models.Mission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == "" {
		m.ID = "m" + time.Now().Format("150405.000000000")
	}
	m.Status = models.MissionStatusOpen
	m.CreatedAt = time.Now()
	r.s.missions[m.ID] = m
	return m, nil
}

func (r *fakeMissionsRepo) Get(ctx context.Context, userID, missionID string) (*models.Mission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.missions[missionID]
	if !ok || m.UserID != userID {
		return nil, common.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMissionsRepo) MarkCompleted(ctx context.Context, userID, missionID string, completedAt time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.missions[missionID]
	if !ok || m.UserID != userID || m.Status != models.MissionStatusOpen {
		return 0, common.ErrNotFound
	}
	m.Status = models.MissionStatusCompleted
	m.CompletedAt = &completedAt
	return m.Reward, nil
}

func (r *fakeMissionsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Mission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*models.Mission
	for _, m := range r.s.missions {
		if m.UserID == userID {
			copied := *m
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeMissionsRepo) CountByUser(ctx context.Context, userID string) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total, completed := 0, 0
	for _, m := range r.s.missions {
		if m.UserID != userID {
			continue
		}
		total++
		if m.Status == models.MissionStatusCompleted {
			completed++
		}
	}
	return total, completed, nil
}

func (r *fakeMissionsRepo) Delete(ctx context.Context, userID, missionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.missions[missionID]
	if !ok || m.UserID != userID {
		return common.ErrNotFound
	}
	delete(r.s.missions, missionID)
	return nil
}

// --- ledger ---

type fakeLedgerRepo struct{ s *fakeStore }

func (r *fakeLedgerRepo) Append(ctx context.Context, e *models.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.ledger[e.MissionID]; exists {
		return common.ErrDuplicateEntry
	}
	copied := *e
	r.s.ledger[e.MissionID] = &copied
	return nil
}

func (r *fakeLedgerRepo) SumXPByUser(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, e := range r.s.ledger {
		if e.UserID == userID {
			sum += int64(e.XP)
		}
	}
	return sum, nil
}

func (r *fakeLedgerRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, e := range r.s.ledger {
		if e.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeLedgerRepo) CompletionDaysByUser(ctx context.Context, userID string) ([]time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[time.Time]bool)
	for _, e := range r.s.ledger {
		if e.UserID == userID {
			seen[dayUTC(e.CompletedAt)] = true
		}
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

// --- stats ---

type fakeStatsRepo struct{ s *fakeStore }

func (r *fakeStatsRepo) Init(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failStatsInit {
		return common.ErrInternal
	}
	r.s.stats[userID] = &models.StatsProjection{UserID: userID, Level: 1}
	return nil
}

func (r *fakeStatsRepo) Get(ctx context.Context, userID string) (*models.StatsProjection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stats[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (r *fakeStatsRepo) ApplyDelta(ctx context.Context, userID string, xpDelta int64, completedDelta int) (*models.StatsProjection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failApplyDelta {
		return nil, common.ErrInternal
	}
	st, ok := r.s.stats[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	st.XP += xpDelta
	st.MissionsCompleted += completedDelta
	copied := *st
	return &copied, nil
}

func (r *fakeStatsRepo) SetDerived(ctx context.Context, userID string, level, completionRate, streak int, lastCompletedOn *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stats[userID]
	if !ok {
		return common.ErrNotFound
	}
	st.Level = level
	st.CompletionRate = completionRate
	st.Streak = streak
	st.LastCompletedOn = lastCompletedOn
	return nil
}

func (r *fakeStatsRepo) Write(ctx context.Context, p *models.StatsProjection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *p
	r.s.stats[p.UserID] = &copied
	return nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct{ s *fakeStore }

func (r *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[token] = &models.RefreshToken{
		UserID: userID, Token: token,
		Expires: time.Now().Add(validity), CreatedAt: time.Now(),
	}
	return nil
}

func (r *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[token]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, token)
	return nil
}

// --- manager ---

type fakeRepoManager struct{ s *fakeStore }

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return &fakeUsersRepo{s: m.s} }
func (m *fakeRepoManager) Missions(db dbx.DBTX) missionsrepo.Repository { return &fakeMissionsRepo{s: m.s} }
func (m *fakeRepoManager) Ledger(db dbx.DBTX) ledgerrepo.Repository     { return &fakeLedgerRepo{s: m.s} }
func (m *fakeRepoManager) Stats(db dbx.DBTX) statsrepo.Repository       { return &fakeStatsRepo{s: m.s} }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return &fakeRefreshRepo{s: m.s}
}
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
