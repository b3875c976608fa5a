// Package memory implements the store ports in process.
// It is intended for tests and local development wiring.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
)

// Store implements every store port over maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	complaints  map[int64]models.Complaint
	users       map[int64]models.User
	usersEmail  map[string]int64
	departments map[int64]models.Department
	activity    []models.ActivityLog

	nextComplaint  int64
	nextUser       int64
	nextDepartment int64
	nextActivity   int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		complaints:  make(map[int64]models.Complaint),
		users:       make(map[int64]models.User),
		usersEmail:  make(map[string]int64),
		departments: make(map[int64]models.Department),
	}
}

// Complaints returns the complaint port.
func (s *Store) Complaints() store.ComplaintStore { return complaintStore{s} }

// Users returns the user port.
func (s *Store) Users() store.UserStore { return userStore{s} }

// Departments returns the department port.
func (s *Store) Departments() store.DepartmentStore { return departmentStore{s} }

// Activity returns the activity port.
func (s *Store) Activity() store.ActivityStore { return activityStore{s} }

type complaintStore struct{ s *Store }

func (cs complaintStore) Create(_ context.Context, c *models.Complaint) error {
	s := cs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextComplaint++
	c.ID = s.nextComplaint
	s.complaints[c.ID] = cloneComplaint(*c)
	return nil
}

func (cs complaintStore) Get(_ context.Context, id int64) (*models.Complaint, error) {
	s := cs.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.complaints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneComplaint(c)
	return &out, nil
}

func (cs complaintStore) List(_ context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	s := cs.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Complaint, 0)
	for _, c := range s.complaints {
		if f.CitizenID != 0 && c.CitizenID != f.CitizenID {
			continue
		}
		if f.Department != "" && (c.AssignedDepartment == nil || !strings.EqualFold(*c.AssignedDepartment, f.Department)) {
			continue
		}
		if f.Officer != "" && (c.AssignedOfficer == nil || *c.AssignedOfficer != f.Officer) {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, cloneComplaint(c))
	}
	// newest first, matching the SQL ordering
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (cs complaintStore) ApplyTransition(_ context.Context, id int64, expected models.Status, t models.Transition) (*models.Complaint, error) {
	s := cs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.complaints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if c.Status != expected {
		return nil, store.ErrConflict
	}
	t.Apply(&c)
	s.complaints[id] = c
	out := cloneComplaint(c)
	return &out, nil
}

type userStore struct{ s *Store }

func (us userStore) Create(_ context.Context, u *models.User) error {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, taken := s.usersEmail[key]; taken {
		return store.ErrDuplicate
	}
	s.nextUser++
	u.ID = s.nextUser
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = *u
	s.usersEmail[key] = u.ID
	return nil
}

func (us userStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s := us.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

type departmentStore struct{ s *Store }

func (ds departmentStore) Create(_ context.Context, d *models.Department) error {
	s := ds.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.departments {
		if strings.EqualFold(existing.Name, d.Name) {
			return store.ErrDuplicate
		}
	}
	s.nextDepartment++
	d.ID = s.nextDepartment
	s.departments[d.ID] = *d
	return nil
}

func (ds departmentStore) List(_ context.Context) ([]models.Department, error) {
	s := ds.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type activityStore struct{ s *Store }

func (as activityStore) Append(_ context.Context, entry *models.ActivityLog) error {
	s := as.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextActivity++
	entry.ID = s.nextActivity
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.activity = append(s.activity, *entry)
	return nil
}

func (as activityStore) ListByComplaint(_ context.Context, complaintID int64, limit int) ([]models.ActivityLog, error) {
	s := as.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ActivityLog, 0)
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if s.activity[i].ComplaintID == complaintID {
			out = append(out, s.activity[i])
		}
	}
	return out, nil
}

func (as activityStore) ListRecent(_ context.Context, limit int) ([]models.ActivityLog, error) {
	s := as.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ActivityLog, 0, limit)
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.activity[i])
	}
	return out, nil
}

func cloneComplaint(c models.Complaint) models.Complaint {
	if c.ImagePaths != nil {
		c.ImagePaths = append([]string(nil), c.ImagePaths...)
	}
	return c
}
