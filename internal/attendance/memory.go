package attendance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Repository enforcing the same uniqueness and
// reference rules as the Postgres schema.
type Memory struct {
	mu            sync.RWMutex
	seq           int64
	users         map[string]*User
	records       map[int64]*Record
	timetable     []TimetableEntry
	corrections   []CorrectionRequest
	notifications []Notification
	activities    int
}

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]*User),
		records: make(map[int64]*Record),
	}
}

func (m *Memory) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *Memory) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.UserID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = m.nextID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.users[u.UserID] = &cp
	return nil
}

func (m *Memory) GetUser(ctx context.Context, userID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.UserID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.UserID && existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	cp := *u
	m.users[u.UserID] = &cp
	return nil
}

func (m *Memory) ListUsers(ctx context.Context, role string) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) LogActivity(ctx context.Context, userID, activity, details string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return ErrForeignKey
	}
	m.activities++
	return nil
}

func (m *Memory) InsertRecord(ctx context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[r.UserID]; !ok {
		return ErrForeignKey
	}
	r.ID = m.nextID()
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *Memory) GetRecord(ctx context.Context, id int64) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) OpenRecord(ctx context.Context, userID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *Record
	for _, r := range m.records {
		if r.UserID != userID || r.CheckOut != nil {
			continue
		}
		if latest == nil || r.CheckIn.After(latest.CheckIn) {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *Memory) UpdateRecord(ctx context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID]; !ok {
		return ErrNotFound
	}
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *Memory) ListRecords(ctx context.Context, f RecordFilter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.records {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if !f.From.IsZero() && r.CheckIn.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.CheckIn.After(f.To) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].ID > out[j].ID
		}
		return out[i].CheckIn.After(out[j].CheckIn)
	})
	return out, nil
}

func (m *Memory) InsertTimetable(ctx context.Context, e *TimetableEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[e.UserID]; !ok {
		return ErrForeignKey
	}
	e.ID = m.nextID()
	m.timetable = append(m.timetable, *e)
	return nil
}

func (m *Memory) ListTimetable(ctx context.Context, f TimetableFilter) ([]TimetableEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TimetableEntry
	for _, e := range m.timetable {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
			continue
		}
		out = append(out, e)
	}
	SortTimetable(out)
	return out, nil
}

func (m *Memory) InsertCorrection(ctx context.Context, c *CorrectionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[c.AttendanceID]; !ok {
		return ErrForeignKey
	}
	c.ID = m.nextID()
	m.corrections = append(m.corrections, *c)
	return nil
}

func (m *Memory) ListCorrections(ctx context.Context, status string) ([]CorrectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []CorrectionRequest
	for _, c := range m.corrections {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) InsertNotification(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.nextID()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *Memory) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Notification
	for _, n := range m.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, recipientID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].RecipientID == recipientID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

var dayOrder = map[string]int{
	"monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4, "friday": 5, "saturday": 6, "sunday": 7,
}

// SortTimetable orders entries by weekday, then start time.
func SortTimetable(entries []TimetableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := dayOrder[entries[i].Day], dayOrder[entries[j].Day]
		if di != dj {
			return di < dj
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}
