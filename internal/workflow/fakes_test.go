package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/model"
	"nursehub-api/internal/store"
)

type memRepo struct {
	mu      sync.Mutex
	rows    map[string]model.Appointment
	clock   time.Time
	failAll error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]model.Appointment{}, clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *memRepo) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	m.clock = m.clock.Add(time.Second)
	a.ID = uuid.New().String()
	a.Status = model.StatusPending
	a.CreatedAt = m.clock
	m.rows[a.ID] = *a
	return nil
}

func (m *memRepo) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *memRepo) ListAppointments(_ context.Context, status *model.Status) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range m.rows {
		if status == nil || a.Status == *status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, from, to model.Status, reason *string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.Status != from {
		return nil, store.ErrStatusChanged
	}
	a.Status = to
	a.CancellationReason = nil
	if to == model.StatusCancelled && reason != nil {
		r := *reason
		a.CancellationReason = &r
	}
	m.rows[id] = a
	return &a, nil
}

func (m *memRepo) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memRepo) CountByStatus(_ context.Context) (model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st model.Stats
	for _, a := range m.rows {
		st.Add(a.Status, 1)
	}
	return st, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type sentEmail struct {
	To     string
	Status model.Status
	Reason string
}

type sentText struct {
	To, Body string
}

type recorder struct {
	mu     sync.Mutex
	emails []sentEmail
	texts  []sentText
	fail   bool
	block  bool
}

func (r *recorder) SendConfirmation(ctx context.Context, to string, status model.Status, _, reason string) error {
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, sentEmail{To: to, Status: status, Reason: reason})
	if r.fail {
		return errors.New("smtp down")
	}
	return nil
}

func (r *recorder) SendTextMessage(ctx context.Context, to, body string) error {
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, sentText{To: to, Body: body})
	if r.fail {
		return errors.New("twilio down")
	}
	return nil
}

func adminCtx() context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{
		Admin:     &model.Admin{ID: "admin-1", Username: "nurse"},
		SessionID: "session-1",
	})
}
