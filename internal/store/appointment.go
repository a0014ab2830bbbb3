package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"nursehub-api/internal/model"
)

const appointmentCols = `id, name, email, phone, address, reason, COALESCE(message, ''),
	status, cancellation_reason, created_at`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Address, &a.Reason, &a.Message,
		&a.Status, &a.CancellationReason, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAppointment assigns the id and creation time; status is always PENDING.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	a.ID = uuid.New().String()
	a.Status = model.StatusPending
	a.CancellationReason = nil

	var msg *string
	if a.Message != "" {
		msg = &a.Message
	}
	return s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id,name,email,phone,address,reason,message,status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at`,
		a.ID, a.Name, a.Email, a.Phone, a.Address, a.Reason, msg, a.Status,
	).Scan(&a.CreatedAt)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListAppointments returns newest first; a nil status means every record.
func (s *Store) ListAppointments(ctx context.Context, status *model.Status) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentCols + ` FROM appointments`
	var args []any
	if status != nil {
		q += ` WHERE status = $1`
		args = append(args, *status)
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateStatus moves a record from one status to another in a single
// statement. The reason is stored only for CANCELLED.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to model.Status, reason *string) (*model.Appointment, error) {
	if to != model.StatusCancelled {
		reason = nil
	}
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`UPDATE appointments SET status = $3, cancellation_reason = $4
		 WHERE id = $1 AND status = $2
		 RETURNING `+appointmentCols, id, from, to, reason))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// tell a missing row apart from a lost race
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrStatusChanged
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus groups in one query so the counts share a snapshot.
func (s *Store) CountByStatus(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status model.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return st, err
		}
		st.Add(status, n)
	}
	return st, rows.Err()
}
