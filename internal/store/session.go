package store

import (
	"context"
	"time"

	"nursehub-api/internal/model"
)

func (s *Store) CreateSession(ctx context.Context, ss *model.Session) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, admin_id, expires_at) VALUES ($1,$2,$3) RETURNING created_at`,
		ss.ID, ss.AdminID, ss.ExpiresAt,
	).Scan(&ss.CreatedAt)
}

func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	ss := &model.Session{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, admin_id, expires_at, revoked, created_at FROM sessions WHERE id = $1`, id,
	).Scan(&ss.ID, &ss.AdminID, &ss.ExpiresAt, &ss.Revoked, &ss.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return ss, nil
}

func (s *Store) RevokeSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE sessions SET revoked = true WHERE id = $1`, id)
	return err
}

// PruneSessions deletes sessions that expired before now or were revoked.
func (s *Store) PruneSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at < $1 OR revoked`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
