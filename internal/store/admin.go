package store

import (
	"context"

	"github.com/google/uuid"

	"nursehub-api/internal/model"
)

// UpsertAdmin creates the admin or resets its password and name. It returns
// the stored id, which is kept across resets. An empty id is generated.
func (s *Store) UpsertAdmin(ctx context.Context, a *model.Admin) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return s.pool.QueryRow(ctx,
		`INSERT INTO admins (id, username, password_hash, name) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, name = EXCLUDED.name
		 RETURNING id, created_at`,
		a.ID, a.Username, a.PasswordHash, a.Name,
	).Scan(&a.ID, &a.CreatedAt)
}

func (s *Store) AdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	a := &model.Admin{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, name, created_at
		 FROM admins WHERE username = $1`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *Store) AdminByID(ctx context.Context, id string) (*model.Admin, error) {
	a := &model.Admin{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, name, created_at
		 FROM admins WHERE id = $1`, id,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}
