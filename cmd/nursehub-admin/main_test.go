package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/model"
)

type fakeAdmins struct {
	got *model.Admin
	err error
}

func (f *fakeAdmins) UpsertAdmin(_ context.Context, a *model.Admin) error {
	if f.err != nil {
		return f.err
	}
	if a.ID == "" {
		return errors.New("admin id is required")
	}
	f.got = a
	return nil
}

func TestSeedAdmin(t *testing.T) {
	f := &fakeAdmins{}
	a, err := seedAdmin(context.Background(), f, "nurse", "hunter22", "Head Nurse")
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, f.got.ID)
	assert.Equal(t, "Head Nurse", f.got.Name)
	assert.NotEqual(t, "hunter22", f.got.PasswordHash)
	assert.True(t, auth.CheckPassword(f.got.PasswordHash, "hunter22"))
}

func TestSeedAdminFromEnv(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "envnurse")
	t.Setenv("ADMIN_PASSWORD", "envpass1")
	f := &fakeAdmins{}
	a, err := seedAdmin(context.Background(), f, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "envnurse", a.Username)
}

func TestSeedAdminRejects(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := seedAdmin(context.Background(), &fakeAdmins{}, "ab", "hunter22", "")
	assert.Error(t, err)
	_, err = seedAdmin(context.Background(), &fakeAdmins{}, "nurse", "short", "")
	assert.Error(t, err)

	_, err = seedAdmin(context.Background(), &fakeAdmins{err: errors.New("db down")}, "nurse", "hunter22", "")
	assert.ErrorContains(t, err, "upsert admin")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, model.Stats{Pending: 2, Approved: 1, Cancelled: 4})
	out := buf.String()
	assert.Contains(t, out, "pending")
	assert.Regexp(t, `total\s+7`, out)
}

func TestPrintAppointments(t *testing.T) {
	var buf bytes.Buffer
	printAppointments(&buf, []model.Appointment{{
		ID: "a1", Name: "Jane Doe", Phone: "+21612345678", Status: model.StatusApproved,
		CreatedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
	}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "APPROVED")
	assert.Contains(t, lines[1], "2026-05-01 09:30")
}
