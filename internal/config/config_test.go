package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(zap.NewNop())
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("ADMIN_PHONE_NUMBER", "")
	t.Setenv("TWILIO_ACCOUNT_SID", "")

	c, err := Load(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, c.SessionTTL)
	assert.Equal(t, "+21695650081", c.AdminPhone)
	assert.Equal(t, "+216", c.CountryCode)
	assert.False(t, c.Twilio.Configured())
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("NOTIFY_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_BURST", "lots")

	c, err := Load(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, c.NotifyTimeout)
	assert.Equal(t, 10, c.RateBurst)
}

func TestGRPCPortCanBeDisabled(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GRPC_PORT", "")

	c, err := Load(zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, c.GRPCPort)
}

func TestLoadLeavesDotEnvToMain(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-file\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load(zap.NewNop())
	require.ErrorIs(t, err, ErrMissingSecret)
}
