package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmorrell/surveyid/internal/services/account"
	"github.com/pmorrell/surveyid/internal/services/session"
	"github.com/pmorrell/surveyid/internal/storage/memory"
	"github.com/pmorrell/surveyid/internal/storage/sqlite"
)

func TestNewDefaultsToMemoryStorage(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)

	assert.IsType(t, &memory.Storage{}, app.Storage)
	assert.NotNil(t, app.CredentialService)
	assert.NotNil(t, app.Anonymizer)
	assert.NotNil(t, app.SessionManager)
	assert.NotNil(t, app.AccountService)
	assert.NotNil(t, app.Mail)
}

func TestNewWithSQLiteStorage(t *testing.T) {
	app, err := New(Config{
		StorageType: StorageTypeSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	assert.IsType(t, &sqlite.Storage{}, app.Storage)
}

func TestNewSQLiteRequiresPath(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeSQLite})
	assert.Error(t, err)
}

func TestNewRedisRequiresConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	assert.Error(t, err)
}

func TestNewRejectsUnknownStorageType(t *testing.T) {
	_, err := New(Config{StorageType: "clay-tablets"})
	assert.Error(t, err)
}

func TestAppIsFullyWired(t *testing.T) {
	// End to end through the wired services: register, then log in
	app, err := New(Config{})
	require.NoError(t, err)

	ctx := context.Background()
	st := session.NewState()
	_, err = app.AccountService.Register(ctx, st, account.RegisterParams{
		UserID:    "alice",
		Password:  "password123",
		FirstName: "Alice",
	})
	require.NoError(t, err)

	_, err = app.AccountService.LoginWithPassword(ctx, session.NewState(), "alice", "password123")
	assert.NoError(t, err)
}

func TestNewForTestUsesMocks(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	app := NewForTest(start)

	assert.Equal(t, start, app.Clock.Now())
	app.MockClock.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), app.Clock.Now())

	assert.IsType(t, &memory.Storage{}, app.Storage)
	assert.Empty(t, app.MailRecord.RecoveryEmails)
}
