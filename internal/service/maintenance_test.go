package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/database"
	"github.com/jask/finmgr/internal/database/repository"
)

func TestBackupAndList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := database.OpenAndMigrate(filepath.Join(dir, "live.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &MaintenanceService{DB: db, Dir: filepath.Join(dir, "backups"), now: func() time.Time { return now }}

	empty, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	first, err := svc.Backup(ctx)
	require.NoError(t, err)
	require.Equal(t, "finmgr-20260102-030405.db", first.Name)
	require.Positive(t, first.Size)

	_, err = svc.Backup(ctx)
	require.Error(t, err, "same second must not overwrite")

	now = now.Add(time.Hour)
	_, err = svc.Backup(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(svc.Dir, "notes.txt"), []byte("x"), 0o600))

	list, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "finmgr-20260102-040405.db", list[0].Name)

	restored, err := database.Open(filepath.Join(svc.Dir, first.Name))
	require.NoError(t, err)
	defer restored.Close()
	var n int
	require.NoError(t, restored.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n))
	require.Zero(t, n)
}

func TestPruneSessions(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "live.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	u := repository.User{ID: uuid.New(), Username: "u", PasswordHash: "x"}
	require.NoError(t, repository.NewUserRepo(db).Upsert(ctx, u))
	now := time.Now().UTC()
	sessions := repository.NewSessionRepo(db)
	require.NoError(t, sessions.Insert(ctx, repository.Session{Token: "old", UserID: u.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, sessions.Insert(ctx, repository.Session{Token: "new", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	svc := &MaintenanceService{DB: db, now: func() time.Time { return now }}
	n, err := svc.PruneSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
