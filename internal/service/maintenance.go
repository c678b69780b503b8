package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jask/finmgr/internal/database/repository"
)

// MaintenanceService houses operational actions: backups and session cleanup.
type MaintenanceService struct {
	DB  *sql.DB
	Dir string

	now func() time.Time
}

// BackupFile describes one backup on disk.
type BackupFile struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

const backupPrefix = "finmgr-"

func (s *MaintenanceService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Backup writes a consistent copy of the database into Dir.
func (s *MaintenanceService) Backup(ctx context.Context) (BackupFile, error) {
	if s.DB == nil || s.Dir == "" {
		return BackupFile{}, fmt.Errorf("maintenance: backups not configured")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return BackupFile{}, fmt.Errorf("mkdir backup dir: %w", err)
	}
	now := s.clock().UTC()
	name := backupPrefix + now.Format("20060102-150405") + ".db"
	path := filepath.Join(s.Dir, name)
	if _, err := os.Stat(path); err == nil {
		return BackupFile{}, fmt.Errorf("backup %s already exists", name)
	}
	if _, err := s.DB.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return BackupFile{}, fmt.Errorf("vacuum into %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return BackupFile{}, err
	}
	return BackupFile{Name: name, Size: info.Size(), CreatedAt: now}, nil
}

// ListBackups returns the backups in Dir, newest first.
func (s *MaintenanceService) ListBackups(context.Context) ([]BackupFile, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []BackupFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || filepath.Ext(name) != ".db" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		created, err := time.Parse("20060102-150405", strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), ".db"))
		if err != nil {
			created = info.ModTime().UTC()
		}
		out = append(out, BackupFile{Name: name, Size: info.Size(), CreatedAt: created})
	}
	slices.SortFunc(out, func(a, b BackupFile) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// PruneSessions drops expired login sessions.
func (s *MaintenanceService) PruneSessions(ctx context.Context) (int64, error) {
	return repository.NewSessionRepo(s.DB).DeleteExpired(ctx, s.clock().UTC())
}
