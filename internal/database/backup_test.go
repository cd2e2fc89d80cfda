package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tourbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	src, err := NewSQLite(dbPath, &logger)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	cfg := config.BackupConfig{Enabled: true, StoragePath: storagePath, RetentionDays: 1}
	s := NewBackupService(dbPath, cfg, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		require.NoError(t, s.PerformBackup())

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Contains(t, files[0].Name(), "tourbook_")
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "tourbook_old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

		assert.Equal(t, 1, s.CleanupOldBackups())

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 1)
		assert.NotEqual(t, "tourbook_old.db", files[0].Name())
	})

	t.Run("MemoryDatabase", func(t *testing.T) {
		mem := NewBackupService(":memory:", cfg, &logger)
		assert.Error(t, mem.PerformBackup())
	})
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	dir := filepath.Join(t.TempDir(), "backups")
	s := NewBackupService("any.db", config.BackupConfig{StoragePath: dir}, &logger)
	s.Run()
	assert.NoDirExists(t, dir)
}
