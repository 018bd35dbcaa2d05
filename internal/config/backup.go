package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MaxUserConfigBackups caps how many timestamped snapshots of the
	// user config BackupUserConfig keeps around before pruning the
	// oldest.
	MaxUserConfigBackups = 3

	// userConfigBackupSuffix marks a file as a backup of the user
	// config rather than the config itself.
	userConfigBackupSuffix = ".bak"
)

// BackupUserConfig snapshots the global user config file under a
// timestamped name next to it, returning the snapshot's path. Returns
// ("", nil) when there is no user config to back up, since the callers
// (`config backup` and RestoreUserConfig) treat a missing source as a no-op
// rather than an error.
func BackupUserConfig() (string, error) {
	if !UserConfigExists() {
		return "", nil
	}
	configPath := GetUserConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read user config for backup: %w", err)
	}

	snapshotPath := userConfigBackupPath(configPath, time.Now())
	if err := os.WriteFile(snapshotPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write config backup: %w", err)
	}

	if err := pruneUserConfigBackups(); err != nil {
		return snapshotPath, fmt.Errorf("backup written but pruning old backups failed: %w", err)
	}
	return snapshotPath, nil
}

// userConfigBackupPath derives the snapshot filename for a backup taken
// at instant t.
func userConfigBackupPath(configPath string, t time.Time) string {
	return fmt.Sprintf("%s%s.%s", configPath, userConfigBackupSuffix, t.Format("20060102-150405"))
}

// ListUserConfigBackups returns every backup of the user config,
// newest first by modification time.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	configDir := filepath.Dir(configPath)
	prefix := filepath.Base(configPath) + userConfigBackupSuffix + "."

	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list config directory %s: %w", configDir, err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		backups = append(backups, filepath.Join(configDir, entry.Name()))
	}

	sort.Slice(backups, func(i, j int) bool {
		iInfo, iErr := os.Stat(backups[i])
		jInfo, jErr := os.Stat(backups[j])
		if iErr != nil || jErr != nil {
			return false
		}
		return iInfo.ModTime().After(jInfo.ModTime())
	})
	return backups, nil
}

// pruneUserConfigBackups deletes backups beyond MaxUserConfigBackups,
// keeping the newest ones. Best-effort: a removal failure for one
// backup doesn't stop the rest from being attempted.
func pruneUserConfigBackups() error {
	backups, err := ListUserConfigBackups()
	if err != nil {
		return err
	}
	if len(backups) <= MaxUserConfigBackups {
		return nil
	}

	var firstErr error
	for _, stale := range backups[MaxUserConfigBackups:] {
		if err := os.Remove(stale); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("remove stale backup %s: %w", stale, err)
		}
	}
	return firstErr
}

// RestoreUserConfig overwrites the user config with the contents of
// backupPath, first backing up whatever config is currently in place
// so the restore itself is reversible.
func RestoreUserConfig(backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup %s: %w", backupPath, err)
	}

	if UserConfigExists() {
		if _, err := BackupUserConfig(); err != nil {
			return fmt.Errorf("back up current config before restore: %w", err)
		}
	}

	if err := os.MkdirAll(GetUserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create user config directory: %w", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("write restored config: %w", err)
	}
	return nil
}
