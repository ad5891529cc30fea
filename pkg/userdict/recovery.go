package userdict

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
)

// RecoveryTask runs when a user db fails to open: it looks for the newest
// matching snapshot on disk, restores from it if the format matches, and
// otherwise falls back to the caller's native restore.
type RecoveryTask struct {
	SnapshotDir string
	Extension   string
}

// Recover attempts UniformRestore semantics against a freshly created,
// empty store: prefer our own snapshot format, fall back to nativeRestore.
// Returns nil once either path succeeds, or the last error encountered.
func (t *RecoveryTask) Recover(dbName string, store Store, nativeRestore func() error) error {
	path, ok := t.latestSnapshot(dbName)
	if !ok {
		log.Warnf("userdict: no snapshot found for %s, falling back to native restore", dbName)
		return nativeRestore()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("userdict: failed to read snapshot %s: %v", path, err)
		return nativeRestore()
	}

	if !SnapshotFormatMatches(string(content)) {
		log.Warnf("userdict: snapshot %s format mismatch, falling back to native restore", path)
		return nativeRestore()
	}

	if err := RestoreSnapshot(store, string(content)); err != nil {
		log.Warnf("userdict: restore from %s failed: %v, falling back to native restore", path, err)
		return nativeRestore()
	}

	log.Infof("userdict: recovered %s from snapshot %s", dbName, path)
	return nil
}

func (t *RecoveryTask) latestSnapshot(dbName string) (string, bool) {
	pattern := filepath.Join(t.SnapshotDir, dbName+"*"+t.Extension)
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[len(matches)-1], true
}
