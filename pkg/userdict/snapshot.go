package userdict

import (
	"fmt"
	"sort"
	"strings"
)

// FormatVersion is stamped into every snapshot's /rime_version line so a
// restore can tell which implementation produced it.
const FormatVersion = "imecore-1"

// WriteSnapshot dumps every (key, value) pair in store, sorted by key, plus
// the meta lines a restore needs: /user_id, /rime_version, /tick, /db_name.
func WriteSnapshot(store Store, dbName, userID string) (string, error) {
	type kv struct{ key, value string }
	var pairs []kv
	if err := store.Iterate(func(key, value string) bool {
		pairs = append(pairs, kv{key, value})
		return true
	}); err != nil {
		return "", fmt.Errorf("userdict: snapshot iterate: %w", err)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	var b strings.Builder
	tick, _ := store.MetaGet("/tick")
	if tick == "" {
		tick = "0"
	}
	fmt.Fprintf(&b, "/user_id\t%s\n", userID)
	fmt.Fprintf(&b, "/rime_version\t%s\n", FormatVersion)
	fmt.Fprintf(&b, "/tick\t%s\n", tick)
	fmt.Fprintf(&b, "/db_name\t%s\n", dbName)
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s\t%s\n", p.key, p.value)
	}
	return b.String(), nil
}

// RestoreSnapshot loads a WriteSnapshot dump into store. Lines starting with
// '/' are meta entries; everything else is a regular key/value pair. A line
// missing its tab separator is skipped rather than failing the whole
// restore, matching the "degrade to missing" policy for malformed records.
func RestoreSnapshot(store Store, content string) error {
	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if strings.HasPrefix(key, "/") {
			if err := store.MetaPut(key, value); err != nil {
				return fmt.Errorf("userdict: restore meta %s: %w", key, err)
			}
			continue
		}
		if err := store.Put(key, value); err != nil {
			return fmt.Errorf("userdict: restore %s: %w", key, err)
		}
	}
	return nil
}

// SnapshotFormatMatches reports whether content looks like one of our own
// snapshots, so UniformRestore knows whether to try RestoreSnapshot at all
// before falling back to a store's native restore.
func SnapshotFormatMatches(content string) bool {
	return strings.HasPrefix(content, "/user_id\t") ||
		strings.Contains(content, "\n/rime_version\t"+FormatVersion)
}
