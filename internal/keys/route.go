package keys

import (
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	// Prefix is the root of every route snapshot key.
	Prefix = "routes/"

	// TimestampLayout renders the UTC capture time of a snapshot, second precision.
	TimestampLayout = "2006-01-02_15-04-05"

	snapshotPrefix = "static_route_"
	snapshotSuffix = ".json"
)

// Snapshot returns the canonical object key for a route response captured at t.
// The route name is used as is. Two snapshots of the same route within one
// second map to the same key.
func Snapshot(routeName string, t time.Time) string {
	return fmt.Sprintf("%s%s/%s%s%s",
		Prefix,
		routeName,
		snapshotPrefix,
		t.UTC().Format(TimestampLayout),
		snapshotSuffix,
	)
}

// Parse splits a snapshot key back into route name and capture time.
func Parse(key string) (string, time.Time, error) {
	rest, ok := strings.CutPrefix(key, Prefix)
	if !ok {
		return "", time.Time{}, fmt.Errorf("key %q: missing %q prefix", key, Prefix)
	}
	dir, file := path.Split(rest)
	name := strings.TrimSuffix(dir, "/")
	if name == "" || strings.Contains(name, "/") {
		return "", time.Time{}, fmt.Errorf("key %q: unexpected route path %q", key, dir)
	}
	stamp, ok := strings.CutPrefix(file, snapshotPrefix)
	if !ok || !strings.HasSuffix(stamp, snapshotSuffix) {
		return "", time.Time{}, fmt.Errorf("key %q: not a route snapshot", key)
	}
	t, err := time.Parse(TimestampLayout, strings.TrimSuffix(stamp, snapshotSuffix))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("key %q: bad timestamp: %w", key, err)
	}
	return name, t.UTC(), nil
}
