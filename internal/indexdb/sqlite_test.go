package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	var name string
	err = idx.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='checkpoints'`).Scan(&name)
	if err != nil {
		t.Fatalf("expected checkpoints table to exist: %v", err)
	}
}

func TestRecordCheckpointIsQueryableAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.sqlite")

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	idx.RecordCheckpoint(42, "deadbeef", "/data/checkpoints/tick_42.snap.zst", 100)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var digest string
	row := db.QueryRow(`SELECT digest FROM checkpoints WHERE tick=42`)
	if err := row.Scan(&digest); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if digest != "deadbeef" {
		t.Fatalf("unexpected digest: %s", digest)
	}
}

func TestRecordDeltaAppliedIsQueryableAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.sqlite")

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	idx.RecordDeltaApplied(10, 11, "abc123")
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var toDigest string
	row := db.QueryRow(`SELECT to_digest FROM deltas WHERE to_tick=11`)
	if err := row.Scan(&toDigest); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if toDigest != "abc123" {
		t.Fatalf("unexpected digest: %s", toDigest)
	}
}

func TestEnqueueAfterCloseIsANoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Must not panic or block once closed.
	idx.RecordCheckpoint(1, "x", "y", 1)
}

func TestQueueFullDropsAndIncrementsCounter(t *testing.T) {
	idx := &Index{ch: make(chan req, 1)}
	idx.ch <- req{kind: reqCheckpoint}

	idx.RecordCheckpoint(1, "x", "y", 1)

	if idx.DropTotal.Load() != 1 {
		t.Fatalf("expected one dropped write, got %d", idx.DropTotal.Load())
	}
}
