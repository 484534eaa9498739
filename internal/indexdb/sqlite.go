// Package indexdb is a secondary, best-effort index over the history
// manager's activity: one row per checkpoint written to disk and one row
// per delta applied between checkpoints. It is never the source of truth —
// the checkpoint files under internal/archive are — so a full write queue
// drops the write rather than blocking the simulation loop.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Index wraps a SQLite database behind a single writer goroutine fed by a
// buffered channel, exactly the way the teacher's SQLiteIndex serialises
// concurrent writers into one connection without making callers block on
// disk I/O.
type Index struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed    atomic.Bool
	DropTotal atomic.Int64
}

type reqKind int

const (
	reqCheckpoint reqKind = iota + 1
	reqDeltaApplied
	reqCatalog
)

type req struct {
	kind reqKind

	checkpoint checkpointRow
	delta      deltaRow
	catalog    catalogRow
}

type checkpointRow struct {
	Tick          uint64
	Digest        string
	Path          string
	ParticleCount int
}

type deltaRow struct {
	FromTick uint64
	ToTick   uint64
	ToDigest string
}

type catalogRow struct {
	Digest string
	Path   string
}

// Open creates (if needed) and opens a SQLite database at path, initialises
// its schema, and starts the writer goroutine.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("indexdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &Index{
		db: db,
		// High buffer: bursty undo/redo activity should never stall on disk.
		ch: make(chan req, 4096),
	}
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		idx.loop()
	}()
	return idx, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			path TEXT NOT NULL,
			particle_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS deltas (
			from_tick INTEGER NOT NULL,
			to_tick INTEGER NOT NULL PRIMARY KEY,
			to_digest TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_deltas_from_tick ON deltas(from_tick);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			digest TEXT PRIMARY KEY,
			path TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the writer goroutine and closes the underlying database.
func (idx *Index) Close() error {
	var err error
	idx.once.Do(func() {
		idx.closed.Store(true)
		close(idx.ch)
		idx.wg.Wait()
		err = idx.db.Close()
	})
	return err
}

// RecordCheckpoint enqueues a row describing a checkpoint just written to
// disk by internal/archive.
func (idx *Index) RecordCheckpoint(tick uint64, digest, path string, particleCount int) {
	idx.enqueue(req{kind: reqCheckpoint, checkpoint: checkpointRow{
		Tick: tick, Digest: digest, Path: path, ParticleCount: particleCount,
	}})
}

// RecordDeltaApplied enqueues a row describing a delta having been applied
// (a Record, Undo, or Redo that landed on a new tick).
func (idx *Index) RecordDeltaApplied(fromTick, toTick uint64, toDigest string) {
	idx.enqueue(req{kind: reqDeltaApplied, delta: deltaRow{
		FromTick: fromTick, ToTick: toTick, ToDigest: toDigest,
	}})
}

// RecordCatalog enqueues a row recording which catalog digest a run loaded.
func (idx *Index) RecordCatalog(digest, path string) {
	idx.enqueue(req{kind: reqCatalog, catalog: catalogRow{Digest: digest, Path: path}})
}

func (idx *Index) enqueue(r req) {
	if idx == nil || idx.closed.Load() {
		return
	}
	select {
	case idx.ch <- r:
	default:
		idx.DropTotal.Add(1)
	}
}

func (idx *Index) loop() {
	ctx := context.Background()

	insertCheckpoint, _ := idx.db.Prepare(`INSERT OR REPLACE INTO checkpoints(tick,digest,path,particle_count) VALUES(?,?,?,?)`)
	insertDelta, _ := idx.db.Prepare(`INSERT OR REPLACE INTO deltas(from_tick,to_tick,to_digest) VALUES(?,?,?)`)
	insertCatalog, _ := idx.db.Prepare(`INSERT OR REPLACE INTO catalogs(digest,path) VALUES(?,?)`)
	defer func() {
		if insertCheckpoint != nil {
			_ = insertCheckpoint.Close()
		}
		if insertDelta != nil {
			_ = insertDelta.Close()
		}
		if insertCatalog != nil {
			_ = insertCatalog.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := idx.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range idx.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqCheckpoint:
			c := r.checkpoint
			if insertCheckpoint != nil {
				if _, err := tx.Stmt(insertCheckpoint).Exec(int64(c.Tick), c.Digest, c.Path, c.ParticleCount); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		case reqDeltaApplied:
			d := r.delta
			if insertDelta != nil {
				if _, err := tx.Stmt(insertDelta).Exec(int64(d.FromTick), int64(d.ToTick), d.ToDigest); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		case reqCatalog:
			c := r.catalog
			if insertCatalog != nil {
				if _, err := tx.Stmt(insertCatalog).Exec(c.Digest, c.Path); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
