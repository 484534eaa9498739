// Command timetravel-server wires a catalog, a history manager, an index
// store, an archive writer, and a WebSocket transport together behind a
// flag-defined configuration, the way the teacher's cmd/server/main.go
// wires its world, index backend, and transports.
//
// The simulator that actually produces Snapshots is an external
// collaborator (see SPEC's core scope); this binary ingests them from a
// feed directory of JSON files named tick_<N>.json, each holding one
// JSON-encoded Snapshot, applied in tick order, so the server can run standalone against any
// simulator that can write that format.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"timetravel/internal/archive"
	"timetravel/internal/catalog"
	"timetravel/internal/history"
	"timetravel/internal/indexdb"
	"timetravel/internal/snapshot"
	"timetravel/internal/transport/ws"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "http listen address")
		dimensions    = flag.String("dimensions", "./configs/dimensions.yaml", "path to the grid-dimensions catalog")
		dataDir       = flag.String("data", "./data", "runtime data directory (checkpoints, archive, index)")
		feedDir       = flag.String("feed", "./feed", "directory polled for tick_<N>.json snapshot files")
		historySize   = flag.Int("history", 256, "number of deltas kept in the in-memory ring before folding into a checkpoint")
		checkpointEvery = flag.Int("checkpoint_every", 256, "write a checkpoint to disk every N recorded ticks")
		retainChecks  = flag.Int("retain_checkpoints", 8, "checkpoints kept on disk before rotating into an archive season")
		disableDB     = flag.Bool("disable_db", false, "disable the sqlite metadata index")
		pollInterval  = flag.Duration("poll", 200*time.Millisecond, "feed directory poll interval")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[timetravel] ", log.LstdFlags|log.Lmicroseconds)

	cat, err := catalog.Load(*dimensions)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	logger.Printf("catalog loaded digest=%s w_air=%d h_air=%d n_part=%d", cat.Digest, cat.Dimensions.WAir, cat.Dimensions.HAir, cat.Dimensions.NPart)

	var idx *indexdb.Index
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(*dataDir, "index.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	archiveWriter := archive.NewWriter(*dataDir, *retainChecks)

	initial := emptySnapshot(cat.Dimensions)
	mgr := history.NewManager(initial, *historySize)

	wsServer := ws.NewServer(mgr, logger)
	http.Handle("/v1/ws", wsServer.Handler())

	go ingestFeed(*feedDir, *pollInterval, mgr, archiveWriter, idx, *checkpointEvery, logger)

	logger.Printf("listening on %s", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Fatalf("http: %v", err)
	}
}

// emptySnapshot builds the zero-valued starting Snapshot consistent with
// cat's grid dimensions, used as the history manager's initial checkpoint
// before the first feed file arrives.
func emptySnapshot(d catalog.Dimensions) *snapshot.Snapshot {
	cells := d.WAir * d.HAir
	return &snapshot.Snapshot{
		AirPressure:     make([]float32, cells),
		AirVelocityX:    make([]float32, cells),
		AirVelocityY:    make([]float32, cells),
		AmbientHeat:     make([]float32, cells),
		GravMass:        make([]float32, cells),
		GravForceX:      make([]float32, cells),
		GravForceY:      make([]float32, cells),
		FanVelocityX:    make([]float32, cells),
		FanVelocityY:    make([]float32, cells),
		GravMask:        make([]uint32, cells),
		BlockMap:        make([]uint32, cells),
		ElecMap:         make([]uint32, cells),
		BlockAir:        make([]uint8, cells),
		BlockAirH:       make([]uint8, cells),
		WirelessData:    make([]uint32, d.Channels),
		PortalParticles: make([]snapshot.Particle, 0),
		Stickmen:        make([]snapshot.Player, 0, d.MaxStickmen),
		Authors:         snapshot.AuthorsDoc{},
		RngState:        snapshot.RngState{},
	}
}

// ingestFeed polls feedDir for tick_<N>.json files, replays them into mgr in
// tick order, and periodically checkpoints to disk, mirroring the teacher's
// snapshot-every-N-ticks cadence in cmd/server/main.go.
func ingestFeed(feedDir string, interval time.Duration, mgr *history.Manager, aw *archive.Writer, idx *indexdb.Index, checkpointEvery int, logger *log.Logger) {
	seen := map[uint64]bool{}
	sinceCheckpoint := 0

	for range time.Tick(interval) {
		files, err := listFeedFiles(feedDir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if seen[f.tick] {
				continue
			}
			s, err := readFeedSnapshot(f.path)
			if err != nil {
				logger.Printf("feed: skip %s: %v", f.path, err)
				seen[f.tick] = true
				continue
			}
			mgr.Record(s)
			seen[f.tick] = true
			sinceCheckpoint++

			if idx != nil {
				idx.RecordDeltaApplied(f.tick-1, f.tick, s.Digest())
			}

			if sinceCheckpoint >= checkpointEvery {
				path, err := aw.WriteCheckpoint(f.tick, s)
				if err != nil {
					logger.Printf("checkpoint: %v", err)
				} else {
					logger.Printf("checkpoint written tick=%d path=%s", f.tick, path)
					if idx != nil {
						idx.RecordCheckpoint(f.tick, s.Digest(), path, len(s.Particles))
					}
				}
				sinceCheckpoint = 0
			}
		}
	}
}

type feedFile struct {
	tick uint64
	path string
}

func listFeedFiles(dir string) ([]feedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]feedFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "tick_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		tickStr := strings.TrimSuffix(strings.TrimPrefix(name, "tick_"), ".json")
		tick, err := strconv.ParseUint(tickStr, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, feedFile{tick: tick, path: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tick < out[j].tick })
	return out, nil
}

func readFeedSnapshot(path string) (*snapshot.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s snapshot.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &s, nil
}
