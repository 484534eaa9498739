// Command timetravel-replay is an offline verification tool: it loads a
// checkpoint plus a directory of tick_<N>.json snapshot files newer than
// the checkpoint, replays Forward across the whole chain, and prints a
// digest per tick, the way the teacher's cmd/replay verifies a tick log
// against a snapshot.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"timetravel/internal/archive"
	"timetravel/internal/delta"
	"timetravel/internal/snapshot"
)

func main() {
	var (
		checkpointPath = flag.String("checkpoint", "", "path to a tick_<N>.snap.zst checkpoint")
		feedDir        = flag.String("feed", "", "directory of tick_<N>.json snapshot files to replay forward")
		toTick         = flag.Uint64("to_tick", 0, "stop at tick (0 = replay everything found)")
	)
	flag.Parse()

	if *checkpointPath == "" {
		fmt.Fprintln(os.Stderr, "missing -checkpoint")
		os.Exit(2)
	}

	base, header, err := archive.ReadCheckpoint(*checkpointPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read checkpoint:", err)
		os.Exit(1)
	}
	fmt.Printf("checkpoint tick=%d digest=%s particles=%d\n", header.Tick, header.Digest, len(base.Particles))

	if *feedDir == "" {
		return
	}

	files, err := feedFilesAfter(*feedDir, header.Tick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list feed:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no feed files newer than checkpoint tick", header.Tick)
		return
	}

	cur := base
	for _, f := range files {
		next, err := readSnapshot(f.path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read", f.path, ":", err)
			os.Exit(1)
		}
		d := delta.FromSnapshots(cur, next)
		forward := d.Forward(cur)
		if !forward.Equal(next) {
			fmt.Fprintf(os.Stderr, "replay mismatch at tick %d: Forward(cur) != next\n", f.tick)
			os.Exit(1)
		}
		fmt.Printf("tick=%d digest=%s\n", f.tick, forward.Digest())
		cur = forward
	}
	fmt.Printf("replay ok: verified %d ticks from checkpoint tick=%d\n", len(files), header.Tick)
}

type feedFile struct {
	tick uint64
	path string
}

func feedFilesAfter(dir string, afterTick, toTick uint64) ([]feedFile, error) {
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
		if tick <= afterTick {
			continue
		}
		if toTick != 0 && tick > toTick {
			continue
		}
		out = append(out, feedFile{tick: tick, path: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tick < out[j].tick })
	return out, nil
}

func readSnapshot(path string) (*snapshot.Snapshot, error) {
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
