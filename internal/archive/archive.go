// Package archive persists checkpoint Snapshots to disk and rotates old
// ones into season directories once more accumulate than the caller wants
// to keep around. It is the only component that performs snapshot I/O: the
// history manager never touches a filesystem, it just hands archive a
// Snapshot to write.
package archive

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"timetravel/internal/snapshot"
)

// Header is the small, uncompressed-adjacent JSON preamble written before
// the gob-encoded Snapshot body, so a checkpoint's tick and digest can be
// read without decompressing and decoding the whole file.
type Header struct {
	Tick   uint64 `json:"tick"`
	Digest string `json:"digest"`
}

// Writer writes checkpoints under dir/checkpoints and rotates the oldest
// ones into dir/archive/season_<NNN> once more than RetainCheckpoints
// accumulate.
type Writer struct {
	Dir               string
	RetainCheckpoints int
}

func NewWriter(dir string, retainCheckpoints int) *Writer {
	if retainCheckpoints < 1 {
		retainCheckpoints = 1
	}
	return &Writer{Dir: dir, RetainCheckpoints: retainCheckpoints}
}

func checkpointPath(dir string, tick uint64) string {
	return filepath.Join(dir, "checkpoints", fmt.Sprintf("tick_%d.snap.zst", tick))
}

// WriteCheckpoint zstd-compresses s (preceded by a JSON Header line) to
// dir/checkpoints/tick_<tick>.snap.zst, then rotates older checkpoints into
// a season directory if there are now more than RetainCheckpoints.
func (w *Writer) WriteCheckpoint(tick uint64, s *snapshot.Snapshot) (path string, err error) {
	path = checkpointPath(w.Dir, tick)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	header := Header{Tick: tick, Digest: s.Digest()}
	hb, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	if _, err := bw.Write(hb); err != nil {
		return "", err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return "", err
	}
	if err := gob.NewEncoder(bw).Encode(s); err != nil {
		return "", fmt.Errorf("gob encode: %w", err)
	}

	if err := w.rotate(); err != nil {
		return path, err
	}
	return path, nil
}

// ReadCheckpoint reads back a Snapshot written by WriteCheckpoint.
func ReadCheckpoint(path string) (*snapshot.Snapshot, Header, error) {
	var header Header
	f, err := os.Open(path)
	if err != nil {
		return nil, header, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, header, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, header, err
	}
	if err := json.Unmarshal(line, &header); err != nil {
		return nil, header, fmt.Errorf("checkpoint header: %w", err)
	}

	var s snapshot.Snapshot
	if err := gob.NewDecoder(br).Decode(&s); err != nil {
		return nil, header, fmt.Errorf("gob decode: %w", err)
	}
	return &s, header, nil
}

// rotate moves the oldest checkpoints into a season directory once the
// checkpoints directory holds more than RetainCheckpoints files, mirroring
// the teacher's ArchiveSeasonSnapshot copy-then-record-metadata shape.
func (w *Writer) rotate() error {
	dir := filepath.Join(w.Dir, "checkpoints")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	tickOf := func(name string) uint64 {
		var tick uint64
		_, _ = fmt.Sscanf(name, "tick_%d.snap.zst", &tick)
		return tick
	}
	sort.Slice(names, func(i, j int) bool { return tickOf(names[i]) < tickOf(names[j]) })

	excess := len(names) - w.RetainCheckpoints
	if excess <= 0 {
		return nil
	}

	season := 1
	seasonDir := filepath.Join(w.Dir, "archive", fmt.Sprintf("season_%03d", season))
	for {
		if _, err := os.Stat(seasonDir); os.IsNotExist(err) {
			break
		}
		season++
		seasonDir = filepath.Join(w.Dir, "archive", fmt.Sprintf("season_%03d", season))
	}
	if err := os.MkdirAll(seasonDir, 0o755); err != nil {
		return err
	}

	for _, name := range names[:excess] {
		src := filepath.Join(dir, name)
		dst := filepath.Join(seasonDir, name)
		if err := moveFile(src, dst); err != nil {
			return err
		}
	}

	meta := seasonMeta{
		Season:      season,
		ArchivedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Checkpoints: names[:excess],
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(seasonDir, "meta.json"), b, 0o644)
	}
	return nil
}

type seasonMeta struct {
	Season      int      `json:"season"`
	ArchivedAt  string   `json:"archived_at"`
	Checkpoints []string `json:"checkpoints"`
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
