package delta

import "timetravel/internal/snapshot"

// SnapshotDelta is the bidirectional difference between two Snapshots: d :=
// FromSnapshots(a, b) satisfies d.Forward(a) == b and d.Restore(b) == a. A
// SnapshotDelta is built once and is read-only afterwards; Forward and
// Restore may both be called on it any number of times.
type SnapshotDelta struct {
	// Float32Hunks and the two maps below hold one HunkVector per
	// static-size grid field, keyed by the field names in schema.go.
	Float32Hunks map[string]HunkVector[float32]
	Uint32Hunks  map[string]HunkVector[uint32]
	Uint8Hunks   map[string]HunkVector[uint8]

	// Word-reinterpreted packed-record fields.
	PortalParticles HunkVector[uint32]
	Stickmen        HunkVector[uint32]

	// Particles is split into the word-diffed common prefix and two
	// verbatim tails; see FromSnapshots and apply.go.
	CommonParticles HunkVector[uint32]
	ExtraPartsOld   []snapshot.Particle
	ExtraPartsNew   []snapshot.Particle

	// Whole-field diffs for fields that change rarely or monolithically.
	Signs      SingleDiff[[]snapshot.Sign]
	Authors    SingleDiff[snapshot.AuthorsDoc]
	FrameCount SingleDiff[uint64]
	RngState   SingleDiff[snapshot.RngState]
}

func signsEqual(a, b []snapshot.Sign) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func authorsEqual(a, b snapshot.AuthorsDoc) bool { return a.Equal(b) }

func uint64Equal(a, b uint64) bool { return a == b }

func rngStateEqual(a, b snapshot.RngState) bool { return a == b }

// FromSnapshots builds the SnapshotDelta between old and new. It does not
// mutate either input and is deterministic: calling it twice on the same
// pair of Snapshots yields bit-identical HunkVectors and SingleDiffs.
func FromSnapshots(old, new *snapshot.Snapshot) *SnapshotDelta {
	d := &SnapshotDelta{
		Float32Hunks: make(map[string]HunkVector[float32], len(float32Fields)),
		Uint32Hunks:  make(map[string]HunkVector[uint32], len(uint32Fields)),
		Uint8Hunks:   make(map[string]HunkVector[uint8], len(uint8Fields)),
	}

	for _, f := range float32Fields {
		d.Float32Hunks[f.name] = BuildHunkVector(*f.get(old), *f.get(new), snapshot.FloatBitsEqual32)
	}
	for _, f := range uint32Fields {
		d.Uint32Hunks[f.name] = BuildHunkVector(*f.get(old), *f.get(new), wordsEqual)
	}
	for _, f := range uint8Fields {
		d.Uint8Hunks[f.name] = BuildHunkVector(*f.get(old), *f.get(new), func(a, b uint8) bool { return a == b })
	}

	d.PortalParticles = buildParticleWordHunks(old.PortalParticles, new.PortalParticles, minInt(len(old.PortalParticles), len(new.PortalParticles)))
	d.Stickmen = buildPlayerWordHunks(old.Stickmen, new.Stickmen)

	d.Signs = BuildSingleDiff(old.Signs, new.Signs, signsEqual)
	d.Authors = BuildSingleDiff(old.Authors, new.Authors, authorsEqual)
	d.FrameCount = BuildSingleDiff(old.FrameCount, new.FrameCount, uint64Equal)
	d.RngState = BuildSingleDiff(old.RngState, new.RngState, rngStateEqual)

	commonSize := minInt(len(old.Particles), len(new.Particles))
	d.CommonParticles = buildParticleWordHunks(old.Particles, new.Particles, commonSize)
	d.ExtraPartsOld = append([]snapshot.Particle(nil), old.Particles[commonSize:]...)
	d.ExtraPartsNew = append([]snapshot.Particle(nil), new.Particles[commonSize:]...)

	return d
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
