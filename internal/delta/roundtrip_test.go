package delta

import (
	"math"
	"testing"

	"timetravel/internal/snapshot"
)

// nanPayload builds a float32 NaN carrying payload in its mantissa bits, so
// two calls with different payloads produce bitwise-distinct NaNs even
// though Go's == would report neither as equal to anything, including
// itself.
func nanPayload(payload uint32) float32 {
	const expAndQuietBit = 0x7FC00000
	return math.Float32frombits(expAndQuietBit | (payload & 0x3FFFF))
}

// baseSnapshot returns a 4x4-grid Snapshot with every grid and record zeroed
// (Authors and RngState carry fixed non-zero values), used as
// the starting point for each scenario below. 16 cells keeps the grids small
// enough to hand-edit in a test while still exercising BuildHunkVector's
// run-merging logic.
func baseSnapshot() *snapshot.Snapshot {
	grid := func() []float32 { return make([]float32, 16) }
	igrid := func() []uint32 { return make([]uint32, 16) }
	bgrid := func() []uint8 { return make([]uint8, 16) }
	return &snapshot.Snapshot{
		AirPressure:     grid(),
		AirVelocityX:    grid(),
		AirVelocityY:    grid(),
		AmbientHeat:     grid(),
		GravMass:        grid(),
		GravForceX:      grid(),
		GravForceY:      grid(),
		FanVelocityX:    grid(),
		FanVelocityY:    grid(),
		GravMask:        igrid(),
		BlockMap:        igrid(),
		ElecMap:         igrid(),
		BlockAir:        bgrid(),
		BlockAirH:       bgrid(),
		WirelessData:    make([]uint32, 4),
		PortalParticles: []snapshot.Particle{{}, {}},
		Stickmen:        []snapshot.Player{{}},
		Particles:       nil,
		Signs:           nil,
		Authors:         snapshot.AuthorsDoc{"title": "untitled"},
		FrameCount:      0,
		RngState:        snapshot.RngState{1, 2, 3, 4},
	}
}

func assertRoundTrip(t *testing.T, old, new *snapshot.Snapshot) *SnapshotDelta {
	t.Helper()
	d := FromSnapshots(old, new)

	forward := d.Forward(old)
	if !forward.Equal(new) {
		t.Fatalf("Forward(old) did not reproduce new\nold digest  %s\nnew digest  %s\ngot digest  %s", old.Digest(), new.Digest(), forward.Digest())
	}

	restored := d.Restore(new)
	if !restored.Equal(old) {
		t.Fatalf("Restore(new) did not reproduce old\nold digest  %s\nnew digest  %s\ngot digest  %s", old.Digest(), new.Digest(), restored.Digest())
	}

	return d
}

func TestRoundTrip_EmptyDiff(t *testing.T) {
	old := baseSnapshot()
	new := baseSnapshot()
	d := assertRoundTrip(t, old, new)

	for name, hv := range d.Float32Hunks {
		if len(hv) != 0 {
			t.Fatalf("expected no hunks for unchanged field %s, got %d", name, len(hv))
		}
	}
	if d.Signs.Valid || d.Authors.Valid || d.FrameCount.Valid || d.RngState.Valid {
		t.Fatalf("expected no SingleDiffs to be valid for an identical pair")
	}
}

func TestRoundTrip_SinglePixelPressureChange(t *testing.T) {
	old := baseSnapshot()
	new := baseSnapshot()
	new.AirPressure[5] = 12.5

	d := assertRoundTrip(t, old, new)

	hv := d.Float32Hunks["AirPressure"]
	if len(hv) != 1 || hv[0].Offset != 5 || len(hv[0].Diffs) != 1 {
		t.Fatalf("expected a single-cell hunk at offset 5, got %+v", hv)
	}
}

func TestRoundTrip_ParticleAdded(t *testing.T) {
	old := baseSnapshot()
	old.Particles = []snapshot.Particle{
		{Type: 1, X: 1, Y: 1},
	}
	new := baseSnapshot()
	new.Particles = []snapshot.Particle{
		{Type: 1, X: 1, Y: 1},
		{Type: 2, X: 5, Y: 5},
	}

	d := assertRoundTrip(t, old, new)

	if len(d.ExtraPartsOld) != 0 {
		t.Fatalf("expected no extra old particles, got %d", len(d.ExtraPartsOld))
	}
	if len(d.ExtraPartsNew) != 1 || d.ExtraPartsNew[0].Type != 2 {
		t.Fatalf("expected the appended particle to be captured verbatim, got %+v", d.ExtraPartsNew)
	}
	if len(d.CommonParticles) != 0 {
		t.Fatalf("expected the shared prefix to be untouched, got %+v", d.CommonParticles)
	}
}

func TestRoundTrip_ParticleModifiedInPlace(t *testing.T) {
	old := baseSnapshot()
	old.Particles = []snapshot.Particle{
		{Type: 1, X: 1, Y: 1, Temp: 294},
		{Type: 1, X: 2, Y: 2, Temp: 294},
	}
	new := baseSnapshot()
	new.Particles = []snapshot.Particle{
		{Type: 1, X: 1, Y: 1, Temp: 294},
		{Type: 1, X: 2, Y: 2, Temp: 310},
	}

	d := assertRoundTrip(t, old, new)

	if len(d.ExtraPartsOld) != 0 || len(d.ExtraPartsNew) != 0 {
		t.Fatalf("no particles were added or removed, expected no extras")
	}
	if len(d.CommonParticles) == 0 {
		t.Fatalf("expected a word hunk capturing the Temp change")
	}
}

func TestRoundTrip_ParticleRemoved(t *testing.T) {
	old := baseSnapshot()
	old.Particles = []snapshot.Particle{
		{Type: 1, X: 1, Y: 1},
		{Type: 2, X: 2, Y: 2},
		{Type: 3, X: 3, Y: 3},
	}
	new := baseSnapshot()
	new.Particles = []snapshot.Particle{
		{Type: 1, X: 1, Y: 1},
	}

	d := assertRoundTrip(t, old, new)

	if len(d.ExtraPartsNew) != 0 {
		t.Fatalf("expected no extra new particles, got %d", len(d.ExtraPartsNew))
	}
	if len(d.ExtraPartsOld) != 2 {
		t.Fatalf("expected the two truncated particles captured verbatim, got %d", len(d.ExtraPartsOld))
	}
}

func TestRoundTrip_SignsOverwrite(t *testing.T) {
	old := baseSnapshot()
	old.Signs = []snapshot.Sign{{X: 1, Y: 1, Justification: 0, Text: "hello"}}
	new := baseSnapshot()
	new.Signs = []snapshot.Sign{
		{X: 1, Y: 1, Justification: 0, Text: "hello"},
		{X: 2, Y: 2, Justification: 1, Text: "world"},
	}

	d := assertRoundTrip(t, old, new)

	if !d.Signs.Valid {
		t.Fatalf("expected Signs SingleDiff to be valid when the sign list changes")
	}
	if len(d.Signs.New) != 2 || len(d.Signs.Old) != 1 {
		t.Fatalf("unexpected Signs payload: %+v", d.Signs)
	}
}

func TestRoundTrip_StickmanRocketBootsToggle(t *testing.T) {
	old := baseSnapshot()
	old.Stickmen = []snapshot.Player{{RocketBoots: 0}}
	new := baseSnapshot()
	new.Stickmen = []snapshot.Player{{RocketBoots: 1}}

	d := assertRoundTrip(t, old, new)

	if len(d.Stickmen) != 1 {
		t.Fatalf("expected a single word hunk for the toggled field, got %+v", d.Stickmen)
	}
}

func TestRoundTrip_FrameCountAndRngStateAdvance(t *testing.T) {
	old := baseSnapshot()
	new := baseSnapshot()
	new.FrameCount = 1
	new.RngState = snapshot.RngState{5, 6, 7, 8}

	d := assertRoundTrip(t, old, new)

	if !d.FrameCount.Valid || d.FrameCount.New != 1 {
		t.Fatalf("expected FrameCount SingleDiff to carry the new tick count")
	}
	if !d.RngState.Valid || d.RngState.New != new.RngState {
		t.Fatalf("expected RngState SingleDiff to carry the new state")
	}
}

func TestRoundTrip_AuthorsReplaced(t *testing.T) {
	old := baseSnapshot()
	new := baseSnapshot()
	new.Authors = snapshot.AuthorsDoc{"title": "untitled", "remix-of": "12345"}

	d := assertRoundTrip(t, old, new)

	if !d.Authors.Valid {
		t.Fatalf("expected Authors SingleDiff to be valid when a key is added")
	}
}

func TestRoundTrip_MultipleIndependentHunksStayDisjoint(t *testing.T) {
	old := baseSnapshot()
	new := baseSnapshot()
	new.BlockMap[0] = 1
	new.BlockMap[1] = 1
	new.BlockMap[9] = 2
	new.ElecMap[15] = 7

	d := assertRoundTrip(t, old, new)

	bm := d.Uint32Hunks["BlockMap"]
	if len(bm) != 2 {
		t.Fatalf("expected two disjoint hunks in BlockMap, got %+v", bm)
	}
	em := d.Uint32Hunks["ElecMap"]
	if len(em) != 1 || em[0].Offset != 15 {
		t.Fatalf("expected a single trailing hunk in ElecMap, got %+v", em)
	}
}

// TestRoundTrip_ParticleNaNPayloadChangeProducesHunk covers bitwise float
// equality: a Temp field
// that changes from one NaN payload to a differently-payloaded NaN must be
// treated as a real difference, not masked by NaN != NaN folding every NaN
// pair into "equal" or "unequal" by accident.
func TestRoundTrip_ParticleNaNPayloadChangeProducesHunk(t *testing.T) {
	old := baseSnapshot()
	old.Particles = []snapshot.Particle{{Type: 1, Temp: nanPayload(1)}}
	new := baseSnapshot()
	new.Particles = []snapshot.Particle{{Type: 1, Temp: nanPayload(2)}}

	d := assertRoundTrip(t, old, new)

	if len(d.CommonParticles) == 0 {
		t.Fatalf("expected a word hunk capturing the differently-payloaded NaN, got none")
	}
}

// TestRoundTrip_ParticleSameNaNPayloadProducesNoSpuriousHunk is the inverse
// of the above: the same NaN payload on both sides must not be mistaken for
// a difference just because NaN != NaN under Go's native float comparison.
func TestRoundTrip_ParticleSameNaNPayloadProducesNoSpuriousHunk(t *testing.T) {
	old := baseSnapshot()
	old.Particles = []snapshot.Particle{{Type: 1, Temp: nanPayload(7), X: 1}}
	new := baseSnapshot()
	new.Particles = []snapshot.Particle{{Type: 1, Temp: nanPayload(7), X: 2}}

	d := assertRoundTrip(t, old, new)

	if len(d.CommonParticles) != 1 {
		t.Fatalf("expected exactly one word hunk (for X), the unchanged NaN Temp must not add a spurious hunk: got %+v", d.CommonParticles)
	}
}

func TestRoundTrip_DeterministicAcrossRebuilds(t *testing.T) {
	old := baseSnapshot()
	new := baseSnapshot()
	new.AirPressure[3] = 1
	new.Particles = []snapshot.Particle{{Type: 9}}

	d1 := FromSnapshots(old, new)
	d2 := FromSnapshots(old, new)

	if d1.Forward(old).Digest() != d2.Forward(old).Digest() {
		t.Fatalf("rebuilding the same delta twice should be deterministic")
	}
}
