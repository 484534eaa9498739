// Package snapshot defines the data model the delta engine operates on: an
// immutable capture of simulator state at one tick. The simulation engine
// that actually produces these values is an external collaborator; this
// package only fixes the field list and the packed-record layout the delta
// engine depends on.
package snapshot

// Sign mirrors a single in-world sign: a placed piece of text with a
// justification mode, keyed by position.
type Sign struct {
	X             int32
	Y             int32
	Justification uint8
	Text          string
}

// AuthorsDoc is the structured authorship metadata attached to a save. It is
// treated as an opaque, whole-document value by the delta engine: changes to
// any key replace the entire document via a SingleDiff rather than being
// diffed key-by-key.
type AuthorsDoc map[string]string

// Clone returns a deep copy of the document.
func (a AuthorsDoc) Clone() AuthorsDoc {
	if a == nil {
		return nil
	}
	out := make(AuthorsDoc, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Equal reports whether two AuthorsDocs carry the same keys and values.
func (a AuthorsDoc) Equal(b AuthorsDoc) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || bv != v {
			return false
		}
	}
	return true
}

// RngState is the PRNG's internal state, carried as an opaque fixed-size
// tuple of integers rather than diffed field-by-field: it changes on almost
// every tick and has no internal structure worth exploiting.
type RngState [4]uint64

// Snapshot is an immutable capture of simulator state at one tick. Static-size
// fields (the grids, WirelessData, PortalParticles, Stickmen) must have the
// same length in every Snapshot produced by one simulator; Particles, Signs,
// and Authors may vary in size between Snapshots. See SPEC_FULL.md section 3.
type Snapshot struct {
	// Static-size float grids, W*H cells in row-major order.
	AirPressure  []float32
	AirVelocityX []float32
	AirVelocityY []float32
	AmbientHeat  []float32
	GravMass     []float32
	GravForceX   []float32
	GravForceY   []float32
	FanVelocityX []float32
	FanVelocityY []float32

	// Static-size integer grids.
	GravMask []uint32
	BlockMap []uint32
	ElecMap  []uint32
	BlockAir []uint8
	BlockAirH []uint8

	// Static-size tables.
	WirelessData    []uint32
	PortalParticles []Particle
	Stickmen        []Player

	// Dynamic-size fields.
	Particles []Particle
	Signs     []Sign
	Authors   AuthorsDoc

	// Singleton scalar fields, treated as dynamic-size single values.
	FrameCount uint64
	RngState   RngState
}

// Clone returns a deep copy of the Snapshot: every slice field gets a fresh
// backing array so mutating the copy never aliases the original. Forward and
// Restore both start from a Clone of their base Snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.AirPressure = append([]float32(nil), s.AirPressure...)
	out.AirVelocityX = append([]float32(nil), s.AirVelocityX...)
	out.AirVelocityY = append([]float32(nil), s.AirVelocityY...)
	out.AmbientHeat = append([]float32(nil), s.AmbientHeat...)
	out.GravMass = append([]float32(nil), s.GravMass...)
	out.GravForceX = append([]float32(nil), s.GravForceX...)
	out.GravForceY = append([]float32(nil), s.GravForceY...)
	out.FanVelocityX = append([]float32(nil), s.FanVelocityX...)
	out.FanVelocityY = append([]float32(nil), s.FanVelocityY...)
	out.GravMask = append([]uint32(nil), s.GravMask...)
	out.BlockMap = append([]uint32(nil), s.BlockMap...)
	out.ElecMap = append([]uint32(nil), s.ElecMap...)
	out.BlockAir = append([]uint8(nil), s.BlockAir...)
	out.BlockAirH = append([]uint8(nil), s.BlockAirH...)
	out.WirelessData = append([]uint32(nil), s.WirelessData...)
	out.PortalParticles = append([]Particle(nil), s.PortalParticles...)
	out.Stickmen = append([]Player(nil), s.Stickmen...)
	out.Particles = append([]Particle(nil), s.Particles...)
	out.Signs = append([]Sign(nil), s.Signs...)
	out.Authors = s.Authors.Clone()
	return &out
}

// Equal reports whether two Snapshots hold bitwise-identical state. It is
// used by tests to check round-trip properties; the delta engine itself
// never calls this (it only ever compares fields it is actively diffing).
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	return equalFloat32s(s.AirPressure, o.AirPressure) &&
		equalFloat32s(s.AirVelocityX, o.AirVelocityX) &&
		equalFloat32s(s.AirVelocityY, o.AirVelocityY) &&
		equalFloat32s(s.AmbientHeat, o.AmbientHeat) &&
		equalFloat32s(s.GravMass, o.GravMass) &&
		equalFloat32s(s.GravForceX, o.GravForceX) &&
		equalFloat32s(s.GravForceY, o.GravForceY) &&
		equalFloat32s(s.FanVelocityX, o.FanVelocityX) &&
		equalFloat32s(s.FanVelocityY, o.FanVelocityY) &&
		equalUint32s(s.GravMask, o.GravMask) &&
		equalUint32s(s.BlockMap, o.BlockMap) &&
		equalUint32s(s.ElecMap, o.ElecMap) &&
		equalUint8s(s.BlockAir, o.BlockAir) &&
		equalUint8s(s.BlockAirH, o.BlockAirH) &&
		equalUint32s(s.WirelessData, o.WirelessData) &&
		equalParticles(s.PortalParticles, o.PortalParticles) &&
		equalPlayers(s.Stickmen, o.Stickmen) &&
		equalParticles(s.Particles, o.Particles) &&
		equalSigns(s.Signs, o.Signs) &&
		s.Authors.Equal(o.Authors) &&
		s.FrameCount == o.FrameCount &&
		s.RngState == o.RngState
}

func equalFloat32s(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !FloatBitsEqual32(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalUint32s(a, b []uint32) bool {
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

func equalUint8s(a, b []uint8) bool {
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

// equalParticles compares field by field rather than with Go's struct !=,
// since Particle carries float32 fields (X, Y, VX, VY, Temp): native ==
// treats +0.0 and -0.0 as equal and any two NaNs as unequal, both wrong for
// round-trip verification (see FloatBitsEqual32).
func equalParticles(a, b []Particle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !particleEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func particleEqual(a, b Particle) bool {
	return a.Type == b.Type &&
		FloatBitsEqual32(a.X, b.X) &&
		FloatBitsEqual32(a.Y, b.Y) &&
		FloatBitsEqual32(a.VX, b.VX) &&
		FloatBitsEqual32(a.VY, b.VY) &&
		FloatBitsEqual32(a.Temp, b.Temp) &&
		a.Ctype == b.Ctype &&
		a.Life == b.Life &&
		a.Tmp == b.Tmp &&
		a.Tmp2 == b.Tmp2 &&
		a.Dcolour == b.Dcolour &&
		a.Flags == b.Flags
}

// equalPlayers is equalParticles' Player counterpart: Legs and Accs are
// float32 arrays and get the same bitwise treatment.
func equalPlayers(a, b []Player) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !playerEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func playerEqual(a, b Player) bool {
	for i := range a.Legs {
		if !FloatBitsEqual32(a.Legs[i], b.Legs[i]) {
			return false
		}
	}
	for i := range a.Accs {
		if !FloatBitsEqual32(a.Accs[i], b.Accs[i]) {
			return false
		}
	}
	return a.Comm == b.Comm &&
		a.Pcomm == b.Pcomm &&
		a.Elem == b.Elem &&
		a.Spwn == b.Spwn &&
		a.Frames == b.Frames &&
		a.RocketBoots == b.RocketBoots &&
		a.Fan == b.Fan &&
		a.SpawnID == b.SpawnID
}

func equalSigns(a, b []Sign) bool {
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
