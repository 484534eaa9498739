package snapshot

import "unsafe"

// Particle is a packed per-particle record mirrored from the simulation's
// particle table. Every field is exactly 4 bytes wide so the whole struct
// can be reinterpreted as a stream of uint32 words by the delta package;
// see internal/delta/words.go.
type Particle struct {
	Type    uint32
	X       float32
	Y       float32
	VX      float32
	VY      float32
	Temp    float32
	Ctype   uint32
	Life    int32
	Tmp     int32
	Tmp2    int32
	Dcolour uint32
	Flags   uint32
}

// ParticleWords is the number of uint32 words a single Particle occupies.
const ParticleWords = int(unsafe.Sizeof(Particle{})) / 4

func init() {
	if unsafe.Sizeof(Particle{})%4 != 0 {
		panic("snapshot: Particle size is not a multiple of the 4-byte diff word size")
	}
}

// Player is a packed per-stickman record, reinterpreted the same way as
// Particle. Legs and Accs together describe the ragdoll pose.
type Player struct {
	Legs [16]float32
	Accs [8]float32

	Comm        uint32
	Pcomm       uint32
	Elem        uint32
	Spwn        uint32
	Frames      uint32
	RocketBoots uint32
	Fan         uint32
	SpawnID     uint32
}

// PlayerWords is the number of uint32 words a single Player occupies.
const PlayerWords = int(unsafe.Sizeof(Player{})) / 4

func init() {
	if unsafe.Sizeof(Player{})%4 != 0 {
		panic("snapshot: Player size is not a multiple of the 4-byte diff word size")
	}
}
