package delta

import (
	"unsafe"

	"timetravel/internal/snapshot"
)

// particleWords views a Particle slice's backing array as a stream of
// uint32 words, exactly the way the original reinterpret_cast<uint32_t*>
// trick does: the record size is checked to be a multiple of 4 bytes at
// package init in the snapshot package (see snapshot.Particle's init), and
// Go's zero-value semantics guarantee any struct padding holes are
// deterministically zero for freshly-constructed values, so the word view
// is stable across runs. This sidesteps per-field diffing entirely: a
// Particle that differs only in, say, Temp produces a single-word hunk at
// that field's word offset instead of a bespoke comparison routine.
func particleWords(ps []snapshot.Particle) []uint32 {
	if len(ps) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&ps[0])), len(ps)*snapshot.ParticleWords)
}

// playerWords is the Player counterpart of particleWords.
func playerWords(ps []snapshot.Player) []uint32 {
	if len(ps) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&ps[0])), len(ps)*snapshot.PlayerWords)
}

func wordsEqual(a, b uint32) bool { return a == b }

// buildParticleWordHunks diffs the first n records of old and new (n may be
// shorter than either slice, as it is for the common-particles split) by
// reinterpreting both as word streams.
func buildParticleWordHunks(old, new []snapshot.Particle, n int) HunkVector[uint32] {
	ow := particleWords(old)
	nw := particleWords(new)
	return buildHunkVector(ow, nw, n*snapshot.ParticleWords, wordsEqual)
}

func buildPlayerWordHunks(old, new []snapshot.Player) HunkVector[uint32] {
	ow := playerWords(old)
	nw := playerWords(new)
	n := len(old)
	if len(new) < n {
		n = len(new)
	}
	return buildHunkVector(ow, nw, n*snapshot.PlayerWords, wordsEqual)
}

// applyParticleWordHunks applies hv onto the first len(target) records of
// target, reinterpreted as words. target must already be sized correctly by
// the caller (see apply.go's handling of the Particles length change).
func applyParticleWordHunks(hv HunkVector[uint32], target []snapshot.Particle, useOld bool) {
	hv.Apply(particleWords(target), useOld)
}

func applyPlayerWordHunks(hv HunkVector[uint32], target []snapshot.Player, useOld bool) {
	hv.Apply(playerWords(target), useOld)
}
