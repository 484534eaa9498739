package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"
	"unsafe"
)

// Digest returns a stable hex-encoded SHA-256 digest of the Snapshot's
// content. It exists for the ambient layer (history checkpoints, test
// assertions) to cheaply confirm that a round trip through the delta engine
// reproduced the exact state; the core engine itself never calls this.
func (s *Snapshot) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestFloat32s(h, &tmp, s.AirPressure)
	digestFloat32s(h, &tmp, s.AirVelocityX)
	digestFloat32s(h, &tmp, s.AirVelocityY)
	digestFloat32s(h, &tmp, s.AmbientHeat)
	digestFloat32s(h, &tmp, s.GravMass)
	digestFloat32s(h, &tmp, s.GravForceX)
	digestFloat32s(h, &tmp, s.GravForceY)
	digestFloat32s(h, &tmp, s.FanVelocityX)
	digestFloat32s(h, &tmp, s.FanVelocityY)
	digestUint32s(h, &tmp, s.GravMask)
	digestUint32s(h, &tmp, s.BlockMap)
	digestUint32s(h, &tmp, s.ElecMap)
	digestUint8s(h, &tmp, s.BlockAir)
	digestUint8s(h, &tmp, s.BlockAirH)
	digestUint32s(h, &tmp, s.WirelessData)
	digestParticles(h, &tmp, s.PortalParticles)
	digestPlayers(h, &tmp, s.Stickmen)
	digestParticles(h, &tmp, s.Particles)
	digestSigns(h, &tmp, s.Signs)
	digestAuthors(h, &tmp, s.Authors)

	binary.LittleEndian.PutUint64(tmp[:], s.FrameCount)
	h.Write(tmp[:])
	for _, v := range s.RngState {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestFloat32s(h hash.Hash, tmp *[8]byte, vs []float32) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(vs)))
	h.Write(tmp[:])
	for _, v := range vs {
		binary.LittleEndian.PutUint32(tmp[:4], math.Float32bits(v))
		h.Write(tmp[:4])
	}
}

func digestUint32s(h hash.Hash, tmp *[8]byte, vs []uint32) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(vs)))
	h.Write(tmp[:])
	for _, v := range vs {
		binary.LittleEndian.PutUint32(tmp[:4], v)
		h.Write(tmp[:4])
	}
}

func digestUint8s(h hash.Hash, tmp *[8]byte, vs []uint8) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(vs)))
	h.Write(tmp[:])
	h.Write(vs)
}

func particleWordsView(p Particle) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&p)), ParticleWords)
}

func playerWordsView(p Player) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&p)), PlayerWords)
}

func digestParticles(h hash.Hash, tmp *[8]byte, ps []Particle) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(ps)))
	h.Write(tmp[:])
	for _, p := range ps {
		digestUint32s(h, tmp, particleWordsView(p))
	}
}

func digestPlayers(h hash.Hash, tmp *[8]byte, ps []Player) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(ps)))
	h.Write(tmp[:])
	for _, p := range ps {
		digestUint32s(h, tmp, playerWordsView(p))
	}
}

func digestSigns(h hash.Hash, tmp *[8]byte, signs []Sign) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(signs)))
	h.Write(tmp[:])
	for _, sgn := range signs {
		binary.LittleEndian.PutUint32(tmp[:4], uint32(sgn.X))
		h.Write(tmp[:4])
		binary.LittleEndian.PutUint32(tmp[:4], uint32(sgn.Y))
		h.Write(tmp[:4])
		h.Write([]byte{sgn.Justification})
		h.Write([]byte(sgn.Text))
	}
}

func digestAuthors(h hash.Hash, tmp *[8]byte, a AuthorsDoc) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(a)))
	h.Write(tmp[:])
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(a[k]))
	}
}
