package delta

import "timetravel/internal/snapshot"

// Forward reconstructs the newer Snapshot from the older one the delta was
// built against. It clones old and then overwrites every field with the
// "new" side of its diff.
func (d *SnapshotDelta) Forward(old *snapshot.Snapshot) *snapshot.Snapshot {
	return d.apply(old, false)
}

// Restore reconstructs the older Snapshot from the newer one the delta was
// built against. It clones new and then overwrites every field with the
// "old" side of its diff.
func (d *SnapshotDelta) Restore(new *snapshot.Snapshot) *snapshot.Snapshot {
	return d.apply(new, true)
}

// apply implements both Forward (useOld=false, applied to the old base) and
// Restore (useOld=true, applied to the new base): the two differ only in
// which side of each Diff/SingleDiff gets written, which is exactly the
// useOld switch threaded through HunkVector.Apply and SingleDiff.Apply.
func (d *SnapshotDelta) apply(base *snapshot.Snapshot, useOld bool) *snapshot.Snapshot {
	out := base.Clone()

	for _, f := range float32Fields {
		d.Float32Hunks[f.name].Apply(*f.get(out), useOld)
	}
	for _, f := range uint32Fields {
		d.Uint32Hunks[f.name].Apply(*f.get(out), useOld)
	}
	for _, f := range uint8Fields {
		d.Uint8Hunks[f.name].Apply(*f.get(out), useOld)
	}

	applyParticleWordHunks(d.PortalParticles, out.PortalParticles, useOld)
	applyPlayerWordHunks(d.Stickmen, out.Stickmen, useOld)

	d.Signs.Apply(&out.Signs, useOld)
	d.Authors.Apply(&out.Authors, useOld)
	d.FrameCount.Apply(&out.FrameCount, useOld)
	d.RngState.Apply(&out.RngState, useOld)

	d.applyParticles(out, useOld)

	return out
}

// applyParticles applies CommonParticles in place and then resizes
// out.Particles to splice in the appropriate tail. Each direction recovers
// "commonSize" by subtracting its base's own side's extras (ExtraPartsOld for
// Forward, ExtraPartsNew for Restore) from the base's length, and then
// appends the opposite side's extras. The base always holds at least
// commonSize records, so the common hunks are applied before the resize.
func (d *SnapshotDelta) applyParticles(out *snapshot.Snapshot, useOld bool) {
	if useOld {
		// Restore: out currently holds a clone of "new".
		commonSize := len(out.Particles) - len(d.ExtraPartsNew)
		applyParticleWordHunks(d.CommonParticles, out.Particles, true)
		resized := make([]snapshot.Particle, commonSize+len(d.ExtraPartsOld))
		copy(resized, out.Particles[:commonSize])
		copy(resized[commonSize:], d.ExtraPartsOld)
		out.Particles = resized
		return
	}

	// Forward: out currently holds a clone of "old".
	commonSize := len(out.Particles) - len(d.ExtraPartsOld)
	applyParticleWordHunks(d.CommonParticles, out.Particles, false)
	resized := make([]snapshot.Particle, commonSize+len(d.ExtraPartsNew))
	copy(resized, out.Particles[:commonSize])
	copy(resized[commonSize:], d.ExtraPartsNew)
	out.Particles = resized
}
