package delta

import "timetravel/internal/snapshot"

// The static-size grid fields (anything that is just "a flat array of W*H
// or CHANNELS items, diffed cell-by-cell") are the majority of Snapshot's
// fields and are the textbook case for HunkVector. Rather than hand-write a
// BuildHunkVector/Apply call pair for each one in FromSnapshots, Forward,
// and Restore (three places that must be kept in sync, per SPEC_FULL.md's
// central-schema design note), this file expresses them as one list of
// field descriptors per element type and drives all three operations from
// it. Particles, Signs, Authors, FrameCount, and RngState still get
// special-cased handling elsewhere because their split boundary (Particles)
// or diff strategy (SingleDiff) doesn't fit this uniform shape.

type float32Field struct {
	name string
	get  func(s *snapshot.Snapshot) *[]float32
}

type uint32Field struct {
	name string
	get  func(s *snapshot.Snapshot) *[]uint32
}

type uint8Field struct {
	name string
	get  func(s *snapshot.Snapshot) *[]uint8
}

var float32Fields = []float32Field{
	{"AirPressure", func(s *snapshot.Snapshot) *[]float32 { return &s.AirPressure }},
	{"AirVelocityX", func(s *snapshot.Snapshot) *[]float32 { return &s.AirVelocityX }},
	{"AirVelocityY", func(s *snapshot.Snapshot) *[]float32 { return &s.AirVelocityY }},
	{"AmbientHeat", func(s *snapshot.Snapshot) *[]float32 { return &s.AmbientHeat }},
	{"GravMass", func(s *snapshot.Snapshot) *[]float32 { return &s.GravMass }},
	{"GravForceX", func(s *snapshot.Snapshot) *[]float32 { return &s.GravForceX }},
	{"GravForceY", func(s *snapshot.Snapshot) *[]float32 { return &s.GravForceY }},
	{"FanVelocityX", func(s *snapshot.Snapshot) *[]float32 { return &s.FanVelocityX }},
	{"FanVelocityY", func(s *snapshot.Snapshot) *[]float32 { return &s.FanVelocityY }},
}

var uint32Fields = []uint32Field{
	{"GravMask", func(s *snapshot.Snapshot) *[]uint32 { return &s.GravMask }},
	{"BlockMap", func(s *snapshot.Snapshot) *[]uint32 { return &s.BlockMap }},
	{"ElecMap", func(s *snapshot.Snapshot) *[]uint32 { return &s.ElecMap }},
	{"WirelessData", func(s *snapshot.Snapshot) *[]uint32 { return &s.WirelessData }},
}

var uint8Fields = []uint8Field{
	{"BlockAir", func(s *snapshot.Snapshot) *[]uint8 { return &s.BlockAir }},
	{"BlockAirH", func(s *snapshot.Snapshot) *[]uint8 { return &s.BlockAirH }},
}
