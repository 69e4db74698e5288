// Package particle holds the particle workloads that run on framejob
// workers and the coordinator: the interleaved record layout, a velocity
// Integrator, chunking helpers and the stable distance Sorter.
//
// A particle record is Stride floats laid out as
//
//	[x y z id vx vy vz life]
//
// The Sorter only depends on the id at offset 3 and accepts any stride
// of at least 4.
package particle
