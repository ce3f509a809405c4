/*
Package slicedpme partitions the long-range electrostatics of a periodic
particle system by particle subset, so that every subset pair (a "slice")
can be scaled independently by a named external parameter. The heavy part
is a sliced particle-mesh Ewald engine: one batched forward and one batched
inverse transform of S per-subset charge grids yield all S*(S+1)/2 slice
energies, keeping the O(N log N) cost of ordinary PME.

The declaration API lives in lib/force, evaluation in lib/context, and the
interchangeable compute backends in lib/kernel. See lib/state for the
persisted declaration format and lib/config for INI-style settings files.
*/
package slicedpme
