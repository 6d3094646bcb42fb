// Package workers sizes worker pools from the CPUs actually available
// to the process.
//
// runtime.NumCPU reports the host machine's core count even when a
// container limit caps the process at a fraction of it; GOMAXPROCS
// tracks the real limit on Go 1.19+, so pool sizes derived from it do
// not oversubscribe constrained environments. A floor of two workers
// keeps tile rendering responsive on single-core machines.
//
// The POSTER_WORKERS environment variable overrides the calculation.
package workers
