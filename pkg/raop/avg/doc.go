// Package avg provides a weighted running average used to smooth the
// remote clock offset measured by repeated timing probes.
//
// Weights are never normalized, so older samples keep a constant mass
// in the average rather than decaying away — a long-memory estimator
// that settles quickly and then resists transient outliers.
package avg
