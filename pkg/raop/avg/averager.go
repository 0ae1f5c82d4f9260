package avg

import (
	"errors"
	"sync"
)

// ErrEmpty is the panic value raised by Get when no sample has been
// added yet. GetOK reports the same condition with a false result.
var ErrEmpty = errors.New("avg: averager has no samples")

// Averager is an exponentially weighted running mean: Add accumulates
// value*weight into a running sum and weight into a running total, and
// Get divides one by the other. Weights are never normalized or
// decayed — callers control the effective memory of the average by
// choosing how weight falls off with sample quality.
type Averager struct {
	mu     sync.Mutex
	weight float64
	sum    float64
}

// Add folds value into the running average with the given weight.
func (a *Averager) Add(value, weight float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sum += value * weight
	a.weight += weight
}

// IsEmpty reports whether no sample has been added yet.
func (a *Averager) IsEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.weight == 0
}

// GetOK returns the current weighted mean and true, or (0, false) if
// no sample has been added yet.
func (a *Averager) GetOK() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.weight == 0 {
		return 0, false
	}
	return a.sum / a.weight, true
}

// Get returns the current weighted mean. It panics with ErrEmpty if
// called before any sample has been added — callers that cannot
// guarantee a prior Add must use GetOK or IsEmpty instead.
func (a *Averager) Get() float64 {
	v, ok := a.GetOK()
	if !ok {
		panic(ErrEmpty)
	}
	return v
}
