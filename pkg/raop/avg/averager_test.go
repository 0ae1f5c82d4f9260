package avg

import "testing"

func TestEmptyAverager(t *testing.T) {
	a := &Averager{}
	if !a.IsEmpty() {
		t.Fatal("expected new averager to be empty")
	}
	if _, ok := a.GetOK(); ok {
		t.Fatal("expected GetOK to fail on empty averager")
	}
}

func TestGetPanicsWhenEmpty(t *testing.T) {
	a := &Averager{}
	defer func() {
		if recover() == nil {
			t.Fatal("expected Get to panic on empty averager")
		}
	}()
	a.Get()
}

func TestSingleAddReturnsValue(t *testing.T) {
	a := &Averager{}
	a.Add(0.5, 3.0)

	if got := a.Get(); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}

	// Weight magnitude shouldn't matter for a single sample.
	b := &Averager{}
	b.Add(0.5, 1e9)
	if got := b.Get(); got != 0.5 {
		t.Errorf("expected 0.5 regardless of weight, got %v", got)
	}
}

func TestTwoAddsWeightedMean(t *testing.T) {
	a := &Averager{}
	a.Add(1.0, 2.0)
	a.Add(3.0, 1.0)

	want := (1.0*2.0 + 3.0*1.0) / (2.0 + 1.0)
	if got := a.Get(); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if a.IsEmpty() {
		t.Error("expected non-empty after two adds")
	}
}

func TestOldSamplesPersist(t *testing.T) {
	// Weights are never normalized: a strong early sample keeps its
	// mass even after many weak later samples.
	a := &Averager{}
	a.Add(10.0, 100.0)
	for i := 0; i < 50; i++ {
		a.Add(0.0, 0.01)
	}

	got := a.Get()
	if got < 9.0 {
		t.Errorf("expected old high-weight sample to dominate, got %v", got)
	}
}
