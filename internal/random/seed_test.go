package random

import "testing"

func TestNewRandReplaysSeed(t *testing.T) {
	seed := int64(42)
	a, used, err := NewRand(&seed)
	if err != nil {
		t.Fatalf("NewRand() error = %v", err)
	}
	if used != seed {
		t.Errorf("NewRand() seed = %d, want %d", used, seed)
	}
	b, _, _ := NewRand(&seed)

	for i := 0; i < 10; i++ {
		if x, y := a.Int63(), b.Int63(); x != y {
			t.Fatalf("draw %d differs: %d != %d", i, x, y)
		}
	}
}

func TestNewRandFreshSeed(t *testing.T) {
	_, first, err := NewRand(nil)
	if err != nil {
		t.Fatalf("NewRand() error = %v", err)
	}
	_, second, err := NewRand(nil)
	if err != nil {
		t.Fatalf("NewRand() error = %v", err)
	}
	if first == second {
		t.Errorf("expected distinct fresh seeds, got %d twice", first)
	}
}
