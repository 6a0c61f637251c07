package trigger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmorgan-nz/trapmon/internal/protocol"
)

var testRules = Rules{
	Trap:          protocol.Species{"possum": 0.7},
	Protect:       protocol.Species{"kiwi": 0.4},
	TrapWindow:    30 * time.Second,
	ProtectWindow: time.Minute,
}

func TestShouldTriggerTrapSpecies(t *testing.T) {
	if !testRules.ShouldTrigger(protocol.Species{"possum": 0.8, "bird": 0.4}) {
		t.Fatalf("expected possum at 0.8 to trigger")
	}
}

func TestShouldTriggerSuppressedByProtectSpecies(t *testing.T) {
	if testRules.ShouldTrigger(protocol.Species{"possum": 0.8, "kiwi": 0.4}) {
		t.Fatalf("expected kiwi sighting to suppress trigger")
	}
}

func TestShouldTriggerBelowThreshold(t *testing.T) {
	if testRules.ShouldTrigger(protocol.Species{"possum": 0.5}) {
		t.Fatalf("expected possum below threshold not to trigger")
	}
}

func TestEvaluatorActivatesWithinTrapWindow(t *testing.T) {
	e := NewEvaluator(testRules, zerolog.Nop())
	start := time.Now()

	e.Observe(protocol.Species{"possum": 0.9}, start)

	if !e.Active(start.Add(time.Second)) {
		t.Fatalf("expected trap active inside trap window")
	}
	if e.Active(start.Add(31 * time.Second)) {
		t.Fatalf("expected trap inactive once trap window elapsed")
	}
}

func TestEvaluatorProtectSightingSuppresses(t *testing.T) {
	e := NewEvaluator(testRules, zerolog.Nop())
	start := time.Now()

	e.Observe(protocol.Species{"kiwi": 0.5}, start)
	e.Observe(protocol.Species{"possum": 0.9}, start.Add(time.Second))

	if e.Active(start.Add(2 * time.Second)) {
		t.Fatalf("expected trap suppressed inside protect window")
	}

	// Protect window elapsed, fresh trap sighting reactivates.
	later := start.Add(2 * time.Minute)
	e.Observe(protocol.Species{"possum": 0.9}, later)
	if !e.Active(later.Add(time.Second)) {
		t.Fatalf("expected trap active after protect window elapsed")
	}
}

func TestEvaluatorIgnoresUnlistedSpecies(t *testing.T) {
	e := NewEvaluator(testRules, zerolog.Nop())
	start := time.Now()

	e.Observe(protocol.Species{"hedgehog": 0.99}, start)

	if e.Active(start.Add(time.Second)) {
		t.Fatalf("expected unlisted species to leave trap inactive")
	}
}
