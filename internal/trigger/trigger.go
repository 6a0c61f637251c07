// Package trigger decides when classifications should activate the
// trap: a trap-listed species sighted recently, with no protect-listed
// species sighted inside its suppression window.
package trigger

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmorgan-nz/trapmon/internal/observability"
	"github.com/dmorgan-nz/trapmon/internal/protocol"
)

// Rules holds per-species confidence thresholds and the sighting
// windows. A classification of (possum: 0.8, bird: 0.4) against
// Trap{possum: 0.7} triggers; adding Protect{kiwi: 0.4} suppresses it
// whenever a kiwi at or above 0.4 was sighted within ProtectWindow.
type Rules struct {
	Trap    protocol.Species
	Protect protocol.Species

	// TrapWindow is how long a trap sighting keeps the trap live;
	// ProtectWindow is how long a protect sighting suppresses it.
	TrapWindow    time.Duration
	ProtectWindow time.Duration
}

func DefaultRules() Rules {
	return Rules{
		TrapWindow:    30 * time.Second,
		ProtectWindow: time.Minute,
	}
}

// ShouldTrigger reports whether a single classification, viewed in
// isolation, asks for the trap: some species meets its trap threshold
// and none meets a protect threshold.
func (r Rules) ShouldTrigger(s protocol.Species) bool {
	return s.Meets(r.Trap) && !s.Meets(r.Protect)
}

// Evaluator folds classifications over time into a single trap-active
// state. Callers pass explicit timestamps so the window logic is
// deterministic under test.
type Evaluator struct {
	mu    sync.Mutex
	rules Rules
	log   zerolog.Logger

	lastTrap    time.Time
	lastProtect time.Time
	active      bool
}

func NewEvaluator(rules Rules, log zerolog.Logger) *Evaluator {
	if rules.TrapWindow <= 0 {
		rules.TrapWindow = DefaultRules().TrapWindow
	}
	if rules.ProtectWindow <= 0 {
		rules.ProtectWindow = DefaultRules().ProtectWindow
	}
	return &Evaluator{rules: rules, log: log}
}

// Observe records one classification sighting. Protect sightings win
// over trap sightings from the same classification.
func (e *Evaluator) Observe(s protocol.Species, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case s.Meets(e.rules.Protect):
		e.lastProtect = now
	case s.Meets(e.rules.Trap):
		e.lastTrap = now
	}
	e.refresh(now)
}

// Active reports whether the trap should currently be live.
func (e *Evaluator) Active(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(now)
	return e.active
}

func (e *Evaluator) refresh(now time.Time) {
	active := e.lastProtect.Add(e.rules.ProtectWindow).Before(now) &&
		e.lastTrap.Add(e.rules.TrapWindow).After(now)
	if active == e.active {
		return
	}
	e.active = active
	observability.RecordTrapState(active)
	if active {
		e.log.Info().Time("since", e.lastTrap).Msg("activating trap")
	} else {
		e.log.Info().Msg("deactivating trap")
	}
}
