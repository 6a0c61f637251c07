package trigger

import (
	"time"

	"github.com/dmorgan-nz/trapmon/internal/protocol"
)

// HandleClassification lets an Evaluator sit directly in the dispatch
// fan-out as a sink.
func (e *Evaluator) HandleClassification(m protocol.Classification) {
	e.Observe(m.Species, time.Now())
}

func (e *Evaluator) HandleGeneric(protocol.Generic) {}

func (e *Evaluator) HandleMalformed(string) {}
