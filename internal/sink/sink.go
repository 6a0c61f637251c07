// Package sink routes decoded messages to their consumers: the console
// printer, the structured log, and the trap trigger evaluator.
package sink

import "github.com/dmorgan-nz/trapmon/internal/protocol"

// Sink receives every dispatch outcome for one frame. Implementations
// must not block the read loop and must not panic on any input.
type Sink interface {
	HandleClassification(protocol.Classification)
	HandleGeneric(protocol.Generic)
	HandleMalformed(raw string)
}

// Multi fans one dispatch out to every sink in order.
type Multi []Sink

func (m Multi) HandleClassification(c protocol.Classification) {
	for _, s := range m {
		s.HandleClassification(c)
	}
}

func (m Multi) HandleGeneric(g protocol.Generic) {
	for _, s := range m {
		s.HandleGeneric(g)
	}
}

func (m Multi) HandleMalformed(raw string) {
	for _, s := range m {
		s.HandleMalformed(raw)
	}
}
