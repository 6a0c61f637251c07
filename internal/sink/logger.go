package sink

import (
	"github.com/rs/zerolog"

	"github.com/dmorgan-nz/trapmon/internal/protocol"
)

// Logger mirrors dispatch outcomes into structured log events.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) HandleClassification(m protocol.Classification) {
	l.log.Info().
		Str("type", m.MessageType()).
		Str("species", m.Species.String()).
		Str("confidence", m.Confidence).
		Msg("classification received")
}

func (l *Logger) HandleGeneric(m protocol.Generic) {
	l.log.Debug().
		Str("type", m.Type).
		Str("data", protocol.FormatValue(m.Raw)).
		Msg("unrecognized message type")
}

func (l *Logger) HandleMalformed(raw string) {
	l.log.Warn().
		Str("raw", raw).
		Msg("malformed frame")
}
