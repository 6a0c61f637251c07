package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmorgan-nz/trapmon/internal/protocol"
)

var separator = strings.Repeat("-", 40)

// Console prints messages in the classifier board's documented console
// format: four lines per recognized or unrecognized message, one line
// per malformed frame.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) HandleClassification(m protocol.Classification) {
	fmt.Fprintf(c.w, "Type: %s\n", m.MessageType())
	fmt.Fprintf(c.w, "Species: %s\n", m.Species)
	fmt.Fprintf(c.w, "Confidence: %s\n", m.Confidence)
	fmt.Fprintln(c.w, separator)
}

func (c *Console) HandleGeneric(m protocol.Generic) {
	fmt.Fprintln(c.w, "Unknown message type")
	fmt.Fprintf(c.w, "Type: %s\n", m.Type)
	fmt.Fprintf(c.w, "Data: %s\n", protocol.FormatValue(m.Raw))
	fmt.Fprintln(c.w, separator)
}

func (c *Console) HandleMalformed(raw string) {
	fmt.Fprintf(c.w, "Invalid JSON received: %s\n", raw)
}
