package sink

import (
	"bytes"
	"testing"

	"github.com/dmorgan-nz/trapmon/internal/protocol"
)

func TestConsoleClassificationOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.HandleClassification(protocol.Classification{
		Species:    protocol.Species{"possum": 0.9},
		Confidence: "0.9",
	})

	want := "Type: classification\n" +
		"Species: {possum: 0.9}\n" +
		"Confidence: 0.9\n" +
		"----------------------------------------\n"
	if buf.String() != want {
		t.Fatalf("console output mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestConsoleGenericOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.HandleGeneric(protocol.Generic{
		Type: "heartbeat",
		Raw:  map[string]any{"type": "heartbeat", "data": map[string]any{}},
	})

	want := "Unknown message type\n" +
		"Type: heartbeat\n" +
		"Data: {data: {}, type: heartbeat}\n" +
		"----------------------------------------\n"
	if buf.String() != want {
		t.Fatalf("console output mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestConsoleMalformedOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.HandleMalformed("not json")

	if buf.String() != "Invalid JSON received: not json\n" {
		t.Fatalf("unexpected malformed output: %q", buf.String())
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewConsole(&a), NewConsole(&b)}

	m.HandleMalformed("junk")

	if a.String() != b.String() || a.String() == "" {
		t.Fatalf("fan-out mismatch: %q vs %q", a.String(), b.String())
	}
}
