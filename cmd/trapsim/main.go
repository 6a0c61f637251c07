// trapsim writes test classification messages to a serial device (or
// stdout) in the classifier board's wire format, for exercising a
// trapmon listener without real hardware.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmorgan-nz/trapmon/internal/serialport"
)

type wireMessage struct {
	Type string   `json:"type"`
	Data wireData `json:"data"`
}

type wireData struct {
	Species    map[string]float64 `json:"Species"`
	Confidence float64            `json:"Confidence"`
}

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device to write to")
	baud := flag.Int("baud", 115200, "baud rate")
	animal := flag.String("animal", "possum", "animal to classify")
	confidence := flag.Float64("confidence", 0.9, "classification confidence")
	count := flag.Int("count", 1, "number of messages to send")
	interval := flag.Duration("interval", time.Second, "delay between messages")
	stdout := flag.Bool("stdout", false, "write to stdout instead of the serial device")
	flag.Parse()

	if err := run(*device, *baud, *animal, *confidence, *count, *interval, *stdout); err != nil {
		fmt.Fprintf(os.Stderr, "trapsim: %v\n", err)
		os.Exit(1)
	}
}

func run(device string, baud int, animal string, confidence float64, count int, interval time.Duration, stdout bool) error {
	payload, err := json.Marshal(wireMessage{
		Type: "classification",
		Data: wireData{
			Species:    map[string]float64{animal: confidence},
			Confidence: confidence,
		},
	})
	if err != nil {
		return err
	}
	line := append(payload, '\r', '\n')

	var w io.Writer = os.Stdout
	if !stdout {
		cfg := serialport.DefaultConfig()
		cfg.Device = device
		cfg.Baud = baud
		port, err := serialport.Open(cfg)
		if err != nil {
			return err
		}
		defer port.Close()
		w = port
	}

	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("write message %d: %w", i+1, err)
		}
	}
	return nil
}
