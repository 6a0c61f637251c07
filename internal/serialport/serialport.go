// Package serialport owns the serial device lifecycle: exclusive-use
// locking, open with a read deadline, and idempotent release.
package serialport

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/tarm/serial"
)

var (
	ErrPortBusy      = errors.New("serialport: device locked by another process")
	ErrInvalidConfig = errors.New("serialport: invalid config")
)

// Config identifies the device and its line settings.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
	LockRetries int
	LockWait    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Device:      "/dev/ttyUSB0",
		Baud:        115200,
		ReadTimeout: time.Second,
		LockRetries: 3,
		LockWait:    time.Second,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Device) == "" {
		return fmt.Errorf("%w: missing device", ErrInvalidConfig)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: baud must be positive", ErrInvalidConfig)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Port is an open serial device plus the advisory lock guarding it.
// Close releases both and is safe to call more than once.
type Port struct {
	port *serial.Port
	lock *os.File

	closeOnce sync.Once
	closeErr  error
}

// Open acquires an advisory flock on the device node, retrying up to
// LockRetries times with LockWait between attempts, then opens the port
// itself. The lock keeps a second trapmon (or the simulator) from
// interleaving reads on the same device.
func Open(cfg Config) (*Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lock, err := acquireLock(cfg)
	if err != nil {
		return nil, err
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		releaseLock(lock)
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}

	return &Port{port: p, lock: lock}, nil
}

func (p *Port) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *Port) Write(b []byte) (int, error) { return p.port.Write(b) }

func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.port.Close()
		if err := releaseLock(p.lock); err != nil && p.closeErr == nil {
			p.closeErr = err
		}
	})
	return p.closeErr
}

func acquireLock(cfg Config) (*os.File, error) {
	f, err := os.OpenFile(cfg.Device, os.O_RDWR, 0o666)
	if err != nil {
		return nil, fmt.Errorf("serialport: open lock handle: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			f.Close()
			return nil, fmt.Errorf("serialport: flock %s: %w", cfg.Device, err)
		}
		if attempt >= cfg.LockRetries {
			f.Close()
			return nil, fmt.Errorf("%w: %s", ErrPortBusy, cfg.Device)
		}
		time.Sleep(cfg.LockWait)
	}
}

func releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	unlockErr := syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	closeErr := f.Close()
	if unlockErr != nil {
		return fmt.Errorf("serialport: unlock: %w", unlockErr)
	}
	return closeErr
}
