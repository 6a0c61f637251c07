package frame

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"
)

var (
	ErrNoData      = errors.New("frame: no data before read timeout")
	ErrLineTooLong = errors.New("frame: line exceeds max length")
	ErrInvalidUTF8 = errors.New("frame: line is not valid UTF-8")
)

// Limits constrains per-frame memory use.
type Limits struct {
	MaxLineBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxLineBytes: 64 * 1024}
}

// Reader extracts newline-terminated frames from a byte stream. A
// serial port read deadline surfaces from the underlying reader as a
// zero-byte io.EOF; Reader maps that to ErrNoData so callers can poll
// again without treating it as end of stream.
type Reader struct {
	br         *bufio.Reader
	limits     Limits
	discarding bool
}

func NewReader(r io.Reader, limits Limits) *Reader {
	if limits.MaxLineBytes <= 0 {
		limits = DefaultLimits()
	}
	return &Reader{br: bufio.NewReader(r), limits: limits}
}

// ReadFrame returns the next frame with leading and trailing whitespace
// (including any \r) removed. A frame may be empty after trimming;
// callers skip those. Oversize lines return ErrLineTooLong once and the
// remainder of the line is discarded, resuming at the next delimiter.
func (r *Reader) ReadFrame() ([]byte, error) {
	if r.discarding {
		if err := r.discardLine(); err != nil {
			return nil, err
		}
	}

	raw, err := r.readLine()
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if !utf8.Valid(trimmed) {
		// Offending bytes ride along so callers can report them.
		return trimmed, ErrInvalidUTF8
	}
	return trimmed, nil
}

func (r *Reader) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		line = append(line, chunk...)

		if len(line) > r.limits.MaxLineBytes {
			r.discarding = err != nil
			return nil, ErrLineTooLong
		}

		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, ErrNoData
			}
			// Read deadline hit mid-line: surface what arrived so the
			// caller can judge it, matching readline-on-timeout.
			return line, nil
		default:
			return nil, err
		}
	}
}

func (r *Reader) discardLine() error {
	for {
		_, err := r.br.ReadSlice('\n')
		switch {
		case err == nil:
			r.discarding = false
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return ErrNoData
		default:
			return err
		}
	}
}
