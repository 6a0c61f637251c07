package protocol

import "errors"

var (
	ErrMalformed = errors.New("protocol: malformed message")
	ErrEmpty     = errors.New("protocol: empty message")
)
