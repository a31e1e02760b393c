package protocol

import "errors"

var (
	ErrNotInteger = errors.New("protocol: not an integer")
	ErrEmptyQuery = errors.New("protocol: empty query")
)
