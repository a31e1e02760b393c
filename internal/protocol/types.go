package protocol

import "math/big"

// Wire constants.
const (
	Prompt            = "byte?> "
	CRLF              = "\r\n"
	NotIntegerMessage = "doesn't look like an integer :("

	// InvalidEncodingQuery replaces a line that is not valid UTF-8.
	InvalidEncodingQuery = "\x00"

	// ControlThreshold is the first code point that does not end a session.
	ControlThreshold = 32
)

// Kind classifies one decoded query.
type Kind string

const (
	KindEmpty     Kind = "empty"
	KindControl   Kind = "control"
	KindInteger   Kind = "integer"
	KindMalformed Kind = "malformed"
)

// Query is the tagged result of classifying one line.
// Value is set only for KindInteger.
type Query struct {
	Text  string
	Kind  Kind
	Value *big.Int
}

// Terminal reports whether the query ends the session.
func (q Query) Terminal() bool {
	return q.Kind == KindControl
}
