package protocol

import (
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DecodeLine turns one raw line into its query string.
// Bytes that are not valid UTF-8 collapse to InvalidEncodingQuery.
func DecodeLine(line []byte) string {
	if !utf8.Valid(line) {
		return InvalidEncodingQuery
	}
	return strings.TrimFunc(string(line), isQuerySpace)
}

// Classify decodes line and sorts it into exactly one Kind.
func Classify(line []byte) Query {
	return ClassifyText(DecodeLine(line))
}

// ClassifyText classifies an already decoded and trimmed query.
func ClassifyText(text string) Query {
	if text == "" {
		return Query{Text: text, Kind: KindEmpty}
	}
	first, _ := utf8.DecodeRuneInString(text)
	if first < ControlThreshold {
		return Query{Text: text, Kind: KindControl}
	}
	n, err := ParseInteger(text)
	if err != nil {
		return Query{Text: text, Kind: KindMalformed}
	}
	return Query{Text: text, Kind: KindInteger, Value: n}
}

// ParseInteger parses a base-10 integer of any size.
// It accepts an optional sign, decimal digits from any script and single
// underscores between digits.
func ParseInteger(s string) (*big.Int, error) {
	if s == "" {
		return nil, ErrEmptyQuery
	}
	digits := s
	if digits[0] == '+' || digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" {
		return nil, ErrNotInteger
	}

	var b strings.Builder
	b.Grow(len(s))
	if s[0] == '-' {
		b.WriteByte('-')
	}
	prevDigit := false
	for i, r := range digits {
		if v, ok := digitValue(r); ok {
			b.WriteByte('0' + v)
			prevDigit = true
			continue
		}
		if r == '_' && prevDigit && i+1 < len(digits) {
			prevDigit = false
			continue
		}
		return nil, ErrNotInteger
	}
	if !prevDigit {
		return nil, ErrNotInteger
	}
	n, ok := new(big.Int).SetString(b.String(), 10)
	if !ok {
		return nil, ErrNotInteger
	}
	return n, nil
}

// digitValue returns the value of a decimal digit (category Nd).
// Nd code points come in contiguous runs of ten ordered 0-9, so the value
// is the offset from the start of the run modulo ten.
func digitValue(r rune) (byte, bool) {
	if r >= '0' && r <= '9' {
		return byte(r - '0'), true
	}
	if !unicode.IsDigit(r) {
		return 0, false
	}
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return byte((r - start) % 10), true
}

// isQuerySpace matches unicode white space plus the ASCII information
// separators 0x1c-0x1f, which line-oriented clients also treat as blanks.
func isQuerySpace(r rune) bool {
	if r >= 0x1c && r <= 0x1f {
		return true
	}
	return unicode.IsSpace(r)
}
