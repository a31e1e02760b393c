package protocol

import "math/big"

// FormatBinary renders n as 0b<digits>, with a leading minus for negatives.
func FormatBinary(n *big.Int) string {
	if n.Sign() < 0 {
		return "-0b" + new(big.Int).Abs(n).Text(2)
	}
	return "0b" + n.Text(2)
}

// Respond returns the bytes to write for q and whether anything is written.
// Empty and control queries produce no response.
func Respond(q Query) ([]byte, bool) {
	switch q.Kind {
	case KindInteger:
		return AppendLine(nil, FormatBinary(q.Value)), true
	case KindMalformed:
		return AppendLine(nil, NotIntegerMessage), true
	default:
		return nil, false
	}
}

// AppendLine appends s and a CRLF terminator to dst.
func AppendLine(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, CRLF...)
}
