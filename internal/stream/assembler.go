// Package stream reassembles raw byte fragments from a generation backend
// into UTF-8 character-boundary-safe text events.
package stream

import (
	"strings"
	"unicode/utf8"
)

// Assembler accumulates raw fragment bytes and emits only complete UTF-8
// characters, carrying incomplete trailing sequences forward to the next
// push. One instance serves exactly one stream; it is not safe for
// concurrent use.
type Assembler struct {
	buf []byte
}

// Push appends raw bytes and returns the decoded text of every complete
// character accumulated so far, possibly empty. Genuinely malformed bytes
// decode to the replacement character; a valid sequence split across pushes
// never does.
func (a *Assembler) Push(raw []byte) string {
	a.buf = append(a.buf, raw...)
	k := boundary(a.buf)
	if k == 0 {
		return ""
	}
	out := decodeLossy(a.buf[:k])
	a.buf = append(a.buf[:0], a.buf[k:]...)
	return out
}

// Flush force-decodes whatever remains, incomplete tail included, and clears
// the buffer. Called exactly once, on stream termination.
func (a *Assembler) Flush() string {
	if len(a.buf) == 0 {
		return ""
	}
	out := decodeLossy(a.buf)
	a.buf = a.buf[:0]
	return out
}

// Pending reports how many bytes are held back as an incomplete sequence.
func (a *Assembler) Pending() int { return len(a.buf) }

// boundary returns the offset up to which every byte belongs to a complete
// character. It walks backward over trailing continuation bytes (10xxxxxx)
// to the lead byte, whose top bits give the expected sequence length. An
// unrecognized lead pattern is already-invalid rather than incomplete, so
// everything up to and including it is released for lossy decoding.
func boundary(buf []byte) int {
	n := len(buf)
	i := n - 1
	for cont := 0; i >= 0 && cont < 3 && buf[i]&0xc0 == 0x80; cont++ {
		i--
	}
	if i < 0 {
		// Continuation bytes with no lead: invalid, nothing is pending.
		return n
	}
	var want int
	switch lead := buf[i]; {
	case lead&0x80 == 0x00:
		want = 1
	case lead&0xe0 == 0xc0:
		want = 2
	case lead&0xf0 == 0xe0:
		want = 3
	case lead&0xf8 == 0xf0:
		want = 4
	default:
		return n
	}
	if n-i < want {
		return i
	}
	return n
}

// decodeLossy converts bytes to a string, substituting U+FFFD for each
// malformed byte instead of failing.
func decodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[1:]
			continue
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
