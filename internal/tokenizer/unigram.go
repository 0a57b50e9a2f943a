package tokenizer

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/calebfollett/gemstream/internal/spmodel"
)

// wordBoundary is the SentencePiece marker substituted for spaces during
// normalization (U+2581, lower one eighth block).
const wordBoundary = "▁"

// fallbackPenalty scores a character no piece and no byte piece can cover.
// Any finite value keeps the Viterbi path complete; the exact number is a
// tunable heuristic, not part of the contract.
const fallbackPenalty = -20.0

// Unigram segments text into vocabulary pieces by Viterbi best path, with
// byte fallback for characters no piece covers. It carries no mutable state
// and is safe for concurrent use over its immutable vocabulary.
type Unigram struct {
	vocab *spmodel.Vocabulary
}

func NewUnigram(vocab *spmodel.Vocabulary) *Unigram {
	return &Unigram{vocab: vocab}
}

// Encode segments text into a sequence of exactly maxLen token ids: the begin
// id, then content ids (truncated if they overflow), right-padded with the pad
// id. Normalization replaces spaces with the word-boundary marker and prepends
// one; no further Unicode normalization is applied, so NFKC-sensitive scripts
// are a known limitation.
func (t *Unigram) Encode(text string, maxLen int) ([]int, error) {
	if maxLen < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, maxLen)
	}

	runes := []rune(wordBoundary + strings.ReplaceAll(text, " ", wordBoundary))
	n := len(runes)

	// best[i] is the maximum cumulative score over segmentations of the
	// prefix ending at rune position i; prev and stepIDs record the path.
	best := make([]float64, n+1)
	prev := make([]int, n+1)
	stepIDs := make([][]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(-1)
		prev[i] = -1
	}

	for i := 0; i < n; i++ {
		if math.IsInf(best[i], -1) {
			continue
		}
		window := t.vocab.MaxPieceLen()
		if window > n-i {
			window = n - i
		}
		for length := 1; length <= window; length++ {
			id, ok := t.vocab.ID(string(runes[i : i+length]))
			if !ok {
				continue
			}
			piece := t.vocab.PieceAt(id)
			if piece.Kind != spmodel.KindNormal && piece.Kind != spmodel.KindByte {
				continue
			}
			// Strict > keeps the first piece reaching a score, so
			// vocabulary order stays observable.
			if s := best[i] + piece.Score; s > best[i+length] {
				best[i+length] = s
				prev[i+length] = i
				stepIDs[i+length] = []int{id}
			}
		}
		if math.IsInf(best[i+1], -1) {
			t.relaxFallback(runes[i], i, best, prev, stepIDs)
		}
	}

	var content []int
	for pos := n; pos > 0; pos = prev[pos] {
		ids := stepIDs[pos]
		for j := len(ids) - 1; j >= 0; j-- {
			content = append(content, ids[j])
		}
	}
	slices.Reverse(content)

	out := make([]int, 0, maxLen)
	out = append(out, t.vocab.BeginID)
	if len(content) > maxLen-1 {
		content = content[:maxLen-1]
	}
	out = append(out, content...)
	for len(out) < maxLen {
		out = append(out, t.vocab.PadID)
	}
	return out, nil
}

// relaxFallback covers a single character either by its UTF-8 bytes via the
// dedicated byte pieces, or, when those are absent, by the unknown id at a
// fixed penalty so the path never stalls.
func (t *Unigram) relaxFallback(r rune, i int, best []float64, prev []int, stepIDs [][]int) {
	raw := []byte(string(r))
	ids := make([]int, 0, len(raw))
	score := 0.0
	covered := true
	for _, b := range raw {
		id, ok := t.vocab.ID(byteToken(b))
		if !ok {
			covered = false
			break
		}
		ids = append(ids, id)
		score += t.vocab.PieceAt(id).Score
	}
	if !covered {
		ids = []int{t.vocab.UnknownID}
		score = fallbackPenalty
	}
	if s := best[i] + score; s > best[i+1] {
		best[i+1] = s
		prev[i+1] = i
		stepIDs[i+1] = ids
	}
}

// Decode reassembles text from token ids: byte pieces contribute raw bytes,
// control and unknown pieces are dropped, and word-boundary markers become
// spaces (the leading one is stripped).
func (t *Unigram) Decode(ids []int) (string, error) {
	var raw []byte
	for _, id := range ids {
		if id < 0 || id >= t.vocab.Len() {
			return "", fmt.Errorf("token id out of range: %d", id)
		}
		piece := t.vocab.PieceAt(id)
		switch piece.Kind {
		case spmodel.KindControl, spmodel.KindUnknown:
			continue
		case spmodel.KindByte:
			if b, ok := parseByteToken(piece.Text); ok {
				raw = append(raw, b)
				continue
			}
			raw = append(raw, piece.Text...)
		default:
			raw = append(raw, strings.ReplaceAll(piece.Text, wordBoundary, " ")...)
		}
	}
	return strings.TrimPrefix(string(raw), " "), nil
}

// byteToken returns the canonical hex-byte piece name, e.g. <0x41>.
func byteToken(b byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{'<', '0', 'x', hex[b>>4], hex[b&0xf], '>'})
}

func parseByteToken(s string) (byte, bool) {
	if len(s) != 6 || !strings.HasPrefix(s, "<0x") || s[5] != '>' {
		return 0, false
	}
	v, err := strconv.ParseUint(s[3:5], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}
