// Package spmodel parses trainer-produced SentencePiece model files into an
// immutable vocabulary without depending on a generated protobuf schema.
package spmodel

import (
	"fmt"
	"unicode/utf8"
)

// PieceKind mirrors the SentencePiece piece type enum.
type PieceKind int

const (
	KindNormal      PieceKind = 1
	KindUnknown     PieceKind = 2
	KindControl     PieceKind = 3
	KindUserDefined PieceKind = 4
	KindByte        PieceKind = 6
)

// Canonical special piece markers. An exact match overrides the default id.
const (
	UnknownPiece = "<unk>"
	BeginPiece   = "<s>"
	EndPiece     = "</s>"
	PadPiece     = "<pad>"
)

// Piece is one vocabulary entry: a subword unit with its training-derived
// log-probability score. Its position in the loaded sequence is its token id.
type Piece struct {
	Text  string
	Score float64
	Kind  PieceKind
}

// Vocabulary is the ordered piece table of a SentencePiece model plus the
// resolved special ids. It is immutable after construction and safe for
// concurrent readers.
type Vocabulary struct {
	pieces []Piece
	ids    map[string]int

	UnknownID int
	BeginID   int
	EndID     int
	PadID     int

	// maxPieceLen is the rune length of the longest Normal or Byte piece,
	// bounding the segmentation search window.
	maxPieceLen int
}

// NewVocabulary builds a vocabulary from an ordered piece list. Special ids
// default to unk=0, bos=1, eos=2, pad=0 and are overridden by exact matches
// against the canonical markers.
func NewVocabulary(pieces []Piece) *Vocabulary {
	v := &Vocabulary{
		pieces:    pieces,
		ids:       make(map[string]int, len(pieces)),
		UnknownID: 0,
		BeginID:   1,
		EndID:     2,
		PadID:     0,
	}
	for i, p := range pieces {
		if _, ok := v.ids[p.Text]; !ok {
			v.ids[p.Text] = i
		}
		switch p.Text {
		case UnknownPiece:
			v.UnknownID = i
		case BeginPiece:
			v.BeginID = i
		case EndPiece:
			v.EndID = i
		case PadPiece:
			v.PadID = i
		}
		if p.Kind == KindNormal || p.Kind == KindByte {
			if n := utf8.RuneCountInString(p.Text); n > v.maxPieceLen {
				v.maxPieceLen = n
			}
		}
	}
	return v
}

// Len returns the number of pieces.
func (v *Vocabulary) Len() int { return len(v.pieces) }

// PieceAt returns the piece with the given id.
func (v *Vocabulary) PieceAt(id int) Piece { return v.pieces[id] }

// ID returns the id of an exact piece text match.
func (v *Vocabulary) ID(text string) (int, bool) {
	id, ok := v.ids[text]
	return id, ok
}

// MaxPieceLen returns the rune length of the longest matchable piece.
func (v *Vocabulary) MaxPieceLen() int { return v.maxPieceLen }

// Model file layout: the top-level message carries a repeated piece record in
// field 1 (length-delimited). Each record has a string piece (field 1), a
// fixed32 float score (field 2) and a varint type enum (field 3). Everything
// else, top-level or nested, is metadata and is skipped.
const (
	fieldPieces = 1

	pieceFieldText  = 1
	pieceFieldScore = 2
	pieceFieldKind  = 3
)

// LoadVocabulary parses raw model bytes into a vocabulary. On any structural
// violation it returns an error wrapping ErrMalformedVocabulary and no
// vocabulary at all.
func LoadVocabulary(data []byte) (*Vocabulary, error) {
	r := newWireReader(data)
	var pieces []Piece

	for r.remaining() > 0 {
		field, wireType, err := r.readTag()
		if err != nil {
			return nil, malformed("tag", err)
		}
		if field == fieldPieces && wireType == wireBytes {
			rec, err := r.readBytes()
			if err != nil {
				return nil, malformed(fmt.Sprintf("piece %d", len(pieces)), err)
			}
			p, err := parsePiece(rec)
			if err != nil {
				return nil, malformed(fmt.Sprintf("piece %d", len(pieces)), err)
			}
			pieces = append(pieces, p)
			continue
		}
		if err := r.skipField(wireType); err != nil {
			return nil, malformed(fmt.Sprintf("field %d", field), err)
		}
	}

	return NewVocabulary(pieces), nil
}

// parsePiece decodes one nested piece record. Absent sub-fields keep their
// zero values ("", 0.0, Normal).
func parsePiece(rec []byte) (Piece, error) {
	p := Piece{Kind: KindNormal}
	r := newWireReader(rec)
	for r.remaining() > 0 {
		field, wireType, err := r.readTag()
		if err != nil {
			return Piece{}, err
		}
		switch {
		case field == pieceFieldText && wireType == wireBytes:
			b, err := r.readBytes()
			if err != nil {
				return Piece{}, err
			}
			p.Text = string(b)
		case field == pieceFieldScore && wireType == wireI32:
			f, err := r.readFloat32()
			if err != nil {
				return Piece{}, err
			}
			p.Score = float64(f)
		case field == pieceFieldKind && wireType == wireVarint:
			k, err := r.readVarint()
			if err != nil {
				return Piece{}, err
			}
			p.Kind = PieceKind(k)
		default:
			if err := r.skipField(wireType); err != nil {
				return Piece{}, err
			}
		}
	}
	return p, nil
}

func malformed(where string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrMalformedVocabulary, where, err)
}
