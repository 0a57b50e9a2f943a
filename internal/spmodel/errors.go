package spmodel

import "errors"

var (
	// ErrTruncated is returned when the model data ends mid-field.
	ErrTruncated = errors.New("truncated model data")

	// ErrUnknownWireType is returned for a wire type the reader cannot skip.
	ErrUnknownWireType = errors.New("unknown wire type")

	// ErrMalformedVocabulary is returned when the model file cannot be parsed
	// into a vocabulary. No partial vocabulary is ever returned alongside it.
	ErrMalformedVocabulary = errors.New("malformed vocabulary")
)
