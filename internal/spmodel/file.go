package spmodel

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// LoadVocabularyFile reads and parses a model file. The file is mapped
// read-only while parsing; piece text is copied into the vocabulary, so the
// mapping is released before returning. Falls back to a plain read where mmap
// is unavailable.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 <= 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: bad model file size %d", ErrMalformedVocabulary, size64)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return LoadVocabulary(data)
	}
	defer func() { _ = unix.Munmap(data) }()

	return LoadVocabulary(data)
}
