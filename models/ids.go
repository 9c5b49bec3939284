package models

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// IDSource mints order and trade identifiers deterministically: a prefix
// derived from the owner's name plus a monotonic counter. Two runs with the
// same participants therefore replay with identical identifiers. A source is
// single-owner; every participant and the matching engine hold their own, so
// the streams never interleave.
type IDSource struct {
	prefix [8]byte
	n      uint64
}

// NewIDSource creates an identifier stream keyed by the owner's name.
func NewIDSource(owner string) *IDSource {
	base := uuid.NewSHA1(uuid.NameSpaceOID, []byte(owner))
	s := &IDSource{}
	copy(s.prefix[:], base[:8])
	return s
}

// Next returns the next identifier in the stream.
func (s *IDSource) Next() uuid.UUID {
	s.n++
	var id uuid.UUID
	copy(id[:8], s.prefix[:])
	binary.BigEndian.PutUint64(id[8:], s.n)
	return id
}
