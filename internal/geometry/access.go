package geometry

import "sort"

// AccessControl classifies record blocks that are excluded from the data
// range checksums. Block indexes are absolute within the record.
type AccessControl interface {
	IsAccessControlBlock(block uint32) bool
}

// AccessControlFunc adapts a plain function to AccessControl.
type AccessControlFunc func(block uint32) bool

func (f AccessControlFunc) IsAccessControlBlock(block uint32) bool {
	return f(block)
}

// SectorTrailers marks the last block of every four-block sector, which is
// where the card keeps its keys and access bits.
type SectorTrailers struct{}

func (SectorTrailers) IsAccessControlBlock(block uint32) bool {
	return (block+1)%4 == 0
}

// BlockSet is an explicit set of access-control blocks.
type BlockSet map[uint32]struct{}

// NewBlockSet builds a BlockSet from a list of block indexes.
func NewBlockSet(blocks ...uint32) BlockSet {
	s := make(BlockSet, len(blocks))
	for _, b := range blocks {
		s[b] = struct{}{}
	}
	return s
}

func (s BlockSet) IsAccessControlBlock(block uint32) bool {
	_, ok := s[block]
	return ok
}

// Blocks returns the members in ascending order.
func (s BlockSet) Blocks() []uint32 {
	out := make([]uint32, 0, len(s))
	for b := range s {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
