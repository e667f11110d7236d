package geometry

import (
	"errors"
	"fmt"
)

// Token image layout. A record is a flat run of 16-byte blocks; block 0 holds
// the read-only sector 0 header and two structurally identical data areas
// follow at fixed block offsets.
const (
	BlockSize = 16

	// RecordBlocks is the number of blocks in a full token image.
	RecordBlocks = 0x40
	RecordSize   = RecordBlocks * BlockSize

	// AreaBlocks is the number of blocks spanned by one data area. It is
	// also the terminal block index for type 3 zero padding.
	AreaBlocks = 0x1C

	// SequenceOffset is the area-relative offset of the sequence number.
	SequenceOffset = 0x09

	// areaSpan is the number of blocks of a data area the checksum core
	// reads or writes (header plus blocks 1..13).
	areaSpan = 0x0E
)

// MinRecordSize is the shortest buffer that covers every offset touched when
// validating both data areas.
const MinRecordSize = 0x24*BlockSize + areaSpan*BlockSize

var areaBlocks = [...]int{0x08, 0x24}

// NumAreas is the number of data areas in a record.
const NumAreas = len(areaBlocks)

var (
	ErrInvalidArea = errors.New("invalid data area")
	ErrOutOfBounds = errors.New("offset outside record")
)

// AreaBlock returns the first block of the given data area.
func AreaBlock(index int) (int, error) {
	if index < 0 || index >= NumAreas {
		return 0, fmt.Errorf("%w: %d", ErrInvalidArea, index)
	}
	return areaBlocks[index], nil
}

// AreaBase returns the byte offset of the given data area.
func AreaBase(index int) (int, error) {
	blk, err := AreaBlock(index)
	if err != nil {
		return 0, err
	}
	return blk * BlockSize, nil
}

// Area is a view of a record starting at a block boundary. Data aliases the
// record, so writes through it land in the record.
type Area struct {
	// Index is the data area number, or -1 for the sector 0 view.
	Index int
	// Block is the absolute block index of Data[0].
	Block int
	Data  []byte
}

// Base returns the absolute byte offset of the view.
func (a Area) Base() int {
	return a.Block * BlockSize
}

// AbsBlock converts an area-relative block index into a record block index.
func (a Area) AbsBlock(rel int) uint32 {
	return uint32(a.Block + rel)
}

// Slice returns Data[off:off+n], failing rather than reading past the view.
func (a Area) Slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(a.Data) {
		return nil, fmt.Errorf("%w: [%#x,%#x) beyond %#x bytes at block %#x", ErrOutOfBounds, off, off+n, len(a.Data), a.Block)
	}
	return a.Data[off : off+n], nil
}

// AreaView returns the view of data area index within record.
func AreaView(record []byte, index int) (Area, error) {
	blk, err := AreaBlock(index)
	if err != nil {
		return Area{}, err
	}
	base := blk * BlockSize
	if base > len(record) {
		return Area{}, fmt.Errorf("%w: data area %d at %#x, record is %#x bytes", ErrOutOfBounds, index, base, len(record))
	}
	return Area{Index: index, Block: blk, Data: record[base:]}, nil
}

// HeaderView returns the view of the whole record from block 0.
func HeaderView(record []byte) Area {
	return Area{Index: -1, Data: record}
}

// CheckRecord reports whether record is long enough for a full sweep.
func CheckRecord(record []byte) error {
	if len(record) < MinRecordSize {
		return fmt.Errorf("%w: record is %d bytes, need at least %d", ErrOutOfBounds, len(record), MinRecordSize)
	}
	return nil
}
