package checksum

import "fmt"

// Type selects one of the five checksums of a token image.
type Type int

const (
	// TypeHeader covers the first 0x1E bytes of sector 0.
	TypeHeader Type = iota
	// TypeAreaHeader covers the data area header block.
	TypeAreaHeader
	// TypeAreaData covers area blocks 1..4.
	TypeAreaData
	// TypeAreaPadded covers area blocks 5..8 followed by zero padding.
	TypeAreaPadded
	// TypeAreaTail is stored at area offset 0x90.
	TypeAreaTail
)

// NumTypes is the number of checksum types.
const NumTypes = 5

func (t Type) String() string {
	switch t {
	case TypeHeader:
		return "type0"
	case TypeAreaHeader:
		return "type1"
	case TypeAreaData:
		return "type2"
	case TypeAreaPadded:
		return "type3"
	case TypeAreaTail:
		return "type4"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Valid reports whether t is a known checksum type.
func (t Type) Valid() bool {
	return t >= TypeHeader && t <= TypeAreaTail
}

// AreaRelative reports whether the checksum is located relative to a data
// area. Type 0 always addresses the record from offset 0.
func (t Type) AreaRelative() bool {
	return t != TypeHeader
}

// Params locates a checksum and the bytes it covers.
type Params struct {
	// ChecksumOffset is where the little-endian checksum is stored,
	// relative to the area base (record base for type 0). Type 4 adds
	// DataOffset to it.
	ChecksumOffset int
	DataOffset     int
	DataLength     int
}

var paramTable = [NumTypes]Params{
	TypeHeader:     {ChecksumOffset: 0x1E, DataOffset: 0x00, DataLength: 0x1E},
	TypeAreaHeader: {ChecksumOffset: 0x0E, DataOffset: 0x00, DataLength: 0x10},
	TypeAreaData:   {ChecksumOffset: 0x0C, DataOffset: 0x10, DataLength: 0x40},
	TypeAreaPadded: {ChecksumOffset: 0x0A, DataOffset: 0x50, DataLength: 0x40},
	// The data range of type 4 does not feed the default computation; the
	// stored field sits at DataOffset+ChecksumOffset.
	TypeAreaTail: {ChecksumOffset: 0x00, DataOffset: 0x90, DataLength: 0x40},
}

// Parameters returns the table entry for t.
func Parameters(t Type) (Params, error) {
	if !t.Valid() {
		return Params{}, &InvalidTypeError{Type: t}
	}
	return paramTable[t], nil
}

// FieldOffset returns the offset of the stored checksum relative to the
// resolved base.
func (p Params) FieldOffset(t Type) int {
	if t == TypeAreaTail {
		return p.DataOffset + p.ChecksumOffset
	}
	return p.ChecksumOffset
}
