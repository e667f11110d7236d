package checksum

import (
	"fmt"
	"io"
	"strings"

	"example.com/tokencrc/internal/geometry"
)

// Type4Mode selects how the type 4 checksum value is derived.
type Type4Mode string

const (
	// Type4Header computes type 4 from the area header block with its
	// first two bytes replaced by {0x06, 0x01}.
	Type4Header Type4Mode = "header"
	// Type4Chained copies the block at area offset 0x90, replaces its first
	// two bytes by {0x06, 0x01}, then keeps folding blocks 10..13 (minus
	// access-control blocks) into the same CRC. Older dump tools wrote
	// images this way.
	Type4Chained Type4Mode = "chained"
)

// ParseType4Mode converts a config or flag value into a Type4Mode.
func ParseType4Mode(s string) (Type4Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Type4Header):
		return Type4Header, nil
	case string(Type4Chained):
		return Type4Chained, nil
	default:
		return Type4Header, fmt.Errorf("unknown type 4 mode %q", s)
	}
}

const (
	areaHeaderPreset0 = 0x05
	areaHeaderPreset1 = 0x00
	tailPreset0       = 0x06
	tailPreset1       = 0x01
)

type blockRange struct {
	start, count int
}

var (
	dataBlocks   = blockRange{start: 1, count: 4}
	paddedBlocks = blockRange{start: 5, count: 4}
	tailBlocks   = blockRange{start: 10, count: 4}
)

// Options configures an Engine. The zero value uses sector trailers as
// access-control blocks, Type4Header and no trace output.
type Options struct {
	AccessControl geometry.AccessControl
	Type4         Type4Mode
	// Trace receives a hex dump of every byte folded into a checksum.
	// Diagnostic only; it never changes a computed value.
	Trace io.Writer
}

// Engine computes and validates token image checksums. It keeps no state
// between calls.
type Engine struct {
	acl   geometry.AccessControl
	type4 Type4Mode
	trace io.Writer
}

// NewEngine builds an Engine from opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{acl: opts.AccessControl, type4: opts.Type4, trace: opts.Trace}
	if e.acl == nil {
		e.acl = geometry.SectorTrailers{}
	}
	if e.type4 == "" {
		e.type4 = Type4Header
	}
	return e
}

var defaultEngine = NewEngine(Options{})

// Compute returns the checksum of type t over area using the default engine.
func Compute(t Type, area geometry.Area) (uint16, error) {
	return defaultEngine.Compute(t, area)
}

// Compute returns the checksum of type t over area. For type 0 area must
// start at the record base; for the other types at the data area base.
func (e *Engine) Compute(t Type, area geometry.Area) (uint16, error) {
	p, err := Parameters(t)
	if err != nil {
		return 0, err
	}
	switch t {
	case TypeHeader:
		data, err := area.Slice(p.DataOffset, p.DataLength)
		if err != nil {
			return 0, err
		}
		return e.fold(CRC16InitialValue, data), nil
	case TypeAreaHeader:
		return e.substituted(area, 0, 14, areaHeaderPreset0, areaHeaderPreset1)
	case TypeAreaData:
		return e.walk(area, CRC16InitialValue, dataBlocks, false)
	case TypeAreaPadded:
		return e.walk(area, CRC16InitialValue, paddedBlocks, true)
	case TypeAreaTail:
		if e.type4 == Type4Chained {
			crc, err := e.substituted(area, p.DataOffset, 0, tailPreset0, tailPreset1)
			if err != nil {
				return 0, err
			}
			return e.walk(area, crc, tailBlocks, false)
		}
		return e.substituted(area, 0, 0, tailPreset0, tailPreset1)
	}
	return 0, &InvalidTypeError{Type: t}
}

// substituted checksums a scratch copy of the block at off with two bytes
// at at/at+1 replaced.
func (e *Engine) substituted(area geometry.Area, off, at int, b0, b1 byte) (uint16, error) {
	src, err := area.Slice(off, geometry.BlockSize)
	if err != nil {
		return 0, err
	}
	var block [geometry.BlockSize]byte
	copy(block[:], src)
	block[at] = b0
	block[at+1] = b1
	e.tracef("HEADER:%04X: ", area.Base()+off)
	return e.fold(CRC16InitialValue, block[:]), nil
}

// walk folds the blocks of r into crc, skipping access-control blocks. With
// pad set it then folds a zero block for every remaining non-access-control
// block index below geometry.AreaBlocks.
func (e *Engine) walk(area geometry.Area, crc uint16, r blockRange, pad bool) (uint16, error) {
	data, err := area.Slice(r.start*geometry.BlockSize, r.count*geometry.BlockSize)
	if err != nil {
		return 0, err
	}
	blk := r.start
	for ; blk < r.start+r.count; blk++ {
		if e.acl.IsAccessControlBlock(area.AbsBlock(blk)) {
			continue
		}
		off := (blk - r.start) * geometry.BlockSize
		e.tracef(" block:%04X: ", blk*geometry.BlockSize)
		crc = e.fold(crc, data[off:off+geometry.BlockSize])
	}
	if !pad {
		return crc, nil
	}
	var zero [geometry.BlockSize]byte
	for ; blk < geometry.AreaBlocks; blk++ {
		if e.acl.IsAccessControlBlock(area.AbsBlock(blk)) {
			continue
		}
		e.tracef(" block:%04X: (padding with 0) ", blk*geometry.BlockSize)
		crc = e.fold(crc, zero[:])
	}
	return crc, nil
}

func (e *Engine) fold(crc uint16, data []byte) uint16 {
	if e.trace != nil {
		var b strings.Builder
		for _, v := range data {
			fmt.Fprintf(&b, "%02X ", v)
		}
		b.WriteByte('\n')
		io.WriteString(e.trace, b.String())
	}
	return updateCRC16(crc, data)
}

func (e *Engine) tracef(format string, args ...interface{}) {
	if e.trace == nil {
		return
	}
	fmt.Fprintf(e.trace, format, args...)
}
