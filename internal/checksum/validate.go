package checksum

import (
	"encoding/binary"

	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/geometry"
)

// RegenerationOrder is the order checksums are visited within a data area.
// Types 4, 3 and 2 must settle before the sequence number is bumped and the
// type 1 checksum, which covers both, is computed. Type 0 is independent.
var RegenerationOrder = [NumTypes]Type{
	TypeAreaTail,
	TypeAreaPadded,
	TypeAreaData,
	TypeAreaHeader,
	TypeHeader,
}

// Result describes a single (type, data area) check.
type Result struct {
	Type Type `json:"type"`
	Area int  `json:"area"`
	// Offset is the absolute record offset of the stored checksum.
	Offset   int    `json:"offset"`
	Stored   uint16 `json:"stored"`
	Computed uint16 `json:"computed"`
	Match    bool   `json:"match"`
	Written  bool   `json:"written,omitempty"`

	// Set when a type 1 overwrite bumped the sequence number.
	SequenceOffset int   `json:"sequenceOffset,omitempty"`
	SequenceBefore uint8 `json:"sequenceBefore,omitempty"`
	SequenceAfter  uint8 `json:"sequenceAfter,omitempty"`
}

// SequenceBumped reports whether the check incremented the sequence number.
func (r Result) SequenceBumped() bool {
	return r.SequenceOffset != 0
}

// Report is the outcome of a full sweep over both data areas.
type Report struct {
	Overwrite bool     `json:"overwrite"`
	Pass      bool     `json:"pass"`
	Results   []Result `json:"results"`
}

// Failures returns the checks whose stored value did not match.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Match {
			out = append(out, res)
		}
	}
	return out
}

// Validate checks a single checksum with the default engine.
func Validate(record []byte, t Type, area int, overwrite bool) (bool, error) {
	return defaultEngine.Validate(record, t, area, overwrite)
}

// ValidateAll sweeps every checksum with the default engine.
func ValidateAll(record []byte, overwrite bool) bool {
	return defaultEngine.ValidateAll(record, overwrite)
}

// Validate compares the stored checksum of type t in the given data area with
// the computed one, writing the computed value back when overwrite is set.
// A type 1 overwrite first increments the area sequence number.
func (e *Engine) Validate(record []byte, t Type, area int, overwrite bool) (bool, error) {
	res, err := e.Check(record, t, area, overwrite)
	if err != nil {
		return false, err
	}
	return res.Match, nil
}

// Check is Validate returning the full Result.
func (e *Engine) Check(record []byte, t Type, area int, overwrite bool) (Result, error) {
	res := Result{Type: t, Area: area}
	p, err := Parameters(t)
	if err != nil {
		return res, err
	}
	e.tracef("\n------ validate type=%d dataArea=%d overwrite=%t ------\n", int(t), area, overwrite)

	view := geometry.HeaderView(record)
	if t.AreaRelative() {
		if view, err = geometry.AreaView(record, area); err != nil {
			return res, err
		}
	}
	fieldOff := p.FieldOffset(t)
	field, err := view.Slice(fieldOff, 2)
	if err != nil {
		return res, err
	}
	res.Offset = view.Base() + fieldOff

	if overwrite && t == TypeAreaHeader {
		seq, err := view.Slice(geometry.SequenceOffset, 1)
		if err != nil {
			return res, err
		}
		res.SequenceOffset = view.Base() + geometry.SequenceOffset
		res.SequenceBefore = seq[0]
		seq[0]++
		res.SequenceAfter = seq[0]
	}
	e.tracef("base=%06X checksumOffset=%06X dataOffset=%06X dataLength=%06X\n", view.Base(), p.ChecksumOffset, p.DataOffset, p.DataLength)

	res.Computed, err = e.Compute(t, view)
	if err != nil {
		return res, err
	}
	res.Stored = binary.LittleEndian.Uint16(field)
	res.Match = res.Stored == res.Computed
	e.tracef("oldChecksum=%04X computedChecksum=%04X\n", res.Stored, res.Computed)

	if overwrite {
		binary.LittleEndian.PutUint16(field, res.Computed)
		res.Written = true
	}
	return res, nil
}

// Sweep checks every type in RegenerationOrder for both data areas. It never
// stops at a mismatch; Report.Pass is the conjunction of all matches.
// Callers must hold the record exclusively while overwrite is set.
func (e *Engine) Sweep(record []byte, overwrite bool) (Report, error) {
	rep := Report{Overwrite: overwrite, Pass: true}
	if err := geometry.CheckRecord(record); err != nil {
		return rep, err
	}
	for area := 0; area < geometry.NumAreas; area++ {
		for _, t := range RegenerationOrder {
			res, err := e.Check(record, t, area, overwrite)
			if err != nil {
				return rep, err
			}
			switch {
			case res.Match:
				e.tracef("checksum OK for checksum type %d, data area %d\n", int(t), area)
			case overwrite:
				e.tracef("checksum rewritten for checksum type %d, data area %d\n", int(t), area)
			default:
				common.Logf("checksum failure for checksum type %d, data area %d: stored %04X computed %04X", int(t), area, res.Stored, res.Computed)
			}
			rep.Results = append(rep.Results, res)
			rep.Pass = rep.Pass && res.Match
		}
	}
	return rep, nil
}

// ValidateAll reports whether every checksum in the record matches. A
// record too short to sweep is logged and reported as failing.
func (e *Engine) ValidateAll(record []byte, overwrite bool) bool {
	rep, err := e.Sweep(record, overwrite)
	if err != nil {
		common.Logf("validate checksums: %v", err)
		return false
	}
	return rep.Pass
}
