package checksum_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/geometry"
	"example.com/tokencrc/internal/samples"
)

var chained = checksum.Options{Type4: checksum.Type4Chained}

func quietLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	common.SetLogOutput(&buf)
	t.Cleanup(func() { common.SetLogOutput(nopWriter{}) })
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func field(rec []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(rec[off:])
}

func TestValidateWriteThenRead(t *testing.T) {
	for _, opts := range []checksum.Options{{}, chained} {
		e := checksum.NewEngine(opts)
		for area := 0; area < geometry.NumAreas; area++ {
			for _, typ := range checksum.RegenerationOrder {
				rec := samples.Raw()
				_, err := e.Validate(rec, typ, area, true)
				require.NoError(t, err)
				ok, err := e.Validate(rec, typ, area, false)
				require.NoError(t, err)
				assert.Truef(t, ok, "%s area %d mode %q", typ, area, opts.Type4)
			}
		}
	}
}

func TestValidateAreaHeaderScenario(t *testing.T) {
	rec := samples.Raw()
	base, err := geometry.AreaBase(0)
	require.NoError(t, err)
	require.Equal(t, byte(0x2A), rec[base+0x09])
	require.Equal(t, uint16(0), field(rec, base+0x0E))

	ok, err := checksum.Validate(rec, checksum.TypeAreaHeader, 0, false)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, byte(0x2A), rec[base+0x09], "read-only validation must not bump the sequence")

	ok, err = checksum.Validate(rec, checksum.TypeAreaHeader, 0, true)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, byte(0x2B), rec[base+0x09])

	hdr := append([]byte(nil), rec[base:base+16]...)
	hdr[14], hdr[15] = 0x05, 0x00
	require.Equal(t, checksum.CRC16(hdr), field(rec, base+0x0E))

	ok, err = checksum.Validate(rec, checksum.TypeAreaHeader, 0, false)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateAreaHeaderOverwriteBumpsEveryTime(t *testing.T) {
	rec := samples.Raw()
	e := checksum.NewEngine(checksum.Options{})

	first, err := e.Check(rec, checksum.TypeAreaHeader, 1, true)
	require.NoError(t, err)
	second, err := e.Check(rec, checksum.TypeAreaHeader, 1, true)
	require.NoError(t, err)

	require.True(t, first.SequenceBumped())
	require.Equal(t, uint8(samples.Area1Sequence), first.SequenceBefore)
	require.Equal(t, uint8(samples.Area1Sequence+1), first.SequenceAfter)
	require.Equal(t, first.SequenceAfter, second.SequenceBefore)
	require.Equal(t, uint8(samples.Area1Sequence+2), second.SequenceAfter)
	require.NotEqual(t, first.Computed, second.Computed)
	require.False(t, second.Match)

	ok, err := e.Validate(rec, checksum.TypeAreaHeader, 1, false)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateSequenceWraps(t *testing.T) {
	rec := samples.Raw()
	base, _ := geometry.AreaBase(0)
	rec[base+geometry.SequenceOffset] = 0xFF
	res, err := checksum.NewEngine(checksum.Options{}).Check(rec, checksum.TypeAreaHeader, 0, true)
	require.NoError(t, err)
	require.Equal(t, uint8(0xFF), res.SequenceBefore)
	require.Equal(t, uint8(0x00), res.SequenceAfter)
	require.Equal(t, byte(0x00), rec[base+geometry.SequenceOffset])
}

func TestValidateTailFieldLocation(t *testing.T) {
	rec := samples.Raw()
	base, _ := geometry.AreaBase(1)
	res, err := checksum.NewEngine(checksum.Options{}).Check(rec, checksum.TypeAreaTail, 1, true)
	require.NoError(t, err)
	require.Equal(t, base+0x90, res.Offset)

	hdr := append([]byte(nil), rec[base:base+16]...)
	hdr[0], hdr[1] = 0x06, 0x01
	require.Equal(t, checksum.CRC16(hdr), field(rec, base+0x90))
	// The header block itself is untouched.
	require.Equal(t, samples.Raw()[base:base+16], rec[base:base+16])
}

func TestValidateHeaderIgnoresArea(t *testing.T) {
	rec := samples.Raw()
	res, err := checksum.NewEngine(checksum.Options{}).Check(rec, checksum.TypeHeader, 1, true)
	require.NoError(t, err)
	require.Equal(t, 0x1E, res.Offset)
	require.Equal(t, checksum.CRC16(rec[:0x1E]), field(rec, 0x1E))
}

// Regenerating type 1 before the checksums stored in its header block leaves
// it stale.
func TestRegenerationOrderMatters(t *testing.T) {
	e := checksum.NewEngine(chained)
	rec := samples.Raw()

	_, err := e.Validate(rec, checksum.TypeAreaHeader, 0, true)
	require.NoError(t, err)
	for _, typ := range []checksum.Type{checksum.TypeAreaTail, checksum.TypeAreaPadded, checksum.TypeAreaData} {
		_, err := e.Validate(rec, typ, 0, true)
		require.NoError(t, err)
	}
	ok, err := e.Validate(rec, checksum.TypeAreaHeader, 0, false)
	require.NoError(t, err)
	require.False(t, ok)

	rec = samples.Raw()
	for _, typ := range checksum.RegenerationOrder {
		_, err := e.Validate(rec, typ, 0, true)
		require.NoError(t, err)
	}
	ok, err = e.Validate(rec, checksum.TypeAreaHeader, 0, false)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateErrors(t *testing.T) {
	rec := samples.Raw()
	orig := append([]byte(nil), rec...)

	_, err := checksum.Validate(rec, checksum.Type(5), 0, true)
	require.True(t, checksum.IsInvalidType(err))

	_, err = checksum.Validate(rec, checksum.TypeAreaData, 2, true)
	require.ErrorIs(t, err, geometry.ErrInvalidArea)

	short := rec[:0x248]
	_, err = checksum.Validate(short, checksum.TypeAreaHeader, 1, true)
	require.ErrorIs(t, err, checksum.ErrOutOfBounds)
	require.Equal(t, orig, rec, "failed checks must not modify the record")
}

func TestSweepRawImage(t *testing.T) {
	logs := quietLogs(t)
	rec := samples.Raw()

	rep, err := checksum.NewEngine(chained).Sweep(rec, false)
	require.NoError(t, err)
	require.False(t, rep.Pass)
	require.Len(t, rep.Results, 10)
	require.Len(t, rep.Failures(), 10)
	for i, res := range rep.Results {
		require.Equal(t, i/checksum.NumTypes, res.Area)
		require.Equal(t, checksum.RegenerationOrder[i%checksum.NumTypes], res.Type)
		require.False(t, res.Written)
	}
	require.Contains(t, logs.String(), "checksum failure for checksum type 4, data area 0")
	require.Contains(t, logs.String(), "checksum failure for checksum type 0, data area 1")
	require.Equal(t, samples.Raw(), rec)
}

func TestSweepRegenerateThenValidate(t *testing.T) {
	quietLogs(t)
	e := checksum.NewEngine(chained)
	rec := samples.Raw()

	require.False(t, e.ValidateAll(rec, true))
	require.True(t, e.ValidateAll(rec, false))

	base0, _ := geometry.AreaBase(0)
	base1, _ := geometry.AreaBase(1)
	require.Equal(t, byte(samples.Area0Sequence+1), rec[base0+geometry.SequenceOffset])
	require.Equal(t, byte(samples.Area1Sequence+1), rec[base1+geometry.SequenceOffset])
}

// In header mode type 4 covers the area header, which the later types of
// the same pass rewrite, so a full regeneration leaves only type 4 stale.
func TestSweepHeaderModeLeavesTailStale(t *testing.T) {
	quietLogs(t)
	e := checksum.NewEngine(checksum.Options{})
	rec := samples.Raw()
	_, err := e.Sweep(rec, true)
	require.NoError(t, err)

	rep, err := e.Sweep(rec, false)
	require.NoError(t, err)
	require.False(t, rep.Pass)
	fails := rep.Failures()
	require.Len(t, fails, 2)
	for _, f := range fails {
		require.Equal(t, checksum.TypeAreaTail, f.Type)
	}
}

func TestSweepCorruptImage(t *testing.T) {
	quietLogs(t)
	rec, err := samples.Corrupt(nil)
	require.NoError(t, err)

	rep, err := checksum.NewEngine(chained).Sweep(rec, false)
	require.NoError(t, err)
	require.False(t, rep.Pass)
	fails := rep.Failures()
	require.Len(t, fails, 1)
	require.Equal(t, checksum.TypeAreaData, fails[0].Type)
	require.Equal(t, 0, fails[0].Area)
}

func TestSweepShortRecord(t *testing.T) {
	logs := quietLogs(t)
	rec := make([]byte, geometry.MinRecordSize-1)
	_, err := checksum.NewEngine(checksum.Options{}).Sweep(rec, true)
	require.ErrorIs(t, err, checksum.ErrOutOfBounds)
	require.False(t, checksum.ValidateAll(rec, false))
	require.Contains(t, logs.String(), "validate checksums")
	require.Equal(t, make([]byte, geometry.MinRecordSize-1), rec)
}

func TestSweepMinimalRecord(t *testing.T) {
	quietLogs(t)
	e := checksum.NewEngine(chained)
	rec := samples.Raw()[:geometry.MinRecordSize]
	_, err := e.Sweep(rec, true)
	require.NoError(t, err)
	require.True(t, e.ValidateAll(rec, false))
}
