package checksum

import (
	"errors"
	"fmt"

	"example.com/tokencrc/internal/geometry"
)

var (
	ErrInvalidType = errors.New("invalid checksum type")
	// ErrOutOfBounds is returned when the record is too short for an
	// offset the checksum touches.
	ErrOutOfBounds = geometry.ErrOutOfBounds
)

// InvalidTypeError carries the rejected checksum type.
type InvalidTypeError struct {
	Type Type
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("%s %d (want 0..%d)", ErrInvalidType, int(e.Type), NumTypes-1)
}

func (e *InvalidTypeError) Unwrap() error {
	return ErrInvalidType
}

// IsInvalidType returns true if err reports an unknown checksum type.
func IsInvalidType(err error) bool {
	return errors.Is(err, ErrInvalidType)
}
