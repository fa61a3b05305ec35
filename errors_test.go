package diskimg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfNilIsErrNone(t *testing.T) {
	assert.Equal(t, ErrNone, CodeOf(nil))
}

func TestCodeOfForeignErrorIsGeneric(t *testing.T) {
	assert.Equal(t, ErrGeneric, CodeOf(errors.New("boom")))
}

func TestNewFormatsDetail(t *testing.T) {
	err := New(ErrInvalidTrack, "track %d out of range [0,%d)", 40, 35)
	assert.Equal(t, ErrInvalidTrack, CodeOf(err))
	assert.Contains(t, err.Error(), "track 40")
	assert.Contains(t, err.Error(), ErrInvalidTrack.String())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk spun down")
	err := Wrap(ErrReadFailed, cause, "reading sector")
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := New(ErrInvalidSector, "sector 99")
	b := AsError(ErrInvalidSector)
	assert.True(t, errors.Is(a, b))

	c := AsError(ErrInvalidTrack)
	assert.False(t, errors.Is(a, c))
}

func TestCodeStringUnknownFallsBackToNumeric(t *testing.T) {
	var unknown Code = 9999
	assert.Equal(t, "Code(9999)", unknown.String())
}
