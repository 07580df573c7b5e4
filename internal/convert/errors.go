package convert

import (
	"errors"

	"github.com/rcarmo/pixconv/internal/colormatrix"
)

var (
	ErrUnsupportedPair   = errors.New("convert: unsupported format pair")
	ErrInvalidDimensions = errors.New("convert: width and height must be positive")
	ErrOddDimensions     = errors.New("convert: dimensions not a multiple of the format's subsampling")
	ErrBufferTooSmall    = errors.New("convert: buffer too small")
	ErrUnknownStandard   = colormatrix.ErrUnknownStandard
)
