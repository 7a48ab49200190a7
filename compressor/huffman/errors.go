package huffman

import (
	"github.com/pkg/errors"

	"github.com/arnasjozonis/huffman-encode/compressor/bitstream"
)

var (
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrTruncatedContainer = errors.New("truncated container")
	ErrOutOfRange         = bitstream.ErrOutOfRange
	ErrDegenerateAlphabet = errors.New("degenerate alphabet")
	ErrCorruptDictionary  = errors.New("corrupt dictionary")
)
