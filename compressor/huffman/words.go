package huffman

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

const (
	MinWordLen = 1
	// MaxWordLen bounds the alphabet at 2^16 symbols, which is what the
	// header's 16-bit dictionary entry count can describe.
	MaxWordLen = 16
)

// FrequencyTable holds the occurrence count of every possible word value,
// indexed by the value itself, plus the trailing bytes that did not fill a
// whole alignment block.
type FrequencyTable struct {
	WordLen int
	Counts  []uint64
	Tail    []byte
}

func checkWordLen(wordLen int) error {
	if wordLen < MinWordLen || wordLen > MaxWordLen {
		return errors.Wrapf(ErrOutOfRange, "word length %d not in [%d, %d]", wordLen, MinWordLen, MaxWordLen)
	}
	return nil
}

// AlignmentBlock returns the smallest number of bytes whose bit length is a
// multiple of wordLen.
func AlignmentBlock(wordLen int) int {
	n := 1
	for (n*8)%wordLen != 0 {
		n++
	}
	return n
}

// ScanWords splits r into wordLen-bit words, most significant first, calling
// emit for each in source order. Bytes that do not complete an alignment
// block are returned as the tail, untouched.
func ScanWords(r io.Reader, wordLen int, emit func(word uint32)) ([]byte, error) {
	if err := checkWordLen(wordLen); err != nil {
		return nil, err
	}
	block := make([]byte, AlignmentBlock(wordLen))
	mask := uint32(1)<<uint(wordLen) - 1
	br := bufio.NewReader(r)
	for {
		n, err := io.ReadFull(br, block)
		switch {
		case err == io.EOF:
			return nil, nil
		case err == io.ErrUnexpectedEOF:
			return append([]byte(nil), block[:n]...), nil
		case err != nil:
			return nil, errors.Wrapf(ErrSourceUnavailable, "read source: %v", err)
		}
		// acc only ever needs its low held bits; held stays below wordLen+8.
		var acc uint32
		held := 0
		for _, b := range block {
			acc = acc<<8 | uint32(b)
			held += 8
			for held >= wordLen {
				held -= wordLen
				emit(acc >> uint(held) & mask)
			}
		}
	}
}

// CountWords builds the frequency table of r. On a read failure no table is
// returned.
func CountWords(r io.Reader, wordLen int) (*FrequencyTable, error) {
	if err := checkWordLen(wordLen); err != nil {
		return nil, err
	}
	ft := &FrequencyTable{
		WordLen: wordLen,
		Counts:  make([]uint64, 1<<uint(wordLen)),
	}
	tail, err := ScanWords(r, wordLen, func(word uint32) {
		ft.Counts[word]++
	})
	if err != nil {
		return nil, err
	}
	ft.Tail = tail
	return ft, nil
}

// Distinct returns how many word values occur at least once.
func (ft *FrequencyTable) Distinct() int {
	n := 0
	for _, c := range ft.Counts {
		if c != 0 {
			n++
		}
	}
	return n
}

// Words returns the total number of words counted.
func (ft *FrequencyTable) Words() uint64 {
	var n uint64
	for _, c := range ft.Counts {
		n += c
	}
	return n
}

// TotalBits returns the number of input bits the table accounts for,
// counted words and tail together.
func (ft *FrequencyTable) TotalBits() uint64 {
	return ft.Words()*uint64(ft.WordLen) + uint64(len(ft.Tail))*8
}
