// Package bitstream reads and writes bit-granular streams, most significant
// bit first, and keeps count of how many bits went through.
package bitstream

import (
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// MaxBits is the widest value a single WriteBits or ReadBits call can move.
const MaxBits = 64

var ErrOutOfRange = errors.New("bit count out of range")

type Writer struct {
	w     *bitio.Writer
	count uint64
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{w: bitio.NewWriter(out)}
}

// WriteBits writes the count lowest bits of value, most significant first.
func (bw *Writer) WriteBits(value uint64, count int) error {
	if count < 0 || count > MaxBits {
		return errors.Wrapf(ErrOutOfRange, "write of %d bits", count)
	}
	if count == 0 {
		return nil
	}
	if count < MaxBits {
		value &= 1<<uint(count) - 1
	}
	if err := bw.w.WriteBits(value, uint8(count)); err != nil {
		return errors.WithStack(err)
	}
	bw.count += uint64(count)
	return nil
}

func (bw *Writer) WriteBit(bit bool) error {
	if err := bw.w.WriteBool(bit); err != nil {
		return errors.WithStack(err)
	}
	bw.count++
	return nil
}

// WriteByte writes b at the current bit position, which need not be byte aligned.
func (bw *Writer) WriteByte(b byte) error {
	if err := bw.w.WriteByte(b); err != nil {
		return errors.WithStack(err)
	}
	bw.count += 8
	return nil
}

func (bw *Writer) BitsWritten() uint64 {
	return bw.count
}

// Pad writes zero bits until the bit count is a multiple of 8.
func (bw *Writer) Pad() error {
	for bw.count%8 != 0 {
		if err := bw.WriteBit(false); err != nil {
			return err
		}
	}
	return nil
}

// Close pads to a byte boundary and flushes buffered bytes. The underlying
// writer is left open.
func (bw *Writer) Close() error {
	if err := bw.Pad(); err != nil {
		return err
	}
	return errors.WithStack(bw.w.Close())
}

type Reader struct {
	r     *bitio.Reader
	count uint64
}

func NewReader(in io.Reader) *Reader {
	return &Reader{r: bitio.NewReader(in)}
}

// ReadBit returns the next bit. io.EOF is returned unwrapped when the input
// is exhausted so callers can tell it apart from a failed read.
func (br *Reader) ReadBit() (bool, error) {
	bit, err := br.r.ReadBool()
	if err != nil {
		if err == io.EOF {
			return false, io.EOF
		}
		return false, errors.WithStack(err)
	}
	br.count++
	return bit, nil
}

// ReadBits reads count bits into the low end of the result. Running out of
// input part way through yields io.ErrUnexpectedEOF.
func (br *Reader) ReadBits(count int) (uint64, error) {
	if count < 0 || count > MaxBits {
		return 0, errors.Wrapf(ErrOutOfRange, "read of %d bits", count)
	}
	var v uint64
	for i := 0; i < count; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			if err == io.EOF && i > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v, nil
}

func (br *Reader) ReadByte() (byte, error) {
	v, err := br.ReadBits(8)
	return byte(v), err
}

func (br *Reader) BitsRead() uint64 {
	return br.count
}
