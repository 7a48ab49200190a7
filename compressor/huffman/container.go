package huffman

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/arnasjozonis/huffman-encode/compressor/bitstream"
)

// HeaderSize is the fixed length of the container header in bytes.
const HeaderSize = 8

// Header is the fixed, big-endian prefix of every container.
//
//	[0]    word length
//	[1:3]  dictionary entry count
//	[3:7]  payload bits taken by coded words
//	[7]    tail byte count
type Header struct {
	WordLen     uint8
	Entries     uint16
	PayloadBits uint32
	TailLen     uint8
}

func (h Header) write(bw *bitstream.Writer) error {
	var buf [HeaderSize]byte
	buf[0] = h.WordLen
	binary.BigEndian.PutUint16(buf[1:3], h.Entries)
	binary.BigEndian.PutUint32(buf[3:7], h.PayloadBits)
	buf[7] = h.TailLen
	for _, b := range buf {
		if err := bw.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(br *bitstream.Reader) (Header, error) {
	var buf [HeaderSize]byte
	for i := range buf {
		b, err := br.ReadByte()
		if err != nil {
			return Header{}, truncated(err, "header")
		}
		buf[i] = b
	}
	h := Header{
		WordLen:     buf[0],
		Entries:     binary.BigEndian.Uint16(buf[1:3]),
		PayloadBits: binary.BigEndian.Uint32(buf[3:7]),
		TailLen:     buf[7],
	}
	return h, h.validate()
}

func (h Header) validate() error {
	wordLen := int(h.WordLen)
	if err := checkWordLen(wordLen); err != nil {
		return err
	}
	if int(h.TailLen) >= AlignmentBlock(wordLen) {
		return errors.Wrapf(ErrCorruptDictionary, "tail of %d bytes for %d-bit words", h.TailLen, wordLen)
	}
	if int(h.Entries) > 1<<uint(wordLen) {
		return errors.Wrapf(ErrCorruptDictionary, "%d entries for %d-bit words", h.Entries, wordLen)
	}
	if h.Entries == 0 && h.PayloadBits != 0 {
		return errors.Wrapf(ErrCorruptDictionary, "%d payload bits with an empty dictionary", h.PayloadBits)
	}
	return nil
}

// LenFieldWidth returns the number of bits used to store each dictionary
// entry's code length: the bit length of the entry count, at least 1.
func LenFieldWidth(entries int) int {
	if entries < 1 {
		return 1
	}
	return bits.Len(uint(entries))
}

func truncated(err error, section string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrTruncatedContainer, "reading %s", section)
	}
	return errors.Wrapf(err, "reading %s", section)
}

// Encode compresses src into dst as a container of wordLen-bit words and
// returns the code table it used. src is read twice, once to count words and
// once, after seeking back to where it started, to emit their codes. On
// failure dst may hold a partial container.
func Encode(src io.ReadSeeker, wordLen int, dst io.Writer) (*CodeTable, error) {
	if err := checkWordLen(wordLen); err != nil {
		return nil, err
	}
	start, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "seek source: %v", err)
	}
	ft, err := CountWords(src, wordLen)
	if err != nil {
		return nil, err
	}
	ct, err := codesFor(ft)
	if err != nil {
		return nil, err
	}
	h, err := newHeader(ft, ct)
	if err != nil {
		return nil, err
	}

	bw := bitstream.NewWriter(dst)
	if err := h.write(bw); err != nil {
		return nil, err
	}
	if err := writeDictionary(bw, ct); err != nil {
		return nil, err
	}

	if _, err := src.Seek(start, io.SeekStart); err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "rewind source: %v", err)
	}
	payloadStart := bw.BitsWritten()
	var writeErr error
	tail, err := ScanWords(src, wordLen, func(word uint32) {
		if writeErr != nil {
			return
		}
		c, ok := ct.Lookup(word)
		if !ok {
			writeErr = errors.Wrapf(ErrSourceUnavailable, "word %d appeared after counting", word)
			return
		}
		writeErr = bw.WriteBits(c.Pattern, c.Len)
	})
	if err != nil {
		return nil, err
	}
	if writeErr != nil {
		return nil, writeErr
	}
	if bw.BitsWritten()-payloadStart != uint64(h.PayloadBits) || !bytes.Equal(tail, ft.Tail) {
		return nil, errors.Wrap(ErrSourceUnavailable, "source changed between passes")
	}

	for _, b := range tail {
		if err := bw.WriteByte(b); err != nil {
			return nil, err
		}
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	return ct, nil
}

func codesFor(ft *FrequencyTable) (*CodeTable, error) {
	if ft.Distinct() == 0 {
		return NewCodeTable(nil, ft.WordLen)
	}
	root, err := BuildTree(ft)
	if err != nil {
		return nil, err
	}
	return NewCodeTable(root, ft.WordLen)
}

func newHeader(ft *FrequencyTable, ct *CodeTable) (Header, error) {
	if ct.Len() > math.MaxUint16 {
		return Header{}, errors.Wrapf(ErrOutOfRange, "%d distinct words exceed the dictionary limit", ct.Len())
	}
	payload := ct.PayloadBits(ft)
	if payload > math.MaxUint32 {
		return Header{}, errors.Wrapf(ErrOutOfRange, "payload of %d bits exceeds the header limit", payload)
	}
	return Header{
		WordLen:     uint8(ft.WordLen),
		Entries:     uint16(ct.Len()),
		PayloadBits: uint32(payload),
		TailLen:     uint8(len(ft.Tail)),
	}, nil
}

func writeDictionary(bw *bitstream.Writer, ct *CodeTable) error {
	width := LenFieldWidth(ct.Len())
	for _, e := range ct.Entries() {
		if e.Len >= 1<<uint(width) {
			return errors.Wrapf(ErrOutOfRange, "code length %d does not fit in %d bits", e.Len, width)
		}
		if err := bw.WriteBits(uint64(e.Len), width); err != nil {
			return err
		}
		if err := bw.WriteBits(e.Pattern, e.Len); err != nil {
			return err
		}
		if err := bw.WriteBits(uint64(e.Symbol), ct.WordLen()); err != nil {
			return err
		}
	}
	return nil
}

func readDictionary(br *bitstream.Reader, h Header) (*DecodeTable, error) {
	dt := NewDecodeTable()
	width := LenFieldWidth(int(h.Entries))
	wordLen := int(h.WordLen)
	for i := 0; i < int(h.Entries); i++ {
		length, err := br.ReadBits(width)
		if err != nil {
			return nil, truncated(err, "dictionary")
		}
		if length < 1 || length > bitstream.MaxBits {
			return nil, errors.Wrapf(ErrCorruptDictionary, "entry %d has code length %d", i, length)
		}
		pattern, err := br.ReadBits(int(length))
		if err != nil {
			return nil, truncated(err, "dictionary")
		}
		symbol, err := br.ReadBits(wordLen)
		if err != nil {
			return nil, truncated(err, "dictionary")
		}
		if err := dt.Add(Code{Pattern: pattern, Len: int(length)}, uint32(symbol)); err != nil {
			return nil, err
		}
	}
	return dt, nil
}

// Decode reads a container from src and writes the original bytes to dst.
// Padding after the tail is ignored.
func Decode(src io.Reader, dst io.Writer) error {
	br := bitstream.NewReader(src)
	h, err := readHeader(br)
	if err != nil {
		return err
	}
	dt, err := readDictionary(br, h)
	if err != nil {
		return err
	}

	bw := bitstream.NewWriter(dst)
	wordLen := int(h.WordLen)
	var (
		buf uint64
		n   int
	)
	for consumed := uint64(0); consumed < uint64(h.PayloadBits); consumed++ {
		bit, err := br.ReadBit()
		if err != nil {
			return truncated(err, "payload")
		}
		buf <<= 1
		if bit {
			buf |= 1
		}
		n++
		if symbol, ok := dt.Lookup(buf, n); ok {
			if err := bw.WriteBits(uint64(symbol), wordLen); err != nil {
				return err
			}
			buf, n = 0, 0
			continue
		}
		if n >= dt.MaxLen() {
			return errors.Wrapf(ErrCorruptDictionary, "no code matches %d bits at payload bit %d", n, consumed)
		}
	}
	if n != 0 {
		return errors.Wrapf(ErrCorruptDictionary, "payload ends inside a %d-bit partial code", n)
	}
	if bw.BitsWritten()%8 != 0 {
		return errors.Wrapf(ErrCorruptDictionary, "payload decodes to %d bits, not whole bytes", bw.BitsWritten())
	}

	for i := 0; i < int(h.TailLen); i++ {
		b, err := br.ReadByte()
		if err != nil {
			return truncated(err, "tail")
		}
		if err := bw.WriteByte(b); err != nil {
			return err
		}
	}
	return bw.Close()
}

// EncodeBytes is Encode over an in-memory source.
func EncodeBytes(data []byte, wordLen int) ([]byte, error) {
	var out bytes.Buffer
	if _, err := Encode(bytes.NewReader(data), wordLen, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeBytes is Decode over an in-memory container.
func DecodeBytes(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := Decode(bytes.NewReader(data), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
