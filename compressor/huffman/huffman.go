// Package huffman compresses byte streams by splitting them into fixed-width
// words and Huffman coding the words. The container it produces carries its
// own dictionary, so decoding needs nothing but the container.
package huffman

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

var errWriterClosed = errors.New("huffman: write to closed writer")

// CompressionWriter collects everything written to it and emits a single
// container on Close. The codec needs two passes over its input, so nothing
// reaches the underlying writer before then.
type CompressionWriter struct {
	w        io.Writer
	wordLen  int
	input    bytes.Buffer
	isClosed bool
	codes    *CodeTable
}

func NewWriter(writer io.Writer, wordLen int) (*CompressionWriter, error) {
	if err := checkWordLen(wordLen); err != nil {
		return nil, err
	}
	return &CompressionWriter{w: writer, wordLen: wordLen}, nil
}

func (cw *CompressionWriter) Write(data []byte) (int, error) {
	if cw.isClosed {
		return 0, errWriterClosed
	}
	return cw.input.Write(data)
}

func (cw *CompressionWriter) Close() error {
	if cw.isClosed {
		return nil
	}
	cw.isClosed = true
	codes, err := Encode(bytes.NewReader(cw.input.Bytes()), cw.wordLen, cw.w)
	if err != nil {
		return err
	}
	cw.codes = codes
	cw.input.Reset()
	return nil
}

// Codes returns the code table used by Close, or nil before Close succeeds.
func (cw *CompressionWriter) Codes() *CodeTable {
	return cw.codes
}

// DecompressionReader decodes a whole container on the first Read and then
// serves the recovered bytes.
type DecompressionReader struct {
	r      io.Reader
	output *bytes.Buffer
	err    error
}

func NewReader(reader io.Reader) *DecompressionReader {
	return &DecompressionReader{r: reader}
}

func (dr *DecompressionReader) Read(data []byte) (int, error) {
	if dr.output == nil && dr.err == nil {
		dr.output = new(bytes.Buffer)
		dr.err = Decode(dr.r, dr.output)
	}
	if dr.err != nil {
		return 0, dr.err
	}
	return dr.output.Read(data)
}
