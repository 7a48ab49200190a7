// Package engine runs the codec over files: it names outputs, writes them
// atomically, reports progress and logs what the codec decided.
package engine

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/arnasjozonis/huffman-encode/compressor/huffman"
)

var log = logging.MustGetLogger("huffman-encode/engine")

const (
	DefaultWordLen   = 8
	DefaultExtension = ".bdazip"
	// decompressed output gets this suffix when the input lacks Extension
	fallbackExtension = ".out"
)

type Options struct {
	WordLen   int
	Extension string
	Delete    bool
	Progress  bool
}

func DefaultOptions() Options {
	return Options{
		WordLen:   DefaultWordLen,
		Extension: DefaultExtension,
	}
}

// Report describes one finished file.
type Report struct {
	Source         string
	Output         string
	OriginalSize   int64
	CompressedSize int64
	Codes          *huffman.CodeTable
}

// Ratio is the compressed size as a percentage of the original.
func (r Report) Ratio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.CompressedSize) / float64(r.OriginalSize) * 100
}

// progressSource counts bytes read through a seekable file into a bar.
type progressSource struct {
	*os.File
	bar *pb.ProgressBar
}

func (s *progressSource) Read(p []byte) (int, error) {
	n, err := s.File.Read(p)
	if s.bar != nil {
		s.bar.Add(n)
	}
	return n, err
}

func newBar(total int64, enabled bool) *pb.ProgressBar {
	if !enabled {
		return nil
	}
	bar := pb.New64(total)
	bar.Set(pb.Bytes, true)
	bar.Start()
	return bar
}

func finishBar(bar *pb.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}

func CompressFiles(files []string, opts Options) ([]Report, error) {
	var reports []Report
	for _, file := range files {
		r, err := CompressFile(file, opts)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// CompressFile writes filePath+opts.Extension. The output only appears once
// it is complete; a failed run leaves nothing behind.
func CompressFile(filePath string, opts Options) (Report, error) {
	report := Report{Source: filePath, Output: filePath + opts.Extension}
	src, err := os.Open(filePath)
	if err != nil {
		return report, errors.Wrapf(huffman.ErrSourceUnavailable, "open %s: %v", filePath, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return report, errors.Wrapf(huffman.ErrSourceUnavailable, "stat %s: %v", filePath, err)
	}
	report.OriginalSize = info.Size()

	log.Infof("compressing %s with %d-bit words", filePath, opts.WordLen)
	// the encoder reads the source twice
	bar := newBar(2*info.Size(), opts.Progress)
	err = writeAtomically(report.Output, func(w io.Writer) error {
		codes, err := huffman.Encode(&progressSource{File: src, bar: bar}, opts.WordLen, w)
		report.Codes = codes
		return err
	})
	finishBar(bar)
	if err != nil {
		return report, err
	}
	logCodes(report.Codes)

	if report.CompressedSize, err = fileSize(report.Output); err != nil {
		return report, err
	}
	if opts.Delete {
		if err := os.Remove(filePath); err != nil {
			return report, errors.WithStack(err)
		}
	}
	return report, nil
}

func DecompressFiles(files []string, opts Options) ([]Report, error) {
	var reports []Report
	for _, file := range files {
		r, err := DecompressFile(file, opts)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// DecompressFile restores filePath without its extension, or with
// ".out" appended when the name does not carry the extension.
func DecompressFile(filePath string, opts Options) (Report, error) {
	report := Report{Source: filePath, Output: decompressedName(filePath, opts.Extension)}
	src, err := os.Open(filePath)
	if err != nil {
		return report, errors.Wrapf(huffman.ErrSourceUnavailable, "open %s: %v", filePath, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return report, errors.Wrapf(huffman.ErrSourceUnavailable, "stat %s: %v", filePath, err)
	}
	report.CompressedSize = info.Size()

	log.Infof("decompressing %s into %s", filePath, report.Output)
	bar := newBar(info.Size(), opts.Progress)
	var in io.Reader = bufio.NewReader(src)
	if bar != nil {
		in = bar.NewProxyReader(in)
	}
	err = writeAtomically(report.Output, func(w io.Writer) error {
		return huffman.Decode(in, w)
	})
	finishBar(bar)
	if err != nil {
		return report, err
	}

	if report.OriginalSize, err = fileSize(report.Output); err != nil {
		return report, err
	}
	if opts.Delete {
		if err := os.Remove(filePath); err != nil {
			return report, errors.WithStack(err)
		}
	}
	return report, nil
}

func decompressedName(filePath, extension string) string {
	if extension != "" && strings.HasSuffix(filePath, extension) && len(filePath) > len(extension) {
		return strings.TrimSuffix(filePath, extension)
	}
	return filePath + fallbackExtension
}

// writeAtomically fills a temporary file next to dst and renames it over dst
// only when fill and every flush succeed.
func writeAtomically(dst string, fill func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temporary output for %s", dst)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	w := bufio.NewWriter(tmp)
	if err = fill(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.WithStack(err)
	}
	if err = tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp.Name(), dst))
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return info.Size(), nil
}

func logCodes(codes *huffman.CodeTable) {
	if codes == nil || !log.IsEnabledFor(logging.DEBUG) {
		return
	}
	for _, e := range codes.Entries() {
		log.Debugf("word %d coded as %0*b (%d bits)", e.Symbol, e.Len, e.Pattern, e.Len)
	}
	log.Debugf("%d words in the dictionary", codes.Len())
}
