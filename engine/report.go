package engine

import (
	"io"

	"github.com/fatih/color"
)

var (
	labelColor = color.New(color.FgCyan)
	valueColor = color.New(color.FgGreen, color.Bold)
)

func PrintReport(w io.Writer, r Report) {
	labelColor.Fprintf(w, "%s -> ", r.Source)
	valueColor.Fprintf(w, "%s\n", r.Output)
	labelColor.Fprint(w, "Original size (in bytes): ")
	valueColor.Fprintf(w, "%d\n", r.OriginalSize)
	labelColor.Fprint(w, "Compressed size (in bytes): ")
	valueColor.Fprintf(w, "%d\n", r.CompressedSize)
	if r.Codes != nil {
		labelColor.Fprint(w, "Dictionary entries: ")
		valueColor.Fprintf(w, "%d\n", r.Codes.Len())
	}
	labelColor.Fprint(w, "Compression ratio: ")
	valueColor.Fprintf(w, "%.2f%%\n", r.Ratio())
}
