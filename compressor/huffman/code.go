package huffman

import (
	"github.com/pkg/errors"

	"github.com/arnasjozonis/huffman-encode/compressor/bitstream"
)

// Code is a root-to-leaf bit path. The first branch taken is the most
// significant of the Len low bits of Pattern.
type Code struct {
	Pattern uint64
	Len     int
}

// Entry pairs a word value with its code.
type Entry struct {
	Symbol uint32
	Code
}

// CodeTable maps every word value of the alphabet to its code. Values that
// never occurred have a zero-length code.
type CodeTable struct {
	wordLen int
	codes   []Code
	size    int
}

// NewCodeTable walks the tree assigning 0 to every zero branch and 1 to
// every one branch. A root that is itself a leaf gets the one-bit code 0.
func NewCodeTable(root *Node, wordLen int) (*CodeTable, error) {
	if err := checkWordLen(wordLen); err != nil {
		return nil, err
	}
	ct := &CodeTable{
		wordLen: wordLen,
		codes:   make([]Code, 1<<uint(wordLen)),
	}
	if root == nil {
		return ct, nil
	}
	if root.IsLeaf() {
		if err := ct.set(root.Symbol, Code{Pattern: 0, Len: 1}); err != nil {
			return nil, err
		}
		return ct, nil
	}
	if err := ct.walk(root.Zero, Code{Pattern: 0, Len: 1}); err != nil {
		return nil, err
	}
	if err := ct.walk(root.One, Code{Pattern: 1, Len: 1}); err != nil {
		return nil, err
	}
	return ct, nil
}

func (ct *CodeTable) walk(n *Node, path Code) error {
	if n.IsLeaf() {
		return ct.set(n.Symbol, path)
	}
	if path.Len == bitstream.MaxBits {
		return errors.Wrapf(ErrOutOfRange, "code deeper than %d bits", bitstream.MaxBits)
	}
	if err := ct.walk(n.Zero, Code{Pattern: path.Pattern << 1, Len: path.Len + 1}); err != nil {
		return err
	}
	return ct.walk(n.One, Code{Pattern: path.Pattern<<1 | 1, Len: path.Len + 1})
}

func (ct *CodeTable) set(symbol uint32, c Code) error {
	if int(symbol) >= len(ct.codes) {
		return errors.Wrapf(ErrOutOfRange, "word %d wider than %d bits", symbol, ct.wordLen)
	}
	if ct.codes[symbol].Len == 0 {
		ct.size++
	}
	ct.codes[symbol] = c
	return nil
}

func (ct *CodeTable) WordLen() int {
	return ct.wordLen
}

// Len returns the number of words that have a code.
func (ct *CodeTable) Len() int {
	return ct.size
}

func (ct *CodeTable) Lookup(symbol uint32) (Code, bool) {
	if int(symbol) >= len(ct.codes) {
		return Code{}, false
	}
	c := ct.codes[symbol]
	return c, c.Len > 0
}

// Entries lists the coded words in ascending word value.
func (ct *CodeTable) Entries() []Entry {
	entries := make([]Entry, 0, ct.size)
	for symbol, c := range ct.codes {
		if c.Len > 0 {
			entries = append(entries, Entry{Symbol: uint32(symbol), Code: c})
		}
	}
	return entries
}

// PayloadBits returns the number of bits the coded words of ft occupy.
func (ct *CodeTable) PayloadBits(ft *FrequencyTable) uint64 {
	var total uint64
	for symbol, count := range ft.Counts {
		if count == 0 {
			continue
		}
		if c, ok := ct.Lookup(uint32(symbol)); ok {
			total += count * uint64(c.Len)
		}
	}
	return total
}

type codeKey struct {
	pattern uint64
	length  int
}

// DecodeTable is the inverse of a CodeTable, keyed by (pattern, length).
type DecodeTable struct {
	symbols map[codeKey]uint32
	maxLen  int
}

func NewDecodeTable() *DecodeTable {
	return &DecodeTable{symbols: make(map[codeKey]uint32)}
}

// Add registers code c for symbol. A repeated code is rejected.
func (dt *DecodeTable) Add(c Code, symbol uint32) error {
	if c.Len < 1 || c.Len > bitstream.MaxBits {
		return errors.Wrapf(ErrCorruptDictionary, "code length %d for word %d", c.Len, symbol)
	}
	k := codeKey{pattern: c.Pattern, length: c.Len}
	if prev, ok := dt.symbols[k]; ok {
		return errors.Wrapf(ErrCorruptDictionary, "words %d and %d share a code", prev, symbol)
	}
	dt.symbols[k] = symbol
	if c.Len > dt.maxLen {
		dt.maxLen = c.Len
	}
	return nil
}

func (dt *DecodeTable) Lookup(pattern uint64, length int) (uint32, bool) {
	symbol, ok := dt.symbols[codeKey{pattern: pattern, length: length}]
	return symbol, ok
}

// MaxLen returns the longest registered code length.
func (dt *DecodeTable) MaxLen() int {
	return dt.maxLen
}

func (dt *DecodeTable) Len() int {
	return len(dt.symbols)
}
