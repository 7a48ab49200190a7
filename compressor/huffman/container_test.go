package huffman

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/arnasjozonis/huffman-encode/compressor/bitstream"
)

func TestEncodeAAB(t *testing.T) {
	out, err := EncodeBytes([]byte("AAB"), 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x08, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03, 0x00, // header
		// 01 1 01000001 | 01 0 01000010 | 1 1 0 | 0000000
		0x68, 0x29, 0x0B, 0x00,
	}
	if !bytes.Equal(out, want) {
		t.Fatalf("container = % x, want % x", out, want)
	}
	back, err := DecodeBytes(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(back) != "AAB" {
		t.Errorf("decoded %q, want %q", back, "AAB")
	}
}

func TestEncodeEmpty(t *testing.T) {
	out, err := EncodeBytes(nil, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x08, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(out, want) {
		t.Fatalf("container = % x, want % x", out, want)
	}
	back, err := DecodeBytes(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 0 {
		t.Errorf("decoded %d bytes, want 0", len(back))
	}
}

func TestEncodeSingleSymbol(t *testing.T) {
	for _, wordLen := range []int{1, 4, 8, 16} {
		src := bytes.Repeat([]byte{0xFF}, 10)
		out, err := EncodeBytes(src, wordLen)
		if err != nil {
			t.Fatalf("wordLen %d: %v", wordLen, err)
		}
		if entries := int(out[1])<<8 | int(out[2]); entries != 1 {
			t.Errorf("wordLen %d: %d dictionary entries, want 1", wordLen, entries)
		}
		back, err := DecodeBytes(out)
		if err != nil {
			t.Fatalf("wordLen %d: %v", wordLen, err)
		}
		if !bytes.Equal(back, src) {
			t.Errorf("wordLen %d: decoded % x, want % x", wordLen, back, src)
		}
	}
}

func TestEncodeTailOnly(t *testing.T) {
	src := []byte{0xDE, 0xAD}
	out, err := EncodeBytes(src, 5)
	if err != nil {
		t.Fatal(err)
	}
	if out[7] != 2 {
		t.Errorf("tail count = %d, want 2", out[7])
	}
	back, err := DecodeBytes(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, src) {
		t.Errorf("decoded % x, want % x", back, src)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	inputs := [][]byte{
		nil,
		{0},
		[]byte("hello, world"),
		bytes.Repeat([]byte("abracadabra"), 50),
	}
	for i := 0; i < 6; i++ {
		b := make([]byte, rng.Intn(3000))
		rng.Read(b)
		inputs = append(inputs, b)
	}
	for wordLen := MinWordLen; wordLen <= MaxWordLen; wordLen++ {
		for _, src := range inputs {
			out, err := EncodeBytes(src, wordLen)
			if err != nil {
				t.Fatalf("wordLen %d, %d bytes: encode: %v", wordLen, len(src), err)
			}
			back, err := DecodeBytes(out)
			if err != nil {
				t.Fatalf("wordLen %d, %d bytes: decode: %v", wordLen, len(src), err)
			}
			if !bytes.Equal(back, src) {
				t.Fatalf("wordLen %d, %d bytes: round trip mismatch", wordLen, len(src))
			}
		}
	}
}

func TestEncodeReturnsCodeTable(t *testing.T) {
	var out bytes.Buffer
	ct, err := Encode(bytes.NewReader([]byte("AAB")), 8, &out)
	if err != nil {
		t.Fatal(err)
	}
	entries := ct.Entries()
	if len(entries) != 2 {
		t.Fatalf("%d entries, want 2", len(entries))
	}
	if entries[0] != (Entry{Symbol: 0x41, Code: Code{Pattern: 1, Len: 1}}) {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1] != (Entry{Symbol: 0x42, Code: Code{Pattern: 0, Len: 1}}) {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestEncodeFromOffset(t *testing.T) {
	r := bytes.NewReader([]byte("skipAAB"))
	if _, err := r.Seek(4, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if _, err := Encode(r, 8, &out); err != nil {
		t.Fatal(err)
	}
	back, err := DecodeBytes(out.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if string(back) != "AAB" {
		t.Errorf("decoded %q, want %q", back, "AAB")
	}
}

func TestEncodeWordLenOutOfRange(t *testing.T) {
	for _, wordLen := range []int{0, 17, 64} {
		if _, err := EncodeBytes([]byte("x"), wordLen); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("wordLen %d: %v, want ErrOutOfRange", wordLen, err)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	full, err := EncodeBytes([]byte("the quick brown fox jumps over the lazy dog"), 8)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 3, HeaderSize - 1, HeaderSize + 2, len(full) / 2, len(full) - 2} {
		if _, err := DecodeBytes(full[:n]); !errors.Is(err, ErrTruncatedContainer) {
			t.Errorf("first %d of %d bytes: %v, want ErrTruncatedContainer", n, len(full), err)
		}
	}
}

func TestDecodeTruncatedTail(t *testing.T) {
	full, err := EncodeBytes([]byte{1, 2, 3, 4, 5, 6, 7}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if full[7] != 2 {
		t.Fatalf("tail count = %d, want 2", full[7])
	}
	if _, err := DecodeBytes(full[:len(full)-2]); !errors.Is(err, ErrTruncatedContainer) {
		t.Errorf("missing tail: %v, want ErrTruncatedContainer", err)
	}
}

// container assembles a container by hand so malformed ones can be built.
func container(t *testing.T, h Header, body func(bw *bitstream.Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	bw := bitstream.NewWriter(&buf)
	if err := h.write(bw); err != nil {
		t.Fatal(err)
	}
	body(bw)
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeUnmatchedCode(t *testing.T) {
	// Codes 00 and 01 only; the payload starts with 11.
	data := container(t, Header{WordLen: 8, Entries: 2, PayloadBits: 4}, func(bw *bitstream.Writer) {
		bw.WriteBits(2, 2)
		bw.WriteBits(0, 2)
		bw.WriteBits('a', 8)
		bw.WriteBits(2, 2)
		bw.WriteBits(1, 2)
		bw.WriteBits('b', 8)
		bw.WriteBits(0x3, 2)
		bw.WriteBits(0x0, 2)
	})
	if _, err := DecodeBytes(data); !errors.Is(err, ErrCorruptDictionary) {
		t.Errorf("unmatched code: %v, want ErrCorruptDictionary", err)
	}
}

func TestDecodeZeroCodeLength(t *testing.T) {
	data := container(t, Header{WordLen: 8, Entries: 1, PayloadBits: 1}, func(bw *bitstream.Writer) {
		bw.WriteBits(0, 1)
		bw.WriteBits('a', 8)
		bw.WriteBits(0, 1)
	})
	if _, err := DecodeBytes(data); !errors.Is(err, ErrCorruptDictionary) {
		t.Errorf("zero code length: %v, want ErrCorruptDictionary", err)
	}
}

func TestDecodeBadHeader(t *testing.T) {
	cases := map[string]Header{
		"word length 0":        {WordLen: 0},
		"word length 17":       {WordLen: 17},
		"tail too long":        {WordLen: 8, TailLen: 1},
		"too many entries":     {WordLen: 2, Entries: 5},
		"payload without dict": {WordLen: 8, PayloadBits: 8},
	}
	for name, h := range cases {
		data := container(t, h, func(*bitstream.Writer) {})
		_, err := DecodeBytes(data)
		if !errors.Is(err, ErrCorruptDictionary) && !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s: %v, want ErrCorruptDictionary or ErrOutOfRange", name, err)
		}
	}
}

func TestDecodePartialWords(t *testing.T) {
	// One 8-bit word coded into a 4-bit container would leave half a byte.
	data := container(t, Header{WordLen: 4, Entries: 1, PayloadBits: 1}, func(bw *bitstream.Writer) {
		bw.WriteBits(1, 1)
		bw.WriteBits(0, 1)
		bw.WriteBits(0xA, 4)
		bw.WriteBits(0, 1)
	})
	if _, err := DecodeBytes(data); !errors.Is(err, ErrCorruptDictionary) {
		t.Errorf("half a byte of words: %v, want ErrCorruptDictionary", err)
	}
}

func TestDecodeIgnoresPadding(t *testing.T) {
	out, err := EncodeBytes([]byte("AAB"), 8)
	if err != nil {
		t.Fatal(err)
	}
	// The last byte holds one payload bit and seven padding bits.
	out[len(out)-1] |= 0x7F
	back, err := DecodeBytes(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(back) != "AAB" {
		t.Errorf("decoded %q, want %q", back, "AAB")
	}
}

func TestLenFieldWidth(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 2, 4: 3, 255: 8, 256: 9, 65535: 16}
	for entries, want := range cases {
		if got := LenFieldWidth(entries); got != want {
			t.Errorf("LenFieldWidth(%d) = %d, want %d", entries, got, want)
		}
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte("AAB"), uint8(8))
	f.Add([]byte{}, uint8(3))
	f.Add([]byte{0xFF, 0xFF, 0xFF}, uint8(1))
	f.Add([]byte("tail bytes"), uint8(13))
	f.Add([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, uint8(16))

	f.Fuzz(func(t *testing.T, src []byte, n uint8) {
		wordLen := int(n)%MaxWordLen + 1
		out, err := EncodeBytes(src, wordLen)
		if err != nil {
			if errors.Is(err, ErrOutOfRange) {
				t.Skip()
			}
			t.Fatal(err)
		}
		back, err := DecodeBytes(out)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(back, src) {
			t.Errorf("wordLen %d: round trip mismatch", wordLen)
		}
	})
}

func FuzzDecode(f *testing.F) {
	seed, _ := EncodeBytes([]byte("abracadabra"), 8)
	f.Add(seed)
	f.Add([]byte{})
	f.Add([]byte{0x08, 0, 0, 0, 0, 0, 0, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Arbitrary input must fail cleanly, never panic.
		DecodeBytes(data)
	})
}
