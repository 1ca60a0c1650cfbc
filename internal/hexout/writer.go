// Package hexout serializes a byte stream as lowercase hex text, four
// octets (eight hex characters) per line.
package hexout

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

const octetsPerLine = 4

// Write writes stream to w as lowercase hexadecimal, two characters per
// octet, with a newline after every 4 octets (8 hex characters per line).
// There is no trailing separator beyond the final newline.
func Write(w io.Writer, stream []byte) error {
	bw := bufio.NewWriter(w)
	var hexBuf [octetsPerLine * 2]byte
	for off := 0; off < len(stream); off += octetsPerLine {
		end := off + octetsPerLine
		if end > len(stream) {
			end = len(stream)
		}
		n := hex.Encode(hexBuf[:], stream[off:end])
		if _, err := bw.Write(hexBuf[:n]); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteToFile is a convenience wrapper that opens (truncating) out and
// writes stream to it via Write.
func WriteToFile(out string, stream []byte) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, stream)
}

// Decode is the inverse of Write: it concatenates every line of hex text
// (ignoring surrounding whitespace) back into the raw byte stream, for
// the CLI's verify command to re-check a previously generated file.
func Decode(text []byte) ([]byte, error) {
	var joined strings.Builder
	for _, line := range strings.Split(string(text), "\n") {
		joined.WriteString(strings.TrimSpace(line))
	}
	out, err := hex.DecodeString(joined.String())
	if err != nil {
		return nil, fmt.Errorf("hexout: decode: %w", err)
	}
	return out, nil
}
