package report

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// ManifestHashToQR renders the manifest's SHA-256 digest as a QR code PNG
// of the given pixel size, for embedding into the acceptance PDF so a
// printed setup sheet can be matched to its archived stream file with a
// phone camera. Non-hex characters are dropped from the input before
// encoding.
func ManifestHashToQR(hash string, size int) ([]byte, error) {
	digest := hexDigits(hash)
	if digest == "" {
		return nil, errors.New("manifest hash is empty")
	}
	if size <= 0 {
		size = 128
	}
	return qrcode.Encode(digest, qrcode.Medium, size)
}

// hexDigits keeps only the hexadecimal digits of s, uppercased, so the QR
// payload stays in the alphanumeric encoding mode regardless of how the
// digest was formatted upstream.
func hexDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'a' && c <= 'f':
			out = append(out, c-'a'+'A')
		case c >= 'A' && c <= 'F':
			out = append(out, c)
		}
	}
	return string(out)
}
