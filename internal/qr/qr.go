// Package qr renders the upload address as a QR code for browsers (PNG) and
// terminals (block characters).
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// Level H tolerates ~30% damage, enough for a printed code on a table.
const level = qrcode.High

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// PNG encodes url as a size×size PNG image.
func PNG(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("qr: empty url")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(url, level, size)
}

// Terminal renders url with half-block characters. inverse swaps the
// colours for light-on-dark terminals.
func Terminal(url string, inverse bool) (string, error) {
	if url == "" {
		return "", fmt.Errorf("qr: empty url")
	}
	q, err := qrcode.New(url, level)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(inverse), nil
}
