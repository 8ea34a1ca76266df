package htmlselect

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// maxDecompressedSize caps how much output DecodeBody will produce for a
// single body, so a small compressed payload can't be used to exhaust memory.
const maxDecompressedSize = 128 * 1024 * 1024 // 128 MB

// DecodeBody decompresses body according to the Content-Encoding header
// value contentEncoding ("gzip", "deflate", "br", or "identity"/empty), so
// HTMLRewriter and QueryAll can be pointed at an upstream response body
// without the caller decompressing it first.
func DecodeBody(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("decodebody: gzip: %w", err)
		}
		defer r.Close()
		return readLimited(r)
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return readLimited(r)
	case "br":
		return readLimited(brotli.NewReader(bytes.NewReader(body)))
	default:
		return nil, fmt.Errorf("decodebody: unsupported content-encoding %q", contentEncoding)
	}
}

func readLimited(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(maxDecompressedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("decodebody: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decodebody: output exceeds maximum allowed size of %d bytes", maxDecompressedSize)
	}
	return out, nil
}
