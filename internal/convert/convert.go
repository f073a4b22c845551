// Package convert turns raw image bytes into the base64 text payload the OCR
// request body carries.
package convert

import (
	"encoding/base64"
	"fmt"
	"os"
	"unicode/utf8"
)

// ReadFile loads the raw bytes of one source image.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Encode produces the transport-safe text representation of raw image bytes.
// The output must survive embedding in a JSON body, so anything that does not
// come out as valid UTF-8 text is rejected rather than passed downstream.
func Encode(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("encode image: empty byte stream")
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if !utf8.ValidString(encoded) {
		return "", fmt.Errorf("encode image: payload is not valid text")
	}
	return encoded, nil
}

// Decode reverses Encode. The pipeline itself never decodes; this exists so
// the round-trip law is checkable.
func Decode(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return raw, nil
}
