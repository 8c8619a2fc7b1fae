package gsr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrMalformed marks payloads that are not a decimal ADC reading.
	// The acquisition loop drops such ticks without reporting them.
	ErrMalformed = errors.New("malformed payload")
	// ErrNotConnected is returned by Read before Connect or after Close.
	ErrNotConnected = errors.New("not connected")
)

// ParseADC decodes an ASCII decimal ADC reading such as "2048\r\n".
// Format: optional surrounding whitespace, base-10 digits, value in [0, resolution].
func ParseADC(payload []byte, resolution int) (uint16, error) {
	if !utf8.Valid(payload) {
		return 0, fmt.Errorf("%w: invalid utf-8", ErrMalformed)
	}

	text := strings.TrimSpace(string(payload))
	if text == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformed)
	}

	value, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformed, text, err)
	}
	if value < 0 || value > int64(resolution) {
		return 0, fmt.Errorf("%w: reading out of range: %d (max %d)", ErrMalformed, value, resolution)
	}

	return uint16(value), nil
}
