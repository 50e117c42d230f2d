package util

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sniffLen is what http.DetectContentType inspects.
const sniffLen = 512

// ValidateMimeType sniffs the real content type rather than trusting the
// declared one. Entries in allowed may be full types or prefixes such as
// "video/". Returns the detected type either way.
func ValidateMimeType(r io.Reader, allowed []string) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}

	detected := http.DetectContentType(head[:n])
	for _, a := range allowed {
		if detected == a || strings.HasPrefix(detected, a) {
			return detected, nil
		}
	}
	return detected, fmt.Errorf("invalid file type: %s", detected)
}
