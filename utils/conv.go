package utils

import (
	"bytes"

	"github.com/toslib/tos_browser/config"

	"golang.org/x/text/transform"
)

// DecodeString converts raw name bytes to text with the configured encoding.
// Invalid sequences are replaced, never rejected.
func DecodeString(bs []byte) string {
	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs)
	if err != nil {
		return string(bytes.ToValidUTF8(bs, []byte("\uFFFD")))
	}
	return string(bytes.ToValidUTF8(s, []byte("\uFFFD")))
}

// BytesToString is DecodeString for zero-terminated buffers.
func BytesToString(bs []byte) string {
	return DecodeString(bs[:BytesStringLength(bs)])
}

func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}
