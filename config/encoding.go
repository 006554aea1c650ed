package config

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var (
	encodingLock    sync.RWMutex
	currentEncoding encoding.Encoding = unicode.UTF8
	currentName                       = "utf-8"
)

func lookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if strings.EqualFold(cm.String(), name) {
				return cm, nil
			}
		}
	}
	return nil, errors.Errorf("Failed to find encoding %q", name)
}

// SetEncoding selects the encoding used for archive and model names.
func SetEncoding(name string) error {
	enc, err := lookupEncoding(name)
	if err != nil {
		return err
	}
	encodingLock.Lock()
	defer encodingLock.Unlock()
	currentEncoding = enc
	currentName = name
	return nil
}

func ListEncodings() []string {
	list := []string{"utf-8", "euc-kr", "gbk", "shift_jis", "big5"}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	sort.Strings(list)
	return list
}

func GetEncoding() encoding.Encoding {
	encodingLock.RLock()
	defer encodingLock.RUnlock()
	return currentEncoding
}

func GetEncodingName() string {
	encodingLock.RLock()
	defer encodingLock.RUnlock()
	return currentName
}
