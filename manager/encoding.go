package manager

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readGrammarFile reads a grammar description stored as UTF-8, or as UTF-16
// when the bytes are not valid UTF-8.
func readGrammarFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read base grammar: %w", err)
	}
	return decodeGrammar(data)
}

func decodeGrammar(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode base grammar as UTF-16: %w", err)
	}
	return string(decoded), nil
}
