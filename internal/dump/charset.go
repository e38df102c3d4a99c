package dump

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is assumed when the caller does not name one.
const DefaultEncoding = "ISO-8859-1"

// LookupEncoding resolves an IANA charset name (case-insensitive, aliases
// accepted) to an encoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		// Known to IANA but not implemented by x/text.
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// IsUTF8 reports whether enc decodes as UTF-8 without transformation.
func IsUTF8(enc encoding.Encoding) bool {
	return enc == unicode.UTF8 || enc == encoding.Nop
}
