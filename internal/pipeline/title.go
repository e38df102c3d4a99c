package pipeline

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/Aman-CERP/wikidex/internal/dump"
	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// namespacedTitle matches "Talk:…", "User talk:…", "File:…" and similar
// non-article pages.
var namespacedTitle = regexp.MustCompile(`^[A-Za-z\s_-]+:.*$`)

// IsNamespaced reports whether title belongs to a non-article namespace.
func IsNamespaced(title string) bool {
	return namespacedTitle.MatchString(title)
}

// TitleDecoder repairs titles that were read with the wrong charset.
// A title decoded from the declared charset is encoded back to its raw
// bytes; if those bytes form valid UTF-8 they are the real title, otherwise
// the decoded title stands. Not safe for concurrent use.
type TitleDecoder struct {
	charset string
	encoder *encoding.Encoder
}

// NewTitleDecoder builds a decoder for the declared charset.
func NewTitleDecoder(charset string) (*TitleDecoder, error) {
	enc, err := dump.LookupEncoding(charset)
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeConfigInvalid, err.Error(), err)
	}
	d := &TitleDecoder{charset: charset}
	if !dump.IsUTF8(enc) {
		d.encoder = enc.NewEncoder()
	}
	return d, nil
}

// Decode returns the canonical title. A title with characters the declared
// charset cannot represent yields an ERR_302 error.
func (d *TitleDecoder) Decode(title string) (string, error) {
	if d.encoder == nil {
		return title, nil
	}
	raw, err := d.encoder.Bytes([]byte(title))
	if err != nil {
		return "", wderrors.New(wderrors.ErrCodeTitleEncoding,
			fmt.Sprintf("title cannot be encoded as %s", d.charset), err).
			WithDetail("title", title)
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return title, nil
}
