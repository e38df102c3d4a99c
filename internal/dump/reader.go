// Package dump streams pages out of MediaWiki XML dumps.
//
// The reader pulls one <page> element at a time through encoding/xml, so
// memory stays bounded by the largest single page regardless of dump size.
// Plain, bzip2 and gzip inputs are detected by file extension.
package dump

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// Page is one article record extracted from the dump.
type Page struct {
	ID        int64
	Namespace int
	Title     string
	// Redirect is the redirect target, empty for regular pages.
	Redirect string
	Text     string
}

// IsRedirect reports whether the page only redirects elsewhere.
func (p *Page) IsRedirect() bool {
	return p.Redirect != ""
}

type xmlPage struct {
	Title     string        `xml:"title"`
	Namespace int           `xml:"ns"`
	ID        int64         `xml:"id"`
	Redirect  *xmlRedirect  `xml:"redirect"`
	Revisions []xmlRevision `xml:"revision"`
}

type xmlRedirect struct {
	Title string `xml:"title,attr"`
}

type xmlRevision struct {
	Text string `xml:"text"`
}

// Reader yields pages in document order. It is not safe for concurrent use;
// the pipeline drives it from a single producer goroutine.
type Reader struct {
	dec      *xml.Decoder
	closers []io.Closer
	name    string
	count   int64
	done    bool
	err     error
}

// Open opens a dump file. Files ending in .bz2 or .gz are decompressed on the
// fly. charset names the encoding used to decode the byte stream; an empty
// charset means DefaultEncoding.
func Open(path, charset string) (*Reader, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeConfigInvalid, err.Error(), err).
			WithSuggestion("use an IANA charset name such as UTF-8 or ISO-8859-1")
	}

	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, wderrors.New(wderrors.ErrCodeDumpNotFound,
				fmt.Sprintf("dump not found: %s", path), err).WithDetail("path", path)
		}
		return nil, wderrors.New(wderrors.ErrCodeDumpNotFound,
			fmt.Sprintf("cannot open dump: %s", path), err).WithDetail("path", path)
	}

	closers := []io.Closer{f}
	var src io.Reader = bufio.NewReaderSize(f, 1<<20)

	switch {
	case strings.HasSuffix(path, ".bz2"):
		src = bzip2.NewReader(src)
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(src)
		if err != nil {
			_ = f.Close()
			return nil, wderrors.New(wderrors.ErrCodeDecompression,
				fmt.Sprintf("cannot read gzip stream: %s", path), err).WithDetail("path", path)
		}
		closers = append([]io.Closer{gz}, closers...)
		src = gz
	}

	r := newReader(src, enc)
	r.name = path
	r.closers = closers
	return r, nil
}

// NewReader wraps an already decompressed stream.
func NewReader(src io.Reader, charset string) (*Reader, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeConfigInvalid, err.Error(), err)
	}
	return newReader(src, enc), nil
}

func newReader(src io.Reader, enc encoding.Encoding) *Reader {
	if !IsUTF8(enc) {
		src = transform.NewReader(src, enc.NewDecoder())
	}
	dec := xml.NewDecoder(src)
	// The stream is already UTF-8 here whatever the prolog declares.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return &Reader{dec: dec, name: "<stream>"}
}

// Next returns the next page, or io.EOF once the dump is exhausted.
// Any other error is fatal for the stream and subsequent calls return it again.
func (r *Reader) Next() (*Page, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}

	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				r.done = true
				return nil, io.EOF
			}
			return nil, r.streamError(err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var xp xmlPage
		if err := r.dec.DecodeElement(&xp, &start); err != nil {
			return nil, r.streamError(err)
		}
		r.count++
		return xp.toPage(), nil
	}
}

func (xp *xmlPage) toPage() *Page {
	p := &Page{
		ID:        xp.ID,
		Namespace: xp.Namespace,
		Title:     xp.Title,
	}
	if xp.Redirect != nil {
		p.Redirect = xp.Redirect.Title
	}
	// Full-history dumps carry many revisions; the last one is current.
	if n := len(xp.Revisions); n > 0 {
		p.Text = xp.Revisions[n-1].Text
	}
	return p
}

func (r *Reader) streamError(err error) error {
	r.err = r.classify(err)
	return r.err
}

func (r *Reader) classify(err error) error {
	var structural bzip2.StructuralError
	if stderrors.As(err, &structural) ||
		stderrors.Is(err, gzip.ErrChecksum) ||
		stderrors.Is(err, gzip.ErrHeader) {
		return wderrors.New(wderrors.ErrCodeDecompression,
			fmt.Sprintf("decompression failed in %s after %d pages", r.name, r.count), err).
			WithDetail("path", r.name)
	}
	return wderrors.New(wderrors.ErrCodeDumpMalformed,
		fmt.Sprintf("malformed dump %s after %d pages", r.name, r.count), err).
		WithDetail("path", r.name)
}

// Close releases the decompressor and the underlying file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return stderrors.Join(errs...)
}
