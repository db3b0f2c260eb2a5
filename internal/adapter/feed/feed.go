package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"golang.org/x/net/html/charset"
)

// ErrEmptyFeed is returned when the document has no root element.
var ErrEmptyFeed = errors.New("feed has no root element")

// FileSource reads the yearly price dump from disk.
// It implements pipeline.Source.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the XML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load decodes every station record of the file, in document order.
func (s *FileSource) Load(ctx context.Context) ([]domain.RawStation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a feed document and returns one record per child of the root
// element. Dumps are declared ISO-8859-1, so non UTF-8 charsets are converted.
func Decode(r io.Reader) ([]domain.RawStation, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var stations []domain.RawStation
	rootSeen := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode feed: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !rootSeen {
			rootSeen = true
			continue
		}

		var raw domain.RawStation
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("decode station %d: %w", len(stations), err)
		}
		stations = append(stations, raw)
	}

	if !rootSeen {
		return nil, ErrEmptyFeed
	}
	return stations, nil
}
