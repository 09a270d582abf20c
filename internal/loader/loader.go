// Package loader reads PDF files and splits their text into indexable segments.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/ledongthuc/pdf"
)

const (
	// DefaultMaxSegmentRunes bounds one segment's text length.
	DefaultMaxSegmentRunes = 2000
	// DefaultOverlapRunes is carried between adjacent segments of the same page.
	DefaultOverlapRunes = 200
)

// Config holds splitting limits.
type Config struct {
	MaxSegmentRunes int
	OverlapRunes    int
}

// Loader extracts page text from PDF files and cuts it into segments.
type Loader struct {
	maxRunes int
	overlap  int
}

// New creates a Loader, filling zero config fields with defaults.
func New(cfg Config) *Loader {
	if cfg.MaxSegmentRunes <= 0 {
		cfg.MaxSegmentRunes = DefaultMaxSegmentRunes
	}
	if cfg.OverlapRunes < 0 || cfg.OverlapRunes >= cfg.MaxSegmentRunes {
		cfg.OverlapRunes = DefaultOverlapRunes
	}
	return &Loader{maxRunes: cfg.MaxSegmentRunes, overlap: cfg.OverlapRunes}
}

// Load reads one PDF and returns its description plus segments in reading
// order. The same file always produces the same segments. A file without any
// extractable text is an ingestion error.
func (l *Loader) Load(path string) (doc domain.Document, segs []domain.Segment, err error) {
	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: parse %s: %v", domain.ErrIngestion, filepath.Base(path), r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("%w: open %s: %v", domain.ErrIngestion, filepath.Base(path), err)
	}
	defer f.Close()

	name := filepath.Base(path)
	total := reader.NumPage()

	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unextractable page, keep going: other pages may be fine.
			continue
		}
		text = normalizeSpace(text)
		if text == "" {
			continue
		}
		for _, chunk := range splitText(text, l.maxRunes, l.overlap) {
			segs = append(segs, domain.Segment{
				Document: name,
				Page:     pageNum,
				Text:     chunk,
			})
		}
	}

	if len(segs) == 0 {
		return domain.Document{}, nil, fmt.Errorf("%w: no extractable text in %s", domain.ErrIngestion, name)
	}

	doc = domain.Document{
		ID:    uuid.NewString(),
		Name:  name,
		Path:  path,
		Pages: total,
	}
	return doc, segs, nil
}

// normalizeSpace collapses whitespace runs into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
