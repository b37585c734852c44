package governance

import (
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrEmptyDocument is returned when an import carries no text at all.
	ErrEmptyDocument = errors.New("import document is empty")
	// ErrNoDataRows is returned when an import has a header but no data rows.
	ErrNoDataRows = errors.New("import document has no data rows")
)

// ParseLine splits one line on commas that sit outside double quotes. Each
// field is trimmed, loses one pair of wrapping quotes, and has doubled quotes
// unescaped.
func ParseLine(line string) []string {
	var (
		fields   []string
		inQuotes bool
		start    int
	)
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				fields = append(fields, unquote(line[start:i]))
				start = i + 1
			}
		}
	}
	return append(fields, unquote(line[start:]))
}

func unquote(field string) string {
	field = strings.TrimSpace(field)
	if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
		field = field[1 : len(field)-1]
	}
	return strings.ReplaceAll(field, `""`, `"`)
}

// Header maps column names to field positions, ignoring case and
// surrounding whitespace.
type Header struct {
	names []string
	index map[string]int
}

// ParseHeader parses the header line of a document.
func ParseHeader(line string) Header {
	names := ParseLine(line)
	h := Header{names: names, index: make(map[string]int, len(names))}
	for i, n := range names {
		key := headerKey(n)
		if _, dup := h.index[key]; !dup && key != "" {
			h.index[key] = i
		}
	}
	return h
}

func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Index returns the position of column name.
func (h Header) Index(name string) (int, bool) {
	i, ok := h.index[headerKey(name)]
	return i, ok
}

// Has reports whether the header declares column name.
func (h Header) Has(name string) bool {
	_, ok := h.Index(name)
	return ok
}

// Names returns the column names as written in the document.
func (h Header) Names() []string {
	return h.names
}

// Row is one parsed data line.
type Row struct {
	// Number is the 1-based source line number; the header is row 1.
	Number int
	Fields []string
	header *Header
}

// Get returns the trimmed value of column name, or "" when the column is
// absent from the header or the row is short.
func (r Row) Get(name string) string {
	if r.header == nil {
		return ""
	}
	i, ok := r.header.Index(name)
	if !ok || i >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[i])
}

// Document is a parsed import: header plus data rows.
type Document struct {
	Header Header
	Rows   []Row
}

// ParseDocument splits raw into lines and parses header and rows. Blank lines
// are skipped but keep their line number so errors point at the source line.
// Quoted fields may not span lines.
func ParseDocument(raw string) (*Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyDocument
	}

	lines := strings.Split(raw, "\n")
	doc := &Document{}
	headerSeen := false
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !headerSeen {
			doc.Header = ParseHeader(line)
			headerSeen = true
			continue
		}
		doc.Rows = append(doc.Rows, Row{Number: i + 1, Fields: ParseLine(line), header: &doc.Header})
	}

	if len(doc.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	return doc, nil
}
