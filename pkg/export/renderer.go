package export

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// TextExportable renders a row of text. hint selects a stylistic variant;
// "rich" is used for stdout. Unsupported hints must fail.
type TextExportable interface {
	TextRow(hint string) (string, error)
}

// CSVExportable renders CSV rows. CSVHeaders is fixed per type; CSVRow
// returns one value per header, "" for no value. Strings are quoted on
// output; int, float64 and bool values are written bare.
type CSVExportable interface {
	CSVHeaders() []string
	CSVRow() (map[string]any, error)
}

// JSONExportable renders one compact JSON document.
type JSONExportable interface {
	JSONRow() ([]byte, error)
}

// Text format hints.
const (
	hintFile   = ""
	hintStdout = "rich"
)

// rowWriter writes the rows of one format. prepare sees the first row
// before the destination is opened.
type rowWriter interface {
	prepare(first any) error
	start(w io.Writer, appending bool) error
	write(row any) error
	flush() error
}

func newRowWriter(f Format, stdout bool) rowWriter {
	switch f {
	case FormatCSV:
		return &csvRows{}
	case FormatJSON:
		return &jsonRows{}
	}
	hint := hintFile
	if stdout {
		hint = hintStdout
	}
	return &textRows{hint: hint}
}

// csvRows writes CSV rows. String cells are always quoted, so the string
// "42" reads back apart from the number 42; numbers and booleans are bare.
// Header names are quoted only when they need it. The header comes from
// the first row and is skipped when appending.
type csvRows struct {
	w       io.Writer
	headers []string
	line    strings.Builder
}

func (c *csvRows) prepare(first any) error {
	exp, ok := first.(CSVExportable)
	if !ok {
		return fmt.Errorf("%w: %T is not CSV exportable", ErrNotExportable, first)
	}
	c.headers = exp.CSVHeaders()
	if len(c.headers) == 0 {
		return fmt.Errorf("%T has no CSV headers", first)
	}
	return nil
}

func (c *csvRows) start(w io.Writer, appending bool) error {
	c.w = w
	if appending {
		return nil
	}
	c.line.Reset()
	for i, h := range c.headers {
		if i > 0 {
			c.line.WriteByte(',')
		}
		writeCSVField(&c.line, h, headerNeedsQuotes(h))
	}
	c.line.WriteByte('\n')
	_, err := io.WriteString(c.w, c.line.String())
	return err
}

func (c *csvRows) write(row any) error {
	exp, ok := row.(CSVExportable)
	if !ok {
		return fmt.Errorf("%w: %T is not CSV exportable", ErrNotExportable, row)
	}
	values, err := exp.CSVRow()
	if err != nil {
		return err
	}
	for k := range values {
		if !slices.Contains(c.headers, k) {
			return fmt.Errorf("CSV row has unknown column %q", k)
		}
	}

	c.line.Reset()
	for i, h := range c.headers {
		v, ok := values[h]
		if !ok {
			return fmt.Errorf("CSV row has no column %q", h)
		}
		if i > 0 {
			c.line.WriteByte(',')
		}
		text, quoted := csvCell(v)
		writeCSVField(&c.line, text, quoted)
	}
	c.line.WriteByte('\n')

	// A row is written whole or not at all.
	_, err = io.WriteString(c.w, c.line.String())
	return err
}

func (c *csvRows) flush() error {
	return nil
}

// csvCell renders a CSV value and reports whether it is quoted. Numbers
// and booleans are bare; everything else, including a missing value, is a
// quoted string.
func csvCell(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), false
	case int:
		return strconv.Itoa(x), false
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), false
	case bool:
		return strconv.FormatBool(x), false
	case time.Time:
		return x.Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return x.String(), true
	}
	return fmt.Sprint(v), true
}

func headerNeedsQuotes(s string) bool {
	if s == "" {
		return false
	}
	return strings.ContainsAny(s, ",\"\r\n") || s[0] == ' ' || s[0] == '\t'
}

// writeCSVField writes s, doubling embedded quotes when quoted.
func writeCSVField(b *strings.Builder, s string, quoted bool) {
	if !quoted {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	b.WriteByte('"')
}

// jsonRows writes one JSON document per line.
type jsonRows struct {
	w io.Writer
}

func (j *jsonRows) prepare(first any) error {
	return nil
}

func (j *jsonRows) start(w io.Writer, _ bool) error {
	j.w = w
	return nil
}

func (j *jsonRows) write(row any) error {
	exp, ok := row.(JSONExportable)
	if !ok {
		return fmt.Errorf("%w: %T is not JSON exportable", ErrNotExportable, row)
	}
	data, err := exp.JSONRow()
	if err != nil {
		return err
	}
	if _, err := j.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

func (j *jsonRows) flush() error {
	return nil
}

// textRows writes one TextRow per line.
type textRows struct {
	w    io.Writer
	hint string
}

func (t *textRows) prepare(first any) error {
	return nil
}

func (t *textRows) start(w io.Writer, _ bool) error {
	t.w = w
	return nil
}

func (t *textRows) write(row any) error {
	exp, ok := row.(TextExportable)
	if !ok {
		return fmt.Errorf("%w: %T is not text exportable", ErrNotExportable, row)
	}
	line, err := exp.TextRow(t.hint)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(t.w, line+"\n"); err != nil {
		return err
	}
	return nil
}

func (t *textRows) flush() error {
	return nil
}
