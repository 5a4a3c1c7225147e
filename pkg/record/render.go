package record

import (
	"fmt"
	"strings"
	"time"
)

// Text format hints understood without a registered template.
const (
	HintDefault = ""
	HintRich    = "rich"
)

// TextRow renders the record as one line of text. hint selects a template
// registered with WithTextFormat; without one, HintDefault joins the column
// values with tabs and HintRich prints "column=value" pairs. Other hints
// fail with ErrUnsupportedHint.
func (r *Record) TextRow(hint string) (string, error) {
	if tmpl, ok := r.typ.text[hint]; ok {
		var sb strings.Builder
		if err := tmpl.Execute(&sb, r.templateData()); err != nil {
			return "", fmt.Errorf("%s text row: %w", r.typ.name, err)
		}
		return strings.TrimRight(sb.String(), "\r\n"), nil
	}

	switch hint {
	case HintDefault:
		cells := make([]string, len(r.typ.columns))
		for i, col := range r.typ.columns {
			cells[i] = formatScalar(r.Value(col))
		}
		return strings.Join(cells, "\t"), nil
	case HintRich:
		cells := make([]string, len(r.typ.columns))
		for i, col := range r.typ.columns {
			cells[i] = col + "=" + formatScalar(r.Value(col))
		}
		return strings.Join(cells, " "), nil
	}
	return "", fmt.Errorf("%s: %w: %q", r.typ.name, ErrUnsupportedHint, hint)
}

func (r *Record) templateData() map[string]any {
	data := make(map[string]any, len(r.typ.fields))
	for _, f := range r.typ.fields {
		data[f.Name] = r.Value(f.Name)
	}
	return data
}

// CSVHeaders returns the CSV columns of the type.
func (r *Record) CSVHeaders() []string {
	return r.typ.Columns()
}

// CSVRow returns one cell per column. Fields without a value are "";
// times are RFC 3339 text, nested records and lists compact JSON.
func (r *Record) CSVRow() (map[string]any, error) {
	row := make(map[string]any, len(r.typ.columns))
	for _, col := range r.typ.columns {
		switch v := r.Value(col).(type) {
		case nil:
			row[col] = ""
		case time.Time:
			row[col] = v.Format(time.RFC3339Nano)
		case *Record, []any:
			data, err := marshalCompact(jsonValue(v))
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", r.typ.name, col, err)
			}
			row[col] = string(data)
		default:
			row[col] = v
		}
	}
	return row, nil
}

// JSONRow renders the source view.
func (r *Record) JSONRow() ([]byte, error) {
	return r.DumpJSON(ViewSource)
}
