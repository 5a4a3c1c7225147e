package export

import (
	"path/filepath"
	"strings"
)

// Format is an export output format.
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Stdout is the destination name for standard output.
const Stdout = "-"

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatCSV}

// ParseFormat parses a format name. Matching is case-insensitive and
// "text" is accepted for txt.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", NewConfigError("format", s, ErrUnknownFormat)
}

// Suffix returns the file extension of the format, including the dot.
func (f Format) Suffix() string {
	return "." + string(f)
}

// Label returns the counter name used for the format.
func (f Format) Label() string {
	switch f {
	case FormatText:
		return "Text"
	case FormatJSON:
		return "JSON"
	case FormatCSV:
		return "CSV"
	}
	return string(f)
}

// FormatFromPath returns the format named by the extension of path.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats {
		if ext == f.Suffix() {
			return f, true
		}
	}
	return "", false
}

// Resolve returns the effective format and destination path. For files, a
// recognized extension overrides requested, and a path without the
// format's extension gets it appended. Stdout is never rewritten.
func Resolve(requested Format, path string) (Format, string, error) {
	if path == "" {
		return "", "", NewConfigError("path", path, ErrNoDestination)
	}
	if path != Stdout {
		if f, ok := FormatFromPath(path); ok {
			return f, path, nil
		}
	}

	f, err := ParseFormat(string(requested))
	if err != nil {
		return "", "", err
	}
	if path == Stdout {
		return f, path, nil
	}
	return f, path + f.Suffix(), nil
}
