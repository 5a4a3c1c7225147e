package record

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds one line of a line-delimited JSON import.
const maxLineSize = 16 * 1024 * 1024

// ParseJSON reads one record from a JSON document.
func (t *Type) ParseJSON(data []byte) (*Record, error) {
	return t.Read(data)
}

// ImportJSON streams records from line-delimited JSON, one record per line.
// Blank lines are skipped; lines that fail to parse are logged and skipped.
// The records channel is closed when the input is exhausted or ctx is done;
// the error channel receives at most one read error.
func (t *Type) ImportJSON(ctx context.Context, r io.Reader) (<-chan *Record, <-chan error) {
	return t.ImportJSONVia(ctx, r, nil)
}

// ImportJSONVia is ImportJSON reading each line as via and converting it.
func (t *Type) ImportJSONVia(ctx context.Context, r io.Reader, via *Type) (<-chan *Record, <-chan error) {
	records := make(chan *Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errCh)

		logger := slog.Default().With("component", "record.import", "type", t.name)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		line := 0
		for scanner.Scan() {
			line++
			text := bytes.TrimSpace(scanner.Bytes())
			if len(text) == 0 {
				continue
			}
			// Scanner reuses its buffer.
			data := append([]byte(nil), text...)

			rec, err := t.ReadVia(via, data)
			if err != nil {
				logger.Warn("skipping unparsable line", "line", line, "error", err)
				continue
			}

			select {
			case records <- rec:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- fmt.Errorf("import %s: %w", t.name, err)
		}
	}()

	return records, errCh
}

// SaveJSON writes the source view to path, replacing any other extension
// with ".json". It returns the number of bytes written.
func (r *Record) SaveJSON(path string) (int, error) {
	data, err := r.DumpJSON(ViewSource)
	if err != nil {
		return 0, err
	}
	path = WithJSONSuffix(path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	return len(data), nil
}

// OpenJSON reads a record saved with SaveJSON.
func (t *Type) OpenJSON(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return t.ParseJSON(data)
}

// WithJSONSuffix replaces the extension of path with ".json" unless it
// already ends with it.
func WithJSONSuffix(path string) string {
	if strings.HasSuffix(path, ".json") {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}
