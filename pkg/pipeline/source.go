package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/store"
)

// Source produces records for a job.
type Source interface {
	// Open starts reading. The records channel is closed when the source is
	// exhausted or ctx is done; the error channel receives at most one error
	// and is closed afterwards.
	Open(ctx context.Context) (<-chan *record.Record, <-chan error)

	// String names the source in logs.
	String() string
}

// FileSource reads line-delimited JSON. Lines that cannot be read are
// logged and skipped.
type FileSource struct {
	// Path is the input file; "-" reads Stdin.
	Path string

	// Type is the record type produced.
	Type *record.Type

	// Via, when set, is the type each line is read as before it is
	// converted to Type.
	Via *record.Type

	// Stdin replaces os.Stdin for the "-" path.
	Stdin io.Reader
}

// Open implements Source.
func (s *FileSource) Open(ctx context.Context) (<-chan *record.Record, <-chan error) {
	var (
		r      io.Reader
		closer io.Closer
	)
	if s.Path == "-" {
		r = os.Stdin
		if s.Stdin != nil {
			r = s.Stdin
		}
	} else {
		f, err := os.Open(s.Path)
		if err != nil {
			return failed(fmt.Errorf("open source: %w", err))
		}
		r, closer = f, f
	}

	records, errs := s.Type.ImportJSONVia(ctx, r, s.Via)
	out := make(chan error, 1)
	go func() {
		defer close(out)
		for err := range errs {
			out <- err
		}
		// The import goroutine has returned once errs is closed.
		if closer != nil {
			closer.Close()
		}
	}()
	return records, out
}

func (s *FileSource) String() string {
	if s.Via != nil {
		return fmt.Sprintf("file:%s (%s via %s)", s.Path, s.Type.Name(), s.Via.Name())
	}
	return fmt.Sprintf("file:%s (%s)", s.Path, s.Type.Name())
}

// StoreSource streams the records of Type held in Store.
type StoreSource struct {
	Store store.Store
	Type  *record.Type
}

// Open implements Source.
func (s *StoreSource) Open(ctx context.Context) (<-chan *record.Record, <-chan error) {
	return s.Store.Stream(ctx, s.Type)
}

func (s *StoreSource) String() string {
	return "store:" + s.Type.Name()
}

// RecordSource replays a fixed list of records.
type RecordSource []*record.Record

// Open implements Source.
func (s RecordSource) Open(ctx context.Context) (<-chan *record.Record, <-chan error) {
	records := make(chan *record.Record)
	errCh := make(chan error)
	go func() {
		defer close(records)
		defer close(errCh)
		for _, rec := range s {
			select {
			case records <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return records, errCh
}

func (s RecordSource) String() string {
	return fmt.Sprintf("records(%d)", len(s))
}

func failed(err error) (<-chan *record.Record, <-chan error) {
	records := make(chan *record.Record)
	errCh := make(chan error, 1)
	errCh <- err
	close(records)
	close(errCh)
	return records, errCh
}
