package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// checkDestination decides how an existing path may be written. It returns
// true when the export appends to an existing file.
func checkDestination(path string, force, appendMode bool) (bool, error) {
	if path == Stdout {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s is not a regular file", ErrDestinationExists, path)
	}
	if !force && !appendMode {
		return false, fmt.Errorf("%w: %s", ErrDestinationExists, path)
	}
	return appendMode, nil
}

// destination is a buffered export target. Closing it flushes the buffer
// and closes the file; stdout is flushed but left open.
type destination struct {
	buf  *bufio.Writer
	file *os.File
}

func openDestination(path string, force, appending bool, stdout io.Writer) (*destination, error) {
	if path == Stdout {
		return &destination{buf: bufio.NewWriter(stdout)}, nil
	}

	flags := os.O_WRONLY | os.O_CREATE
	switch {
	case appending:
		flags = os.O_WRONLY | os.O_APPEND
	case force:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrDestinationExists, path)
		}
		return nil, err
	}
	return &destination{buf: bufio.NewWriter(f), file: f}, nil
}

func (d *destination) Write(p []byte) (int, error) {
	return d.buf.Write(p)
}

func (d *destination) Close() error {
	err := d.buf.Flush()
	if d.file != nil {
		if cerr := d.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
