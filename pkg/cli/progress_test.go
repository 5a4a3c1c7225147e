package cli

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Update(50)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Progress:") {
		t.Errorf("Expected progress output to contain 'Progress:', got %q", output)
	}
	if !strings.Contains(output, "(100/100)") {
		t.Errorf("Expected finished progress to show the total, got %q", output)
	}
}

func TestSimpleProgressUnknownTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf).(*SimpleProgress)
	progress.Interval = 0

	progress.Start(0)
	progress.Update(42)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Exported 42 rows") {
		t.Errorf("Expected a running row count, got %q", output)
	}
	if strings.Contains(output, "Progress:") {
		t.Errorf("Expected no bar without a total, got %q", output)
	}
}

func TestSimpleProgressThrottled(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Update(1)
	progress.Update(2)

	if got := strings.Count(buf.String(), "\r"); got != 1 {
		t.Errorf("Expected updates within the interval to be skipped, got %d renders", got)
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Error(fmt.Errorf("test error"))

	output := buf.String()
	if !strings.Contains(output, "Error:") {
		t.Error("Expected error output to contain 'Error:'")
	}
	if !strings.Contains(output, "test error") {
		t.Error("Expected error output to contain error message")
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				progress.Update(int64(start*100 + j))
			}
		}(i)
	}
	wg.Wait()

	progress.Finish()

	if buf.Len() == 0 {
		t.Error("Expected some progress output")
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil)
	if progress == nil {
		t.Fatal("NewProgressReporter(nil) should not return nil")
	}
	if progress.(*SimpleProgress).writer == nil {
		t.Error("Expected a default writer")
	}
}
