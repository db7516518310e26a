// Package report persists generated HR reports outside the session log.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sink saves a report and returns the location it was written to. Failures
// are non-fatal to the interview; the report text is still returned to the
// caller through the session results.
type Sink interface {
	Save(ctx context.Context, content, filename string) (string, error)
}

// FileSink writes reports as plain text files into a directory.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &FileSink{dir: dir}
}

// Save writes the report under the sink directory. The filename is reduced
// to its base name so the model cannot steer the write outside the
// directory; an empty filename gets a timestamped default.
func (s *FileSink) Save(_ context.Context, content, filename string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("report content must not be empty")
	}

	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = fmt.Sprintf("hr-report-%s.txt", time.Now().Format("20060102-150405"))
	}
	if !strings.HasSuffix(filename, ".txt") {
		filename += ".txt"
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %q: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report to %q: %w", path, err)
	}

	return path, nil
}
