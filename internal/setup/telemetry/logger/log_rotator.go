package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LineCappedWriter appends to a log file and trims it back to the newest
// maxLines lines once twice that many have been written.
type LineCappedWriter struct {
	mu       sync.Mutex
	file     io.WriteCloser
	path     string
	maxLines int
	window   []string // newest lines, oldest first
	written  int      // lines written since the last trim
}

// NewLineCappedWriter opens (or creates) path for appending.
func NewLineCappedWriter(path string, maxLines int) (*LineCappedWriter, error) {
	if maxLines <= 0 {
		maxLines = 100000
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &LineCappedWriter{
		file:     file,
		path:     path,
		maxLines: maxLines,
		window:   make([]string, 0, maxLines),
	}, nil
}

// Write implements io.Writer.
func (w *LineCappedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		if len(w.window) == w.maxLines {
			copy(w.window, w.window[1:])
			w.window = w.window[:w.maxLines-1]
		}

		w.window = append(w.window, line)
		w.written++

		if w.written >= w.maxLines*2 {
			if err := w.trim(); err != nil {
				return n, fmt.Errorf("failed to trim log file: %w", err)
			}

			w.written = len(w.window)
		}
	}

	return n, nil
}

// Sync implements zapcore.WriteSyncer.
func (w *LineCappedWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if f, ok := w.file.(*os.File); ok {
		return f.Sync()
	}

	return nil
}

// Close closes the underlying file.
func (w *LineCappedWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// trim replaces the file with the current window through a temp file and rename.
func (w *LineCappedWriter) trim() error {
	temp, err := os.CreateTemp(filepath.Dir(w.path), "temp-log-")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(w.window, "\n") + "\n"); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	w.file.Close()
	os.Remove(w.path)

	if err := os.Rename(tempPath, w.path); err != nil {
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file

	return nil
}
