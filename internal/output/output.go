// Package output delivers rendered transcripts to stdout, a file or the
// system clipboard.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

var (
	// ErrDeclined is returned when the user refuses to overwrite a file.
	ErrDeclined = errors.New("overwrite declined")

	// ErrClipboardUnavailable is returned when no clipboard utility exists.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

// FileError reports a failure to write the output file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("Failed to write to '%s': %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Confirmer asks whether an existing file may be overwritten.
type Confirmer func(path string) (bool, error)

// Prompt returns a Confirmer that asks on out and reads a y/n answer from in.
// Anything other than y or yes, including EOF, declines.
func Prompt(in io.Reader, out io.Writer) Confirmer {
	reader := bufio.NewReader(in)
	return func(path string) (bool, error) {
		fmt.Fprintf(out, "File '%s' already exists. Overwrite? [y/N]: ", path)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// Sink writes rendered content to its destination.
type Sink struct {
	Stdout  io.Writer
	Force   bool
	Confirm Confirmer

	// copyText is swapped in tests.
	copyText func(string) error
}

// NewSink creates a Sink writing to stdout and prompting through confirm.
func NewSink(stdout io.Writer, force bool, confirm Confirmer) *Sink {
	s := &Sink{
		Stdout:  stdout,
		Force:   force,
		Confirm: confirm,
	}
	if !clipboard.Unsupported {
		s.copyText = clipboard.WriteAll
	}
	return s
}

// WriteStdout prints content followed by a newline.
func (s *Sink) WriteStdout(content string) error {
	_, err := fmt.Fprintln(s.Stdout, content)
	return err
}

// WriteFile stores content at path as UTF-8. An existing file is replaced
// only with Force or an affirmative confirmation; otherwise ErrDeclined.
func (s *Sink) WriteFile(path, content string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return &FileError{Path: path, Err: fmt.Errorf("is a directory")}
		}
		if !s.Force {
			if s.Confirm == nil {
				return ErrDeclined
			}
			ok, err := s.Confirm(path)
			if err != nil {
				return &FileError{Path: path, Err: err}
			}
			if !ok {
				return ErrDeclined
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return &FileError{Path: path, Err: err}
	}

	w, err := NewAtomicWriter(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	if _, err := io.WriteString(w, content); err != nil {
		w.Abort()
		return &FileError{Path: path, Err: err}
	}
	if err := w.Commit(); err != nil {
		return &FileError{Path: path, Err: err}
	}
	return nil
}

// Copy places content on the system clipboard.
func (s *Sink) Copy(content string) error {
	if s.copyText == nil {
		return ErrClipboardUnavailable
	}
	if err := s.copyText(content); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}
