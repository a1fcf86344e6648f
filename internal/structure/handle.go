package structure

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Handle is a file-backed structure. The in-memory model is loaded lazily;
// external engine calls mutate the backing file, after which the only safe
// way to observe the result is Reload.
type Handle struct {
	path  string
	model *Model
}

// NewHandle returns a handle for path without touching the file.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// Load opens path and eagerly parses the backing file.
func Load(path string) (*Handle, error) {
	h := NewHandle(path)
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Path returns the backing file path.
func (h *Handle) Path() string { return h.path }

// Stem returns the backing file name without directory or extension.
func (h *Handle) Stem() string {
	base := filepath.Base(h.path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Model returns the in-memory model, loading it from the backing file on
// first use.
func (h *Handle) Model() (*Model, error) {
	if h.model == nil {
		if err := h.Reload(); err != nil {
			return nil, err
		}
	}
	return h.model, nil
}

// SetModel replaces the in-memory model. The backing file is untouched until
// Write is called.
func (h *Handle) SetModel(m *Model) { h.model = m }

// Reload discards the in-memory model and re-reads the backing file. Called
// after every external engine invocation that rewrote the file.
func (h *Handle) Reload() error {
	f, err := os.Open(h.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", h.path, err)
	}
	defer f.Close()
	m, err := ReadGRO(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", h.path, err)
	}
	h.model = m
	return nil
}

// Write persists the in-memory model to the backing file.
func (h *Handle) Write() error {
	if h.model == nil {
		return fmt.Errorf("write %s: no model loaded", h.path)
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", h.path, err)
	}
	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", h.path, err)
	}
	defer f.Close()
	if err := WriteGRO(f, h.model); err != nil {
		return fmt.Errorf("write %s: %w", h.path, err)
	}
	return nil
}

// CopyTo copies the backing file to path and returns a fresh handle for the
// copy. The in-memory model is not carried over; the copy reloads on demand.
func (h *Handle) CopyTo(path string) (*Handle, error) {
	if err := copyFile(h.path, path); err != nil {
		return nil, err
	}
	return NewHandle(path), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
