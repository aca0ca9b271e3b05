package overlay

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/snapkit/pkg/view"
)

// File is a Canvas saved to disk when closed. Handed to the snap engine
// as its renderer, it is written when the engine is disposed.
type File struct {
	*Canvas
	path  string
	write func(path string, c *Canvas) error

	closed bool
	err    error
}

var _ io.Closer = (*File)(nil)

// Create returns a File for path. The format follows the extension:
// .svg or .png.
func Create(path string, vp view.Viewport) (*File, error) {
	f := &File{Canvas: NewCanvas(vp), path: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		f.write = writeSVGFile
	case ".png":
		f.write = WritePNG
	default:
		return nil, fmt.Errorf("overlay: %s: unsupported format, want .svg or .png", path)
	}
	return f, nil
}

// Path returns where the overlay is written.
func (f *File) Path() string { return f.path }

// Close writes the overlay. Later calls return the first result without
// writing again.
func (f *File) Close() error {
	if !f.closed {
		f.closed = true
		f.err = f.write(f.path, f.Canvas)
	}
	return f.err
}

func writeSVGFile(path string, c *Canvas) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("overlay: create %s: %w", path, err)
	}
	if err := WriteSVG(out, c); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("overlay: close %s: %w", path, err)
	}
	return nil
}
