package attachments

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// FileHandle is a file chosen by the user. Implementations must not read the
// content until Open is called.
type FileHandle interface {
	Name() string
	Size() (int64, error)
	Open() (io.ReadCloser, error)
}

// LocalFile refers to a file on disk.
type LocalFile struct {
	Path string
}

// Name returns the base name of the file.
func (f LocalFile) Name() string { return filepath.Base(f.Path) }

// Size stats the file.
func (f LocalFile) Size() (int64, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Open opens the file for reading.
func (f LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// MemoryFile is an in-memory file, used for uploads already buffered by a
// transport and in tests.
type MemoryFile struct {
	FileName string
	Data     []byte
}

func (f *MemoryFile) Name() string { return f.FileName }

func (f *MemoryFile) Size() (int64, error) { return int64(len(f.Data)), nil }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
