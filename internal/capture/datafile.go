package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	CAPTURE_FILE = "logjam_%d.cap"
)

// DataFile is a single append-only capture file. It is not safe for
// concurrent use; Log serializes access to the active file.
type DataFile struct {
	writer *os.File
	reader *os.File
	id     int

	offset int
}

// NewDataFile opens (or creates) the capture file with the given index.
func NewDataFile(dir string, index int) (*DataFile, error) {
	// If the file doesn't exist, create it, or append to the file.
	path := filepath.Join(dir, fmt.Sprintf(CAPTURE_FILE, index))
	writer, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening file for writing capture: %w", err)
	}

	// Create a reader for reading the capture file.
	reader, err := os.Open(path)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("error opening file for reading capture: %w", err)
	}

	// Get the offset for the current file.
	stat, err := writer.Stat()
	if err != nil {
		writer.Close()
		reader.Close()
		return nil, fmt.Errorf("error fetching file stats: %v", err)
	}

	return &DataFile{
		writer: writer,
		reader: reader,
		id:     index,
		offset: int(stat.Size()),
	}, nil
}

// OpenDataFile opens an existing capture file for reading only.
func OpenDataFile(path string) (*DataFile, error) {
	reader, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file for reading capture: %w", err)
	}

	stat, err := reader.Stat()
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("error fetching file stats: %v", err)
	}

	return &DataFile{
		reader: reader,
		id:     -1,
		offset: int(stat.Size()),
	}, nil
}

// ID returns the ID of the capture file.
func (d *DataFile) ID() int {
	return d.id
}

// Path returns the location of the capture file on disk.
func (d *DataFile) Path() string {
	return d.reader.Name()
}

// Size returns the number of bytes written so far.
func (d *DataFile) Size() int64 {
	return int64(d.offset)
}

// Sync flushes the in-memory buffers to the disk.
func (d *DataFile) Sync() error {
	if d.writer == nil {
		return nil
	}
	return d.writer.Sync()
}

// Read returns size bytes starting at pos. Reading past the end of the file
// returns ErrTruncated.
func (d *DataFile) Read(pos int, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := d.reader.ReadAt(buf, int64(pos))
	if n < size {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read %d of %d bytes at offset %d", ErrTruncated, n, size, pos)
		}
		return nil, err
	}
	return buf, nil
}

// Write appends data and returns the offset it was written at.
func (d *DataFile) Write(data []byte) (int, error) {
	if d.writer == nil {
		return -1, ErrReadOnly
	}
	if _, err := d.writer.Write(data); err != nil {
		return -1, err
	}

	offset := d.offset
	d.offset += len(data)

	return offset, nil
}

// Close closes the file descriptors of the underlying capture file.
func (d *DataFile) Close() error {
	if d.writer != nil {
		if err := d.writer.Close(); err != nil {
			return err
		}
	}

	if err := d.reader.Close(); err != nil {
		return err
	}

	return nil
}
