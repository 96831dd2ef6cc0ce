package capture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/zerodha/logf"
)

/*
A capture file is a sequence of length-prefixed frames:

	------------------------------------------------
	| len(2) | manifest | len(2) | record | ... |
	------------------------------------------------

Length is little-endian. The first frame of every file is the catalog
manifest, which makes each file decodable on its own after rotation.
*/

const (
	LOCKFILE     = "logjam.lock"
	frameHeader  = 2
	MaxFrameSize = 1<<16 - 1

	defaultMaxFileSize = int64(1 << 26) // 64MB.
)

// Opts represents configuration options for a capture log.
type Opts struct {
	Dir         string // Directory holding capture files.
	AlwaysFSync bool   // Flush after every append.
	MaxFileSize int64  // Rotate once the active file reaches this size.
	Logger      *logf.Logger
}

// Log appends encoded records to rotating capture files.
type Log struct {
	sync.Mutex

	lo       logf.Logger
	opts     Opts
	manifest []byte

	df     *DataFile
	flockF *os.File
}

// Open locks dir and starts a fresh capture file whose first frame is
// manifest. Existing files are left untouched.
func Open(opts Opts, manifest []byte) (*Log, error) {
	if len(manifest) > MaxFrameSize {
		return nil, fmt.Errorf("%w: manifest is %d bytes", ErrFrameTooLarge, len(manifest))
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating capture dir: %w", err)
	}

	flockF, err := createFlockFile(filepath.Join(opts.Dir, LOCKFILE))
	if err != nil {
		return nil, err
	}

	ids, err := fileIDs(opts.Dir)
	if err != nil {
		destroyFlockFile(flockF)
		return nil, fmt.Errorf("error parsing ids for existing files: %w", err)
	}
	index := 0
	if len(ids) > 0 {
		index = ids[len(ids)-1] + 1
	}

	lo := logf.New(logf.Opts{EnableCaller: true})
	if opts.Logger != nil {
		lo = *opts.Logger
	}

	l := &Log{
		lo:       lo,
		opts:     opts,
		manifest: manifest,
		flockF:   flockF,
	}
	if err := l.startFile(index); err != nil {
		destroyFlockFile(flockF)
		return nil, err
	}
	return l, nil
}

func (l *Log) startFile(index int) error {
	df, err := NewDataFile(l.opts.Dir, index)
	if err != nil {
		return err
	}
	if _, err := df.Write(frame(l.manifest)); err != nil {
		df.Close()
		return fmt.Errorf("error writing manifest: %w", err)
	}
	l.df = df
	l.lo.Debug("started capture file", "path", df.Path(), "id", index)
	return nil
}

func frame(payload []byte) []byte {
	buf := make([]byte, frameHeader+len(payload))
	binary.LittleEndian.PutUint16(buf, uint16(len(payload)))
	copy(buf[frameHeader:], payload)
	return buf
}

// Append writes one frame to the active file, rotating it when it grows
// past the configured size.
func (l *Log) Append(payload []byte) error {
	l.Lock()
	defer l.Unlock()

	if l.df == nil {
		return ErrClosed
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	if _, err := l.df.Write(frame(payload)); err != nil {
		return fmt.Errorf("error writing frame to file: %w", err)
	}

	// Ensure filesystem's in memory buffer is flushed to disk.
	if l.opts.AlwaysFSync {
		if err := l.df.Sync(); err != nil {
			return fmt.Errorf("error syncing file to disk: %w", err)
		}
	}

	return l.rotate()
}

// rotate replaces the active file once it has crossed the size threshold.
func (l *Log) rotate() error {
	size := l.df.Size()
	if size < l.opts.MaxFileSize {
		return nil
	}

	l.lo.Debug("rotating capture file", "current_size", size, "max_size", l.opts.MaxFileSize)
	old := l.df
	if err := old.Sync(); err != nil {
		return err
	}
	if err := old.Close(); err != nil {
		return err
	}
	l.df = nil
	return l.startFile(old.ID() + 1)
}

// ActivePath returns the file currently being appended to.
func (l *Log) ActivePath() string {
	l.Lock()
	defer l.Unlock()

	if l.df == nil {
		return ""
	}
	return l.df.Path()
}

// Sync calls fsync(2) on the active file.
func (l *Log) Sync() error {
	l.Lock()
	defer l.Unlock()

	if l.df == nil {
		return ErrClosed
	}
	return l.df.Sync()
}

// Close flushes and closes the active file and releases the directory lock.
func (l *Log) Close() error {
	l.Lock()
	defer l.Unlock()

	if l.df != nil {
		if err := l.df.Sync(); err != nil {
			l.lo.Error("error syncing capture file", "error", err, "id", l.df.ID())
		}
		if err := l.df.Close(); err != nil {
			l.lo.Error("error closing capture file", "error", err, "id", l.df.ID())
		}
		l.df = nil
	}

	if l.flockF == nil {
		return nil
	}
	err := destroyFlockFile(l.flockF)
	l.flockF = nil
	return err
}

// Files returns the capture files in dir ordered by id.
func Files(dir string) ([]string, error) {
	ids, err := fileIDs(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, filepath.Join(dir, fmt.Sprintf(CAPTURE_FILE, id)))
	}
	return out, nil
}

// fileIDs returns the sorted list of IDs extracted from capture file names.
func fileIDs(dir string) ([]int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "logjam_*.cap"))
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(files))
	for _, f := range files {
		id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSuffix(filepath.Base(f), ".cap"), "logjam_"), 10, 32)
		if err != nil {
			return nil, err
		}
		ids = append(ids, int(id))
	}

	// Sort in increasing order.
	sort.Ints(ids)

	return ids, nil
}

// Scan calls fn for every frame in the file at path, in order. The first
// frame is the manifest.
func Scan(path string, fn func(i int, frame []byte) error) error {
	df, err := OpenDataFile(path)
	if err != nil {
		return err
	}
	defer df.Close()

	end := int(df.Size())
	for i, pos := 0, 0; pos < end; i++ {
		hdr, err := df.Read(pos, frameHeader)
		if err != nil {
			return fmt.Errorf("header of frame %d: %w", i, err)
		}
		size := int(binary.LittleEndian.Uint16(hdr))
		pos += frameHeader

		payload, err := df.Read(pos, size)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := fn(i, payload); err != nil {
			return err
		}
		pos += size
	}
	return nil
}
