package bytebuffer

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// MemoryMappedStorage is a Storage backed by a memory mapped file
//
// growing the storage extends the file and maps it again, so the returned
// region moves on every Enlarge
type MemoryMappedStorage struct {
	file  *os.File
	loc   string // location of the memory mapped file
	data  mmap.MMap
	erase bool // remove the file on Close
}

// NewMemoryMappedStorage will create a new file at loc, replacing an existing
// one, and map size bytes of it
func NewMemoryMappedStorage(loc string, size int) (*MemoryMappedStorage, error) {
	if _, err := os.Stat(loc); err == nil {
		if err = os.Remove(loc); err != nil {
			return nil, err
		}
	}

	// ensure destination directory exists
	if err := os.MkdirAll(filepath.Dir(loc), 0700); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(loc, syscall.O_CREAT|syscall.O_RDWR|syscall.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}

	s := &MemoryMappedStorage{file: f, loc: loc}
	if size > 0 {
		if _, err := s.Enlarge(size); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return s, nil
}

// Location returns the path of the mapped file
func (s *MemoryMappedStorage) Location() string { return s.loc }

// Bytes returns the mapped region
func (s *MemoryMappedStorage) Bytes() []byte { return s.data }

// Enlarge extends the file to size bytes and remaps it. The new region is
// mapped before the old one is released, on failure the old mapping stays
// valid.
func (s *MemoryMappedStorage) Enlarge(size int) ([]byte, error) {
	if err := checkEnlarge(len(s.data), size); err != nil {
		return nil, err
	}

	if size == len(s.data) {
		return s.data, nil
	}

	if err := s.file.Truncate(int64(size)); err != nil {
		return nil, errors.Wrapf(err, "cannot extend %v to %d bytes", s.loc, size)
	}

	data, err := mmap.MapRegion(s.file, size, mmap.RDWR, 0, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot map %d bytes of %v", size, s.loc)
	}

	if err := s.unmap(); err != nil {
		_ = data.Unmap()
		return nil, err
	}
	s.data = data

	return s.data, nil
}

// Flush writes the mapped region back to the file
func (s *MemoryMappedStorage) Flush() error {
	if s.data == nil {
		return nil
	}
	return s.data.Flush()
}

func (s *MemoryMappedStorage) unmap() error {
	if s.data == nil {
		return nil
	}

	if err := s.data.Flush(); err != nil {
		return err
	}

	if err := s.data.Unmap(); err != nil {
		return err
	}

	s.data = nil
	return nil
}

// Reset unmaps the file and truncates it to zero length
func (s *MemoryMappedStorage) Reset() error {
	if err := s.unmap(); err != nil {
		return err
	}
	return s.file.Truncate(0)
}

// Close will unmap and close the file, removing it if the storage was
// created by a MemoryMappedCreator with erasing enabled
func (s *MemoryMappedStorage) Close() error {
	if err := s.unmap(); err != nil {
		return err
	}

	if err := s.file.Close(); err != nil {
		return err
	}

	if s.erase {
		if err := os.Remove(s.loc); err != nil {
			return err
		}
	}

	return nil
}

// MemoryMappedCreator creates sequentially numbered mapped files in a directory
type MemoryMappedCreator struct {
	mu    sync.Mutex
	dir   string
	seq   uint64
	erase bool
}

// NewMemoryMappedCreator returns a creator placing its files in dir, if erase
// is set the files are removed when their storage is closed
func NewMemoryMappedCreator(dir string, erase bool) *MemoryMappedCreator {
	return &MemoryMappedCreator{dir: dir, seq: 1, erase: erase}
}

// New returns a newly created MemoryMappedStorage. It is safe for concurrent use.
func (c *MemoryMappedCreator) New(size int) (Storage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	loc := filepath.Join(c.dir, "membuffer-"+strconv.FormatUint(c.seq, 10)+".buf")
	s, err := NewMemoryMappedStorage(loc, size)
	if err != nil {
		return nil, err
	}
	s.erase = c.erase

	c.seq++

	return s, nil
}

// MappedFile is a read only mapping of an existing file
type MappedFile struct {
	file *os.File
	data mmap.MMap
}

// OpenMappedFile maps the whole file at loc read only
func OpenMappedFile(loc string) (*MappedFile, error) {
	f, err := os.Open(loc)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	m := &MappedFile{file: f}

	// mapping an empty file fails on most platforms
	if fi.Size() == 0 {
		return m, nil
	}

	m.data, err = mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "cannot map %v", loc)
	}

	return m, nil
}

// Bytes returns the mapped contents, they must not be modified
func (m *MappedFile) Bytes() []byte { return m.data }

// Close unmaps and closes the file
func (m *MappedFile) Close() error {
	if m.data != nil {
		if err := m.data.Unmap(); err != nil {
			return err
		}
		m.data = nil
	}
	return m.file.Close()
}
