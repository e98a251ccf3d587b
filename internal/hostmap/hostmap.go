// Package hostmap backs AddressMap's file-backed regions with real host
// files, mapped read-only into the builder process's address space so
// that serving a block read never copies bytes through an intermediate
// buffer.
//
// It is adapted from the teacher's internal/mmap package: the same
// syscall.Mmap/Munmap mechanism, repurposed from a single whole-file
// mapper into a per-path cache that AddressMap consults once per
// registered file, with a bounded *os.File handle cache as a fallback for
// paths that cannot be mapped (permission errors, zero-length files,
// filesystems that refuse mmap).
package hostmap

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/sscafiti/vsfat/internal/fs"
)

// mappedFile is a read-only mmap of one host file, satisfying
// vfat.HostReader.
type mappedFile struct {
	data []byte
	file *os.File
}

func (m *mappedFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, fmt.Errorf("hostmap: offset %d out of range (size %d)", off, len(m.data))
	}
	n := copy(p, m.data[off:])
	return n, nil
}

func (m *mappedFile) close() error {
	if err := syscall.Munmap(m.data); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}

// handleFile is the fallback path: an open file descriptor read through
// ReadAt, for files that could not be mmap'd.
type handleFile struct {
	f fs.File
}

func (h *handleFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := h.f.ReadAt(p, off)
	if n > 0 {
		return n, nil // io.ReaderAt may return io.EOF alongside a short final read
	}
	return n, err
}

// Map caches open host-file backings by path. It is built once during the
// scan (every file is mapped exactly as it is discovered) and is never
// mutated again once the scan completes, matching the frozen-image
// concurrency model: concurrent Read calls from the transport never race.
type Map struct {
	mu       sync.Mutex
	mapped   map[string]*mappedFile
	handles  map[string]*handleFile
	handleLRU []string
	maxHandles int
}

// New creates a Map with a bounded fallback handle cache of maxHandles
// entries; a maxHandles of 0 or less selects the default bound of 256.
func New(maxHandles int) *Map {
	if maxHandles <= 0 {
		maxHandles = 256
	}
	return &Map{
		mapped:     make(map[string]*mappedFile),
		handles:    make(map[string]*handleFile),
		maxHandles: maxHandles,
	}
}

// Open maps path read-only and returns a HostReader over it, or an error
// when the file cannot be opened, is empty, or cannot be mapped (Reader
// is the entry point that then falls back to OpenFallback). The returned
// reader remains valid until Close is called on the whole Map.
func (m *Map) Open(path string) (*mappedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mf, ok := m.mapped[path]; ok {
		return mf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hostmap: opening %q: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hostmap: stat %q: %w", path, err)
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("hostmap: %q is empty, nothing to map", path)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hostmap: mmap %q: %w", path, err)
	}

	mf := &mappedFile{data: data, file: f}
	m.mapped[path] = mf
	return mf, nil
}

// OpenFallback opens path as a plain file handle read through ReadAt,
// evicting the least recently used handle once maxHandles is exceeded.
// Used when Open's mmap attempt fails.
func (m *Map) OpenFallback(path string) (*handleFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hf, ok := m.handles[path]; ok {
		for i, p := range m.handleLRU {
			if p == path {
				m.handleLRU = append(m.handleLRU[:i], m.handleLRU[i+1:]...)
				m.handleLRU = append(m.handleLRU, path)
				break
			}
		}
		return hf, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hostmap: opening %q: %w", path, err)
	}

	hf := &handleFile{f: f}
	m.handles[path] = hf
	m.handleLRU = append(m.handleLRU, path)

	for len(m.handleLRU) > m.maxHandles {
		evict := m.handleLRU[0]
		m.handleLRU = m.handleLRU[1:]
		if old, ok := m.handles[evict]; ok {
			old.f.Close()
			delete(m.handles, evict)
		}
	}
	return hf, nil
}

// Reader returns a HostReader for path, preferring an mmap'd view and
// falling back to a pooled file handle when mapping fails. This is the
// single entry point the scanner calls for every file it registers.
func (m *Map) Reader(path string) (interface{ ReadAt([]byte, int64) (int, error) }, error) {
	if mf, err := m.Open(path); err == nil {
		return mf, nil
	}
	return m.OpenFallback(path)
}

// Close releases every mapping and open handle.
func (m *Map) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, mf := range m.mapped {
		if err := mf.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, hf := range m.handles {
		if err := hf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
