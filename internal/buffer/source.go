package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"lesbin/internal/fileio"
	"lesbin/internal/logger"
)

var errSourceClosed = errors.New("source closed")

const (
	DefaultPageSize        = 64 * 1024
	DefaultCachePages      = 16
	DefaultMemoryThreshold = 4 * 1024 * 1024
)

// ByteSource is read access to the bytes of the file as it is on disk.
// Reads past the end are short or empty, never an error.
type ByteSource interface {
	ReadAt(offset int64, n int) ([]byte, error)
	Len() int64
	Close() error
}

// ReadError reports an I/O failure at a byte offset. Reads that fail
// still return whatever bytes came before the failing page.
type ReadError struct {
	Offset int64
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read failed at 0x%X: %v", e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// SourceOptions tunes page size, cache depth, and the size under which a
// file is read into memory whole. A negative MemoryThreshold always pages.
type SourceOptions struct {
	PageSize        int
	CachePages      int
	MemoryThreshold int64
}

func (o SourceOptions) withDefaults() SourceOptions {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.CachePages <= 0 {
		o.CachePages = DefaultCachePages
	}
	if o.MemoryThreshold == 0 {
		o.MemoryThreshold = DefaultMemoryThreshold
	}
	return o
}

// NewSource picks an in-memory source for small files and a paged one for
// everything else. The returned source owns f.
func NewSource(f fileio.File, opts SourceOptions) (ByteSource, error) {
	opts = opts.withDefaults()
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	if size <= opts.MemoryThreshold {
		data := make([]byte, size)
		n, err := f.ReadAt(data, 0)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		f.Close()
		return NewMemorySource(data[:n]), nil
	}
	logger.DebugTagf("buffer", "paged source for %s: %d bytes, page %d", f.Name(), size, opts.PageSize)
	return &pagedSource{
		file:     f,
		size:     size,
		pageSize: opts.PageSize,
		maxPages: opts.CachePages,
		pages:    make(map[int64][]byte),
	}, nil
}

type memorySource struct {
	data []byte
}

// NewMemorySource serves reads from data. The slice is not copied.
func NewMemorySource(data []byte) ByteSource {
	return &memorySource{data: data}
}

func (s *memorySource) ReadAt(offset int64, n int) ([]byte, error) {
	if offset < 0 || n <= 0 || offset >= int64(len(s.data)) {
		return nil, nil
	}
	end := offset + int64(n)
	if end > int64(len(s.data)) {
		end = int64(len(s.data))
	}
	return s.data[offset:end], nil
}

func (s *memorySource) Len() int64   { return int64(len(s.data)) }
func (s *memorySource) Close() error { return nil }

// pagedSource reads fixed-size pages on demand and keeps the most
// recently used ones. All access goes through mu so background prefetch
// and the UI goroutine can share it.
type pagedSource struct {
	mu       sync.Mutex
	file     fileio.File
	size     int64
	pageSize int
	maxPages int
	pages    map[int64][]byte
	order    []int64
	hits     int
	misses   int
}

func (s *pagedSource) Len() int64 { return s.size }

func (s *pagedSource) ReadAt(offset int64, n int) ([]byte, error) {
	if offset < 0 || n <= 0 || offset >= s.size {
		return nil, nil
	}
	end := offset + int64(n)
	if end > s.size {
		end = s.size
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]byte, 0, end-offset)
	for pos := offset; pos < end; {
		index := pos / int64(s.pageSize)
		page, err := s.loadPage(index)
		if err != nil {
			return out, &ReadError{Offset: pos, Err: err}
		}
		inner := pos - index*int64(s.pageSize)
		if inner >= int64(len(page)) {
			break
		}
		take := int64(len(page)) - inner
		if take > end-pos {
			take = end - pos
		}
		out = append(out, page[inner:inner+take]...)
		pos += take
	}
	return out, nil
}

func (s *pagedSource) loadPage(index int64) ([]byte, error) {
	if page, ok := s.pages[index]; ok {
		s.hits++
		s.touch(index)
		return page, nil
	}
	if s.file == nil {
		return nil, errSourceClosed
	}
	s.misses++
	buf := make([]byte, s.pageSize)
	n, err := s.file.ReadAt(buf, index*int64(s.pageSize))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	page := buf[:n]
	s.pages[index] = page
	s.touch(index)
	if len(s.pages) > s.maxPages {
		evict := s.order[0]
		s.order = s.order[1:]
		delete(s.pages, evict)
	}
	return page, nil
}

func (s *pagedSource) touch(index int64) {
	for i, v := range s.order {
		if v == index {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, index)
}

// Stats reports page cache hits and misses.
func (s *pagedSource) Stats() (hits, misses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

func (s *pagedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	logger.DebugTagf("buffer", "closing %s: page hits=%d misses=%d", s.file.Name(), s.hits, s.misses)
	err := s.file.Close()
	s.file = nil
	s.pages = make(map[int64][]byte)
	s.order = nil
	return err
}
