// Package search scans the effective bytes of a buffer for a pattern in
// bounded chunks, so it works the same on a 4 KiB file and a 40 GiB one.
package search

import (
	"bytes"
	"context"

	"lesbin/internal/logger"
)

// DefaultChunk is how many match positions one read covers.
const DefaultChunk = 256 * 1024

// Reader is the read side of a buffer or snapshot.
type Reader interface {
	ReadAt(offset int64, n int) ([]byte, error)
	Len() int64
}

// Engine runs searches with a fixed chunk size.
type Engine struct {
	Chunk int
}

func (e Engine) chunk(pattern []byte) int64 {
	c := e.Chunk
	if c <= 0 {
		c = DefaultChunk
	}
	return int64(max(c, len(pattern)))
}

// Find returns the offset of the first match at or after start, wrapping to
// the beginning once. Backward returns the last match before start,
// wrapping to the end once. It reports false only after every position has
// been checked.
func Find(ctx context.Context, r Reader, pattern []byte, start int64, backward bool) (int64, bool, error) {
	return Engine{}.Find(ctx, r, pattern, start, backward)
}

// Count returns the number of possibly overlapping matches.
func Count(ctx context.Context, r Reader, pattern []byte) (int, error) {
	return Engine{}.Count(ctx, r, pattern)
}

func (e Engine) Find(ctx context.Context, r Reader, pattern []byte, start int64, backward bool) (int64, bool, error) {
	length := r.Len()
	if len(pattern) == 0 || int64(len(pattern)) > length {
		return 0, false, nil
	}
	start = min(max(start, 0), length)
	// Positions past this can't hold a full match.
	last := length - int64(len(pattern)) + 1

	type span struct{ from, to int64 }
	spans := []span{{start, last}, {0, min(start, last)}}
	scan := e.forward
	if backward {
		spans = []span{{0, min(start, last)}, {start, last}}
		scan = e.backward
	}

	for _, s := range spans {
		if s.from >= s.to {
			continue
		}
		pos, ok, err := scan(ctx, r, pattern, s.from, s.to)
		if err != nil || ok {
			return pos, ok, err
		}
	}
	logger.DebugTagf("search", "no match for % X in %d bytes", pattern, length)
	return 0, false, nil
}

// forward returns the first match whose position lies in [from, to).
func (e Engine) forward(ctx context.Context, r Reader, pattern []byte, from, to int64) (int64, bool, error) {
	chunk := e.chunk(pattern)
	overlap := len(pattern) - 1
	for pos := from; pos < to; pos += chunk {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		end := min(pos+chunk, to)
		data, err := r.ReadAt(pos, int(end-pos)+overlap)
		if err != nil {
			return 0, false, err
		}
		if i := bytes.Index(data, pattern); i >= 0 && pos+int64(i) < end {
			return pos + int64(i), true, nil
		}
	}
	return 0, false, nil
}

// backward returns the last match whose position lies in [from, to).
func (e Engine) backward(ctx context.Context, r Reader, pattern []byte, from, to int64) (int64, bool, error) {
	chunk := e.chunk(pattern)
	overlap := len(pattern) - 1
	for hi := to; hi > from; hi -= chunk {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		lo := max(hi-chunk, from)
		data, err := r.ReadAt(lo, int(hi-lo)+overlap)
		if err != nil {
			return 0, false, err
		}
		if i := bytes.LastIndex(data, pattern); i >= 0 {
			return lo + int64(i), true, nil
		}
	}
	return 0, false, nil
}

func (e Engine) Count(ctx context.Context, r Reader, pattern []byte) (int, error) {
	length := r.Len()
	if len(pattern) == 0 || int64(len(pattern)) > length {
		return 0, nil
	}
	last := length - int64(len(pattern)) + 1
	chunk := e.chunk(pattern)
	overlap := len(pattern) - 1
	count := 0
	for pos := int64(0); pos < last; pos += chunk {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		end := min(pos+chunk, last)
		data, err := r.ReadAt(pos, int(end-pos)+overlap)
		if err != nil {
			return count, err
		}
		for i := 0; ; {
			j := bytes.Index(data[i:], pattern)
			if j < 0 || pos+int64(i+j) >= end {
				break
			}
			count++
			i += j + 1
		}
	}
	return count, nil
}
