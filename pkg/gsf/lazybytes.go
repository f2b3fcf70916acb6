package gsf

import (
	"fmt"
	"io"
)

// LazyBytes is a deferred read of a grain's data region: an offset
// and length into a reader the decoder that produced it still owns.
// Per the reference resource-sharing behaviour (§5 design note),
// lazy handles are safe to read once the decoder's iteration has
// ended. Bytes leaves the shared reader at the end of this region and
// the decoder's next Next call reads from wherever the reader is, so
// reading a handle before iteration has ended moves the decoder's
// position unless that region ends exactly where the decoder stopped.
type LazyBytes struct {
	r      io.ReadSeeker
	offset int64
	length int
}

// NewLazyBytes builds a LazyBytes handle over r, sharing it with
// whatever else is reading from r.
func NewLazyBytes(r io.ReadSeeker, offset int64, length int) *LazyBytes {
	return &LazyBytes{r: r, offset: offset, length: length}
}

// Len returns the data region's length without reading it.
func (lb *LazyBytes) Len() int {
	return lb.length
}

// Bytes seeks the shared reader to the handle's offset and reads its
// full length, returning a private copy. The reader's position after
// return is the end of this region, not wherever it was before.
func (lb *LazyBytes) Bytes() ([]byte, error) {
	if _, err := lb.r.Seek(lb.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek lazy data at offset %d: %w", lb.offset, err)
	}
	buf := make([]byte, lb.length)
	if _, err := io.ReadFull(lb.r, buf); err != nil {
		return nil, fmt.Errorf("read lazy data (%d octets at offset %d): %w", lb.length, lb.offset, err)
	}
	return buf, nil
}
