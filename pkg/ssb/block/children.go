package block

import (
	"fmt"
	"io"

	"github.com/bbc/gsf/pkg/gsferrors"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// ChildIterator walks the child blocks of a parent whose payload is
// exactly parentPayloadLen octets long. A reader encountering an
// unknown child tag must skip exactly its payload_len octets and
// continue; a reader encountering a known tag must stop parsing at
// the block's declared end and never past it. ChildIterator enforces
// both: Next returns the next child Header (or io.EOF once the parent
// payload is exhausted), and Skip/the caller consuming exactly
// PayloadLen octets from Reader is the caller's responsibility.
type ChildIterator struct {
	lr      *io.LimitedReader
	Reader  *primitive.Reader
	current Header
}

// NewChildIterator returns an iterator over the next parentPayloadLen
// octets of r.
func NewChildIterator(r io.Reader, parentPayloadLen int) *ChildIterator {
	lr := &io.LimitedReader{R: r, N: int64(parentPayloadLen)}
	return &ChildIterator{lr: lr, Reader: primitive.NewReader(lr)}
}

// Next reads the next child block header, or returns io.EOF once the
// parent's payload has been fully consumed. It returns
// ErrMalformedBlock if the child's declared size would extend past
// the parent's bounds.
func (it *ChildIterator) Next() (Header, error) {
	if it.lr.N <= 0 {
		return Header{}, io.EOF
	}
	h, err := ReadHeader(it.Reader)
	if err != nil {
		return Header{}, err
	}
	payloadLen, err := h.PayloadLen()
	if err != nil {
		return Header{}, err
	}
	if int64(payloadLen) > it.lr.N {
		return Header{}, fmt.Errorf("%w: child block %q (%d octet payload) exceeds parent bounds (%d octets remaining)",
			gsferrors.ErrMalformedBlock, h.Tag, payloadLen, it.lr.N)
	}
	it.current = h
	return h, nil
}

// Skip discards the current child block's payload without parsing
// it. SeekPast unwraps however many layers of parent LimitedReader
// sit between this iterator and the genuine underlying reader, so
// when that root reader is seekable, Skip seeks past the payload
// instead of reading and discarding it — the mechanism that lets
// gsf.Decoder's skip_data mode advance past a grdt payload nested
// inside a grai block without touching it.
func (it *ChildIterator) Skip() error {
	payloadLen, err := it.current.PayloadLen()
	if err != nil {
		return err
	}
	return SeekPast(it.lr, payloadLen)
}

// Remaining returns the number of unconsumed octets in the parent's payload.
func (it *ChildIterator) Remaining() int64 {
	return it.lr.N
}
