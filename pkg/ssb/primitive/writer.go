// Package primitive implements the SSB primitive codec: fixed-width
// little-endian integers, booleans, UUIDs, rationals, timestamps, time
// labels, date-times, and fixed/variable strings and byte arrays.
//
// Writer mirrors the sticky-error TryWrite pattern used by the bit
// writer this module was adapted from (nvr/pkg/video/mp4/bitio): once a
// write fails every subsequent TryXXX call is a no-op, so a block body
// can be written as a flat sequence of calls with a single error check
// at the end.
package primitive

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/bbc/gsf/pkg/gsferrors"
)

// Writer writes SSB primitives to an underlying io.Writer.
type Writer struct {
	out io.Writer
	err error
}

// NewWriter returns a Writer writing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Err returns the first error encountered by a TryXXX call, if any.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) tryWrite(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.out.Write(p)
}

// TryWriteUint writes the low n octets (1-8) of v, little-endian.
func (w *Writer) TryWriteUint(n int, v uint64) {
	if w.err != nil {
		return
	}
	if n < 1 || n > 8 {
		w.err = fmt.Errorf("write uint: %w: length %d", gsferrors.ErrValueOutOfRange, n)
		return
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	w.tryWrite(buf)
}

// TryWriteSint writes the low n octets (1-8) of v as two's complement, little-endian.
func (w *Writer) TryWriteSint(n int, v int64) {
	w.TryWriteUint(n, uint64(v)&mask(n))
}

func mask(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * n)) - 1
}

// TryWriteBool writes a single octet: 1 for true, 0 for false.
func (w *Writer) TryWriteBool(v bool) {
	if v {
		w.tryWrite([]byte{1})
	} else {
		w.tryWrite([]byte{0})
	}
}

// TryWriteUUID writes a 16-octet UUID.
func (w *Writer) TryWriteUUID(id uuid.UUID) {
	b, _ := id.MarshalBinary()
	w.tryWrite(b)
}

// TryWriteRational writes an 8-octet unsigned rational (numerator, denominator).
func (w *Writer) TryWriteRational(r Rational) {
	w.TryWriteUint(4, uint64(r.Numerator))
	w.TryWriteUint(4, uint64(r.Denominator))
}

// TryWriteTimestamp writes an 11-octet signed nanosecond timestamp.
func (w *Writer) TryWriteTimestamp(ts Timestamp) {
	if w.err != nil {
		return
	}
	if ts.Nanoseconds >= 1e9 {
		w.err = fmt.Errorf("write timestamp: %w: nanoseconds %d", gsferrors.ErrMalformedBlock, ts.Nanoseconds)
		return
	}
	w.TryWriteBool(ts.Positive)
	w.TryWriteUint(6, ts.Seconds)
	w.TryWriteUint(4, uint64(ts.Nanoseconds))
}

// TryWriteTimeLabel writes a 29-octet time label (16-octet tag + 13-octet timecode).
func (w *Writer) TryWriteTimeLabel(tl TimeLabel) {
	w.TryWriteFixedString(tl.Tag, timeLabelTagSize)
	w.TryWriteUint(4, uint64(tl.Timecode.FramesSinceMidnight))
	w.TryWriteRational(tl.Timecode.FrameRate)
	w.TryWriteBool(tl.Timecode.DropFrame)
}

// TryWriteDateTime writes a 7-octet date-time.
func (w *Writer) TryWriteDateTime(dt DateTime) {
	w.TryWriteSint(2, int64(dt.Year))
	w.TryWriteUint(1, uint64(dt.Month))
	w.TryWriteUint(1, uint64(dt.Day))
	w.TryWriteUint(1, uint64(dt.Hour))
	w.TryWriteUint(1, uint64(dt.Minute))
	w.TryWriteUint(1, uint64(dt.Second))
}

// TryWriteFixedString writes s into a fixed-size slot, null-padded.
// It is an error for s to be longer than size once encoded as UTF-8.
func (w *Writer) TryWriteFixedString(s string, size int) {
	if w.err != nil {
		return
	}
	b := []byte(s)
	if len(b) > size {
		w.err = fmt.Errorf("write fixed string: %w: %d octets into %d octet slot",
			gsferrors.ErrValueOutOfRange, len(b), size)
		return
	}
	buf := make([]byte, size)
	copy(buf, b)
	w.tryWrite(buf)
}

// TryWriteVarString writes a 2-octet length prefix followed by s's UTF-8 bytes.
// Strings longer than 65535 octets fail with ErrValueOutOfRange rather than truncating.
func (w *Writer) TryWriteVarString(s string) {
	if w.err != nil {
		return
	}
	b := []byte(s)
	if len(b) > maxVarStringLen {
		w.err = fmt.Errorf("write var string: %w: %d octets exceeds %d",
			gsferrors.ErrValueOutOfRange, len(b), maxVarStringLen)
		return
	}
	w.TryWriteUint(2, uint64(len(b)))
	w.tryWrite(b)
}

// TryWriteFixedBytes writes exactly len(b) octets verbatim.
func (w *Writer) TryWriteFixedBytes(b []byte) {
	w.tryWrite(b)
}

// TryWriteVarBytes writes a 4-octet length prefix followed by b.
func (w *Writer) TryWriteVarBytes(b []byte) {
	if w.err != nil {
		return
	}
	w.TryWriteUint(4, uint64(len(b)))
	w.tryWrite(b)
}

const (
	maxVarStringLen  = 65535
	timeLabelTagSize = 16
)
