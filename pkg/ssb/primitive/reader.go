package primitive

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bbc/gsf/pkg/gsferrors"
)

// Reader reads SSB primitives from an underlying io.Reader. Unlike
// Writer, reads are not a sticky-error chain: callers generally need
// each value as it's read, so every method returns its own error.
type Reader struct {
	in io.Reader
}

// NewReader returns a Reader reading from in.
func NewReader(in io.Reader) *Reader {
	return &Reader{in: in}
}

// Read implements io.Reader by forwarding to the underlying reader,
// so a *Reader can itself be wrapped in a nested io.LimitedReader when
// a block needs to bound a child's reads without losing the primitive
// decoding methods on the way back out.
func (r *Reader) Read(p []byte) (int, error) {
	return r.in.Read(p)
}

func (r *Reader) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.in, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fmt.Errorf("%w: need %d octets: %v", gsferrors.ErrTruncatedInput, n, err)
		}
		return nil, err
	}
	return buf, nil
}

// ReadUint reads an unsigned integer stored in n (1-8) little-endian octets.
func (r *Reader) ReadUint(n int) (uint64, error) {
	if n < 1 || n > 8 {
		return 0, fmt.Errorf("read uint: %w: length %d", gsferrors.ErrMalformedBlock, n)
	}
	buf, err := r.readFull(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v, nil
}

// ReadSint reads a two's complement signed integer stored in n (1-8) little-endian octets.
func (r *Reader) ReadSint(n int) (int64, error) {
	v, err := r.ReadUint(n)
	if err != nil {
		return 0, err
	}
	signBit := uint64(1) << (8*n - 1)
	if v&signBit != 0 {
		return int64(v) - int64(uint64(1)<<(8*n)), nil
	}
	return int64(v), nil
}

// ReadBool reads a single octet: any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint(1)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadUUID reads a 16-octet UUID.
func (r *Reader) ReadUUID() (uuid.UUID, error) {
	buf, err := r.readFull(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var id uuid.UUID
	copy(id[:], buf)
	return id, nil
}

// ReadRational reads an 8-octet unsigned rational.
func (r *Reader) ReadRational() (Rational, error) {
	num, err := r.ReadUint(4)
	if err != nil {
		return Rational{}, err
	}
	den, err := r.ReadUint(4)
	if err != nil {
		return Rational{}, err
	}
	return Rational{Numerator: uint32(num), Denominator: uint32(den)}, nil
}

// ReadTimestamp reads an 11-octet signed nanosecond timestamp.
// Nanoseconds >= 1e9 is a MalformedBlock error.
func (r *Reader) ReadTimestamp() (Timestamp, error) {
	positive, err := r.ReadBool()
	if err != nil {
		return Timestamp{}, err
	}
	secs, err := r.ReadUint(6)
	if err != nil {
		return Timestamp{}, err
	}
	nanos, err := r.ReadUint(4)
	if err != nil {
		return Timestamp{}, err
	}
	if nanos >= 1e9 {
		return Timestamp{}, fmt.Errorf("read timestamp: %w: nanoseconds %d", gsferrors.ErrMalformedBlock, nanos)
	}
	return Timestamp{Positive: positive, Seconds: secs, Nanoseconds: uint32(nanos)}, nil
}

// ReadIPPTimestamp reads the legacy 10-octet unsigned timestamp used by v7 files.
func (r *Reader) ReadIPPTimestamp() (IPPTimestamp, error) {
	secs, err := r.ReadUint(6)
	if err != nil {
		return IPPTimestamp{}, err
	}
	nanos, err := r.ReadUint(4)
	if err != nil {
		return IPPTimestamp{}, err
	}
	return IPPTimestamp{Seconds: secs, Nanoseconds: uint32(nanos)}, nil
}

// ReadTimeLabel reads a 29-octet time label.
func (r *Reader) ReadTimeLabel() (TimeLabel, error) {
	tag, err := r.ReadFixedString(timeLabelTagSize)
	if err != nil {
		return TimeLabel{}, err
	}
	frames, err := r.ReadUint(4)
	if err != nil {
		return TimeLabel{}, err
	}
	rate, err := r.ReadRational()
	if err != nil {
		return TimeLabel{}, err
	}
	drop, err := r.ReadBool()
	if err != nil {
		return TimeLabel{}, err
	}
	return TimeLabel{
		Tag: tag.String(),
		Timecode: Timecode{
			FramesSinceMidnight: uint32(frames),
			FrameRate:           rate,
			DropFrame:           drop,
		},
	}, nil
}

// ReadDateTime reads a 7-octet date-time.
func (r *Reader) ReadDateTime() (DateTime, error) {
	year, err := r.ReadSint(2)
	if err != nil {
		return DateTime{}, err
	}
	fields := make([]uint8, 5)
	for i := range fields {
		v, err := r.ReadUint(1)
		if err != nil {
			return DateTime{}, err
		}
		fields[i] = uint8(v)
	}
	return DateTime{
		Year:   int16(year),
		Month:  fields[0],
		Day:    fields[1],
		Hour:   fields[2],
		Minute: fields[3],
		Second: fields[4],
	}, nil
}

// ReadFixedString reads a size-octet slot as UTF-8, stopping at the
// first NUL (a null-terminated string fills the remainder of the
// slot with zero octets). Invalid UTF-8 is preserved raw rather than
// corrupted or rejected.
func (r *Reader) ReadFixedString(size int) (InvalidString, error) {
	buf, err := r.readFull(size)
	if err != nil {
		return InvalidString{}, err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return newInvalidString(buf), nil
}

// ReadVarString reads a 2-octet length prefix followed by that many UTF-8 octets.
func (r *Reader) ReadVarString() (InvalidString, error) {
	length, err := r.ReadUint(2)
	if err != nil {
		return InvalidString{}, err
	}
	buf, err := r.readFull(int(length))
	if err != nil {
		return InvalidString{}, err
	}
	return newInvalidString(buf), nil
}

func newInvalidString(raw []byte) InvalidString {
	if utf8.Valid(raw) {
		return InvalidString{raw: raw, valid: true, str: string(raw)}
	}
	return InvalidString{raw: raw, valid: false}
}

// ReadFixedBytes reads exactly size octets verbatim.
func (r *Reader) ReadFixedBytes(size int) ([]byte, error) {
	return r.readFull(size)
}

// ReadVarBytes reads a 4-octet length prefix followed by that many octets.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	length, err := r.ReadUint(4)
	if err != nil {
		return nil, err
	}
	return r.readFull(int(length))
}
