// Package block implements SSB block framing: the 8-octet block header
// (4-octet ASCII tag + 4-octet little-endian size-including-header),
// the 12-octet file header, and forward-compatible skip-unknown
// semantics.
//
// The framing shape — a tag, a self-describing size, and a Marshal
// that needs to know its total size up front — is adapted from the
// mp4 box writer this module grew out of (nvr/pkg/video/mp4.Boxes),
// with the header field order flipped (tag before size, not size
// before tag) and little-endian integers to match the wire format
// specified here.
package block

import (
	"fmt"
	"io"

	"github.com/bbc/gsf/pkg/gsferrors"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// HeaderSize is the size in octets of a block header (tag + size field).
const HeaderSize = 8

// FileHeaderSize is the size in octets of the SSB file header.
const FileHeaderSize = 12

// Signature is the fixed 4-octet SSB file signature.
const Signature = "SSBB"

// Tag is a 4-octet ASCII block tag, e.g. "head", "grai", "gbhd".
type Tag [4]byte

// NewTag builds a Tag from a string, which must be exactly 4 octets.
func NewTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

func (t Tag) String() string {
	return string(t[:])
}

// Header is a decoded block header: its tag and declared total size
// (header included). Payload length is Size-HeaderSize; the
// terminator grai block (Size 0 or HeaderSize, zero payload) is
// recognized and handled by package gsf, not here.
type Header struct {
	Tag  Tag
	Size uint32
}

// PayloadLen returns the payload length implied by the header.
func (h Header) PayloadLen() (int, error) {
	if h.Size < HeaderSize {
		return 0, fmt.Errorf("%w: block %q size %d is less than the %d octet header",
			gsferrors.ErrMalformedBlock, h.Tag, h.Size, HeaderSize)
	}
	return int(h.Size - HeaderSize), nil
}

// ReadHeader reads an 8-octet block header.
func ReadHeader(r *primitive.Reader) (Header, error) {
	tagBytes, err := r.ReadFixedBytes(4)
	if err != nil {
		return Header{}, fmt.Errorf("read block tag: %w", err)
	}
	size, err := r.ReadUint(4)
	if err != nil {
		return Header{}, fmt.Errorf("read block size: %w", err)
	}
	var tag Tag
	copy(tag[:], tagBytes)
	return Header{Tag: tag, Size: uint32(size)}, nil
}

// WriteHeader writes an 8-octet block header.
func WriteHeader(w *primitive.Writer, h Header) {
	w.TryWriteFixedBytes(h.Tag[:])
	w.TryWriteUint(4, uint64(h.Size))
}

// FileHeader is the 12-octet SSB file header.
type FileHeader struct {
	FileType Tag
	Major    uint16
	Minor    uint16
}

// ReadFileHeader reads and validates the 12-octet SSB file header,
// returning ErrUnsupportedSignature if the leading 4 octets aren't "SSBB".
func ReadFileHeader(r *primitive.Reader) (FileHeader, error) {
	sig, err := r.ReadFixedBytes(4)
	if err != nil {
		return FileHeader{}, fmt.Errorf("read signature: %w", err)
	}
	if string(sig) != Signature {
		return FileHeader{}, fmt.Errorf("%w: got %q", gsferrors.ErrUnsupportedSignature, sig)
	}
	fileType, err := r.ReadFixedBytes(4)
	if err != nil {
		return FileHeader{}, fmt.Errorf("read file type: %w", err)
	}
	major, err := r.ReadUint(2)
	if err != nil {
		return FileHeader{}, fmt.Errorf("read major version: %w", err)
	}
	minor, err := r.ReadUint(2)
	if err != nil {
		return FileHeader{}, fmt.Errorf("read minor version: %w", err)
	}
	var ft Tag
	copy(ft[:], fileType)
	return FileHeader{FileType: ft, Major: uint16(major), Minor: uint16(minor)}, nil
}

// WriteFileHeader writes the 12-octet SSB file header.
func WriteFileHeader(w *primitive.Writer, h FileHeader) {
	w.TryWriteFixedBytes([]byte(Signature))
	w.TryWriteFixedBytes(h.FileType[:])
	w.TryWriteUint(2, uint64(h.Major))
	w.TryWriteUint(2, uint64(h.Minor))
}

// SeekPast skips payloadLen octets of r, preferring a real Seek on
// the nearest underlying io.Seeker and falling back to discarding via
// io.CopyN otherwise. Every payload-bounded read in this package
// wraps its source in one or more layers of *io.LimitedReader (one
// per nested block), so r is frequently a LimitedReader whose R is
// itself another LimitedReader; SeekPast unwraps that chain to reach
// the genuine source before deciding whether a Seek is possible, and
// decrements every LimitedReader's count on the way back out so the
// bound each layer enforces stays accurate.
func SeekPast(r io.Reader, payloadLen int) error {
	if payloadLen == 0 {
		return nil
	}
	if lr, ok := r.(*io.LimitedReader); ok {
		if err := SeekPast(lr.R, payloadLen); err != nil {
			return err
		}
		lr.N -= int64(payloadLen)
		return nil
	}
	if seeker, ok := r.(io.Seeker); ok {
		_, err := seeker.Seek(int64(payloadLen), io.SeekCurrent)
		if err != nil {
			return fmt.Errorf("seek past block payload: %w", err)
		}
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, int64(payloadLen)); err != nil {
		return fmt.Errorf("%w: skip unknown block: %v", gsferrors.ErrTruncatedInput, err)
	}
	return nil
}
