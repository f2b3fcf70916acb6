// Package gsf implements the Grain Sequence Format decoder and
// encoder: the unique head block (file id, creation time, segments
// and tags), the grai block loop, and the terminator. It sits on top
// of ssb/block for framing and grain for the in-memory model.
package gsf

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/bbc/gsf/pkg/gsferrors"
	"github.com/bbc/gsf/pkg/ssb/block"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// FileTypeTag is the SSB file_type tag for GSF files ("grsg").
var FileTypeTag = block.NewTag("grsg")

// CurrentMajor is the major version this package writes.
const CurrentMajor = 8

// SupportedMajors lists the major versions this package can read.
var SupportedMajors = map[uint16]bool{7: true, 8: true}

var (
	headTag = block.NewTag("head")
	segmTag = block.NewTag("segm")
	tagTag  = block.NewTag("tag ")
	graiTag = block.NewTag("grai")
)

// Tag is an arbitrary (key, val) string pair attached to a file or segment.
// Values are preserved via InvalidString so malformed UTF-8 round-trips
// rather than being silently corrupted (see the open question on
// malformed UTF-8 in tag/val strings).
type Tag struct {
	Key primitive.InvalidString
	Val primitive.InvalidString
}

// NewTag builds a well-formed Tag from plain Go strings.
func NewTag(key, val string) Tag {
	return Tag{Key: primitive.NewValidString(key), Val: primitive.NewValidString(val)}
}

func readTagBlock(r *primitive.Reader) (Tag, error) {
	key, err := r.ReadVarString()
	if err != nil {
		return Tag{}, fmt.Errorf("read tag key: %w", err)
	}
	val, err := r.ReadVarString()
	if err != nil {
		return Tag{}, fmt.Errorf("read tag val: %w", err)
	}
	return Tag{Key: key, Val: val}, nil
}

func tagPayloadLen(t Tag) int {
	return 2 + len(t.Key.Bytes()) + 2 + len(t.Val.Bytes())
}

func writeTagBlock(w *primitive.Writer, t Tag) {
	block.WriteBlock(w, tagTag, tagPayloadLen(t), func(w *primitive.Writer) {
		w.TryWriteVarString(string(t.Key.Bytes()))
		w.TryWriteVarString(string(t.Val.Bytes()))
	})
}

// Segment is a (local_id, id, count) triple holding the grains of one
// flow within a file, plus arbitrary string tags. Count is -1 when
// unknown (an encoder writing to a non-seekable sink never learns it).
type Segment struct {
	LocalID uint16
	ID      uuid.UUID
	Count   int64
	Tags    []Tag
}

func readSegmBlock(payloadLen int, r io.Reader) (Segment, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)

	localID, err := pr.ReadUint(2)
	if err != nil {
		return Segment{}, fmt.Errorf("read segm local_id: %w", err)
	}
	id, err := pr.ReadUUID()
	if err != nil {
		return Segment{}, fmt.Errorf("read segm id: %w", err)
	}
	count, err := pr.ReadSint(8)
	if err != nil {
		return Segment{}, fmt.Errorf("read segm count: %w", err)
	}

	seg := Segment{LocalID: uint16(localID), ID: id, Count: count}

	it := block.NewChildIterator(lr, int(lr.N))
	for {
		h, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Segment{}, err
		}
		switch h.Tag {
		case tagTag:
			tag, err := readTagBlock(it.Reader)
			if err != nil {
				return Segment{}, err
			}
			seg.Tags = append(seg.Tags, tag)
		default:
			if err := it.Skip(); err != nil {
				return Segment{}, err
			}
		}
	}
	return seg, nil
}

func segmFixedPayloadLen(s Segment) int {
	return 2 + 16 + 8
}

func segmPayloadLen(s Segment) int {
	n := segmFixedPayloadLen(s)
	for _, t := range s.Tags {
		n += block.HeaderSize + tagPayloadLen(t)
	}
	return n
}

// countOffset is the byte offset, from the start of the segm block's
// payload, of the count field — used by the encoder to back-patch it
// on close.
const countOffset = 2 + 16

func writeSegmBlock(w *primitive.Writer, s Segment) {
	block.WriteBlock(w, segmTag, segmPayloadLen(s), func(w *primitive.Writer) {
		w.TryWriteUint(2, uint64(s.LocalID))
		w.TryWriteUUID(s.ID)
		w.TryWriteSint(8, s.Count)
		for _, t := range s.Tags {
			writeTagBlock(w, t)
		}
	})
}

// File is a file's head-level metadata: its id, creation time, and
// declared segments and tags. It does not hold grains — those are
// streamed through Decoder.Next / SegmentHandle.AddGrain.
type File struct {
	FileID   uuid.UUID
	Created  primitive.DateTime
	Segments []Segment
	Tags     []Tag
}

// SegmentByLocalID returns the segment with the given local_id, or
// false if none is declared.
func (f File) SegmentByLocalID(localID uint16) (Segment, bool) {
	for _, s := range f.Segments {
		if s.LocalID == localID {
			return s, true
		}
	}
	return Segment{}, false
}

func headFixedPayloadLenV8() int { return 16 + 7 }

func headPayloadLen(f File) int {
	n := headFixedPayloadLenV8()
	for _, s := range f.Segments {
		n += block.HeaderSize + segmPayloadLen(s)
	}
	for _, t := range f.Tags {
		n += block.HeaderSize + tagPayloadLen(t)
	}
	return n
}

func writeHeadBlock(w *primitive.Writer, f File) {
	block.WriteBlock(w, headTag, headPayloadLen(f), func(w *primitive.Writer) {
		w.TryWriteUUID(f.FileID)
		w.TryWriteDateTime(f.Created)
		for _, s := range f.Segments {
			writeSegmBlock(w, s)
		}
		for _, t := range f.Tags {
			writeTagBlock(w, t)
		}
	})
}

// readHeadBlock parses the head block's body (already positioned just
// after its header) given the reader's negotiated major version.
func readHeadBlock(major uint16, payloadLen int, r io.Reader) (File, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)

	id, err := pr.ReadUUID()
	if err != nil {
		return File{}, fmt.Errorf("read head id: %w", err)
	}

	var created primitive.DateTime
	if major >= 8 {
		created, err = pr.ReadDateTime()
		if err != nil {
			return File{}, fmt.Errorf("read head created: %w", err)
		}
	} else {
		// v7: legacy 10-octet IPPTimestamp, then 16 deprecated zero octets.
		ipp, err := pr.ReadIPPTimestamp()
		if err != nil {
			return File{}, fmt.Errorf("read head created (v7): %w", err)
		}
		if _, err := pr.ReadFixedBytes(16); err != nil {
			return File{}, fmt.Errorf("read head deprecated region (v7): %w", err)
		}
		created = ipptsToDateTime(ipp)
	}

	f := File{FileID: id, Created: created}
	seen := map[uint16]bool{}

	it := block.NewChildIterator(lr, int(lr.N))
	for {
		h, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return File{}, err
		}
		switch h.Tag {
		case segmTag:
			payloadLen, err := h.PayloadLen()
			if err != nil {
				return File{}, err
			}
			seg, err := readSegmBlock(payloadLen, it.Reader)
			if err != nil {
				return File{}, err
			}
			if seen[seg.LocalID] {
				return File{}, fmt.Errorf("%w: local_id %d", gsferrors.ErrDuplicateLocalID, seg.LocalID)
			}
			seen[seg.LocalID] = true
			f.Segments = append(f.Segments, seg)
		case tagTag:
			tag, err := readTagBlock(it.Reader)
			if err != nil {
				return File{}, err
			}
			f.Tags = append(f.Tags, tag)
		default:
			if err := it.Skip(); err != nil {
				return File{}, err
			}
		}
	}
	return f, nil
}

// ipptsToDateTime degrades a legacy v7 IPPTimestamp to a DateTime at
// second resolution (v7 files are only ever read, never written, so
// this conversion only needs to surface a usable creation time).
func ipptsToDateTime(ipp primitive.IPPTimestamp) primitive.DateTime {
	t := unixToDateTime(int64(ipp.Seconds))
	return t
}
