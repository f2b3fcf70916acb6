package gsf

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/gsferrors"
	"github.com/bbc/gsf/pkg/ssb/block"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// EncoderState is the encoder's lifecycle state, per the design
// note's Open → Started → Closed|Failed state machine.
type EncoderState int

const (
	StateOpen EncoderState = iota
	StateStarted
	StateClosed
	StateFailed
)

func (s EncoderState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateStarted:
		return "started"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Encoder is a progressive GSF writer: declare segments and tags,
// Start to flush the file header and head block, add grains through
// each segment's handle, then End to write the terminator and (on a
// seekable sink) back-patch segment counts.
type Encoder struct {
	w  io.Writer
	ws io.WriteSeeker

	file  File
	state EncoderState
	err   error

	countOffsets map[uint16]int64
	counts       map[uint16]int64
}

// New returns an Encoder writing to w, with the given file id and
// creation time. Segments and file tags must be declared with
// AddSegment/AddTag before Start.
func New(w io.Writer, fileID uuid.UUID, created primitive.DateTime) *Encoder {
	e := &Encoder{
		w:            w,
		file:         File{FileID: fileID, Created: created},
		counts:       map[uint16]int64{},
		countOffsets: map[uint16]int64{},
	}
	if ws, ok := w.(io.WriteSeeker); ok {
		e.ws = ws
	}
	return e
}

// Err returns the sticky error that put the encoder into the Failed
// state, if any.
func (e *Encoder) Err() error {
	return e.err
}

// State returns the encoder's current lifecycle state.
func (e *Encoder) State() EncoderState {
	return e.state
}

func (e *Encoder) fail(err error) error {
	e.state = StateFailed
	e.err = err
	return err
}

// AddSegment declares a segment. It is only valid in the Open state:
// the head block is fully serialized by Start, so no segment may be
// added once it has run.
func (e *Encoder) AddSegment(localID uint16, id uuid.UUID, tags ...Tag) (*SegmentHandle, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.state != StateOpen {
		return nil, e.fail(fmt.Errorf("%w: AddSegment after Start", gsferrors.ErrEncoderState))
	}
	if _, exists := e.file.SegmentByLocalID(localID); exists {
		return nil, e.fail(fmt.Errorf("%w: local_id %d already declared", gsferrors.ErrDuplicateLocalID, localID))
	}
	e.file.Segments = append(e.file.Segments, Segment{LocalID: localID, ID: id, Count: -1, Tags: tags})
	return &SegmentHandle{e: e, localID: localID}, nil
}

// AddTag attaches a file-level tag. Only valid in the Open state.
func (e *Encoder) AddTag(key, val string) error {
	if e.err != nil {
		return e.err
	}
	if e.state != StateOpen {
		return e.fail(fmt.Errorf("%w: AddTag after Start", gsferrors.ErrEncoderState))
	}
	e.file.Tags = append(e.file.Tags, NewTag(key, val))
	return nil
}

// Start writes the file header and the head block (segments and tags
// as declared so far), then transitions to Started. No further
// AddSegment or AddTag call is valid afterwards.
func (e *Encoder) Start() error {
	if e.err != nil {
		return e.err
	}
	if e.state != StateOpen {
		return e.fail(fmt.Errorf("%w: Start called twice", gsferrors.ErrEncoderState))
	}

	if e.ws != nil {
		e.recordCountOffsets()
	}

	pw := primitive.NewWriter(e.w)
	block.WriteFileHeader(pw, block.FileHeader{FileType: FileTypeTag, Major: CurrentMajor, Minor: 0})
	writeHeadBlock(pw, e.file)
	if err := pw.Err(); err != nil {
		return e.fail(fmt.Errorf("write head: %w", err))
	}

	e.state = StateStarted
	return nil
}

// recordCountOffsets computes, purely arithmetically from the
// declared file layout, the absolute byte offset of each segment's
// count field — the position End seeks back to when back-patching.
func (e *Encoder) recordCountOffsets() {
	offset := int64(block.FileHeaderSize + block.HeaderSize + headFixedPayloadLenV8())
	for _, s := range e.file.Segments {
		e.countOffsets[s.LocalID] = offset + block.HeaderSize + countOffset
		offset += int64(block.HeaderSize + segmPayloadLen(s))
	}
}

// SegmentHandle writes grains into one declared segment.
type SegmentHandle struct {
	e       *Encoder
	localID uint16
}

// LocalID returns the segment's local_id.
func (h *SegmentHandle) LocalID() uint16 {
	return h.localID
}

// AddGrain writes g immediately as a grai block. g is not retained.
func (h *SegmentHandle) AddGrain(g *grain.Grain) error {
	return h.e.addGrain(h.localID, g)
}

func (e *Encoder) addGrain(localID uint16, g *grain.Grain) error {
	if e.err != nil {
		return e.err
	}
	if e.state != StateStarted {
		return e.fail(fmt.Errorf("%w: AddGrain before Start or after End", gsferrors.ErrEncoderState))
	}
	if err := g.Validate(); err != nil {
		return e.fail(fmt.Errorf("%w: %v", gsferrors.ErrValueOutOfRange, err))
	}

	data, err := dataBytes(g)
	if err != nil {
		return e.fail(fmt.Errorf("materialize grain data: %w", err))
	}

	gbhdLen := gbhdPayloadLen(g)
	grdtLen := len(data)
	payloadLen := 2 + block.HeaderSize + gbhdLen + block.HeaderSize + grdtLen

	pw := primitive.NewWriter(e.w)
	block.WriteBlock(pw, graiTag, payloadLen, func(pw *primitive.Writer) {
		pw.TryWriteUint(2, uint64(localID))
		writeGBHD(pw, g)
		block.WriteBlock(pw, grdtTag, grdtLen, func(pw *primitive.Writer) {
			pw.TryWriteFixedBytes(data)
		})
	})
	if err := pw.Err(); err != nil {
		return e.fail(fmt.Errorf("write grai: %w", err))
	}

	e.counts[localID]++
	return nil
}

func dataBytes(g *grain.Grain) ([]byte, error) {
	if g.Data == nil {
		return nil, nil
	}
	return g.Data.Bytes()
}

// End writes the terminator grai block, then, on a seekable sink,
// back-patches every segment's count field to the number of grains
// actually written to it. On a non-seekable sink counts are left at
// -1. If the encoder is already Failed, End still attempts the
// terminator on a best-effort basis and returns the original failure.
func (e *Encoder) End() error {
	terminatorErr := e.writeTerminator()

	if e.ws != nil {
		if err := e.backpatchCounts(); err != nil {
			if e.err == nil {
				e.err = err
			}
		}
	}

	if e.state != StateFailed {
		e.state = StateClosed
	}
	if e.err != nil {
		return e.err
	}
	return terminatorErr
}

func (e *Encoder) writeTerminator() error {
	pw := primitive.NewWriter(e.w)
	block.WriteHeader(pw, block.Header{Tag: graiTag, Size: 0})
	return pw.Err()
}

func (e *Encoder) backpatchCounts() error {
	for _, s := range e.file.Segments {
		offset, ok := e.countOffsets[s.LocalID]
		if !ok {
			continue
		}
		count := e.counts[s.LocalID]
		if _, err := e.ws.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("seek to count field for local_id %d: %w", s.LocalID, err)
		}
		pw := primitive.NewWriter(e.ws)
		pw.TryWriteSint(8, count)
		if err := pw.Err(); err != nil {
			return fmt.Errorf("write back-patched count for local_id %d: %w", s.LocalID, err)
		}
	}
	if _, err := e.ws.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek back to end after back-patch: %w", err)
	}
	return nil
}
