package gsf

import (
	"fmt"
	"io"

	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/gsferrors"
	"github.com/bbc/gsf/pkg/ssb/block"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// DecodeOptions configures a Decoder's grain loop.
type DecodeOptions struct {
	// SkipData requests lazy data handles instead of eager reads;
	// requires the underlying reader to be an io.ReadSeeker.
	SkipData bool
	// LocalIDs, when non-nil, restricts the grains yielded to these
	// local_ids; others are skipped without materializing data.
	LocalIDs map[uint16]bool
	// Strict enables the two checks the reference spec makes optional:
	// end-of-stream without a terminator is TruncatedInput, and a
	// grai whose local_id names no declared segment is UnknownLocalID.
	// With Strict off, a stream that ends without a terminator ends
	// iteration with io.EOF, and grains of undeclared local_ids are
	// yielded like any other.
	Strict bool
}

// Option configures DecodeOptions.
type Option func(*DecodeOptions)

// WithSkipData requests lazy data handles.
func WithSkipData() Option { return func(o *DecodeOptions) { o.SkipData = true } }

// WithLocalIDs restricts the grain loop to the given local_ids.
func WithLocalIDs(ids ...uint16) Option {
	return func(o *DecodeOptions) {
		if o.LocalIDs == nil {
			o.LocalIDs = map[uint16]bool{}
		}
		for _, id := range ids {
			o.LocalIDs[id] = true
		}
	}
}

// WithStrict enables truncation and unknown-local-id checks.
func WithStrict() Option { return func(o *DecodeOptions) { o.Strict = true } }

// Decoder reads a GSF stream: the file header and head block up
// front, then grains pulled one at a time via Next. A Decoder is
// bound to one reader and must not be used from multiple concurrent
// contexts (see the concurrency model's single-threaded-per-operation
// rule).
type Decoder struct {
	r     io.Reader
	rs    io.ReadSeeker
	pr    *primitive.Reader
	major uint16
	file  File
	opts  DecodeOptions
	done  bool
}

// NewDecoder reads the file header and the unique head block from r,
// returning a Decoder ready to yield grains via Next.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	var o DecodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	pr := primitive.NewReader(r)
	fh, err := block.ReadFileHeader(pr)
	if err != nil {
		return nil, err
	}
	if fh.FileType != FileTypeTag {
		return nil, fmt.Errorf("%w: got %q, want %q", gsferrors.ErrWrongFileType, fh.FileType, FileTypeTag)
	}
	if !SupportedMajors[fh.Major] {
		return nil, fmt.Errorf("%w: %d", gsferrors.ErrUnsupportedMajorVersion, fh.Major)
	}

	h, err := block.ReadHeader(pr)
	if err != nil {
		return nil, fmt.Errorf("read head block header: %w", err)
	}
	if h.Tag != headTag {
		return nil, fmt.Errorf("%w: expected exactly one head block, got %q", gsferrors.ErrMalformedBlock, h.Tag)
	}
	payloadLen, err := h.PayloadLen()
	if err != nil {
		return nil, err
	}
	file, err := readHeadBlock(fh.Major, payloadLen, r)
	if err != nil {
		return nil, err
	}

	d := &Decoder{r: r, pr: pr, major: fh.Major, file: file, opts: o}
	if rs, ok := r.(io.ReadSeeker); ok {
		d.rs = rs
	}
	if o.SkipData && d.rs == nil {
		return nil, fmt.Errorf("gsf: SkipData requires a seekable reader")
	}
	return d, nil
}

// File returns the decoded file-level metadata (id, created time,
// segments and tags).
func (d *Decoder) File() File {
	return d.file
}

// Next yields the next grain in file order along with its local_id.
// It returns io.EOF once the terminator is reached, or (in non-Strict
// mode) once the stream ends without one.
func (d *Decoder) Next() (uint16, *grain.Grain, error) {
	if d.done {
		return 0, nil, io.EOF
	}
	for {
		h, err := block.ReadHeader(d.pr)
		if err != nil {
			d.done = true
			if d.opts.Strict {
				return 0, nil, fmt.Errorf("%w: stream ended without a terminator: %v", gsferrors.ErrTruncatedInput, err)
			}
			return 0, nil, io.EOF
		}

		if h.Tag == graiTag && (h.Size == 0 || h.Size == block.HeaderSize) {
			d.done = true
			return 0, nil, io.EOF
		}

		if h.Tag != graiTag {
			payloadLen, err := h.PayloadLen()
			if err != nil {
				return 0, nil, err
			}
			if err := block.SeekPast(d.r, payloadLen); err != nil {
				return 0, nil, err
			}
			continue
		}

		payloadLen, err := h.PayloadLen()
		if err != nil {
			return 0, nil, err
		}
		localID, g, err := d.readGrai(payloadLen)
		if err != nil {
			return 0, nil, err
		}
		if g == nil {
			// Filtered out by LocalIDs; keep pulling.
			continue
		}
		return localID, g, nil
	}
}

func (d *Decoder) readGrai(payloadLen int) (uint16, *grain.Grain, error) {
	lr := &io.LimitedReader{R: d.r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	localID64, err := pr.ReadUint(2)
	if err != nil {
		return 0, nil, fmt.Errorf("read grai local_id: %w", err)
	}
	localID := uint16(localID64)

	if d.opts.LocalIDs != nil && !d.opts.LocalIDs[localID] {
		if err := block.SeekPast(lr, int(lr.N)); err != nil {
			return 0, nil, err
		}
		return localID, nil, nil
	}

	if _, ok := d.file.SegmentByLocalID(localID); !ok && d.opts.Strict {
		return 0, nil, fmt.Errorf("%w: %d", gsferrors.ErrUnknownLocalID, localID)
	}

	var (
		header             grain.Header
		grainType          grain.Type
		video              *grain.VideoPayload
		codedVideo         *grain.CodedVideoPayload
		audio              *grain.AudioPayload
		codedAudio         *grain.CodedAudioPayload
		event              *grain.EventPayload
		haveGBHD, haveGRDT bool
		data               grain.Data
	)

	it := block.NewChildIterator(lr, int(lr.N))
	for {
		ch, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, nil, err
		}
		chPayloadLen, err := ch.PayloadLen()
		if err != nil {
			return 0, nil, err
		}
		switch ch.Tag {
		case gbhdTag:
			header, grainType, video, codedVideo, audio, codedAudio, event, err = readGBHD(chPayloadLen, it.Reader)
			if err != nil {
				return 0, nil, err
			}
			haveGBHD = true
		case grdtTag:
			data, err = d.readGRDT(grainType, video, chPayloadLen, it)
			if err != nil {
				return 0, nil, err
			}
			haveGRDT = true
		default:
			if err := it.Skip(); err != nil {
				return 0, nil, err
			}
		}
	}

	if !haveGBHD {
		return 0, nil, fmt.Errorf("%w: grai %d missing gbhd block", gsferrors.ErrMalformedBlock, localID)
	}
	if !haveGRDT {
		return 0, nil, fmt.Errorf("%w: grai %d missing grdt block", gsferrors.ErrMalformedBlock, localID)
	}

	g := &grain.Grain{
		GrainType:  grainType,
		Header:     header,
		Video:      video,
		CodedVideo: codedVideo,
		Audio:      audio,
		CodedAudio: codedAudio,
		Event:      event,
		Data:       data,
	}
	return localID, g, nil
}

// readGRDT consumes the grdt block's payload (positioned just after
// its own header) per the SkipData option, returning the grain's
// data region.
func (d *Decoder) readGRDT(grainType grain.Type, video *grain.VideoPayload, payloadLen int, it *block.ChildIterator) (grain.Data, error) {
	if grainType == grain.Video {
		expected := video.Components.TotalLength()
		if int(expected) > payloadLen {
			return nil, fmt.Errorf("%w: grai declares %d octets of components but grdt has %d",
				gsferrors.ErrTruncatedPayload, expected, payloadLen)
		}
	}

	if !d.opts.SkipData {
		data, err := it.Reader.ReadFixedBytes(payloadLen)
		if err != nil {
			return nil, err
		}
		return grain.Bytes(data), nil
	}

	offset, err := d.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("gsf: capture lazy data offset: %w", err)
	}
	if err := it.Skip(); err != nil {
		return nil, err
	}
	return NewLazyBytes(d.rs, offset, payloadLen), nil
}

// DecodeAll eagerly decodes every grain in r, keyed by local_id.
func DecodeAll(r io.Reader, opts ...Option) (File, map[uint16][]*grain.Grain, error) {
	d, err := NewDecoder(r, opts...)
	if err != nil {
		return File{}, nil, err
	}
	out := map[uint16][]*grain.Grain{}
	for {
		localID, g, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return File{}, nil, err
		}
		out[localID] = append(out[localID], g)
	}
	return d.File(), out, nil
}
