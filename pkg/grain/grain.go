// Package grain defines the in-memory grain model: a tagged union with
// a common header shared by every variant, grounded on the variant
// payloads enumerated in the GSF block grammar (gbhd/vghd/cghd/aghd/
// cahd/eghd). It has no knowledge of how grains are read from or
// written to a stream — that lives in package gsf — so it can be
// constructed directly by callers (test generators, CLI wrappers)
// without touching the codec.
package grain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// Type discriminates the payload variant a Grain carries. It must
// always agree with which of the Video/CodedVideo/Audio/CodedAudio/
// Event pointer fields on Grain is non-nil.
type Type uint8

const (
	Empty Type = iota
	Video
	CodedVideo
	Audio
	CodedAudio
	Event
)

func (t Type) String() string {
	switch t {
	case Empty:
		return "empty"
	case Video:
		return "video"
	case CodedVideo:
		return "coded_video"
	case Audio:
		return "audio"
	case CodedAudio:
		return "coded_audio"
	case Event:
		return "event"
	default:
		return fmt.Sprintf("grain.Type(%d)", uint8(t))
	}
}

// Header holds the fields common to every grain variant, written in
// gbhd in the fixed order src_id, flow_id, origin_ts, sync_ts, rate,
// duration, then optional tils.
type Header struct {
	SourceID          uuid.UUID
	FlowID            uuid.UUID
	OriginTimestamp   primitive.Timestamp
	SyncTimestamp     primitive.Timestamp
	CreationTimestamp primitive.Timestamp
	Rate              primitive.Rational
	Duration          primitive.Rational
	TimeLabels        []primitive.TimeLabel
}

// VideoPayload is the vghd+comp body of a Video grain.
type VideoPayload struct {
	Format      CogFrameFormat
	Layout      CogFrameLayout
	Width       uint32
	Height      uint32
	Extension   uint32
	AspectRatio primitive.Rational
	PixelAspect primitive.Rational
	Components  Components
}

// CodedVideoPayload is the cghd+unof body of a CodedVideo grain.
// Unlike VideoPayload it carries no component list: a coded frame's
// data region is an opaque bitstream whose length is whatever was
// written, not a sum of declared planes.
type CodedVideoPayload struct {
	Format         CogFrameFormat
	Layout         CogFrameLayout
	OriginWidth    uint32
	OriginHeight   uint32
	CodedWidth     uint32
	CodedHeight    uint32
	KeyFrame       bool
	TemporalOffset int32
	UnitOffsets    []uint32
}

// AudioPayload is the aghd body of an Audio grain.
type AudioPayload struct {
	Format     CogAudioFormat
	Channels   uint16
	Samples    uint32
	SampleRate uint32
}

// CodedAudioPayload is the cahd body of a CodedAudio grain.
type CodedAudioPayload struct {
	Format     CogAudioFormat
	Channels   uint16
	Samples    uint32
	Priming    uint32
	Remainder  uint32
	SampleRate uint32
}

// EventPayload is the eghd body of an Event grain. Type 0 is a JSON
// payload by convention; the codec treats the data region as opaque
// regardless of Type.
type EventPayload struct {
	EventType uint8
}

// Data is a grain's opaque payload region. It may be held entirely in
// memory (Bytes) or be a lazy handle bound to the decoder's reader
// (gsf.LazyBytes); callers must not assume Bytes will not block or
// fail on first access.
type Data interface {
	// Len returns the data region's length without materializing it.
	Len() int
	// Bytes materializes and returns the data region.
	Bytes() ([]byte, error)
}

// Bytes is an in-memory Data region.
type Bytes []byte

func (b Bytes) Len() int               { return len(b) }
func (b Bytes) Bytes() ([]byte, error) { return b, nil }

// Grain is a tagged union over the six payload variants. Exactly one
// of the variant fields is non-nil, matching GrainType.
type Grain struct {
	GrainType Type
	Header    Header

	Video      *VideoPayload
	CodedVideo *CodedVideoPayload
	Audio      *AudioPayload
	CodedAudio *CodedAudioPayload
	Event      *EventPayload

	Data Data
}

// ExpectedDataLength returns the data length implied by the grain's
// variant fields: the sum of component lengths for Video, 0 for
// Empty, and the grain's actual Data.Len() for every other variant
// (CodedVideo, Audio, CodedAudio, Event), none of which the codec
// recomputes from header fields (see the Audio invariant in the data
// model; CodedVideo's data region is an opaque bitstream with no
// component list to sum).
func (g *Grain) ExpectedDataLength() uint32 {
	switch g.GrainType {
	case Empty:
		return 0
	case Video:
		return g.Video.Components.TotalLength()
	default:
		if g.Data == nil {
			return 0
		}
		return uint32(g.Data.Len())
	}
}

// Validate checks the invariants this package can check without
// reference to the enclosing file (segment local_id uniqueness is the
// decoder's job, not the grain's).
func (g *Grain) Validate() error {
	switch g.GrainType {
	case Empty:
		if g.Video != nil || g.CodedVideo != nil || g.Audio != nil || g.CodedAudio != nil || g.Event != nil {
			return fmt.Errorf("grain: type Empty but a variant payload is set")
		}
	case Video:
		if g.Video == nil {
			return fmt.Errorf("grain: type Video but Video payload is nil")
		}
	case CodedVideo:
		if g.CodedVideo == nil {
			return fmt.Errorf("grain: type CodedVideo but CodedVideo payload is nil")
		}
		total := g.ExpectedDataLength()
		for i, off := range g.CodedVideo.UnitOffsets {
			if off >= total {
				return fmt.Errorf("grain: unit_offset[%d]=%d is not strictly less than payload length %d", i, off, total)
			}
		}
	case Audio:
		if g.Audio == nil {
			return fmt.Errorf("grain: type Audio but Audio payload is nil")
		}
	case CodedAudio:
		if g.CodedAudio == nil {
			return fmt.Errorf("grain: type CodedAudio but CodedAudio payload is nil")
		}
	case Event:
		if g.Event == nil {
			return fmt.Errorf("grain: type Event but Event payload is nil")
		}
	default:
		return fmt.Errorf("grain: unknown grain type %d", g.GrainType)
	}
	return nil
}
