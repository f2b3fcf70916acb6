package grain

import "github.com/bbc/gsf/pkg/ssb/primitive"

// NewEmpty builds an Empty grain with the given common header.
func NewEmpty(h Header) *Grain {
	return &Grain{GrainType: Empty, Header: h, Data: Bytes(nil)}
}

// NewVideo builds a Video grain carrying data.
func NewVideo(h Header, payload VideoPayload, data []byte) *Grain {
	return &Grain{GrainType: Video, Header: h, Video: &payload, Data: Bytes(data)}
}

// NewCodedVideo builds a CodedVideo grain carrying data.
func NewCodedVideo(h Header, payload CodedVideoPayload, data []byte) *Grain {
	return &Grain{GrainType: CodedVideo, Header: h, CodedVideo: &payload, Data: Bytes(data)}
}

// NewAudio builds an Audio grain carrying data.
func NewAudio(h Header, payload AudioPayload, data []byte) *Grain {
	return &Grain{GrainType: Audio, Header: h, Audio: &payload, Data: Bytes(data)}
}

// NewCodedAudio builds a CodedAudio grain carrying data.
func NewCodedAudio(h Header, payload CodedAudioPayload, data []byte) *Grain {
	return &Grain{GrainType: CodedAudio, Header: h, CodedAudio: &payload, Data: Bytes(data)}
}

// NewEvent builds an Event grain carrying data.
func NewEvent(h Header, eventType uint8, data []byte) *Grain {
	return &Grain{GrainType: Event, Header: h, Event: &EventPayload{EventType: eventType}, Data: Bytes(data)}
}

// Clone returns a deep copy of g, materializing its data region.
// Encoders must not retain the grains passed to AddGrain, so callers
// that need to keep working with a grain after writing it should
// Clone it first.
func (g *Grain) Clone() (*Grain, error) {
	var data []byte
	if g.Data != nil {
		b, err := g.Data.Bytes()
		if err != nil {
			return nil, err
		}
		data = append([]byte(nil), b...)
	}

	clone := &Grain{GrainType: g.GrainType, Header: cloneHeader(g.Header), Data: Bytes(data)}
	switch g.GrainType {
	case Video:
		v := *g.Video
		v.Components = append(Components(nil), g.Video.Components...)
		clone.Video = &v
	case CodedVideo:
		v := *g.CodedVideo
		v.UnitOffsets = append([]uint32(nil), g.CodedVideo.UnitOffsets...)
		clone.CodedVideo = &v
	case Audio:
		v := *g.Audio
		clone.Audio = &v
	case CodedAudio:
		v := *g.CodedAudio
		clone.CodedAudio = &v
	case Event:
		v := *g.Event
		clone.Event = &v
	}
	return clone, nil
}

func cloneHeader(h Header) Header {
	h.TimeLabels = append([]primitive.TimeLabel(nil), h.TimeLabels...)
	return h
}
