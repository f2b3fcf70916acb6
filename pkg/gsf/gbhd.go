package gsf

import (
	"fmt"
	"io"

	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/ssb/block"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

var (
	gbhdTag = block.NewTag("gbhd")
	tilsTag = block.NewTag("tils")
	vghdTag = block.NewTag("vghd")
	compTag = block.NewTag("comp")
	cghdTag = block.NewTag("cghd")
	unofTag = block.NewTag("unof")
	aghdTag = block.NewTag("aghd")
	cahdTag = block.NewTag("cahd")
	eghdTag = block.NewTag("eghd")
	grdtTag = block.NewTag("grdt")
)

func gbhdBodyPayloadLen() int { return 16 + 16 + 11 + 11 + 8 + 8 }

func tilsPayloadLen(n int) int { return 2 + n*29 }

func compPayloadLen(n int) int { return 2 + n*16 }

func unofPayloadLen(n int) int { return 2 + n*4 }

func videoFixedPayloadLen() int { return 4 + 4 + 4 + 4 + 4 + 8 + 8 }

func codedVideoFixedPayloadLen() int { return 4 + 4 + 4 + 4 + 4 + 4 + 1 + 4 }

func audioPayloadLen() int { return 4 + 2 + 4 + 4 }

func codedAudioPayloadLen() int { return 4 + 2 + 4 + 4 + 4 + 4 }

func eventPayloadLen() int { return 1 }

// gbhdPayloadLen returns the total payload length of the gbhd block
// for g, excluding the enclosing 8-octet header.
func gbhdPayloadLen(g *grain.Grain) int {
	n := gbhdBodyPayloadLen()
	if len(g.Header.TimeLabels) > 0 {
		n += block.HeaderSize + tilsPayloadLen(len(g.Header.TimeLabels))
	}
	switch g.GrainType {
	case grain.Video:
		n += block.HeaderSize + videoFixedPayloadLen()
		if len(g.Video.Components) > 0 {
			n += block.HeaderSize + compPayloadLen(len(g.Video.Components))
		}
	case grain.CodedVideo:
		n += block.HeaderSize + codedVideoFixedPayloadLen()
		if len(g.CodedVideo.UnitOffsets) > 0 {
			n += block.HeaderSize + unofPayloadLen(len(g.CodedVideo.UnitOffsets))
		}
	case grain.Audio:
		n += block.HeaderSize + audioPayloadLen()
	case grain.CodedAudio:
		n += block.HeaderSize + codedAudioPayloadLen()
	case grain.Event:
		n += block.HeaderSize + eventPayloadLen()
	}
	return n
}

// writeGBHD writes the gbhd block: the fixed body (src_id, flow_id,
// origin, sync, rate, duration) in that order, then tils (when
// non-empty), then exactly one variant block (omitted for Empty).
func writeGBHD(w *primitive.Writer, g *grain.Grain) {
	block.WriteBlock(w, gbhdTag, gbhdPayloadLen(g), func(w *primitive.Writer) {
		w.TryWriteUUID(g.Header.SourceID)
		w.TryWriteUUID(g.Header.FlowID)
		w.TryWriteTimestamp(g.Header.OriginTimestamp)
		w.TryWriteTimestamp(g.Header.SyncTimestamp)
		w.TryWriteRational(g.Header.Rate)
		w.TryWriteRational(g.Header.Duration)

		if len(g.Header.TimeLabels) > 0 {
			block.WriteBlock(w, tilsTag, tilsPayloadLen(len(g.Header.TimeLabels)), func(w *primitive.Writer) {
				w.TryWriteUint(2, uint64(len(g.Header.TimeLabels)))
				for _, tl := range g.Header.TimeLabels {
					w.TryWriteTimeLabel(tl)
				}
			})
		}

		switch g.GrainType {
		case grain.Video:
			writeVGHD(w, g.Video)
		case grain.CodedVideo:
			writeCGHD(w, g.CodedVideo)
		case grain.Audio:
			writeAGHD(w, g.Audio)
		case grain.CodedAudio:
			writeCAHD(w, g.CodedAudio)
		case grain.Event:
			writeEGHD(w, g.Event)
		}
	})
}

func writeVGHD(w *primitive.Writer, v *grain.VideoPayload) {
	block.WriteBlock(w, vghdTag, videoFixedPayloadLen()+componentsChildLen(v.Components), func(w *primitive.Writer) {
		writeVideoFixed(w, v)
		writeComponents(w, v.Components)
	})
}

func writeCGHD(w *primitive.Writer, v *grain.CodedVideoPayload) {
	block.WriteBlock(w, cghdTag, codedVideoFixedPayloadLen()+unofChildLen(v.UnitOffsets), func(w *primitive.Writer) {
		w.TryWriteUint(4, uint64(v.Format))
		w.TryWriteUint(4, uint64(v.Layout))
		w.TryWriteUint(4, uint64(v.OriginWidth))
		w.TryWriteUint(4, uint64(v.OriginHeight))
		w.TryWriteUint(4, uint64(v.CodedWidth))
		w.TryWriteUint(4, uint64(v.CodedHeight))
		w.TryWriteBool(v.KeyFrame)
		w.TryWriteSint(4, int64(v.TemporalOffset))
		if len(v.UnitOffsets) > 0 {
			block.WriteBlock(w, unofTag, unofPayloadLen(len(v.UnitOffsets)), func(w *primitive.Writer) {
				w.TryWriteUint(2, uint64(len(v.UnitOffsets)))
				for _, off := range v.UnitOffsets {
					w.TryWriteUint(4, uint64(off))
				}
			})
		}
	})
}

func writeVideoFixed(w *primitive.Writer, v *grain.VideoPayload) {
	w.TryWriteUint(4, uint64(v.Format))
	w.TryWriteUint(4, uint64(v.Layout))
	w.TryWriteUint(4, uint64(v.Width))
	w.TryWriteUint(4, uint64(v.Height))
	w.TryWriteUint(4, uint64(v.Extension))
	w.TryWriteRational(v.AspectRatio)
	w.TryWriteRational(v.PixelAspect)
}

func writeComponents(w *primitive.Writer, cs grain.Components) {
	if len(cs) == 0 {
		return
	}
	block.WriteBlock(w, compTag, compPayloadLen(len(cs)), func(w *primitive.Writer) {
		w.TryWriteUint(2, uint64(len(cs)))
		for _, c := range cs {
			w.TryWriteUint(4, uint64(c.Width))
			w.TryWriteUint(4, uint64(c.Height))
			w.TryWriteUint(4, uint64(c.Stride))
			w.TryWriteUint(4, uint64(c.Length))
		}
	})
}

func componentsChildLen(cs grain.Components) int {
	if len(cs) == 0 {
		return 0
	}
	return block.HeaderSize + compPayloadLen(len(cs))
}

func unofChildLen(offsets []uint32) int {
	if len(offsets) == 0 {
		return 0
	}
	return block.HeaderSize + unofPayloadLen(len(offsets))
}

func writeAGHD(w *primitive.Writer, a *grain.AudioPayload) {
	block.WriteBlock(w, aghdTag, audioPayloadLen(), func(w *primitive.Writer) {
		w.TryWriteUint(4, uint64(a.Format))
		w.TryWriteUint(2, uint64(a.Channels))
		w.TryWriteUint(4, uint64(a.Samples))
		w.TryWriteUint(4, uint64(a.SampleRate))
	})
}

func writeCAHD(w *primitive.Writer, a *grain.CodedAudioPayload) {
	block.WriteBlock(w, cahdTag, codedAudioPayloadLen(), func(w *primitive.Writer) {
		w.TryWriteUint(4, uint64(a.Format))
		w.TryWriteUint(2, uint64(a.Channels))
		w.TryWriteUint(4, uint64(a.Samples))
		w.TryWriteUint(4, uint64(a.Priming))
		w.TryWriteUint(4, uint64(a.Remainder))
		w.TryWriteUint(4, uint64(a.SampleRate))
	})
}

func writeEGHD(w *primitive.Writer, e *grain.EventPayload) {
	block.WriteBlock(w, eghdTag, eventPayloadLen(), func(w *primitive.Writer) {
		w.TryWriteUint(1, uint64(e.EventType))
	})
}

// readGBHD parses a gbhd block's payload (already positioned just
// after the header) into the grain's header and variant fields.
// A gbhd missing a variant block defaults to Empty.
func readGBHD(payloadLen int, r io.Reader) (grain.Header, grain.Type, *grain.VideoPayload, *grain.CodedVideoPayload, *grain.AudioPayload, *grain.CodedAudioPayload, *grain.EventPayload, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)

	h := grain.Header{}
	var err error
	if h.SourceID, err = pr.ReadUUID(); err != nil {
		return grain.Header{}, 0, nil, nil, nil, nil, nil, fmt.Errorf("read gbhd src_id: %w", err)
	}
	if h.FlowID, err = pr.ReadUUID(); err != nil {
		return grain.Header{}, 0, nil, nil, nil, nil, nil, fmt.Errorf("read gbhd flow_id: %w", err)
	}
	if h.OriginTimestamp, err = pr.ReadTimestamp(); err != nil {
		return grain.Header{}, 0, nil, nil, nil, nil, nil, fmt.Errorf("read gbhd origin_ts: %w", err)
	}
	if h.SyncTimestamp, err = pr.ReadTimestamp(); err != nil {
		return grain.Header{}, 0, nil, nil, nil, nil, nil, fmt.Errorf("read gbhd sync_ts: %w", err)
	}
	if h.Rate, err = pr.ReadRational(); err != nil {
		return grain.Header{}, 0, nil, nil, nil, nil, nil, fmt.Errorf("read gbhd rate: %w", err)
	}
	if h.Duration, err = pr.ReadRational(); err != nil {
		return grain.Header{}, 0, nil, nil, nil, nil, nil, fmt.Errorf("read gbhd duration: %w", err)
	}

	grainType := grain.Empty
	var video *grain.VideoPayload
	var codedVideo *grain.CodedVideoPayload
	var audio *grain.AudioPayload
	var codedAudio *grain.CodedAudioPayload
	var event *grain.EventPayload

	it := block.NewChildIterator(lr, int(lr.N))
	for {
		ch, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return grain.Header{}, 0, nil, nil, nil, nil, nil, err
		}
		payloadLen, err := ch.PayloadLen()
		if err != nil {
			return grain.Header{}, 0, nil, nil, nil, nil, nil, err
		}
		switch ch.Tag {
		case tilsTag:
			h.TimeLabels, err = readTILS(payloadLen, it.Reader)
		case vghdTag:
			grainType = grain.Video
			video, err = readVGHD(payloadLen, it.Reader)
		case cghdTag:
			grainType = grain.CodedVideo
			codedVideo, err = readCGHD(payloadLen, it.Reader)
		case aghdTag:
			grainType = grain.Audio
			audio, err = readAGHD(payloadLen, it.Reader)
		case cahdTag:
			grainType = grain.CodedAudio
			codedAudio, err = readCAHD(payloadLen, it.Reader)
		case eghdTag:
			grainType = grain.Event
			event, err = readEGHD(payloadLen, it.Reader)
		default:
			err = it.Skip()
		}
		if err != nil {
			return grain.Header{}, 0, nil, nil, nil, nil, nil, err
		}
	}

	return h, grainType, video, codedVideo, audio, codedAudio, event, nil
}

func readTILS(payloadLen int, r io.Reader) ([]primitive.TimeLabel, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	n, err := pr.ReadUint(2)
	if err != nil {
		return nil, fmt.Errorf("read tils count: %w", err)
	}
	labels := make([]primitive.TimeLabel, 0, n)
	for i := uint64(0); i < n; i++ {
		tl, err := pr.ReadTimeLabel()
		if err != nil {
			return nil, fmt.Errorf("read tils[%d]: %w", i, err)
		}
		labels = append(labels, tl)
	}
	if err := skipTrailing(lr, "tils"); err != nil {
		return nil, err
	}
	return labels, nil
}

func readVGHD(payloadLen int, r io.Reader) (*grain.VideoPayload, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	v := &grain.VideoPayload{}
	var err error
	if v.Format, err = readFrameFormat(pr); err != nil {
		return nil, err
	}
	if v.Layout, err = readFrameLayout(pr); err != nil {
		return nil, err
	}
	if v.Width, err = readU32(pr); err != nil {
		return nil, err
	}
	if v.Height, err = readU32(pr); err != nil {
		return nil, err
	}
	if v.Extension, err = readU32(pr); err != nil {
		return nil, err
	}
	if v.AspectRatio, err = pr.ReadRational(); err != nil {
		return nil, err
	}
	if v.PixelAspect, err = pr.ReadRational(); err != nil {
		return nil, err
	}

	it := block.NewChildIterator(lr, int(lr.N))
	for {
		ch, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if ch.Tag == compTag {
			payloadLen, err := ch.PayloadLen()
			if err != nil {
				return nil, err
			}
			v.Components, err = readComponents(payloadLen, it.Reader)
			if err != nil {
				return nil, err
			}
			continue
		}
		if err := it.Skip(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func readComponents(payloadLen int, r io.Reader) (grain.Components, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	n, err := pr.ReadUint(2)
	if err != nil {
		return nil, fmt.Errorf("read comp count: %w", err)
	}
	cs := make(grain.Components, 0, n)
	for i := uint64(0); i < n; i++ {
		width, err := readU32(pr)
		if err != nil {
			return nil, err
		}
		height, err := readU32(pr)
		if err != nil {
			return nil, err
		}
		stride, err := readU32(pr)
		if err != nil {
			return nil, err
		}
		length, err := readU32(pr)
		if err != nil {
			return nil, err
		}
		cs = append(cs, grain.Component{Width: width, Height: height, Stride: stride, Length: length})
	}
	return cs, nil
}

func readCGHD(payloadLen int, r io.Reader) (*grain.CodedVideoPayload, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	v := &grain.CodedVideoPayload{}
	var err error
	if v.Format, err = readFrameFormat(pr); err != nil {
		return nil, err
	}
	if v.Layout, err = readFrameLayout(pr); err != nil {
		return nil, err
	}
	if v.OriginWidth, err = readU32(pr); err != nil {
		return nil, err
	}
	if v.OriginHeight, err = readU32(pr); err != nil {
		return nil, err
	}
	if v.CodedWidth, err = readU32(pr); err != nil {
		return nil, err
	}
	if v.CodedHeight, err = readU32(pr); err != nil {
		return nil, err
	}
	if v.KeyFrame, err = pr.ReadBool(); err != nil {
		return nil, err
	}
	temporalOffset, err := pr.ReadSint(4)
	if err != nil {
		return nil, err
	}
	v.TemporalOffset = int32(temporalOffset)

	it := block.NewChildIterator(lr, int(lr.N))
	for {
		ch, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if ch.Tag == unofTag {
			offsets, err := readUNOF(it.Reader)
			if err != nil {
				return nil, err
			}
			v.UnitOffsets = offsets
			continue
		}
		if err := it.Skip(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func readUNOF(r *primitive.Reader) ([]uint32, error) {
	n, err := r.ReadUint(2)
	if err != nil {
		return nil, fmt.Errorf("read unof count: %w", err)
	}
	offsets := make([]uint32, 0, n)
	for i := uint64(0); i < n; i++ {
		off, err := readU32(r)
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, off)
	}
	return offsets, nil
}

func readAGHD(payloadLen int, r io.Reader) (*grain.AudioPayload, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	a := &grain.AudioPayload{}
	var err error
	if a.Format, err = readAudioFormat(pr); err != nil {
		return nil, err
	}
	channels, err := pr.ReadUint(2)
	if err != nil {
		return nil, err
	}
	a.Channels = uint16(channels)
	if a.Samples, err = readU32(pr); err != nil {
		return nil, err
	}
	if a.SampleRate, err = readU32(pr); err != nil {
		return nil, err
	}
	if err := skipTrailing(lr, "aghd"); err != nil {
		return nil, err
	}
	return a, nil
}

func readCAHD(payloadLen int, r io.Reader) (*grain.CodedAudioPayload, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	a := &grain.CodedAudioPayload{}
	var err error
	if a.Format, err = readAudioFormat(pr); err != nil {
		return nil, err
	}
	channels, err := pr.ReadUint(2)
	if err != nil {
		return nil, err
	}
	a.Channels = uint16(channels)
	if a.Samples, err = readU32(pr); err != nil {
		return nil, err
	}
	if a.Priming, err = readU32(pr); err != nil {
		return nil, err
	}
	if a.Remainder, err = readU32(pr); err != nil {
		return nil, err
	}
	if a.SampleRate, err = readU32(pr); err != nil {
		return nil, err
	}
	if err := skipTrailing(lr, "cahd"); err != nil {
		return nil, err
	}
	return a, nil
}

func readEGHD(payloadLen int, r io.Reader) (*grain.EventPayload, error) {
	lr := &io.LimitedReader{R: r, N: int64(payloadLen)}
	pr := primitive.NewReader(lr)
	t, err := pr.ReadUint(1)
	if err != nil {
		return nil, err
	}
	e := &grain.EventPayload{EventType: uint8(t)}
	if err := skipTrailing(lr, "eghd"); err != nil {
		return nil, err
	}
	return e, nil
}

// skipTrailing discards whatever octets of a bounded leaf block's
// payload its known fields didn't consume — the forward-compatible
// path for a minor version that appends fields this reader doesn't
// recognize. Without this, those octets are left for the enclosing
// gbhd's ChildIterator to misinterpret as the start of the next child.
func skipTrailing(lr *io.LimitedReader, tag string) error {
	if lr.N == 0 {
		return nil
	}
	if err := block.SeekPast(lr, int(lr.N)); err != nil {
		return fmt.Errorf("skip trailing %s octets: %w", tag, err)
	}
	return nil
}

func readU32(r *primitive.Reader) (uint32, error) {
	v, err := r.ReadUint(4)
	return uint32(v), err
}

func readFrameFormat(r *primitive.Reader) (grain.CogFrameFormat, error) {
	v, err := r.ReadUint(4)
	return grain.CogFrameFormat(v), err
}

func readFrameLayout(r *primitive.Reader) (grain.CogFrameLayout, error) {
	v, err := r.ReadUint(4)
	return grain.CogFrameLayout(v), err
}

func readAudioFormat(r *primitive.Reader) (grain.CogAudioFormat, error) {
	v, err := r.ReadUint(4)
	return grain.CogAudioFormat(v), err
}
