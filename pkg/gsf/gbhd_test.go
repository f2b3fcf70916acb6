package gsf

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/ssb/block"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

func testGrainHeader() grain.Header {
	return grain.Header{
		SourceID:          uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"),
		FlowID:            uuid.MustParse("11223344-5566-7788-99aa-bbccddeeff00"),
		OriginTimestamp:   primitive.Timestamp{Positive: true, Seconds: 10, Nanoseconds: 500},
		SyncTimestamp:     primitive.Timestamp{Positive: true, Seconds: 10, Nanoseconds: 500},
		CreationTimestamp: primitive.Timestamp{Positive: true},
		Rate:              primitive.Rational{Numerator: 25, Denominator: 1},
		Duration:          primitive.Rational{Numerator: 1, Denominator: 25},
	}
}

func roundTripGBHD(t *testing.T, g *grain.Grain) (grain.Header, grain.Type, *grain.VideoPayload, *grain.CodedVideoPayload, *grain.AudioPayload, *grain.CodedAudioPayload, *grain.EventPayload) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	writeGBHD(w, g)
	require.NoError(t, w.Err())

	pr := primitive.NewReader(buf)
	h, err := block.ReadHeader(pr)
	require.NoError(t, err)
	require.Equal(t, block.NewTag("gbhd"), h.Tag)
	payloadLen, err := h.PayloadLen()
	require.NoError(t, err)

	header, grainType, video, codedVideo, audio, codedAudio, event, err := readGBHD(payloadLen, buf)
	require.NoError(t, err)
	return header, grainType, video, codedVideo, audio, codedAudio, event
}

func TestGBHDVideoRoundTrip(t *testing.T) {
	g := grain.NewVideo(testGrainHeader(), grain.VideoPayload{
		Format: grain.FrameFormatU8_422,
		Layout: grain.FrameLayoutFullFrame,
		Width:  16,
		Height: 2,
		Components: grain.Components{
			{Width: 16, Height: 2, Stride: 16, Length: 32},
			{Width: 8, Height: 2, Stride: 8, Length: 16},
			{Width: 8, Height: 2, Stride: 8, Length: 16},
		},
	}, make([]byte, 64))

	header, grainType, video, _, _, _, _ := roundTripGBHD(t, g)
	require.Equal(t, grain.Video, grainType)
	require.Equal(t, g.Header.SourceID, header.SourceID)
	require.Equal(t, g.Header.FlowID, header.FlowID)
	require.NotNil(t, video)
	require.Equal(t, grain.FrameFormatU8_422, video.Format)
	require.Equal(t, []uint32{0, 32, 48}, video.Components.Offsets())
}

func TestGBHDCodedVideoRoundTrip(t *testing.T) {
	g := grain.NewCodedVideo(testGrainHeader(), grain.CodedVideoPayload{
		Format:         grain.FrameFormatH264,
		Layout:         grain.FrameLayoutFullFrame,
		OriginWidth:    1920,
		OriginHeight:   1080,
		CodedWidth:     1920,
		CodedHeight:    1088,
		KeyFrame:       true,
		TemporalOffset: -2,
		UnitOffsets:    []uint32{0, 120},
	}, make([]byte, 4096))

	_, grainType, _, codedVideo, _, _, _ := roundTripGBHD(t, g)
	require.Equal(t, grain.CodedVideo, grainType)
	require.NotNil(t, codedVideo)
	require.True(t, codedVideo.KeyFrame)
	require.Equal(t, int32(-2), codedVideo.TemporalOffset)
	require.Equal(t, []uint32{0, 120}, codedVideo.UnitOffsets)
	require.Equal(t, uint32(1088), codedVideo.CodedHeight)
}

func TestGBHDAudioRoundTrip(t *testing.T) {
	g := grain.NewAudio(testGrainHeader(), grain.AudioPayload{
		Format:     grain.AudioFormatS16Planes,
		Channels:   2,
		Samples:    1920,
		SampleRate: 48000,
	}, make([]byte, 1920*2*2))

	_, grainType, _, _, audio, _, _ := roundTripGBHD(t, g)
	require.Equal(t, grain.Audio, grainType)
	require.Equal(t, uint16(2), audio.Channels)
	require.Equal(t, uint32(48000), audio.SampleRate)
}

func TestGBHDCodedAudioRoundTrip(t *testing.T) {
	g := grain.NewCodedAudio(testGrainHeader(), grain.CodedAudioPayload{
		Format:     grain.AudioFormatAAC,
		Channels:   2,
		Samples:    1024,
		Priming:    0,
		Remainder:  0,
		SampleRate: 48000,
	}, make([]byte, 256))

	_, grainType, _, _, _, codedAudio, _ := roundTripGBHD(t, g)
	require.Equal(t, grain.CodedAudio, grainType)
	require.Equal(t, grain.AudioFormatAAC, codedAudio.Format)
	require.Equal(t, uint32(1024), codedAudio.Samples)
}

func TestGBHDEventRoundTrip(t *testing.T) {
	g := grain.NewEvent(testGrainHeader(), 0, []byte(`{"k":"v"}`))

	_, grainType, _, _, _, _, event := roundTripGBHD(t, g)
	require.Equal(t, grain.Event, grainType)
	require.Equal(t, uint8(0), event.EventType)
}

func TestGBHDEmptyRoundTrip(t *testing.T) {
	g := grain.NewEmpty(testGrainHeader())

	header, grainType, video, codedVideo, audio, codedAudio, event := roundTripGBHD(t, g)
	require.Equal(t, grain.Empty, grainType)
	require.Nil(t, video)
	require.Nil(t, codedVideo)
	require.Nil(t, audio)
	require.Nil(t, codedAudio)
	require.Nil(t, event)
	require.Equal(t, g.Header.Rate, header.Rate)
}

func TestGBHDTimeLabelsRoundTrip(t *testing.T) {
	h := testGrainHeader()
	h.TimeLabels = []primitive.TimeLabel{
		{Tag: "ltc", Timecode: primitive.Timecode{FramesSinceMidnight: 1000, FrameRate: primitive.Rational{Numerator: 25, Denominator: 1}}},
	}
	g := grain.NewEmpty(h)

	header, _, _, _, _, _, _ := roundTripGBHD(t, g)
	require.Len(t, header.TimeLabels, 1)
	require.Equal(t, "ltc", header.TimeLabels[0].Tag)
	require.Equal(t, uint32(1000), header.TimeLabels[0].Timecode.FramesSinceMidnight)
}

func TestGBHDUnknownChildSkipped(t *testing.T) {
	g := grain.NewEmpty(testGrainHeader())

	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	block.WriteBlock(w, block.NewTag("gbhd"), gbhdPayloadLen(g)+block.HeaderSize+16, func(w *primitive.Writer) {
		w.TryWriteUUID(g.Header.SourceID)
		w.TryWriteUUID(g.Header.FlowID)
		w.TryWriteTimestamp(g.Header.OriginTimestamp)
		w.TryWriteTimestamp(g.Header.SyncTimestamp)
		w.TryWriteRational(g.Header.Rate)
		w.TryWriteRational(g.Header.Duration)
		block.WriteBlock(w, block.NewTag("xxxx"), 16, func(w *primitive.Writer) {
			w.TryWriteFixedBytes(make([]byte, 16))
		})
	})
	require.NoError(t, w.Err())

	pr := primitive.NewReader(buf)
	hdr, err := block.ReadHeader(pr)
	require.NoError(t, err)
	payloadLen, err := hdr.PayloadLen()
	require.NoError(t, err)

	_, grainType, _, _, _, _, _, err := readGBHD(payloadLen, buf)
	require.NoError(t, err)
	require.Equal(t, grain.Empty, grainType)
}
