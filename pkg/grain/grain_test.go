package grain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bbc/gsf/pkg/ssb/primitive"
)

func testHeader() Header {
	return Header{
		SourceID:          uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"),
		FlowID:            uuid.MustParse("11223344-5566-7788-99aa-bbccddeeff00"),
		OriginTimestamp:   primitive.Timestamp{Positive: true},
		SyncTimestamp:     primitive.Timestamp{Positive: true},
		CreationTimestamp: primitive.Timestamp{Positive: true},
		Rate:              primitive.Rational{Numerator: 25, Denominator: 1},
		Duration:          primitive.Rational{Numerator: 1, Denominator: 25},
	}
}

func TestComponentsOffsetsMatchSpecExample(t *testing.T) {
	cs := Components{
		{Width: 16, Height: 2, Stride: 16, Length: 32},
		{Width: 8, Height: 2, Stride: 8, Length: 16},
		{Width: 8, Height: 2, Stride: 8, Length: 16},
	}
	require.Equal(t, []uint32{0, 32, 48}, cs.Offsets())
	require.Equal(t, uint32(64), cs.TotalLength())
}

func TestVideoExpectedDataLength(t *testing.T) {
	g := NewVideo(testHeader(), VideoPayload{
		Format: FrameFormatU8_422,
		Layout: FrameLayoutFullFrame,
		Width:  16,
		Height: 2,
		Components: Components{
			{Width: 16, Height: 2, Stride: 16, Length: 32},
			{Width: 8, Height: 2, Stride: 8, Length: 16},
			{Width: 8, Height: 2, Stride: 8, Length: 16},
		},
	}, make([]byte, 64))
	require.Equal(t, uint32(64), g.ExpectedDataLength())
	require.NoError(t, g.Validate())
}

func TestEmptyGrainHasZeroLength(t *testing.T) {
	g := NewEmpty(testHeader())
	require.Equal(t, uint32(0), g.ExpectedDataLength())
	require.NoError(t, g.Validate())
}

func TestCodedVideoRejectsUnitOffsetPastPayload(t *testing.T) {
	g := NewCodedVideo(testHeader(), CodedVideoPayload{
		UnitOffsets: []uint32{0, 10},
	}, make([]byte, 10))
	require.Error(t, g.Validate())
}

func TestValidateRejectsMismatchedVariant(t *testing.T) {
	g := &Grain{GrainType: Video}
	require.Error(t, g.Validate())
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewVideo(testHeader(), VideoPayload{
		Components: Components{{Length: 4}},
	}, []byte{1, 2, 3, 4})

	clone, err := g.Clone()
	require.NoError(t, err)

	clone.Video.Components[0].Length = 99
	require.Equal(t, uint32(4), g.Video.Components[0].Length)

	data, _ := clone.Data.Bytes()
	data[0] = 0xFF
	orig, _ := g.Data.Bytes()
	require.Equal(t, byte(1), orig[0])
}

func TestGrainTypeString(t *testing.T) {
	require.Equal(t, "coded_video", CodedVideo.String())
	require.Equal(t, "event", Event.String())
}
