package gsf

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/gsferrors"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

func testGrain() *grain.Grain {
	return grain.NewEmpty(testGrainHeader())
}

func TestEncoderBasicLifecycleOnSeekableSink(t *testing.T) {
	sink := &seekBuffer{}
	enc := New(sink, uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"),
		primitive.DateTime{Year: 2026, Month: 8, Day: 6})

	seg, err := enc.AddSegment(1, uuid.MustParse("11223344-5566-7788-99aa-bbccddeeff00"))
	require.NoError(t, err)

	require.NoError(t, enc.Start())

	for i := 0; i < 3; i++ {
		require.NoError(t, seg.AddGrain(testGrain()))
	}
	require.NoError(t, enc.End())
	require.Equal(t, StateClosed, enc.State())

	file, grains, err := DecodeAll(bytes.NewReader(sink.buf))
	require.NoError(t, err)
	require.Len(t, file.Segments, 1)
	require.Equal(t, int64(3), file.Segments[0].Count)
	require.Len(t, grains[1], 3)
}

func TestEncoderNonSeekableSinkLeavesCountUnknown(t *testing.T) {
	var buf bytes.Buffer
	enc := New(&onlyWriter{&buf}, uuid.New(), primitive.DateTime{Year: 2026, Month: 1, Day: 1})

	seg, err := enc.AddSegment(7, uuid.New())
	require.NoError(t, err)
	require.NoError(t, enc.Start())
	require.NoError(t, seg.AddGrain(testGrain()))
	require.NoError(t, enc.End())

	file, grains, err := DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, int64(-1), file.Segments[0].Count)
	require.Len(t, grains[7], 1)
}

// onlyWriter hides any Seek method a concrete io.Writer might have,
// so the encoder treats the sink as non-seekable.
type onlyWriter struct {
	w io.Writer
}

func (o *onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }

func TestEncoderAddSegmentAfterStartFails(t *testing.T) {
	sink := &seekBuffer{}
	enc := New(sink, uuid.New(), primitive.DateTime{})
	require.NoError(t, enc.Start())

	_, err := enc.AddSegment(1, uuid.New())
	require.ErrorIs(t, err, gsferrors.ErrEncoderState)
	require.Equal(t, StateFailed, enc.State())
}

func TestEncoderAddGrainBeforeStartFails(t *testing.T) {
	sink := &seekBuffer{}
	enc := New(sink, uuid.New(), primitive.DateTime{})
	seg, err := enc.AddSegment(1, uuid.New())
	require.NoError(t, err)

	err = seg.AddGrain(testGrain())
	require.ErrorIs(t, err, gsferrors.ErrEncoderState)
}

func TestEncoderDoubleStartFails(t *testing.T) {
	sink := &seekBuffer{}
	enc := New(sink, uuid.New(), primitive.DateTime{})
	require.NoError(t, enc.Start())
	require.ErrorIs(t, enc.Start(), gsferrors.ErrEncoderState)
}

func TestEncoderDuplicateSegmentLocalIDFails(t *testing.T) {
	sink := &seekBuffer{}
	enc := New(sink, uuid.New(), primitive.DateTime{})
	_, err := enc.AddSegment(1, uuid.New())
	require.NoError(t, err)
	_, err = enc.AddSegment(1, uuid.New())
	require.ErrorIs(t, err, gsferrors.ErrDuplicateLocalID)
}

func TestEncoderStickyFailurePropagates(t *testing.T) {
	sink := &seekBuffer{}
	enc := New(sink, uuid.New(), primitive.DateTime{})
	require.NoError(t, enc.Start())

	_, err := enc.AddSegment(1, uuid.New())
	require.Error(t, err)
	require.Equal(t, StateFailed, enc.State())

	// Every further call observes the sticky failure.
	_, err = enc.AddSegment(2, uuid.New())
	require.Error(t, err)
	require.Equal(t, enc.Err(), err)
}

func TestEncoderMultiSegmentCountsBackpatchedIndependently(t *testing.T) {
	sink := &seekBuffer{}
	enc := New(sink, uuid.New(), primitive.DateTime{})

	seg1, err := enc.AddSegment(1, uuid.New())
	require.NoError(t, err)
	seg2, err := enc.AddSegment(2, uuid.New())
	require.NoError(t, err)
	require.NoError(t, enc.Start())

	require.NoError(t, seg1.AddGrain(testGrain()))
	require.NoError(t, seg1.AddGrain(testGrain()))
	require.NoError(t, seg2.AddGrain(testGrain()))
	require.NoError(t, enc.End())

	file, _, err := DecodeAll(bytes.NewReader(sink.buf))
	require.NoError(t, err)
	s1, _ := file.SegmentByLocalID(1)
	s2, _ := file.SegmentByLocalID(2)
	require.Equal(t, int64(2), s1.Count)
	require.Equal(t, int64(1), s2.Count)
}
