package gsf

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bbc/gsf/pkg/ssb/block"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

func TestTagRoundTrip(t *testing.T) {
	tag := NewTag("color", "yuv")
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	writeTagBlock(w, tag)
	require.NoError(t, w.Err())

	pr := primitive.NewReader(buf)
	h, err := block.ReadHeader(pr)
	require.NoError(t, err)
	require.Equal(t, block.NewTag("tag "), h.Tag)

	got, err := readTagBlock(pr)
	require.NoError(t, err)
	require.Equal(t, "color", got.Key.String())
	require.Equal(t, "yuv", got.Val.String())
}

func TestHeadBlockRoundTripV8(t *testing.T) {
	f := File{
		FileID:  uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"),
		Created: primitive.DateTime{Year: 2026, Month: 8, Day: 6, Hour: 12, Minute: 0, Second: 0},
		Segments: []Segment{
			{LocalID: 1, ID: uuid.MustParse("11223344-5566-7788-99aa-bbccddeeff00"), Count: 3},
		},
		Tags: []Tag{NewTag("k", "v")},
	}

	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	writeHeadBlock(w, f)
	require.NoError(t, w.Err())

	pr := primitive.NewReader(buf)
	h, err := block.ReadHeader(pr)
	require.NoError(t, err)
	payloadLen, err := h.PayloadLen()
	require.NoError(t, err)

	got, err := readHeadBlock(8, payloadLen, buf)
	require.NoError(t, err)
	require.Equal(t, f.FileID, got.FileID)
	require.Equal(t, f.Created, got.Created)
	require.Len(t, got.Segments, 1)
	require.Equal(t, uint16(1), got.Segments[0].LocalID)
	require.Equal(t, int64(3), got.Segments[0].Count)
	require.Len(t, got.Tags, 1)
	require.Equal(t, "k", got.Tags[0].Key.String())
}

func TestDuplicateLocalIDRejected(t *testing.T) {
	f := File{
		FileID: uuid.New(),
		Segments: []Segment{
			{LocalID: 1, ID: uuid.New(), Count: 0},
			{LocalID: 1, ID: uuid.New(), Count: 0},
		},
	}
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	writeHeadBlock(w, f)
	require.NoError(t, w.Err())

	pr := primitive.NewReader(buf)
	h, err := block.ReadHeader(pr)
	require.NoError(t, err)
	payloadLen, err := h.PayloadLen()
	require.NoError(t, err)

	_, err = readHeadBlock(8, payloadLen, buf)
	require.Error(t, err)
}

func TestSegmentByLocalID(t *testing.T) {
	f := File{Segments: []Segment{{LocalID: 5, ID: uuid.New()}}}
	seg, ok := f.SegmentByLocalID(5)
	require.True(t, ok)
	require.Equal(t, uint16(5), seg.LocalID)

	_, ok = f.SegmentByLocalID(6)
	require.False(t, ok)
}
