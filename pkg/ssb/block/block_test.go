package block

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bbc/gsf/pkg/ssb/primitive"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := FileHeader{FileType: NewTag("grsg"), Major: 8, Minor: 0}
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	WriteFileHeader(w, h)
	require.NoError(t, w.Err())
	require.Equal(t, []byte{'S', 'S', 'B', 'B', 'g', 'r', 's', 'g', 8, 0, 0, 0}, buf.Bytes())

	got, err := ReadFileHeader(primitive.NewReader(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestFileHeaderBadSignature(t *testing.T) {
	_, err := ReadFileHeader(primitive.NewReader(bytes.NewReader([]byte("XXXXgrsg\x08\x00\x00\x00"))))
	require.Error(t, err)
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := Header{Tag: NewTag("grai"), Size: 42}
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	WriteHeader(w, h)
	require.NoError(t, w.Err())

	got, err := ReadHeader(primitive.NewReader(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	require.Equal(t, h, got)

	payloadLen, err := got.PayloadLen()
	require.NoError(t, err)
	require.Equal(t, 34, payloadLen)
}

func TestPayloadLenUnderflowsHeader(t *testing.T) {
	h := Header{Tag: NewTag("grai"), Size: 4}
	_, err := h.PayloadLen()
	require.Error(t, err)
}

func TestChildIteratorSkipsUnknownBlocks(t *testing.T) {
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	// Unknown child.
	WriteBlock(w, NewTag("xxxx"), 4, func(w *primitive.Writer) {
		w.TryWriteUint(4, 0xDEADBEEF)
	})
	// Known child.
	WriteBlock(w, NewTag("tag "), 3, func(w *primitive.Writer) {
		w.TryWriteFixedBytes([]byte{1, 2, 3})
	})
	require.NoError(t, w.Err())

	it := NewChildIterator(bytes.NewReader(buf.Bytes()), buf.Len())

	h1, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, NewTag("xxxx"), h1.Tag)
	require.NoError(t, it.Skip())

	h2, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, NewTag("tag "), h2.Tag)
	payload, err := it.Reader.ReadFixedBytes(3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, payload)

	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestChildIteratorRejectsOversizedChild(t *testing.T) {
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	WriteHeader(w, Header{Tag: NewTag("oops"), Size: 100})
	require.NoError(t, w.Err())

	it := NewChildIterator(bytes.NewReader(buf.Bytes()), 8) // Parent only has the 8 header octets.
	_, err := it.Next()
	require.Error(t, err)
}

func TestWriteFillIsSkippable(t *testing.T) {
	buf := &bytes.Buffer{}
	w := primitive.NewWriter(buf)
	WriteFill(w, 10)
	require.NoError(t, w.Err())
	require.Len(t, buf.Bytes(), HeaderSize+10)

	it := NewChildIterator(bytes.NewReader(buf.Bytes()), buf.Len())
	h, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, FillTag, h.Tag)
	require.NoError(t, it.Skip())
	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestSeekPastUsesSeekerWhenAvailable(t *testing.T) {
	r := bytes.NewReader([]byte("abcdefghij"))
	require.NoError(t, SeekPast(r, 4))
	rest, _ := io.ReadAll(r)
	require.Equal(t, []byte("efghij"), rest)
}
